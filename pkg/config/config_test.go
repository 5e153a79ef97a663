package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvCacheDir, "")
	t.Setenv(EnvMaxDepth, "")
	t.Setenv(EnvEndpoint, "")

	c := Load()
	assert.NotEmpty(t, c.CacheDir)
	assert.Equal(t, maxDepthDefault, c.MaxDepth)
	assert.Empty(t, c.Endpoint)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv(EnvCacheDir, "/tmp/mscore-test")
	t.Setenv(EnvMaxDepth, "3")
	t.Setenv(EnvEndpoint, "https://hub.example.com")
	t.Setenv("HUGGINGFACEHUB_API_TOKEN", "hf_test")

	c := Load()
	assert.Equal(t, "/tmp/mscore-test", c.CacheDir)
	assert.Equal(t, 3, c.MaxDepth)
	assert.Equal(t, "https://hub.example.com", c.Endpoint)
	assert.Equal(t, "hf_test", c.Token)
}

func TestLoad_BadDepthIgnored(t *testing.T) {
	t.Setenv(EnvMaxDepth, "not-a-number")
	assert.Equal(t, maxDepthDefault, Load().MaxDepth)

	t.Setenv(EnvMaxDepth, "-2")
	assert.Equal(t, maxDepthDefault, Load().MaxDepth)
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", firstNonEmpty("", " ", "b", "c"))
	assert.Empty(t, firstNonEmpty("", ""))
}
