// Package config assembles runtime settings from the environment. Every
// setting has a default so the tool works with zero configuration.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	// EnvCacheDir overrides where durable score cache entries live.
	EnvCacheDir = "MSCORE_CACHE_DIR"
	// EnvMaxDepth overrides how deep lineage discovery walks.
	EnvMaxDepth = "MSCORE_MAX_DEPTH"
	// EnvEndpoint overrides the hub API endpoint.
	EnvEndpoint = "HUGGINGFACEHUB_ENDPOINT"

	// hub token env vars, checked in order
	envToken    = "HUGGINGFACEHUB_API_TOKEN"
	envTokenAlt = "HF_API_TOKEN"

	appDirName      = ".mscore"
	scoreDirName    = "scores"
	maxDepthDefault = 10

	dirMode = 0700
)

// Config is the resolved runtime configuration.
type Config struct {
	// CacheDir is the root directory for durable score cache entries.
	CacheDir string
	// MaxDepth bounds lineage discovery.
	MaxDepth int
	// Endpoint is the hub API endpoint, empty for the public hub.
	Endpoint string
	// Token is the hub API token, empty for anonymous access.
	Token string
}

// Load reads configuration from a .env file (if present) and the
// environment, falling back to defaults.
func Load() *Config {
	_ = godotenv.Load()

	cacheDir := strings.TrimSpace(os.Getenv(EnvCacheDir))
	if cacheDir == "" {
		cacheDir = filepath.Join(getHomeDir(), scoreDirName)
	}

	depth := maxDepthDefault
	if v := strings.TrimSpace(os.Getenv(EnvMaxDepth)); v != "" {
		if d, err := strconv.Atoi(v); err == nil && d >= 0 {
			depth = d
		}
	}

	return &Config{
		CacheDir: cacheDir,
		MaxDepth: depth,
		Endpoint: strings.TrimSpace(os.Getenv(EnvEndpoint)),
		Token:    firstNonEmpty(os.Getenv(envToken), os.Getenv(envTokenAlt)),
	}
}

// GetOrCreateHomeDir returns the app directory under the user's home,
// creating it on first use. The create flag is set if it was created.
func GetOrCreateHomeDir() (path string, created bool, err error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", false, errors.Wrap(err, "failed to get user home dir")
	}

	dir := filepath.Join(home, appDirName)
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		if err := os.Mkdir(dir, dirMode); err != nil {
			return "", false, errors.Wrapf(err, "failed to create dir: %s", dir)
		}
		created = true
	}
	return dir, created, nil
}

// getHomeDir returns the app directory, falling back to the current dir
// when the home dir is not resolvable.
func getHomeDir() string {
	dir, _, err := GetOrCreateHomeDir()
	if err != nil {
		return "."
	}
	return dir
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
