// Package auth stores the hub API token in the OS keychain, with a plain
// file fallback for headless environments.
package auth

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/zalando/go-keyring"
)

const (
	keyringService = "mscore"
	keyringUser    = "hub_token"
	tokenFileName  = "hub_token"

	fileMode = 0600
)

// SaveToken stores the token in the keychain, falling back to a file under
// dir when no keychain is available.
func SaveToken(dir, token string) error {
	if token == "" {
		return errors.New("token is required")
	}

	if err := keyring.Set(keyringService, keyringUser, token); err != nil {
		slog.Warn("keychain unavailable, falling back to file", "error", err)
		return saveTokenFile(dir, token)
	}

	// clean up a previous file fallback
	os.Remove(filepath.Join(dir, tokenFileName))

	return nil
}

// GetToken returns the stored token, preferring the keychain. A token found
// only in the file fallback is migrated to the keychain when possible.
// Returns an empty string when no token is stored.
func GetToken(dir string) string {
	token, err := keyring.Get(keyringService, keyringUser)
	if err == nil && token != "" {
		return token
	}

	token = getTokenFile(dir)
	if token == "" {
		return ""
	}

	if migrateErr := keyring.Set(keyringService, keyringUser, token); migrateErr == nil {
		slog.Info("migrated token from file to OS keychain")
		os.Remove(filepath.Join(dir, tokenFileName))
	}

	return token
}

func saveTokenFile(dir, token string) error {
	path := filepath.Join(dir, tokenFileName)
	if err := os.WriteFile(path, []byte(token), fileMode); err != nil {
		return errors.Wrapf(err, "failed to write token file: %s", path)
	}
	return nil
}

func getTokenFile(dir string) string {
	b, err := os.ReadFile(filepath.Join(dir, tokenFileName))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}
