package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// EnvConfigPath overrides the default config location.
	EnvConfigPath     = "ATLAS_API_CONFIG"
	defaultConfigPath = "~/.config/atlasapi/config.yaml"
)

// DefaultPath returns the unexpanded default config path.
func DefaultPath() string {
	return defaultConfigPath
}

// Resolve picks the config path: an explicit path wins, then
// $ATLAS_API_CONFIG, then ~/.config/atlasapi/config.yaml. The result is
// absolute with ~ expanded.
func Resolve(path string) (string, error) {
	if strings.TrimSpace(path) != "" {
		return ExpandPath(path)
	}
	if env := strings.TrimSpace(os.Getenv(EnvConfigPath)); env != "" {
		return ExpandPath(env)
	}
	return ExpandPath(DefaultPath())
}

// ExpandPath expands a leading ~ and makes path absolute.
func ExpandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
