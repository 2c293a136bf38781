// Package prefs handles CLI user preferences persistence.
// Preferences are stored in ~/.config/atlasapi/prefs.toml.
package prefs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/atlasapi/internal/config"
	"github.com/five82/atlasapi/internal/prompt"
)

// Prefs holds user preferences for the login prompt.
type Prefs struct {
	Theme    string `toml:"theme"`
	Username string `toml:"username,omitempty"`
}

const defaultPrefsPath = "~/.config/atlasapi/prefs.toml"

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Load reads preferences from the given path, falling back to defaults if the
// file is missing or unreadable. Preferences never block a command.
func Load(path string) (Prefs, error) {
	prefs := Prefs{Theme: prompt.DefaultTheme}

	resolved, err := resolvePath(path)
	if err != nil {
		return prefs, nil
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return prefs, nil // Graceful degradation
	}
	if err := toml.Unmarshal(data, &prefs); err != nil {
		return Prefs{Theme: prompt.DefaultTheme}, nil // Graceful degradation
	}

	if strings.TrimSpace(prefs.Theme) == "" {
		prefs.Theme = prompt.DefaultTheme
	}
	prefs.Username = strings.TrimSpace(prefs.Username)
	return prefs, nil
}

// Save writes preferences to the given path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, data, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return config.ExpandPath(DefaultPath())
	}
	return config.ExpandPath(path)
}
