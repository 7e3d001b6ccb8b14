package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultSettingsFile is the settings file name searched for by FindSettingsFile.
const DefaultSettingsFile = ".sitemapper.yaml"

// LoadSettingsFile reads Settings from a YAML file.
// A missing file yields ErrSettingsNotFound.
func LoadSettingsFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided settings path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSettingsNotFound
		}
		return nil, err
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// FindSettingsFile looks for the settings file in this order:
//  1. settingsPath, when given
//  2. the current directory
//  3. the XDG config directory
//  4. the user's home directory
//
// It returns an empty string when nothing is found.
func FindSettingsFile(settingsPath string) string {
	if settingsPath != "" {
		if _, err := os.Stat(settingsPath); err == nil {
			return settingsPath
		}
		return ""
	}

	candidates := make([]string, 0, 3)
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultSettingsFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), DefaultSettingsFile))
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultSettingsFile))
	}

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}
