package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPaths returns the search order for config files.
func DefaultConfigPaths() []string {
	paths := []string{"config.yaml", "config.json"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "prtgwatch", "config.yaml"))
	}
	paths = append(paths, "/etc/prtgwatch/config.yaml")
	return paths
}

// Resolve loads the config from the given explicit path, or searches the
// default locations. Overrides run right after loading, then defaults are
// applied and the result is validated.
func Resolve(explicit string, overrides ...func(*Config)) (*Config, error) {
	path, err := FindConfig(explicit)
	if err != nil {
		return nil, err
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	for _, override := range overrides {
		override(cfg)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// FindConfig returns explicit if it exists, otherwise the first default
// location that does.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultConfigPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched %v)", DefaultConfigPaths())
}
