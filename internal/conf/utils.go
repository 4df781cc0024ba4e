package conf

import (
	"os"
	"path/filepath"

	"github.com/tphakala/comingsoon/internal/errors"
)

// GetDefaultConfigPaths returns the directories searched for config.yaml,
// in order: the user config directory, the working directory, /etc.
// The first entry is where a default config is created.
func GetDefaultConfigPaths() ([]string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, errors.New(err).
			Component("configuration").
			Category(errors.CategoryConfiguration).
			Context("operation", "get-user-config-dir").
			Build()
	}

	return []string{
		filepath.Join(configDir, "comingsoon"),
		".",
		"/etc/comingsoon",
	}, nil
}

// FindConfigFile returns the first existing config.yaml on the search path.
func FindConfigFile() (string, error) {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return "", err
	}

	for _, path := range configPaths {
		configFilePath := filepath.Join(path, "config.yaml")
		if _, err := os.Stat(configFilePath); err == nil {
			return configFilePath, nil
		}
	}

	return "", errors.Newf("config file not found").
		Component("configuration").
		Category(errors.CategoryNotFound).
		Context("operation", "find-config-file").
		Build()
}
