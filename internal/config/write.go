package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rileyhilliard/skm/internal/errors"
	"gopkg.in/yaml.v3"
)

// configHeader is prepended to generated config files.
const configHeader = `# skm configuration
# Generated by 'skm init'. All fields are optional; unset fields use
# built-in defaults.
`

// Write serializes the config to YAML and writes it to path.
func (c *Config) Write(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to serialize config",
			"This shouldn't happen - please report this bug!")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Failed to create config directory: %s", dir),
			"Check permissions on the parent directory")
	}

	content := append([]byte(configHeader), data...)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Failed to write config file: %s", path),
			"Check directory permissions")
	}

	return nil
}
