package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rileyhilliard/skm/internal/errors"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the default config file name.
	ConfigFileName = ".skm.yaml"
	// GlobalConfigDir is the directory for global config.
	GlobalConfigDir = ".config/skm"
	// GlobalConfigFile is the global config file name.
	GlobalConfigFile = "config.yaml"
)

// Default returns the built-in configuration used when no config file exists.
func Default() *Config {
	home, _ := os.UserHomeDir()
	keyDir := filepath.Join(home, ".ssh")
	return &Config{
		Version: CurrentConfigVersion,
		Keys: KeysConfig{
			Dir:      keyDir,
			TrashDir: filepath.Join(keyDir, ".skm-trash"),
		},
		Agent: AgentConfig{
			Socket: "", // resolved to $SSH_AUTH_SOCK by the agent bridge
		},
		Log: LogConfig{
			MaxEntries: 200,
			File:       "",
		},
		Queue: QueueConfig{
			Size: 8,
		},
	}
}

// Load reads config from the specified path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Config file not found",
				"Run 'skm init' to create a config file, or specify one with --config")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read config file",
			"Check the file exists and is valid YAML")
	}

	return parseConfig(v, path)
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. .skm.yaml in current directory
// 3. ~/.config/skm/config.yaml (global defaults)
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine current directory",
			"Check directory permissions")
	}

	localConfig := filepath.Join(cwd, ConfigFileName)
	if _, err := os.Stat(localConfig); err == nil {
		return localConfig, nil
	}

	home, _ := os.UserHomeDir()
	if home != "" {
		globalConfig := filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
		if _, err := os.Stat(globalConfig); err == nil {
			return globalConfig, nil
		}
	}

	return "", nil
}

// LoadOrDefault loads config from the found path, or returns defaults if
// no config file exists anywhere in the search order.
func LoadOrDefault(explicit string) (*Config, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, err
	}
	if path == "" {
		cfg := Default()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return Load(path)
}

// parseConfig unmarshals viper values into a Config, applying defaults for
// anything the file leaves unset.
func parseConfig(v *viper.Viper, path string) (*Config, error) {
	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Config file has invalid structure",
			"Compare your file against the example in 'skm init'")
	}
	cfg.Path = path

	cfg.Keys.Dir = ExpandHome(cfg.Keys.Dir)
	cfg.Keys.TrashDir = ExpandHome(cfg.Keys.TrashDir)
	if cfg.Keys.TrashDir == "" {
		cfg.Keys.TrashDir = filepath.Join(cfg.Keys.Dir, ".skm-trash")
	}
	cfg.Log.File = ExpandHome(cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path == "" || !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, strings.TrimPrefix(path[1:], string(filepath.Separator)))
}
