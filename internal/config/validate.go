package config

import (
	"fmt"

	"github.com/rileyhilliard/skm/internal/errors"
)

// Validate checks the config for values that would misbehave at runtime.
// It returns the first problem found as a structured config error.
func (c *Config) Validate() error {
	if c.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Config version %d is newer than this build supports (%d)", c.Version, CurrentConfigVersion),
			"Update skm, or lower the version field in your config")
	}

	if c.Keys.Dir == "" {
		return errors.New(errors.ErrConfig,
			"keys.dir is empty",
			"Set keys.dir to your SSH key directory (usually ~/.ssh)")
	}

	if c.Keys.TrashDir == c.Keys.Dir {
		return errors.New(errors.ErrConfig,
			"keys.trash_dir must differ from keys.dir",
			"Use a subdirectory, e.g. ~/.ssh/.skm-trash")
	}

	if c.Log.MaxEntries < 1 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("log.max_entries must be positive, got %d", c.Log.MaxEntries),
			"Use a value like 200")
	}

	if c.Queue.Size < 1 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("queue.size must be positive, got %d", c.Queue.Size),
			"Use a small value like 8")
	}

	return nil
}
