package config

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// Config represents the complete .skm.yaml configuration file.
type Config struct {
	Version int         `yaml:"version" mapstructure:"version"`
	Keys    KeysConfig  `yaml:"keys" mapstructure:"keys"`
	Agent   AgentConfig `yaml:"agent" mapstructure:"agent"`
	Log     LogConfig   `yaml:"log" mapstructure:"log"`
	Queue   QueueConfig `yaml:"queue" mapstructure:"queue"`

	// Path is where this config was loaded from (empty for defaults).
	Path string `yaml:"-" mapstructure:"-"`
}

// KeysConfig controls where key material lives on disk.
type KeysConfig struct {
	// Dir is the directory scanned for key pairs. Supports ~ expansion.
	Dir string `yaml:"dir" mapstructure:"dir"`

	// TrashDir is where deleted keys are moved. Deletes are moves, never
	// unlinks, so a key can always be recovered from here.
	TrashDir string `yaml:"trash_dir" mapstructure:"trash_dir"`
}

// AgentConfig controls how the running SSH agent is reached.
type AgentConfig struct {
	// Socket is the agent socket path. Empty means $SSH_AUTH_SOCK.
	Socket string `yaml:"socket" mapstructure:"socket"`
}

// LogConfig controls the in-session command log.
type LogConfig struct {
	// MaxEntries caps the in-memory log; oldest entries are dropped.
	MaxEntries int `yaml:"max_entries" mapstructure:"max_entries"`

	// File, if set, appends every entry as a JSON line so the log
	// survives restarts. Empty means in-memory only.
	File string `yaml:"file" mapstructure:"file"`
}

// QueueConfig controls the orchestrator intent queue.
type QueueConfig struct {
	// Size is the number of pending intents accepted before new ones
	// are rejected as busy.
	Size int `yaml:"size" mapstructure:"size"`
}
