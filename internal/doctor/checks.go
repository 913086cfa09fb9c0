package doctor

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/rileyhilliard/skm/internal/agent"
	"github.com/rileyhilliard/skm/internal/config"
)

// DefaultChecks builds the standard check set for a loaded configuration.
func DefaultChecks(cfg *config.Config, bridge agent.Bridge) []Check {
	return []Check{
		&SSHKeygenCheck{},
		&AgentSocketCheck{Bridge: bridge},
		&KeyDirCheck{Dir: cfg.Keys.Dir},
		&TrashDirCheck{Dir: cfg.Keys.TrashDir},
		&ConfigCheck{Path: cfg.Path},
	}
}

// SSHKeygenCheck verifies ssh-keygen is installed. Key creation shells
// out to it, so a missing binary breaks create.
type SSHKeygenCheck struct{}

func (c *SSHKeygenCheck) Name() string { return "ssh_keygen" }

func (c *SSHKeygenCheck) Run() CheckResult {
	path, err := exec.LookPath("ssh-keygen")
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    "ssh-keygen not found in PATH",
			Suggestion: "Install OpenSSH: brew install openssh (macOS) or apt install openssh-client (Linux)",
		}
	}
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: "ssh-keygen found at " + path,
	}
}

func (c *SSHKeygenCheck) Fix() error { return nil }

// AgentSocketCheck verifies the SSH agent answers on its socket. An
// unreachable agent is a warning: listing keys still works without one.
type AgentSocketCheck struct {
	Bridge agent.Bridge
}

func (c *AgentSocketCheck) Name() string { return "ssh_agent" }

func (c *AgentSocketCheck) Run() CheckResult {
	ids, err := c.Bridge.List()
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    "SSH agent is not reachable",
			Suggestion: "Start one with: eval \"$(ssh-agent -s)\"",
		}
	}
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("agent reachable, %d identit%s loaded", len(ids), plural(len(ids), "y", "ies")),
	}
}

func (c *AgentSocketCheck) Fix() error { return nil }

// KeyDirCheck verifies the key directory exists with sane permissions.
type KeyDirCheck struct {
	Dir string
}

func (c *KeyDirCheck) Name() string { return "key_dir" }

func (c *KeyDirCheck) Run() CheckResult {
	info, err := os.Stat(c.Dir)
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    "key directory does not exist: " + c.Dir,
			Suggestion: "Create it with: mkdir -p -m 700 " + c.Dir,
			Fixable:    true,
		}
	}
	if !info.IsDir() {
		return CheckResult{
			Name:    c.Name(),
			Status:  StatusFail,
			Message: c.Dir + " is not a directory",
		}
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    fmt.Sprintf("key directory is %o, expected 700", perm),
			Suggestion: "Tighten it with: chmod 700 " + c.Dir,
		}
	}
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: "key directory " + c.Dir,
	}
}

func (c *KeyDirCheck) Fix() error {
	return os.MkdirAll(c.Dir, 0o700)
}

// TrashDirCheck verifies the trash directory exists or can be created.
// Deletes move files there, so an unwritable trash blocks delete.
type TrashDirCheck struct {
	Dir string
}

func (c *TrashDirCheck) Name() string { return "trash_dir" }

func (c *TrashDirCheck) Run() CheckResult {
	info, err := os.Stat(c.Dir)
	if err == nil {
		if !info.IsDir() {
			return CheckResult{
				Name:    c.Name(),
				Status:  StatusFail,
				Message: c.Dir + " is not a directory",
			}
		}
		return CheckResult{
			Name:    c.Name(),
			Status:  StatusPass,
			Message: "trash directory " + c.Dir,
		}
	}

	// Missing is fine as long as it can be created on first delete.
	if err := os.MkdirAll(c.Dir, 0o700); err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    "cannot create trash directory: " + c.Dir,
			Suggestion: "Check permissions on its parent directory",
		}
	}
	os.Remove(c.Dir)
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: "trash directory creatable at " + c.Dir,
	}
}

func (c *TrashDirCheck) Fix() error {
	return os.MkdirAll(c.Dir, 0o700)
}

// ConfigCheck validates the loaded config file, if one exists.
type ConfigCheck struct {
	Path string
}

func (c *ConfigCheck) Name() string { return "config" }

func (c *ConfigCheck) Run() CheckResult {
	if c.Path == "" {
		return CheckResult{
			Name:    c.Name(),
			Status:  StatusPass,
			Message: "no config file, using defaults",
		}
	}
	cfg, err := config.Load(c.Path)
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    "config file is invalid: " + c.Path,
			Suggestion: err.Error(),
		}
	}
	if err := cfg.Validate(); err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    "config file is invalid: " + c.Path,
			Suggestion: err.Error(),
		}
	}
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: "config " + c.Path,
	}
}

func (c *ConfigCheck) Fix() error { return nil }

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
