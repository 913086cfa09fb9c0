package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/skm/internal/cmdlog"
	"github.com/rileyhilliard/skm/internal/config"
	"github.com/rileyhilliard/skm/internal/keystore"
	"github.com/rileyhilliard/skm/internal/logger"
	"github.com/rileyhilliard/skm/internal/orchestrator"
)

func TestFormatVersion(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"dev", "dev"},
		{"", ""},
		{"1.2.3", "v1.2.3"},
		{"v1.2.3", "v1.2.3"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatVersion(tt.in))
	}
}

func TestResolveTarget(t *testing.T) {
	dir := t.TempDir()
	orc := orchestrator.New(orchestrator.Deps{
		Store:    keystore.New(dir, logger.Noop()),
		Log:      cmdlog.New(10, logger.Noop()),
		TrashDir: filepath.Join(dir, "trash"),
	})

	assert.Equal(t, filepath.Join(dir, "work"), resolveTarget(orc, "work"))
	assert.Equal(t, "/tmp/elsewhere/key", resolveTarget(orc, "/tmp/elsewhere/key"))
}

func TestWithOrchestratorCfg(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Keys.Dir = dir
	cfg.Keys.TrashDir = filepath.Join(dir, ".skm-trash")

	var got string
	err := withOrchestratorCfg(cfg, false, func(orc *orchestrator.Orchestrator) error {
		got = orc.KeyPath("work")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "work"), got)
}

func TestShortTarget(t *testing.T) {
	assert.Equal(t, "id_ed25519", shortTarget("/home/u/.ssh/id_ed25519"))
	assert.Equal(t, "plain", shortTarget("plain"))
}

func TestRootCommandWiring(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"tui", "list", "create", "add", "remove", "delete", "copy", "view", "log", "init", "doctor", "completion", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}
