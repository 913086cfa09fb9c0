package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NotNil(t, cfg)
	assert.Equal(t, CurrentConfigVersion, cfg.Version)
	assert.Contains(t, cfg.Keys.Dir, ".ssh")
	assert.Contains(t, cfg.Keys.TrashDir, ".skm-trash")
	assert.Equal(t, 200, cfg.Log.MaxEntries)
	assert.Empty(t, cfg.Log.File, "persistence is opt-in")
	assert.Equal(t, 8, cfg.Queue.Size)
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)

	content := `version: 1
keys:
  dir: ` + dir + `/keys
  trash_dir: ` + dir + `/trash
log:
  max_entries: 50
  file: ` + dir + `/cmdlog.jsonl
queue:
  size: 4
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "keys"), cfg.Keys.Dir)
	assert.Equal(t, filepath.Join(dir, "trash"), cfg.Keys.TrashDir)
	assert.Equal(t, 50, cfg.Log.MaxEntries)
	assert.Equal(t, filepath.Join(dir, "cmdlog.jsonl"), cfg.Log.File)
	assert.Equal(t, 4, cfg.Queue.Size)
	assert.Equal(t, path, cfg.Path)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_PartialFileGetsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("version: 1\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	// Unset fields fall back to defaults
	assert.Equal(t, 200, cfg.Log.MaxEntries)
	assert.Equal(t, 8, cfg.Queue.Size)
	assert.NotEmpty(t, cfg.Keys.Dir)
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("keys: [not: a, map"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "future version rejected",
			mutate:  func(c *Config) { c.Version = CurrentConfigVersion + 1 },
			wantErr: true,
		},
		{
			name:    "empty key dir rejected",
			mutate:  func(c *Config) { c.Keys.Dir = "" },
			wantErr: true,
		},
		{
			name:    "trash dir equal to key dir rejected",
			mutate:  func(c *Config) { c.Keys.TrashDir = c.Keys.Dir },
			wantErr: true,
		},
		{
			name:    "zero max entries rejected",
			mutate:  func(c *Config) { c.Log.MaxEntries = 0 },
			wantErr: true,
		},
		{
			name:    "zero queue size rejected",
			mutate:  func(c *Config) { c.Queue.Size = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".ssh"), ExpandHome("~/.ssh"))
	assert.Equal(t, home, ExpandHome("~"))
	assert.Equal(t, "/abs/path", ExpandHome("/abs/path"))
	assert.Equal(t, "", ExpandHome(""))
}

func TestWriteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)

	cfg := Default()
	cfg.Keys.Dir = filepath.Join(dir, "keys")
	cfg.Keys.TrashDir = filepath.Join(dir, "keys", ".skm-trash")
	cfg.Log.MaxEntries = 99
	require.NoError(t, cfg.Write(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Keys.Dir, loaded.Keys.Dir)
	assert.Equal(t, 99, loaded.Log.MaxEntries)
}

func TestFind_ExplicitMissing(t *testing.T) {
	_, err := Find(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
