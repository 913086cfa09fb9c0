package keystore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rileyhilliard/skm/internal/logger"
	"github.com/rileyhilliard/skm/internal/sshtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefresh_PairsKeys(t *testing.T) {
	dir := t.TempDir()
	pair := sshtest.WriteEd25519(t, dir, "id_ed25519", "alice@laptop")
	sshtest.WriteEd25519(t, dir, "work", "alice@work")

	s := New(dir, logger.Noop())
	require.NoError(t, s.Refresh())

	require.Equal(t, 2, s.Len())

	rec, err := s.Get(pair.PrivatePath)
	require.NoError(t, err)
	assert.Equal(t, "id_ed25519", rec.Name)
	assert.Equal(t, pair.PrivatePath+".pub", rec.PublicPath)
	assert.Equal(t, TypeEd25519, rec.Type)
	assert.Equal(t, 0, rec.Bits, "ed25519 is fixed-length")
	assert.Equal(t, "alice@laptop", rec.Comment)
	assert.False(t, rec.LoadedInAgent)
}

func TestRefresh_RSABits(t *testing.T) {
	dir := t.TempDir()
	pair := sshtest.WriteRSA(t, dir, "id_rsa", "alice@laptop", 2048)

	s := New(dir, logger.Noop())
	require.NoError(t, s.Refresh())

	rec, err := s.Get(pair.PrivatePath)
	require.NoError(t, err)
	assert.Equal(t, TypeRSA, rec.Type)
	assert.Equal(t, 2048, rec.Bits)
}

func TestRefresh_SkipsNonPairFiles(t *testing.T) {
	dir := t.TempDir()
	sshtest.WriteEd25519(t, dir, "id_ed25519", "c")

	// Known non-key files and unpaired halves
	require.NoError(t, os.WriteFile(filepath.Join(dir, "known_hosts"), []byte("host ssh-ed25519 AAAA\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config"), []byte("Host example\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "orphan.pub"), []byte("junk\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lonely_private"), []byte("junk\n"), 0o600))

	s := New(dir, logger.Noop())
	require.NoError(t, s.Refresh())

	assert.Equal(t, 1, s.Len())
	extras := s.Extras()
	assert.Contains(t, extras, "known_hosts")
	assert.Contains(t, extras, "config")
	assert.Contains(t, extras, "orphan.pub")
	assert.Contains(t, extras, "lonely_private")
}

func TestRefresh_UnreadableDirIsScanError(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "does-not-exist"), logger.Noop())
	err := s.Refresh()
	assert.Error(t, err)
}

func TestRefresh_CorruptPublicKeyWarnsAndSkips(t *testing.T) {
	dir := t.TempDir()
	sshtest.WriteEd25519(t, dir, "good", "c")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad"), []byte("private"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.pub"), []byte("not a key"), 0o644))

	log := logger.NewBufferLogger()
	s := New(dir, log)
	require.NoError(t, s.Refresh())

	assert.Equal(t, 1, s.Len(), "corrupt pair must not enter the store")
	assert.NotEmpty(t, s.Warnings())
	assert.True(t, log.HasLevel("warn"))
}

func TestRefresh_EvictsVanishedKeys(t *testing.T) {
	dir := t.TempDir()
	pair := sshtest.WriteEd25519(t, dir, "gone", "c")

	s := New(dir, logger.Noop())
	require.NoError(t, s.Refresh())
	require.Equal(t, 1, s.Len())

	require.NoError(t, os.Remove(pair.PrivatePath))
	require.NoError(t, os.Remove(pair.PublicPath))
	require.NoError(t, s.Refresh())

	assert.Equal(t, 0, s.Len())
	_, err := s.Get(pair.PrivatePath)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRefresh_PreservesLoadedFlag(t *testing.T) {
	dir := t.TempDir()
	pair := sshtest.WriteEd25519(t, dir, "k", "c")

	s := New(dir, logger.Noop())
	require.NoError(t, s.Refresh())

	rec, err := s.Get(pair.PrivatePath)
	require.NoError(t, err)
	rec.LoadedInAgent = true

	require.NoError(t, s.Refresh())
	rec, err = s.Get(pair.PrivatePath)
	require.NoError(t, err)
	assert.True(t, rec.LoadedInAgent)
}

func TestFingerprint(t *testing.T) {
	dir := t.TempDir()
	pair := sshtest.WriteEd25519(t, dir, "k", "c")

	s := New(dir, logger.Noop())
	require.NoError(t, s.Refresh())

	rec, err := s.Get(pair.PrivatePath)
	require.NoError(t, err)

	fp, err := rec.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, pair.Fingerprint, fp)
	assert.True(t, strings.HasPrefix(fp, "SHA256:"))

	// Cached value survives removal of the public file
	require.NoError(t, os.Remove(pair.PublicPath))
	fp2, err := rec.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, fp, fp2)
}

func TestGetByName(t *testing.T) {
	dir := t.TempDir()
	sshtest.WriteEd25519(t, dir, "deploy", "c")

	s := New(dir, logger.Noop())
	require.NoError(t, s.Refresh())

	rec, err := s.GetByName("deploy")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "deploy"), rec.Path)

	_, err = s.GetByName("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInsertAndRemove(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, logger.Noop())

	rec := &KeyRecord{Path: filepath.Join(dir, "new"), Name: "new", Type: TypeEd25519}
	s.Insert(rec)

	got, err := s.Get(rec.Path)
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	require.NoError(t, s.Remove(rec.Path))
	assert.ErrorIs(t, s.Remove(rec.Path), ErrNotFound)
}

func TestRecords_SortedByName(t *testing.T) {
	dir := t.TempDir()
	sshtest.WriteEd25519(t, dir, "zeta", "c")
	sshtest.WriteEd25519(t, dir, "alpha", "c")
	sshtest.WriteEd25519(t, dir, "mid", "c")

	s := New(dir, logger.Noop())
	require.NoError(t, s.Refresh())

	recs := s.Records()
	require.Len(t, recs, 3)
	assert.Equal(t, "alpha", recs[0].Name)
	assert.Equal(t, "mid", recs[1].Name)
	assert.Equal(t, "zeta", recs[2].Name)
}

func TestRefresh_AnnotatesHostsFromSSHConfig(t *testing.T) {
	dir := t.TempDir()
	pair := sshtest.WriteEd25519(t, dir, "deploy", "c")
	sshtest.WriteEd25519(t, dir, "other", "c")

	sshConfig := "Host prod\n  HostName prod.example.com\n  IdentityFile " + pair.PrivatePath + "\n" +
		"Host staging\n  IdentityFile " + pair.PrivatePath + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config"), []byte(sshConfig), 0o644))

	s := New(dir, logger.Noop())
	require.NoError(t, s.Refresh())

	rec, err := s.Get(pair.PrivatePath)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"prod", "staging"}, rec.Hosts)

	other, err := s.GetByName("other")
	require.NoError(t, err)
	assert.Empty(t, other.Hosts)
}
