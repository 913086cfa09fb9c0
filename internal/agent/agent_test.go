package agent

import (
	"net"
	"path/filepath"
	"testing"

	"github.com/rileyhilliard/skm/internal/logger"
	"github.com/rileyhilliard/skm/internal/sshtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sshagent "golang.org/x/crypto/ssh/agent"
)

// startAgent serves an in-memory keyring on a unix socket and returns the
// socket path. The listener is torn down with the test.
func startAgent(t *testing.T) (string, sshagent.Agent) {
	t.Helper()
	keyring := sshagent.NewKeyring()
	socket := filepath.Join(t.TempDir(), "agent.sock")

	l, err := net.Listen("unix", socket)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				_ = sshagent.ServeAgent(keyring, conn)
			}()
		}
	}()

	return socket, keyring
}

func TestList_EmptyAgent(t *testing.T) {
	socket, _ := startAgent(t)
	b := NewSocketBridge(socket, nil, logger.Noop())

	ids, err := b.List()
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestAddListRemove(t *testing.T) {
	socket, _ := startAgent(t)
	dir := t.TempDir()
	pair := sshtest.WriteEd25519(t, dir, "id_ed25519", "alice@laptop")

	b := NewSocketBridge(socket, nil, logger.Noop())

	require.NoError(t, b.Add(pair.PrivatePath))

	ids, err := b.List()
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, pair.Fingerprint, ids[0].Fingerprint)
	assert.Equal(t, "alice@laptop", ids[0].Comment)

	require.NoError(t, b.Remove(pair.Fingerprint))

	ids, err = b.List()
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestAdd_Idempotent(t *testing.T) {
	socket, _ := startAgent(t)
	dir := t.TempDir()
	pair := sshtest.WriteEd25519(t, dir, "k", "c")

	b := NewSocketBridge(socket, nil, logger.Noop())

	require.NoError(t, b.Add(pair.PrivatePath))
	require.NoError(t, b.Add(pair.PrivatePath), "second add is a no-op success")

	ids, err := b.List()
	require.NoError(t, err)
	assert.Len(t, ids, 1, "no duplicate identity")
}

func TestAdd_EncryptedWithoutPassphraseSource(t *testing.T) {
	socket, _ := startAgent(t)
	dir := t.TempDir()
	pair := sshtest.WriteEncryptedEd25519(t, dir, "locked", "c", "hunter2")

	b := NewSocketBridge(socket, nil, logger.Noop())

	err := b.Add(pair.PrivatePath)
	assert.ErrorIs(t, err, ErrPassphraseRequired)

	ids, listErr := b.List()
	require.NoError(t, listErr)
	assert.Empty(t, ids)
}

func TestAdd_EncryptedWithPassphraseSource(t *testing.T) {
	socket, _ := startAgent(t)
	dir := t.TempDir()
	pair := sshtest.WriteEncryptedEd25519(t, dir, "locked", "c", "hunter2")

	asked := ""
	b := NewSocketBridge(socket, func(path string) (string, error) {
		asked = path
		return "hunter2", nil
	}, logger.Noop())

	require.NoError(t, b.Add(pair.PrivatePath))
	assert.Equal(t, pair.PrivatePath, asked)

	ids, err := b.List()
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, pair.Fingerprint, ids[0].Fingerprint)
}

func TestRemove_NotLoaded(t *testing.T) {
	socket, _ := startAgent(t)
	b := NewSocketBridge(socket, nil, logger.Noop())

	err := b.Remove("SHA256:doesnotexist")
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestUnreachableSocket(t *testing.T) {
	b := NewSocketBridge(filepath.Join(t.TempDir(), "no-such.sock"), nil, logger.Noop())

	_, err := b.List()
	assert.ErrorIs(t, err, ErrUnreachable)

	err = b.Remove("SHA256:x")
	assert.ErrorIs(t, err, ErrUnreachable)
}

func TestUnreachable_NoSocketConfigured(t *testing.T) {
	t.Setenv("SSH_AUTH_SOCK", "")
	b := NewSocketBridge("", nil, logger.Noop())

	_, err := b.List()
	assert.ErrorIs(t, err, ErrUnreachable)
}
