// Package agent talks to the running SSH agent over its unix socket. It
// never caches agent state: every call dials and lists fresh, because the
// agent is shared with every other process on the machine.
package agent

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/rileyhilliard/skm/internal/logger"
	"golang.org/x/crypto/ssh"
	sshagent "golang.org/x/crypto/ssh/agent"
)

// Sentinel errors callers branch on with errors.Is.
var (
	// ErrUnreachable means the agent socket could not be dialed. Callers
	// degrade to "agent status unknown" rather than aborting.
	ErrUnreachable = errors.New("ssh agent unreachable")

	// ErrPassphraseRequired means the private key is encrypted and no
	// passphrase source is wired. Returned instead of blocking on a prompt.
	ErrPassphraseRequired = errors.New("key requires a passphrase")

	// ErrNotLoaded means the fingerprint is not in the agent.
	ErrNotLoaded = errors.New("key not loaded in agent")
)

// Identity is one key currently loaded in the agent.
type Identity struct {
	Fingerprint string
	Comment     string
}

// PassphraseFunc supplies the passphrase for an encrypted private key.
type PassphraseFunc func(privateKeyPath string) (string, error)

// Bridge queries and mutates the set of identities in the running agent.
type Bridge interface {
	// List returns loaded identities in agent order.
	List() ([]Identity, error)

	// Add loads the private key at path into the agent. Adding an
	// already-loaded key is a no-op success.
	Add(privateKeyPath string) error

	// Remove unloads the identity with the given fingerprint.
	Remove(fingerprint string) error
}

// SocketBridge is the real Bridge over a unix agent socket.
type SocketBridge struct {
	socket     string
	passphrase PassphraseFunc
	log        logger.Logger
}

// NewSocketBridge creates a bridge for the given socket path. An empty
// socket means resolve $SSH_AUTH_SOCK at call time. passphrase may be nil,
// in which case encrypted keys fail with ErrPassphraseRequired.
func NewSocketBridge(socket string, passphrase PassphraseFunc, log logger.Logger) *SocketBridge {
	if log == nil {
		log = logger.Noop()
	}
	return &SocketBridge{socket: socket, passphrase: passphrase, log: log}
}

// dial connects to the agent socket. The caller must close the connection.
func (b *SocketBridge) dial() (sshagent.Agent, net.Conn, error) {
	socket := b.socket
	if socket == "" {
		socket = os.Getenv("SSH_AUTH_SOCK")
	}
	if socket == "" {
		return nil, nil, fmt.Errorf("%w: SSH_AUTH_SOCK is not set", ErrUnreachable)
	}
	conn, err := net.Dial("unix", socket)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	return sshagent.NewClient(conn), conn, nil
}

// List returns the identities currently loaded in the agent.
func (b *SocketBridge) List() ([]Identity, error) {
	ag, conn, err := b.dial()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	keys, err := ag.List()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	out := make([]Identity, 0, len(keys))
	for _, key := range keys {
		out = append(out, Identity{
			Fingerprint: ssh.FingerprintSHA256(key),
			Comment:     key.Comment,
		})
	}
	return out, nil
}

// Add loads the private key at path into the agent.
func (b *SocketBridge) Add(privateKeyPath string) error {
	data, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return fmt.Errorf("read private key: %w", err)
	}

	key, err := ssh.ParseRawPrivateKey(data)
	if err != nil {
		var missing *ssh.PassphraseMissingError
		if !errors.As(err, &missing) {
			return fmt.Errorf("parse private key: %w", err)
		}
		if b.passphrase == nil {
			return fmt.Errorf("%w: %s", ErrPassphraseRequired, privateKeyPath)
		}
		pass, err := b.passphrase(privateKeyPath)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrPassphraseRequired, privateKeyPath)
		}
		key, err = ssh.ParseRawPrivateKeyWithPassphrase(data, []byte(pass))
		if err != nil {
			return fmt.Errorf("decrypt private key: %w", err)
		}
	}

	ag, conn, err := b.dial()
	if err != nil {
		return err
	}
	defer conn.Close()

	// Idempotence: adding a loaded key is a no-op success.
	signer, err := ssh.NewSignerFromKey(key)
	if err == nil {
		fp := ssh.FingerprintSHA256(signer.PublicKey())
		if keys, listErr := ag.List(); listErr == nil {
			for _, k := range keys {
				if ssh.FingerprintSHA256(k) == fp {
					b.log.Debug("key already loaded: %s", fp)
					return nil
				}
			}
		}
	}

	if err := ag.Add(sshagent.AddedKey{
		PrivateKey: key,
		Comment:    publicKeyComment(privateKeyPath),
	}); err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	return nil
}

// Remove unloads the identity with the given fingerprint.
func (b *SocketBridge) Remove(fingerprint string) error {
	ag, conn, err := b.dial()
	if err != nil {
		return err
	}
	defer conn.Close()

	keys, err := ag.List()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	for _, key := range keys {
		if ssh.FingerprintSHA256(key) == fingerprint {
			if err := ag.Remove(key); err != nil {
				return fmt.Errorf("%w: %v", ErrUnreachable, err)
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotLoaded, fingerprint)
}

// publicKeyComment reads the comment from the paired .pub file, falling
// back to the key path so agent listings stay identifiable.
func publicKeyComment(privateKeyPath string) string {
	data, err := os.ReadFile(privateKeyPath + ".pub")
	if err != nil {
		return privateKeyPath
	}
	_, comment, _, _, err := ssh.ParseAuthorizedKey(data)
	if err != nil || strings.TrimSpace(comment) == "" {
		return privateKeyPath
	}
	return comment
}
