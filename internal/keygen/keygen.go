// Package keygen invokes the external key-generation tool (ssh-keygen).
// Generation itself is delegated; this package owns parameter validation
// and the subprocess boundary.
package keygen

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rileyhilliard/skm/internal/errors"
	"github.com/rileyhilliard/skm/internal/keystore"
	"github.com/rileyhilliard/skm/internal/logger"
)

// Params describes one key-generation request.
type Params struct {
	Type       keystore.KeyType
	Bits       int    // ignored for ed25519
	Path       string // destination private key path
	Passphrase string // empty means no passphrase
	Comment    string
}

// rsaBitsRange bounds RSA key sizes; below 2048 is rejected outright.
const (
	rsaMinBits = 2048
	rsaMaxBits = 8192
)

// ecdsaBits are the curve sizes ssh-keygen accepts.
var ecdsaBits = map[int]bool{256: true, 384: true, 521: true}

// dsaBits is the only size the DSA standard allows for ssh keys.
const dsaBits = 1024

// Validate checks type and bit-length before anything touches the
// filesystem. Returns a PARAMS error describing the first problem.
func (p Params) Validate() error {
	if strings.TrimSpace(p.Path) == "" {
		return errors.New(errors.ErrParams,
			"Key path is empty",
			"Give the new key a file name")
	}

	switch p.Type {
	case keystore.TypeEd25519:
		// Fixed-length; bits are ignored.
		return nil
	case keystore.TypeRSA:
		if p.Bits < rsaMinBits || p.Bits > rsaMaxBits {
			return errors.New(errors.ErrParams,
				fmt.Sprintf("RSA keys must be %d-%d bits, got %d", rsaMinBits, rsaMaxBits, p.Bits),
				"Use 2048, 3072, or 4096")
		}
	case keystore.TypeECDSA:
		if !ecdsaBits[p.Bits] {
			return errors.New(errors.ErrParams,
				fmt.Sprintf("ECDSA keys must be 256, 384, or 521 bits, got %d", p.Bits),
				"Pick one of the supported curve sizes")
		}
	case keystore.TypeDSA:
		if p.Bits != dsaBits {
			return errors.New(errors.ErrParams,
				fmt.Sprintf("DSA keys must be exactly %d bits, got %d", dsaBits, p.Bits),
				"DSA is legacy; prefer ed25519 for new keys")
		}
	default:
		return errors.New(errors.ErrParams,
			fmt.Sprintf("Unknown key type: %s", p.Type),
			"Supported types: ed25519 (recommended), rsa, ecdsa, dsa")
	}
	return nil
}

// BitsOptions returns the selectable bit lengths for a key type, nil for
// fixed-length types.
func BitsOptions(t keystore.KeyType) []int {
	switch t {
	case keystore.TypeRSA:
		return []int{2048, 3072, 4096}
	case keystore.TypeECDSA:
		return []int{256, 384, 521}
	case keystore.TypeDSA:
		return []int{1024}
	default:
		return nil
	}
}

// DefaultBits returns the preselected bit length for a key type.
func DefaultBits(t keystore.KeyType) int {
	opts := BitsOptions(t)
	if len(opts) == 0 {
		return 0
	}
	return opts[0]
}

// CommandLine renders the invocation for the command log. The passphrase
// is always redacted.
func CommandLine(p Params) string {
	var b strings.Builder
	b.WriteString("ssh-keygen -t ")
	b.WriteString(string(p.Type))
	if p.Type != keystore.TypeEd25519 && p.Bits > 0 {
		b.WriteString(" -b ")
		b.WriteString(strconv.Itoa(p.Bits))
	}
	b.WriteString(" -f ")
	b.WriteString(p.Path)
	b.WriteString(" -N [REDACTED]")
	if p.Comment != "" {
		b.WriteString(" -C ")
		b.WriteString(p.Comment)
	}
	return b.String()
}

// Generator produces key pairs on disk.
type Generator interface {
	// Generate creates the pair described by p and returns the tool's
	// combined output for the command log.
	Generate(ctx context.Context, p Params) (output string, err error)
}

// SSHKeygen is the real Generator, shelling out to ssh-keygen.
type SSHKeygen struct {
	log logger.Logger
}

// NewSSHKeygen creates the ssh-keygen backed generator.
func NewSSHKeygen(log logger.Logger) *SSHKeygen {
	if log == nil {
		log = logger.Noop()
	}
	return &SSHKeygen{log: log}
}

// Generate runs ssh-keygen. Non-zero exit is mapped to a KEYGEN error
// carrying the tool's output.
func (g *SSHKeygen) Generate(ctx context.Context, p Params) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}

	// ssh-keygen prompts on an existing destination, which would hang a
	// non-interactive invocation. Reject up front instead.
	if _, err := os.Stat(p.Path); err == nil {
		return "", errors.New(errors.ErrParams,
			fmt.Sprintf("Key already exists at %s", p.Path),
			"Choose a different name or delete the existing key first")
	}

	dir := filepath.Dir(p.Path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", errors.WrapWithCode(err, errors.ErrFS,
			"Failed to create key directory: "+dir,
			"Check permissions on the parent directory")
	}

	args := []string{"-t", string(p.Type)}
	if p.Type != keystore.TypeEd25519 && p.Bits > 0 {
		args = append(args, "-b", strconv.Itoa(p.Bits))
	}
	args = append(args, "-f", p.Path, "-N", p.Passphrase, "-C", p.Comment)

	g.log.Debug("exec: %s", CommandLine(p))
	cmd := exec.CommandContext(ctx, "ssh-keygen", args...)
	out, err := cmd.CombinedOutput()
	output := string(out)
	if err != nil {
		return output, errors.WrapWithCode(err, errors.ErrKeygen,
			"ssh-keygen failed: "+strings.TrimSpace(output),
			"Ensure ssh-keygen is installed and the destination is writable")
	}
	return output, nil
}
