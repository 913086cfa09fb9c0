package keystore

import (
	"crypto/dsa" //nolint:staticcheck // ssh-dss keys still appear in the wild
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"os"
	"path/filepath"
	"strings"

	"github.com/rileyhilliard/skm/internal/errors"
	"golang.org/x/crypto/ssh"
)

// PublicKeySuffix is appended to a private key path to derive its public half.
const PublicKeySuffix = ".pub"

// KeyType identifies the algorithm of an SSH key pair.
type KeyType string

const (
	TypeRSA     KeyType = "rsa"
	TypeEd25519 KeyType = "ed25519"
	TypeECDSA   KeyType = "ecdsa"
	TypeDSA     KeyType = "dsa"
	TypeUnknown KeyType = "unknown"
)

// KeyRecord represents one SSH key pair on disk.
// Path is unique within a Store.
type KeyRecord struct {
	// Path is the absolute path to the private key file.
	Path string

	// PublicPath is the derived public key path (Path + ".pub").
	PublicPath string

	// Name is the private key file name, the identifier users type.
	Name string

	// Type is the key algorithm, parsed from the public key.
	Type KeyType

	// Bits is the key length for variable-length types (0 for ed25519
	// and anything that couldn't be parsed).
	Bits int

	// Comment is the trailing comment from the public key file.
	Comment string

	// Hosts lists ssh_config host patterns whose IdentityFile points at
	// this key.
	Hosts []string

	// LoadedInAgent is derived from the agent's identity list. It is
	// refreshed by the orchestrator, never trusted across intents.
	LoadedInAgent bool

	fingerprint string
}

// Fingerprint returns the SHA256 fingerprint of the public key, computing
// and caching it on first use.
func (r *KeyRecord) Fingerprint() (string, error) {
	if r.fingerprint != "" {
		return r.fingerprint, nil
	}

	data, err := os.ReadFile(r.PublicPath)
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrFS,
			"Failed to read public key: "+r.PublicPath,
			"Check that the file exists and is readable")
	}

	pub, _, _, _, err := ssh.ParseAuthorizedKey(data)
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrFS,
			"Public key is not parseable: "+r.PublicPath,
			"The file may be corrupt; regenerate the pair or restore it from backup")
	}

	r.fingerprint = ssh.FingerprintSHA256(pub)
	return r.fingerprint, nil
}

// InvalidateFingerprint drops the cached fingerprint so the next call
// recomputes it from disk.
func (r *KeyRecord) InvalidateFingerprint() {
	r.fingerprint = ""
}

// typeFromPublicKey maps an ssh wire type to a KeyType.
func typeFromPublicKey(pub ssh.PublicKey) KeyType {
	switch {
	case pub.Type() == ssh.KeyAlgoRSA:
		return TypeRSA
	case pub.Type() == ssh.KeyAlgoED25519:
		return TypeEd25519
	case strings.HasPrefix(pub.Type(), "ecdsa-"):
		return TypeECDSA
	case pub.Type() == ssh.KeyAlgoDSA:
		return TypeDSA
	default:
		return TypeUnknown
	}
}

// bitsFromPublicKey extracts the key length for variable-length types.
func bitsFromPublicKey(pub ssh.PublicKey) int {
	cryptoKey, ok := pub.(ssh.CryptoPublicKey)
	if !ok {
		return 0
	}
	switch k := cryptoKey.CryptoPublicKey().(type) {
	case *rsa.PublicKey:
		return k.N.BitLen()
	case *ecdsa.PublicKey:
		return k.Curve.Params().BitSize
	case *dsa.PublicKey:
		return k.P.BitLen()
	case ed25519.PublicKey:
		return 0
	default:
		return 0
	}
}

// NewRecord builds a KeyRecord for a private key path, parsing type, bits,
// and comment from the paired public key file. Used by the orchestrator to
// insert a record right after a successful create.
func NewRecord(privatePath string) (*KeyRecord, error) {
	return newRecord(privatePath)
}

// newRecord builds a KeyRecord for a private key path, parsing type, bits,
// and comment from the paired public key file.
func newRecord(privatePath string) (*KeyRecord, error) {
	rec := &KeyRecord{
		Path:       privatePath,
		PublicPath: privatePath + PublicKeySuffix,
		Name:       filepath.Base(privatePath),
		Type:       TypeUnknown,
	}

	data, err := os.ReadFile(rec.PublicPath)
	if err != nil {
		return nil, err
	}

	pub, comment, _, _, err := ssh.ParseAuthorizedKey(data)
	if err != nil {
		return nil, err
	}

	rec.Type = typeFromPublicKey(pub)
	rec.Bits = bitsFromPublicKey(pub)
	rec.Comment = comment
	rec.fingerprint = ssh.FingerprintSHA256(pub)
	return rec, nil
}
