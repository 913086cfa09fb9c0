// Package sshtest generates throwaway SSH key material for tests.
// Keys are created in-process so tests never depend on ssh-keygen.
package sshtest

import (
	"crypto"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/ssh"
)

// KeyPair describes a generated on-disk key pair.
type KeyPair struct {
	PrivatePath string
	PublicPath  string
	Fingerprint string
	Signer      ssh.Signer
	Private     crypto.PrivateKey
}

// WriteEd25519 writes an ed25519 key pair named name into dir and returns
// its details. Fails the test on any error.
func WriteEd25519(t *testing.T, dir, name, comment string) KeyPair {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate ed25519 key: %v", err)
	}
	return write(t, dir, name, comment, priv, pub, "")
}

// WriteRSA writes an RSA key pair of the given size into dir.
func WriteRSA(t *testing.T, dir, name, comment string, bits int) KeyPair {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	return write(t, dir, name, comment, priv, priv.Public(), "")
}

// WriteEncryptedEd25519 writes a passphrase-protected ed25519 key pair.
func WriteEncryptedEd25519(t *testing.T, dir, name, comment, passphrase string) KeyPair {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate ed25519 key: %v", err)
	}
	return write(t, dir, name, comment, priv, pub, passphrase)
}

func write(t *testing.T, dir, name, comment string, priv crypto.PrivateKey, pub crypto.PublicKey, passphrase string) KeyPair {
	t.Helper()

	var block *pem.Block
	var err error
	if passphrase == "" {
		block, err = ssh.MarshalPrivateKey(priv, comment)
	} else {
		block, err = ssh.MarshalPrivateKeyWithPassphrase(priv, comment, []byte(passphrase))
	}
	if err != nil {
		t.Fatalf("marshal private key: %v", err)
	}

	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		t.Fatalf("convert public key: %v", err)
	}

	privatePath := filepath.Join(dir, name)
	publicPath := privatePath + ".pub"

	if err := os.WriteFile(privatePath, pem.EncodeToMemory(block), 0o600); err != nil {
		t.Fatalf("write private key: %v", err)
	}

	pubLine := strings.TrimSpace(string(ssh.MarshalAuthorizedKey(sshPub)))
	if comment != "" {
		pubLine += " " + comment
	}
	if err := os.WriteFile(publicPath, []byte(pubLine+"\n"), 0o644); err != nil {
		t.Fatalf("write public key: %v", err)
	}

	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		t.Fatalf("build signer: %v", err)
	}

	return KeyPair{
		PrivatePath: privatePath,
		PublicPath:  publicPath,
		Fingerprint: ssh.FingerprintSHA256(sshPub),
		Signer:      signer,
		Private:     priv,
	}
}
