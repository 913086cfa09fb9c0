package keygen

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/rileyhilliard/skm/internal/errors"
	"github.com/rileyhilliard/skm/internal/keystore"
	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		params  Params
		wantErr bool
	}{
		{
			name:   "ed25519 ignores bits",
			params: Params{Type: keystore.TypeEd25519, Bits: 999, Path: "/tmp/k"},
		},
		{
			name:   "rsa 2048 ok",
			params: Params{Type: keystore.TypeRSA, Bits: 2048, Path: "/tmp/k"},
		},
		{
			name:   "rsa 4096 ok",
			params: Params{Type: keystore.TypeRSA, Bits: 4096, Path: "/tmp/k"},
		},
		{
			name:    "rsa 512 rejected",
			params:  Params{Type: keystore.TypeRSA, Bits: 512, Path: "/tmp/k"},
			wantErr: true,
		},
		{
			name:    "rsa 1024 rejected",
			params:  Params{Type: keystore.TypeRSA, Bits: 1024, Path: "/tmp/k"},
			wantErr: true,
		},
		{
			name:    "rsa oversized rejected",
			params:  Params{Type: keystore.TypeRSA, Bits: 16384, Path: "/tmp/k"},
			wantErr: true,
		},
		{
			name:   "ecdsa 256 ok",
			params: Params{Type: keystore.TypeECDSA, Bits: 256, Path: "/tmp/k"},
		},
		{
			name:   "ecdsa 521 ok",
			params: Params{Type: keystore.TypeECDSA, Bits: 521, Path: "/tmp/k"},
		},
		{
			name:    "ecdsa 512 rejected",
			params:  Params{Type: keystore.TypeECDSA, Bits: 512, Path: "/tmp/k"},
			wantErr: true,
		},
		{
			name:   "dsa 1024 ok",
			params: Params{Type: keystore.TypeDSA, Bits: 1024, Path: "/tmp/k"},
		},
		{
			name:    "dsa 2048 rejected",
			params:  Params{Type: keystore.TypeDSA, Bits: 2048, Path: "/tmp/k"},
			wantErr: true,
		},
		{
			name:    "unknown type rejected",
			params:  Params{Type: keystore.KeyType("rot13"), Bits: 2048, Path: "/tmp/k"},
			wantErr: true,
		},
		{
			name:    "empty path rejected",
			params:  Params{Type: keystore.TypeEd25519, Path: "  "},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, errors.IsCode(err, errors.ErrParams), "validation failures carry the PARAMS code")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBitsOptions(t *testing.T) {
	assert.Equal(t, []int{2048, 3072, 4096}, BitsOptions(keystore.TypeRSA))
	assert.Equal(t, []int{256, 384, 521}, BitsOptions(keystore.TypeECDSA))
	assert.Equal(t, []int{1024}, BitsOptions(keystore.TypeDSA))
	assert.Nil(t, BitsOptions(keystore.TypeEd25519))

	assert.Equal(t, 2048, DefaultBits(keystore.TypeRSA))
	assert.Equal(t, 0, DefaultBits(keystore.TypeEd25519))
}

func TestCommandLine_RedactsPassphrase(t *testing.T) {
	p := Params{
		Type:       keystore.TypeRSA,
		Bits:       4096,
		Path:       filepath.Join("/home/u/.ssh", "deploy"),
		Passphrase: "sup3r-secret",
		Comment:    "deploy@ci",
	}

	line := CommandLine(p)
	assert.NotContains(t, line, "sup3r-secret")
	assert.Contains(t, line, "[REDACTED]")
	assert.Contains(t, line, "-t rsa")
	assert.Contains(t, line, "-b 4096")
	assert.Contains(t, line, "-C deploy@ci")
}

func TestCommandLine_Ed25519OmitsBits(t *testing.T) {
	line := CommandLine(Params{Type: keystore.TypeEd25519, Bits: 2048, Path: "/tmp/k"})
	assert.False(t, strings.Contains(line, "-b "), "ed25519 never passes -b")
}
