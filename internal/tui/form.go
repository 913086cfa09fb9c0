package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/rileyhilliard/skm/internal/keygen"
	"github.com/rileyhilliard/skm/internal/keystore"
)

// createValues backs the create-key form fields.
type createValues struct {
	Name       string
	Type       string
	Bits       string
	Passphrase string
	Confirm    string
	Comment    string
}

// params converts the form values into a generation request. Only valid
// after the form completed, since the fields carry their own validators.
func (v createValues) params(path string) keygen.Params {
	bits, _ := strconv.Atoi(strings.TrimSpace(v.Bits))
	t := keystore.KeyType(v.Type)
	if bits == 0 {
		bits = keygen.DefaultBits(t)
	}
	return keygen.Params{
		Type:       t,
		Bits:       bits,
		Path:       path,
		Passphrase: v.Passphrase,
		Comment:    strings.TrimSpace(v.Comment),
	}
}

// newCreateForm builds the huh form for the create modal. exists reports
// whether a key name is already taken in the store.
func newCreateForm(v *createValues, exists func(name string) bool) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Key name").
				Placeholder("id_ed25519_work").
				Value(&v.Name).
				Validate(func(s string) error {
					s = strings.TrimSpace(s)
					if s == "" {
						return fmt.Errorf("name is required")
					}
					if strings.ContainsAny(s, " \t/") {
						return fmt.Errorf("name cannot contain spaces or slashes")
					}
					if strings.HasSuffix(s, keystore.PublicKeySuffix) {
						return fmt.Errorf("name cannot end in %s", keystore.PublicKeySuffix)
					}
					if exists(s) {
						return fmt.Errorf("a key named %q already exists", s)
					}
					return nil
				}),

			huh.NewSelect[string]().
				Title("Type").
				Options(huh.NewOptions(
					string(keystore.TypeEd25519),
					string(keystore.TypeRSA),
					string(keystore.TypeECDSA),
					string(keystore.TypeDSA),
				)...).
				Value(&v.Type),

			huh.NewInput().
				Title("Bits").
				Description("Leave empty for the type's default; ignored for ed25519").
				Value(&v.Bits).
				Validate(func(s string) error {
					return validateBits(keystore.KeyType(v.Type), s)
				}),

			huh.NewInput().
				Title("Passphrase").
				Description("Leave empty for no passphrase").
				EchoMode(huh.EchoModePassword).
				Value(&v.Passphrase),

			huh.NewInput().
				Title("Confirm passphrase").
				EchoMode(huh.EchoModePassword).
				Value(&v.Confirm).
				Validate(func(s string) error {
					if s != v.Passphrase {
						return fmt.Errorf("passphrases do not match")
					}
					return nil
				}),

			huh.NewInput().
				Title("Comment").
				Placeholder("user@host").
				Value(&v.Comment),
		),
	).WithShowHelp(true)
}

func validateBits(t keystore.KeyType, s string) error {
	s = strings.TrimSpace(s)
	if s == "" || t == keystore.TypeEd25519 {
		return nil
	}
	bits, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("bits must be a number")
	}
	// Reuse the generation validator so the form and the CLI agree.
	p := keygen.Params{Type: t, Bits: bits, Path: "pending"}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%v", firstSentence(err))
	}
	return nil
}

// firstSentence trims a structured error down to its message line for
// inline form display.
func firstSentence(err error) string {
	msg := err.Error()
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	return strings.TrimSpace(strings.TrimPrefix(msg, "✗"))
}
