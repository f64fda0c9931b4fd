// Package combo parses and formats unlock key combinations.
//
// A combo is written as plus-separated tokens, e.g. "ctrl+cmd+u". Token
// order, case and surrounding whitespace do not matter. A valid combo names
// exactly one key and at least one modifier.
package combo

import (
	"errors"
	"fmt"
	"strings"
)

// Modifiers is a set of CGEventFlags modifier bits.
type Modifiers uint64

// CGEventFlags modifier masks.
const (
	ModShift Modifiers = 0x00020000
	ModCtrl  Modifiers = 0x00040000
	ModAlt   Modifiers = 0x00080000
	ModCmd   Modifiers = 0x00100000

	// ModifierMask selects the four modifiers that participate in matching.
	// Caps lock, fn and device-dependent bits are ignored.
	ModifierMask = ModShift | ModCtrl | ModAlt | ModCmd
)

// Canonical display order.
var modifierOrder = []struct {
	mod  Modifiers
	name string
}{
	{ModCtrl, "ctrl"},
	{ModAlt, "alt"},
	{ModShift, "shift"},
	{ModCmd, "cmd"},
}

var modifierTokens = map[string]Modifiers{
	"ctrl":    ModCtrl,
	"control": ModCtrl,
	"alt":     ModAlt,
	"option":  ModAlt,
	"opt":     ModAlt,
	"shift":   ModShift,
	"cmd":     ModCmd,
	"command": ModCmd,
}

// Has reports whether all bits of m are set.
func (s Modifiers) Has(m Modifiers) bool {
	return s&m == m
}

func (s Modifiers) String() string {
	var parts []string
	for _, o := range modifierOrder {
		if s.Has(o.mod) {
			parts = append(parts, o.name)
		}
	}
	return strings.Join(parts, " + ")
}

// Errors returned by Parse. All of them wrap ErrInvalidCombo.
var (
	ErrInvalidCombo = errors.New("invalid combo")
	ErrNoKey        = fmt.Errorf("%w: no key specified (need e.g. ctrl+cmd+u)", ErrInvalidCombo)
	ErrNoModifier   = fmt.Errorf("%w: at least one modifier required (ctrl, alt, shift, cmd)", ErrInvalidCombo)
	ErrMultipleKeys = fmt.Errorf("%w: only one non-modifier key allowed", ErrInvalidCombo)
)

// UnknownTokenError is returned when a token is neither a modifier nor a key.
type UnknownTokenError struct {
	Token string
}

func (e *UnknownTokenError) Error() string {
	return fmt.Sprintf("invalid combo: unknown key %q; modifiers: ctrl, alt, shift, cmd; keys: %s",
		e.Token, strings.Join(KeyNames(), " "))
}

func (e *UnknownTokenError) Unwrap() error { return ErrInvalidCombo }

// MultipleKeysError is returned when more than one non-modifier key is named.
type MultipleKeysError struct {
	First, Second string
}

func (e *MultipleKeysError) Error() string {
	return fmt.Sprintf("invalid combo: only one non-modifier key allowed, got %q and %q", e.First, e.Second)
}

func (e *MultipleKeysError) Unwrap() error { return ErrMultipleKeys }

// Spec is a validated unlock combination.
type Spec struct {
	Key  Key
	Mods Modifiers
}

// Parse validates text and returns the combo it describes.
func Parse(text string) (Spec, error) {
	var (
		spec    Spec
		keyName string
	)
	for _, raw := range strings.Split(text, "+") {
		token := strings.ToLower(strings.TrimSpace(raw))
		if mod, ok := modifierTokens[token]; ok {
			spec.Mods |= mod
			continue
		}
		code, ok := LookupKey(token)
		if !ok {
			return Spec{}, &UnknownTokenError{Token: token}
		}
		if keyName != "" {
			return Spec{}, &MultipleKeysError{First: keyName, Second: token}
		}
		keyName = token
		spec.Key = code
	}
	if keyName == "" {
		return Spec{}, ErrNoKey
	}
	if spec.Mods == 0 {
		return Spec{}, ErrNoModifier
	}
	return spec, nil
}

// MustParse is like Parse but panics on error. Intended for constants.
func MustParse(text string) Spec {
	s, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return s
}

// Format renders s canonically: modifiers in ctrl, alt, shift, cmd order,
// then the key, joined by " + ".
func Format(s Spec) string {
	name := KeyName(s.Key)
	if name == "" {
		name = fmt.Sprintf("key(%d)", s.Key)
	}
	if s.Mods == 0 {
		return name
	}
	return s.Mods.String() + " + " + name
}

func (s Spec) String() string { return Format(s) }

// Matches reports whether a key-down with the given code and raw event flags
// is exactly this combo. Extra modifiers prevent a match.
func (s Spec) Matches(code Key, flags uint64) bool {
	return code == s.Key && Modifiers(flags)&ModifierMask == s.Mods
}
