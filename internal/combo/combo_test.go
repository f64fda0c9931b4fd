package combo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCanonicalForm(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ctrl+cmd+u", "ctrl + cmd + u"},
		{"CMD+ctrl+u", "ctrl + cmd + u"},
		{"u+ctrl+cmd", "ctrl + cmd + u"},
		{" ctrl + cmd + U ", "ctrl + cmd + u"},
		{"command+option+shift+escape", "alt + shift + cmd + escape"},
		{"control+f12", "ctrl + f12"},
		{"opt+space", "alt + space"},
		{"shift+alt+ctrl+cmd+/", "ctrl + alt + shift + cmd + /"},
		{"cmd+esc", "cmd + escape"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			spec, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, Format(spec))

			// The canonical form parses back to the same combo.
			again, err := Parse(Format(spec))
			require.NoError(t, err)
			assert.Equal(t, spec, again)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"no key", "ctrl+cmd", ErrNoKey},
		{"no modifier", "u", ErrNoModifier},
		{"multiple keys", "ctrl+a+b", ErrMultipleKeys},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.in)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, ErrInvalidCombo)
		})
	}
}

func TestParseErrorsAreDistinct(t *testing.T) {
	_, noKey := Parse("ctrl+cmd")
	_, noMod := Parse("u")
	_, multi := Parse("ctrl+a+b")

	assert.False(t, errors.Is(noKey, ErrNoModifier))
	assert.False(t, errors.Is(noMod, ErrNoKey))
	assert.False(t, errors.Is(multi, ErrNoKey))
	assert.False(t, errors.Is(multi, ErrNoModifier))
}

func TestParseUnknownToken(t *testing.T) {
	for _, in := range []string{"ctrl+hyper+u", "ctrl++u", "", "ctrl+f13"} {
		_, err := Parse(in)
		require.Error(t, err, in)

		var unknown *UnknownTokenError
		require.ErrorAs(t, err, &unknown, in)
		assert.ErrorIs(t, err, ErrInvalidCombo)
		assert.Contains(t, err.Error(), "ctrl, alt, shift, cmd")
	}

	_, err := Parse("ctrl+hyper+u")
	var unknown *UnknownTokenError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "hyper", unknown.Token)
}

func TestMatches(t *testing.T) {
	spec := MustParse("ctrl+cmd+u")
	u, _ := LookupKey("u")
	i, _ := LookupKey("i")

	const capsLock = 0x00010000
	const nonCoalesced = 0x100

	assert.True(t, spec.Matches(u, uint64(ModCtrl|ModCmd)))
	assert.True(t, spec.Matches(u, uint64(ModCtrl|ModCmd)|capsLock|nonCoalesced))
	assert.False(t, spec.Matches(u, uint64(ModCtrl)))
	assert.False(t, spec.Matches(u, uint64(ModCtrl|ModCmd|ModShift)))
	assert.False(t, spec.Matches(i, uint64(ModCtrl|ModCmd)))
}

func TestKeyTable(t *testing.T) {
	tests := map[string]Key{
		"a": 0, "u": 32, "escape": 53, "space": 49, "f1": 122, "f12": 111, "delete": 51,
	}
	for name, want := range tests {
		got, ok := LookupKey(name)
		require.True(t, ok, name)
		assert.Equal(t, want, got, name)
		assert.Equal(t, name, KeyName(got))
	}

	names := KeyNames()
	assert.IsIncreasing(t, names)
	assert.Len(t, names, len(keyCodes))
}

func TestModifiersString(t *testing.T) {
	assert.Equal(t, "", Modifiers(0).String())
	assert.Equal(t, "ctrl + alt + shift + cmd", ModifierMask.String())
	assert.True(t, (ModCtrl | ModCmd).Has(ModCmd))
	assert.False(t, ModCtrl.Has(ModCmd))
}

func TestMustParsePanics(t *testing.T) {
	assert.Panics(t, func() { MustParse("u") })
	assert.NotPanics(t, func() { MustParse("alt+q") })
}
