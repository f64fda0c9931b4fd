package combo

import "sort"

// Key is a macOS virtual key code (kVK_* in HIToolbox/Events.h).
type Key uint16

// Virtual key codes for the ANSI layout. Only the subset that can be named in
// a combo or as a panic key is listed.
var keyCodes = map[string]Key{
	"a": 0, "s": 1, "d": 2, "f": 3, "h": 4, "g": 5, "z": 6, "x": 7,
	"c": 8, "v": 9, "b": 11, "q": 12, "w": 13, "e": 14, "r": 15,
	"y": 16, "t": 17, "1": 18, "2": 19, "3": 20, "4": 21, "6": 22,
	"5": 23, "=": 24, "9": 25, "7": 26, "-": 27, "8": 28, "0": 29,
	"]": 30, "o": 31, "u": 32, "[": 33, "i": 34, "p": 35,
	"return": 36, "l": 37, "j": 38, "'": 39, "k": 40, ";": 41,
	"\\": 42, ",": 43, "/": 44, "n": 45, "m": 46, ".": 47,
	"tab": 48, "space": 49, "`": 50, "delete": 51, "escape": 53,

	"f1": 122, "f2": 120, "f3": 99, "f4": 118, "f5": 96, "f6": 97,
	"f7": 98, "f8": 100, "f9": 101, "f10": 109, "f11": 103, "f12": 111,
}

// keyAliases maps alternate spellings onto canonical key names.
var keyAliases = map[string]string{
	"esc":       "escape",
	"enter":     "return",
	"backspace": "delete",
}

var keyNames = func() map[Key]string {
	m := make(map[Key]string, len(keyCodes))
	for name, code := range keyCodes {
		m[code] = name
	}
	return m
}()

// LookupKey resolves a key name (case-sensitive, already normalized) to its
// virtual key code.
func LookupKey(name string) (Key, bool) {
	if canonical, ok := keyAliases[name]; ok {
		name = canonical
	}
	code, ok := keyCodes[name]
	return code, ok
}

// KeyName returns the canonical name for a key code, or "" if unknown.
func KeyName(k Key) string {
	return keyNames[k]
}

// KeyNames returns all canonical key names in sorted order.
func KeyNames() []string {
	names := make([]string, 0, len(keyCodes))
	for name := range keyCodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
