// Package config handles configuration loading and validation for vegitate.
//
// Settings come from three layers, lowest first: built-in defaults, the
// config file, and command-line overrides. The merged result is a
// RuntimeConfig, which is immutable once resolved.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"vegitate/internal/combo"
)

// Defaults
const (
	DefaultCombo       = "ctrl+cmd+u"
	DefaultPanicKey    = "escape"
	DefaultPanicTaps   = 5
	DefaultPanicWindow = 2.0
)

// Errors
var (
	ErrConfigExists = errors.New("config file already exists")
)

// File mirrors the on-disk config file.
type File struct {
	Combo          string  `toml:"combo" json:"combo" yaml:"combo"`
	AllowMouseMove bool    `toml:"allow_mouse_move" json:"allow_mouse_move" yaml:"allow_mouse_move"`
	Caffeinate     bool    `toml:"caffeinate" json:"caffeinate" yaml:"caffeinate"`
	PanicKey       string  `toml:"panic_key" json:"panic_key" yaml:"panic_key"`
	PanicTaps      int     `toml:"panic_taps" json:"panic_taps" yaml:"panic_taps"`
	PanicWindow    float64 `toml:"panic_window" json:"panic_window" yaml:"panic_window"`
}

// Default returns the built-in settings.
func Default() File {
	return File{
		Combo:          DefaultCombo,
		AllowMouseMove: false,
		Caffeinate:     true,
		PanicKey:       DefaultPanicKey,
		PanicTaps:      DefaultPanicTaps,
		PanicWindow:    DefaultPanicWindow,
	}
}

// Overrides are command-line settings. Nil or false fields leave the file
// value alone.
type Overrides struct {
	Combo          *string
	AllowMouseMove bool
	NoCaffeinate   bool
}

// RuntimeConfig is the fully resolved and validated configuration.
type RuntimeConfig struct {
	Combo          combo.Spec
	AllowMouseMove bool
	Caffeinate     bool
	PanicKey       combo.Key
	PanicTaps      int
	PanicWindow    time.Duration

	// Source is the file the settings were read from, or "" when only
	// defaults applied.
	Source string
}

// Resolve merges overrides over f and validates the result. Combo errors
// wrap combo.ErrInvalidCombo.
func Resolve(f File, o Overrides, source string) (*RuntimeConfig, error) {
	if o.Combo != nil {
		f.Combo = *o.Combo
	}
	if o.AllowMouseMove {
		f.AllowMouseMove = true
	}
	if o.NoCaffeinate {
		f.Caffeinate = false
	}

	spec, err := combo.Parse(f.Combo)
	if err != nil {
		return nil, err
	}

	if errs := f.validate(); len(errs) > 0 {
		return nil, errs
	}

	panicKey, _ := combo.LookupKey(normalizeKey(f.PanicKey))
	return &RuntimeConfig{
		Combo:          spec,
		AllowMouseMove: f.AllowMouseMove,
		Caffeinate:     f.Caffeinate,
		PanicKey:       panicKey,
		PanicTaps:      f.PanicTaps,
		PanicWindow:    time.Duration(f.PanicWindow * float64(time.Second)),
		Source:         source,
	}, nil
}

// File returns the settings in on-disk form.
func (c *RuntimeConfig) File() File {
	return File{
		Combo:          combo.Format(c.Combo),
		AllowMouseMove: c.AllowMouseMove,
		Caffeinate:     c.Caffeinate,
		PanicKey:       combo.KeyName(c.PanicKey),
		PanicTaps:      c.PanicTaps,
		PanicWindow:    c.PanicWindow.Seconds(),
	}
}

// Dir returns the vegitate config directory, honoring XDG_CONFIG_HOME.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "vegitate")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "vegitate")
	}
	return filepath.Join(home, ".config", "vegitate")
}

// Path returns the default config file path.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// String renders the config for log lines.
func (c *RuntimeConfig) String() string {
	return fmt.Sprintf("combo=%q allow_mouse_move=%t caffeinate=%t panic_key=%s panic_taps=%d panic_window=%s",
		combo.Format(c.Combo), c.AllowMouseMove, c.Caffeinate, combo.KeyName(c.PanicKey), c.PanicTaps, c.PanicWindow)
}
