package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// DefaultFileContents is written by `vegitate init`.
const DefaultFileContents = `# vegitate configuration
# Docs: https://github.com/silent-lad/homebrew-vegitate

# Unlock combo: modifiers (ctrl, alt, shift, cmd) + one key.
combo = "ctrl+cmd+u"

# Let the pointer move while locked. Clicks and scrolling stay blocked.
allow_mouse_move = false

# Keep the display and system awake while locked.
caffeinate = true

# Emergency unlock: press panic_key panic_taps times within panic_window
# seconds. Set panic_taps = 0 to disable.
panic_key = "escape"
panic_taps = 5
panic_window = 2.0
`

// WriteDefault creates path with the commented default config. It fails
// with ErrConfigExists rather than overwrite an existing file.
func WriteDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrConfigExists, path)
		}
		return fmt.Errorf("create config: %w", err)
	}

	if _, err := io.WriteString(f, DefaultFileContents); err != nil {
		f.Close()
		return fmt.Errorf("write config: %w", err)
	}
	return f.Close()
}

// Encode writes c as TOML.
func Encode(w io.Writer, c *RuntimeConfig) error {
	return toml.NewEncoder(w).Encode(c.File())
}
