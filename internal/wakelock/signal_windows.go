//go:build windows

package wakelock

import "os"

// Windows has no SIGTERM; the helper is killed directly.
func terminate(p *os.Process) error {
	return p.Kill()
}
