//go:build !darwin && !linux

package wakelock

// DefaultBackend returns a backend whose Acquire fails with ErrNotAvailable.
func DefaultBackend() Backend {
	return unavailableBackend{}
}
