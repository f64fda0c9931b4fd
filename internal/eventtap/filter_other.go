//go:build !darwin

package eventtap

// stubFilter is used where no system-wide input filter exists.
type stubFilter struct{}

// NewFilter returns a filter whose Open always fails with ErrNotAvailable.
func NewFilter() Filter {
	return stubFilter{}
}

// CheckAccessibility always reports false on this platform.
func CheckAccessibility() bool { return false }

// PromptAccessibility always reports false on this platform.
func PromptAccessibility() bool { return false }

func (stubFilter) Open(Mask, Handler) error { return ErrNotAvailable }
func (stubFilter) Run()                     {}
func (stubFilter) Disable()                 {}
func (stubFilter) Stop()                    {}
func (stubFilter) Close() error             { return nil }
