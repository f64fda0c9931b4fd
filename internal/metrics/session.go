package metrics

// LockMetrics are the metrics recorded during one lock session.
type LockMetrics struct {
	registry *Registry

	EventsSeen      *Counter
	EventsSwallowed *Counter
	EventsPassed    *Counter
	FilterReenabled *Counter
	ComboUnlocks    *Counter
	PanicUnlocks    *Counter
	HandlerPanics   *Counter

	Locked *Gauge

	CallbackLatency *Histogram
}

// NewLockMetrics registers the lock session metrics in registry. A nil
// registry gets a fresh one under the "vegitate" namespace.
func NewLockMetrics(registry *Registry) *LockMetrics {
	if registry == nil {
		registry = NewRegistry("vegitate")
	}
	return &LockMetrics{
		registry: registry,

		EventsSeen:      registry.Counter("events_seen_total", "Input events delivered to the filter"),
		EventsSwallowed: registry.Counter("events_swallowed_total", "Input events dropped while locked"),
		EventsPassed:    registry.Counter("events_passed_total", "Input events let through while locked"),
		FilterReenabled: registry.Counter("filter_reenabled_total", "Times the OS disabled the filter and it was turned back on"),
		ComboUnlocks:    registry.Counter("combo_unlocks_total", "Unlocks triggered by the key combo"),
		PanicUnlocks:    registry.Counter("panic_unlocks_total", "Unlocks triggered by the panic sequence"),
		HandlerPanics:   registry.Counter("handler_panics_total", "Recovered panics inside the event handler"),

		Locked: registry.Gauge("locked", "1 while input is locked"),

		CallbackLatency: registry.Histogram("callback_latency_seconds", "Time spent classifying one event", nil),
	}
}

// Registry returns the underlying registry.
func (m *LockMetrics) Registry() *Registry {
	return m.registry
}
