// Package metrics keeps in-process counters for a lock session.
//
// Every hot-path operation is a single atomic update so the event filter
// callback can record without contention. Readers (the live status panel and
// the end-of-session log line) only ever load values.
package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// MetricType represents the type of metric.
type MetricType int

const (
	TypeCounter MetricType = iota
	TypeGauge
	TypeHistogram
)

func (t MetricType) String() string {
	switch t {
	case TypeCounter:
		return "counter"
	case TypeGauge:
		return "gauge"
	case TypeHistogram:
		return "histogram"
	default:
		return "unknown"
	}
}

// Counter only goes up.
type Counter struct {
	name  string
	help  string
	value atomic.Uint64
}

func (c *Counter) Inc()             { c.value.Add(1) }
func (c *Counter) Add(v uint64)     { c.value.Add(v) }
func (c *Counter) Value() uint64    { return c.value.Load() }
func (c *Counter) Name() string     { return c.name }
func (c *Counter) Help() string     { return c.help }
func (c *Counter) Type() MetricType { return TypeCounter }

// Gauge holds a value that can go up and down.
type Gauge struct {
	name  string
	help  string
	value atomic.Int64
}

func (g *Gauge) Set(v int64)      { g.value.Store(v) }
func (g *Gauge) Add(v int64)      { g.value.Add(v) }
func (g *Gauge) Value() int64     { return g.value.Load() }
func (g *Gauge) Name() string     { return g.name }
func (g *Gauge) Help() string     { return g.help }
func (g *Gauge) Type() MetricType { return TypeGauge }

// LatencyBuckets suit event callback timings, in seconds.
var LatencyBuckets = []float64{
	0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 1,
}

// Histogram counts observations into fixed upper-bound buckets. Buckets and
// counts are atomics so ObserveDuration never blocks.
type Histogram struct {
	name    string
	help    string
	buckets []float64
	counts  []atomic.Uint64 // last slot is +Inf
	count   atomic.Uint64
	sumNs   atomic.Int64
	maxNs   atomic.Int64
}

func newHistogram(name, help string, buckets []float64) *Histogram {
	if buckets == nil {
		buckets = LatencyBuckets
	}
	sorted := append([]float64(nil), buckets...)
	sort.Float64s(sorted)
	return &Histogram{
		name:    name,
		help:    help,
		buckets: sorted,
		counts:  make([]atomic.Uint64, len(sorted)+1),
	}
}

// ObserveDuration records d.
func (h *Histogram) ObserveDuration(d time.Duration) {
	s := d.Seconds()
	idx := sort.SearchFloat64s(h.buckets, s)
	h.counts[idx].Add(1)
	h.count.Add(1)
	h.sumNs.Add(int64(d))
	for {
		cur := h.maxNs.Load()
		if int64(d) <= cur || h.maxNs.CompareAndSwap(cur, int64(d)) {
			break
		}
	}
}

// Since records the time elapsed since start.
func (h *Histogram) Since(start time.Time) {
	h.ObserveDuration(time.Since(start))
}

func (h *Histogram) Count() uint64      { return h.count.Load() }
func (h *Histogram) Max() time.Duration { return time.Duration(h.maxNs.Load()) }
func (h *Histogram) Name() string       { return h.name }
func (h *Histogram) Help() string       { return h.help }
func (h *Histogram) Type() MetricType   { return TypeHistogram }

// Mean returns the average observation, or 0 with no observations.
func (h *Histogram) Mean() time.Duration {
	n := h.count.Load()
	if n == 0 {
		return 0
	}
	return time.Duration(h.sumNs.Load() / int64(n))
}

// Cumulative returns cumulative counts per bucket bound, plus "+Inf".
func (h *Histogram) Cumulative() map[string]uint64 {
	out := make(map[string]uint64, len(h.counts))
	var total uint64
	for i, b := range h.buckets {
		total += h.counts[i].Load()
		out[fmt.Sprintf("%g", b)] = total
	}
	total += h.counts[len(h.buckets)].Load()
	out["+Inf"] = total
	return out
}

// Registry holds named metrics.
type Registry struct {
	mu         sync.RWMutex
	namespace  string
	counters   map[string]*Counter
	gauges     map[string]*Gauge
	histograms map[string]*Histogram
}

// NewRegistry creates a registry whose metric names are prefixed with
// namespace.
func NewRegistry(namespace string) *Registry {
	return &Registry{
		namespace:  namespace,
		counters:   make(map[string]*Counter),
		gauges:     make(map[string]*Gauge),
		histograms: make(map[string]*Histogram),
	}
}

func (r *Registry) fullName(name string) string {
	if r.namespace == "" {
		return name
	}
	return r.namespace + "_" + name
}

// Counter returns the counter called name, creating it if needed.
func (r *Registry) Counter(name, help string) *Counter {
	r.mu.Lock()
	defer r.mu.Unlock()
	full := r.fullName(name)
	if c, ok := r.counters[full]; ok {
		return c
	}
	c := &Counter{name: full, help: help}
	r.counters[full] = c
	return c
}

// Gauge returns the gauge called name, creating it if needed.
func (r *Registry) Gauge(name, help string) *Gauge {
	r.mu.Lock()
	defer r.mu.Unlock()
	full := r.fullName(name)
	if g, ok := r.gauges[full]; ok {
		return g
	}
	g := &Gauge{name: full, help: help}
	r.gauges[full] = g
	return g
}

// Histogram returns the histogram called name, creating it if needed.
// A nil buckets slice selects LatencyBuckets.
func (r *Registry) Histogram(name, help string, buckets []float64) *Histogram {
	r.mu.Lock()
	defer r.mu.Unlock()
	full := r.fullName(name)
	if h, ok := r.histograms[full]; ok {
		return h
	}
	h := newHistogram(full, help, buckets)
	r.histograms[full] = h
	return h
}

// Snapshot returns current values keyed by full metric name. Histograms
// contribute _count, _mean_seconds and _max_seconds entries.
func (r *Registry) Snapshot() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := make(map[string]any, len(r.counters)+len(r.gauges)+3*len(r.histograms))
	for name, c := range r.counters {
		snap[name] = c.Value()
	}
	for name, g := range r.gauges {
		snap[name] = g.Value()
	}
	for name, h := range r.histograms {
		snap[name+"_count"] = h.Count()
		snap[name+"_mean_seconds"] = h.Mean().Seconds()
		snap[name+"_max_seconds"] = h.Max().Seconds()
	}
	return snap
}

// WriteJSON writes every metric with its type and help text.
func (r *Registry) WriteJSON(w io.Writer) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]any)
	for name, c := range r.counters {
		out[name] = map[string]any{"type": c.Type().String(), "help": c.help, "value": c.Value()}
	}
	for name, g := range r.gauges {
		out[name] = map[string]any{"type": g.Type().String(), "help": g.help, "value": g.Value()}
	}
	for name, h := range r.histograms {
		out[name] = map[string]any{
			"type":         h.Type().String(),
			"help":         h.help,
			"count":        h.Count(),
			"mean_seconds": h.Mean().Seconds(),
			"max_seconds":  h.Max().Seconds(),
			"buckets":      h.Cumulative(),
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// Names returns every registered metric name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var names []string
	for n := range r.counters {
		names = append(names, n)
	}
	for n := range r.gauges {
		names = append(names, n)
	}
	for n := range r.histograms {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// String renders the snapshot as sorted key=value pairs.
func (r *Registry) String() string {
	snap := r.Snapshot()
	keys := make([]string, 0, len(snap))
	for k := range snap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, snap[k]))
	}
	return strings.Join(parts, " ")
}
