package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"sort"
	"sync"
	"time"
)

// CrashReport describes an unrecovered panic.
type CrashReport struct {
	Timestamp    time.Time      `json:"timestamp"`
	Version      string         `json:"version"`
	GOOS         string         `json:"goos"`
	GOARCH       string         `json:"goarch"`
	NumGoroutine int            `json:"num_goroutine"`
	PanicValue   string         `json:"panic_value"`
	StackTrace   string         `json:"stack_trace"`
	SessionID    string         `json:"session_id,omitempty"`
	Context      map[string]any `json:"context,omitempty"`
}

// CrashHandlerConfig configures the crash handler.
type CrashHandlerConfig struct {
	// CrashDir receives crash-<timestamp>.json dumps.
	CrashDir string

	Version string

	// OnCrash runs before anything is written. It is where the caller
	// releases the event tap and wake lock.
	OnCrash func()

	// Stderr receives a short summary. Defaults to os.Stderr.
	Stderr io.Writer
}

// CrashHandler turns panics into crash dumps after running the teardown
// hook.
type CrashHandler struct {
	mu        sync.Mutex
	crashDir  string
	version   string
	sessionID string
	onCrash   func()
	stderr    io.Writer
}

// DefaultCrashDir returns the platform-specific crash dump directory.
func DefaultCrashDir() string {
	return filepath.Join(filepath.Dir(DefaultLogPath()), "crashes")
}

// NewCrashHandler creates a crash handler. The directory is created
// lazily when the first dump is written.
func NewCrashHandler(cfg CrashHandlerConfig) *CrashHandler {
	if cfg.CrashDir == "" {
		cfg.CrashDir = DefaultCrashDir()
	}
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}
	return &CrashHandler{
		crashDir: cfg.CrashDir,
		version:  cfg.Version,
		onCrash:  cfg.OnCrash,
		stderr:   cfg.Stderr,
	}
}

// SetSessionID tags later reports with the lock session.
func (h *CrashHandler) SetSessionID(id string) {
	h.mu.Lock()
	h.sessionID = id
	h.mu.Unlock()
}

// SetOnCrash replaces the teardown hook.
func (h *CrashHandler) SetOnCrash(fn func()) {
	h.mu.Lock()
	h.onCrash = fn
	h.mu.Unlock()
}

// Recover is meant to be deferred directly at the top of a goroutine. It
// handles a panic and then re-panics so the process still exits abnormally.
func (h *CrashHandler) Recover() {
	if r := recover(); r != nil {
		h.HandlePanic(r, nil)
		panic(r)
	}
}

// HandlePanic runs the teardown hook, writes a crash dump and prints a
// summary. It returns the dump path, or "" if it could not be written.
func (h *CrashHandler) HandlePanic(v any, ctx map[string]any) string {
	h.mu.Lock()
	onCrash := h.onCrash
	report := CrashReport{
		Timestamp:    time.Now().UTC(),
		Version:      h.version,
		GOOS:         runtime.GOOS,
		GOARCH:       runtime.GOARCH,
		NumGoroutine: runtime.NumGoroutine(),
		PanicValue:   fmt.Sprintf("%v", v),
		StackTrace:   string(debug.Stack()),
		SessionID:    h.sessionID,
		Context:      ctx,
	}
	h.mu.Unlock()

	if onCrash != nil {
		func() {
			defer func() { recover() }()
			onCrash()
		}()
	}

	path, err := h.writeCrashDump(report)
	fmt.Fprintf(h.stderr, "\nvegitate crashed: %s\n", report.PanicValue)
	if err != nil {
		fmt.Fprintf(h.stderr, "could not write crash report: %v\n", err)
		return ""
	}
	fmt.Fprintf(h.stderr, "crash report: %s\n", path)
	return path
}

func (h *CrashHandler) writeCrashDump(report CrashReport) (string, error) {
	if err := os.MkdirAll(h.crashDir, 0o750); err != nil {
		return "", fmt.Errorf("create crash dir: %w", err)
	}

	name := fmt.Sprintf("crash-%s.json", report.Timestamp.Format("20060102-150405.000"))
	path := filepath.Join(h.crashDir, name)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal crash report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return "", fmt.Errorf("write crash report: %w", err)
	}
	return path, nil
}

// CrashReports returns stored reports, newest first.
func (h *CrashHandler) CrashReports() ([]CrashReport, error) {
	files, err := filepath.Glob(filepath.Join(h.crashDir, "crash-*.json"))
	if err != nil {
		return nil, err
	}
	sort.Sort(sort.Reverse(sort.StringSlice(files)))

	reports := make([]CrashReport, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			continue
		}
		var r CrashReport
		if err := json.Unmarshal(data, &r); err != nil {
			continue
		}
		reports = append(reports, r)
	}
	return reports, nil
}
