package logging

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"time"
)

// JournalEventType names a session lifecycle event.
type JournalEventType string

// Journal event types.
const (
	JournalLocked           JournalEventType = "locked"
	JournalUnlocked         JournalEventType = "unlocked"
	JournalKilled           JournalEventType = "killed"
	JournalPermissionDenied JournalEventType = "permission_denied"
	JournalCrash            JournalEventType = "crash"
)

// JournalEvent is one line of the session journal.
type JournalEvent struct {
	Timestamp time.Time        `json:"timestamp"`
	Type      JournalEventType `json:"type"`
	SessionID string           `json:"session_id,omitempty"`
	Reason    string           `json:"reason,omitempty"`
	Duration  string           `json:"duration,omitempty"`
	Swallowed uint64           `json:"swallowed,omitempty"`
	Details   map[string]any   `json:"details,omitempty"`
}

// Journal appends one JSON object per lock session event to a rotated
// file next to the main log. It answers "when was the machine locked and
// how was it unlocked" without parsing free-form log lines.
type Journal struct {
	mu      sync.Mutex
	rotator *FileRotator
}

// DefaultJournalPath returns journal.jsonl in the log directory.
func DefaultJournalPath() string {
	return filepath.Join(filepath.Dir(DefaultLogPath()), "journal.jsonl")
}

// OpenJournal opens (or creates) the journal at path.
func OpenJournal(path string) (*Journal, error) {
	r, err := NewFileRotator(&Config{
		FilePath:   path,
		MaxSize:    1,
		MaxBackups: 2,
		Compress:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return &Journal{rotator: r}, nil
}

// Record appends e. A zero timestamp is filled in.
func (j *Journal) Record(e JournalEvent) error {
	if j == nil {
		return nil
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal journal event: %w", err)
	}
	data = append(data, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := j.rotator.Write(data); err != nil {
		return fmt.Errorf("write journal event: %w", err)
	}
	return nil
}

// Close closes the journal file.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	return j.rotator.Close()
}
