package watcher

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// EntryKind classifies event log entries.
type EntryKind string

const (
	EntryLot     EntryKind = "lot"
	EntryBid     EntryKind = "bid"
	EntryWarning EntryKind = "warning"
	EntrySold    EntryKind = "sold"
	EntrySystem  EntryKind = "system"
)

// Entry is one line of the auction room's running commentary.
type Entry struct {
	Kind    EntryKind `json:"kind"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// EventLog is the watcher's persistent commentary feed. It survives process
// restarts by writing through to a JSON file, and is wiped when a fresh
// auction begins.
type EventLog struct {
	path    string
	entries []Entry
}

// OpenEventLog loads the log at path, starting empty if the file does not
// exist yet.
func OpenEventLog(path string) (*EventLog, error) {
	l := &EventLog{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, fmt.Errorf("read event log: %w", err)
	}
	if err := json.Unmarshal(data, &l.entries); err != nil {
		// A corrupt log is not worth dying over; start fresh.
		l.entries = nil
	}
	return l, nil
}

// Append records an entry and persists the log.
func (l *EventLog) Append(kind EntryKind, message string, at time.Time) error {
	l.entries = append(l.entries, Entry{Kind: kind, Message: message, At: at})
	return l.flush()
}

// Clear wipes the log.
func (l *EventLog) Clear() error {
	l.entries = nil
	return l.flush()
}

// Entries returns the logged entries oldest first.
func (l *EventLog) Entries() []Entry {
	return l.entries
}

func (l *EventLog) flush() error {
	data, err := json.Marshal(l.entries)
	if err != nil {
		return fmt.Errorf("marshal event log: %w", err)
	}
	if err := os.WriteFile(l.path, data, 0o644); err != nil {
		return fmt.Errorf("write event log: %w", err)
	}
	return nil
}
