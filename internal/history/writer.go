package history

import (
	"fmt"
	"sync"
	"time"
)

// Writer appends run entries and prunes the oldest beyond MaxEntries.
// Concurrent runs in one process share a Writer.
type Writer struct {
	StateDir   string
	MaxEntries int

	mu  sync.Mutex
	now func() time.Time
}

// NewWriter creates a new history writer.
func NewWriter(stateDir string, maxEntries int) *Writer {
	return &Writer{StateDir: stateDir, MaxEntries: maxEntries}
}

// Start records a running entry and returns its ID for Complete.
func (w *Writer) Start(e Entry) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	history, err := Load(w.StateDir)
	if err != nil {
		return "", fmt.Errorf("loading history: %w", err)
	}

	id, err := uniqueID(history)
	if err != nil {
		return "", fmt.Errorf("generating history ID: %w", err)
	}
	e.ID = id
	e.Status = StatusRunning
	e.CreatedAt = w.clock()

	history.Entries = append(history.Entries, e)
	if w.MaxEntries > 0 && len(history.Entries) > w.MaxEntries {
		history.Entries = history.Entries[len(history.Entries)-w.MaxEntries:]
	}
	if err := Save(w.StateDir, history); err != nil {
		return "", fmt.Errorf("writing start entry: %w", err)
	}
	return id, nil
}

// Result is the final state written by Complete.
type Result struct {
	Status     string
	Reason     string
	FailedStep *int
	ExitCode   int
	Duration   time.Duration
}

// Complete fills in the verdict of the entry with the given ID.
func (w *Writer) Complete(id string, r Result) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	history, err := Load(w.StateDir)
	if err != nil {
		return fmt.Errorf("loading history for update: %w", err)
	}

	found := false
	for i := range history.Entries {
		e := &history.Entries[i]
		if e.ID != id {
			continue
		}
		now := w.clock()
		e.Status = r.Status
		e.Reason = r.Reason
		e.FailedStep = r.FailedStep
		e.ExitCode = r.ExitCode
		e.Duration = r.Duration.Round(time.Millisecond).String()
		e.CompletedAt = &now
		found = true
		break
	}
	if !found {
		return fmt.Errorf("entry not found with ID: %s", id)
	}

	if err := Save(w.StateDir, history); err != nil {
		return fmt.Errorf("saving updated history: %w", err)
	}
	return nil
}

// maxIDAttempts bounds regeneration when a generated ID is already taken.
const maxIDAttempts = 20

func uniqueID(h *File) (string, error) {
	taken := make(map[string]bool, len(h.Entries))
	for _, e := range h.Entries {
		taken[e.ID] = true
	}
	for i := 0; i < maxIDAttempts; i++ {
		id, err := GenerateID()
		if err != nil {
			return "", err
		}
		if !taken[id] {
			return id, nil
		}
	}
	return "", fmt.Errorf("no free ID after %d attempts", maxIDAttempts)
}

func (w *Writer) clock() time.Time {
	if w.now != nil {
		return w.now()
	}
	return time.Now()
}
