// Package history records fixture runs in a YAML file under the state
// directory so earlier verdicts can be listed with `cctest history`.
package history

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// HistoryFileName is the name of the history file.
	HistoryFileName = "history.yaml"
	// BackupSuffix is the suffix for backup files when corruption is detected.
	BackupSuffix = ".backup"
	// DefaultMaxEntries bounds the file when no limit is configured.
	DefaultMaxEntries = 500
)

// Status values for history entries. Finished runs carry the verdict.
const (
	StatusRunning   = "running"
	StatusPass      = "pass"
	StatusFail      = "fail"
	StatusError     = "error"
	StatusCancelled = "cancelled"
)

// Entry is one fixture run.
type Entry struct {
	// ID is a memorable identifier in adjective_noun_YYYYMMDD_HHMMSS format.
	ID string `yaml:"id"`
	// RunID correlates the entry with saved raw output and JSON results.
	RunID string `yaml:"run_id,omitempty"`
	// Fixture is the fixture's name field.
	Fixture string `yaml:"fixture"`
	// Source is the fixture file path.
	Source string `yaml:"source,omitempty"`
	// Domain and AppID identify the application under test.
	Domain string `yaml:"domain,omitempty"`
	AppID  string `yaml:"app_id,omitempty"`
	Status string `yaml:"status"`
	// Reason explains a fail or error verdict.
	Reason      string     `yaml:"reason,omitempty"`
	FailedStep  *int       `yaml:"failed_step,omitempty"`
	ExitCode    int        `yaml:"exit_code"`
	CreatedAt   time.Time  `yaml:"created_at"`
	CompletedAt *time.Time `yaml:"completed_at,omitempty"`
	// Duration is in Go duration format (e.g., "2m15.123s").
	Duration string `yaml:"duration,omitempty"`
}

// File is the YAML document holding all entries, oldest first.
type File struct {
	Entries []Entry `yaml:"entries"`
}

// DefaultStateDir returns ~/.cctest/state.
func DefaultStateDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(homeDir, ".cctest", "state"), nil
}

// Load reads the history file from stateDir. A missing file yields an
// empty history; a corrupted one is moved aside with BackupSuffix.
func Load(stateDir string) (*File, error) {
	historyPath := filepath.Join(stateDir, HistoryFileName)

	data, err := os.ReadFile(historyPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &File{Entries: []Entry{}}, nil
		}
		return nil, fmt.Errorf("reading history file: %w", err)
	}

	var history File
	if err := yaml.Unmarshal(data, &history); err != nil {
		if backupErr := os.Rename(historyPath, historyPath+BackupSuffix); backupErr != nil {
			return nil, fmt.Errorf("backing up corrupted history file: %w", backupErr)
		}
		return &File{Entries: []Entry{}}, nil
	}
	if history.Entries == nil {
		history.Entries = []Entry{}
	}
	return &history, nil
}

// Save writes the history file through a temporary file and rename.
func Save(stateDir string, history *File) error {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	data, err := yaml.Marshal(history)
	if err != nil {
		return fmt.Errorf("marshaling history: %w", err)
	}

	historyPath := filepath.Join(stateDir, HistoryFileName)
	tmpPath := historyPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("writing temp history file: %w", err)
	}
	if err := os.Rename(tmpPath, historyPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp history file: %w", err)
	}
	return nil
}

// Clear removes all entries.
func Clear(stateDir string) error {
	return Save(stateDir, &File{Entries: []Entry{}})
}

// Recent returns up to limit entries, newest first. A limit <= 0 returns all.
func (h *File) Recent(limit int) []Entry {
	n := len(h.Entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Entry, 0, n)
	for i := len(h.Entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, h.Entries[i])
	}
	return out
}
