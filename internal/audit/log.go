// Package audit records check events in a tamper-evident JSONL log.
package audit

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/drosengarten/bulwark/decorators"
)

// GenesisHash is the prev_hash of the first entry in a new log.
const GenesisHash = "sha256:0000000000000000000000000000000000000000000000000000000000000000"

// TimestampFormat is the layout of Entry.Timestamp.
const TimestampFormat = "2006-01-02T15:04:05.000Z"

// MaxErrorLen caps Entry.Error as recorded from an event.
const MaxErrorLen = 8 << 10

// maxLineSize bounds a single line when reading a log back.
const maxLineSize = 16 << 20

func newScanner(r io.Reader) *bufio.Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64<<10), maxLineSize)
	return s
}

// Entry is one line of the log. Field order is fixed so that the same
// entry always hashes the same.
type Entry struct {
	Timestamp  string  `json:"ts"`
	RunID      string  `json:"run_id"`
	Check      string  `json:"check"`
	Target     string  `json:"target"`
	Locator    string  `json:"locator"`
	Outcome    string  `json:"outcome"`
	Error      string  `json:"error,omitempty"`
	DurationMS float64 `json:"duration_ms"`
	PrevHash   string  `json:"prev_hash"`
}

// EntryFromEvent flattens a check event.
func EntryFromEvent(runID string, e decorators.Event) Entry {
	entry := Entry{
		RunID:      runID,
		Check:      e.Check,
		Target:     e.Target,
		Locator:    e.Locator.String(),
		Outcome:    string(e.Outcome),
		DurationMS: float64(e.Duration.Microseconds()) / 1000,
	}
	if e.Err != nil {
		entry.Error = truncate(e.Err.Error(), MaxErrorLen)
	}
	return entry
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "... (truncated)"
}

// Log is an append-only JSONL log. Each entry carries the hash of the
// line before it.
type Log struct {
	path     string
	file     *os.File
	prevHash string
	err      error
	mu       sync.Mutex
}

// Open opens or creates the log at path. An existing log is continued
// from its last line.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("audit: create directory: %w", err)
	}

	prevHash := GenesisHash
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		last, err := lastLine(path)
		if err != nil {
			return nil, err
		}
		if len(last) > 0 {
			prevHash = HashLine(last)
		}
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("audit: open file: %w", err)
	}
	return &Log{path: path, file: file, prevHash: prevHash}, nil
}

func lastLine(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audit: read existing log: %w", err)
	}
	defer func() { _ = f.Close() }()

	scanner := newScanner(f)
	var last []byte
	for scanner.Scan() {
		last = append(last[:0], scanner.Bytes()...)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("audit: scan existing log: %w", err)
	}
	return last, nil
}

// Record appends entry, setting its PrevHash and, when empty, its
// Timestamp.
func (l *Log) Record(entry Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format(TimestampFormat)
	}
	entry.PrevHash = l.prevHash

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("audit: marshal entry: %w", err)
	}
	if _, err := l.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("audit: write entry: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("audit: sync: %w", err)
	}

	l.prevHash = HashLine(line)
	return nil
}

// Observer records every event under runID. The first write error is
// kept until TakeErr.
func (l *Log) Observer(runID string) decorators.Observer {
	return func(e decorators.Event) {
		if err := l.Record(EntryFromEvent(runID, e)); err != nil {
			l.mu.Lock()
			if l.err == nil {
				l.err = err
			}
			l.mu.Unlock()
		}
	}
}

// TakeErr returns the first error an Observer hit since the previous
// call and clears it.
func (l *Log) TakeErr() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	err := l.err
	l.err = nil
	return err
}

// Close closes the underlying file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// HashLine returns "sha256:<hex>" of line.
func HashLine(line []byte) string {
	h := sha256.Sum256(line)
	return "sha256:" + hex.EncodeToString(h[:])
}
