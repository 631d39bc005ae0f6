// Package history persists delivered dictations as JSON lines.
package history

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const maxLineBytes = 1 << 20

// Entry is one delivered dictation.
type Entry struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Text        string    `json:"text"`
	Original    string    `json:"original,omitempty"`
	Model       string    `json:"model"`
	Duration    float64   `json:"duration"`
	WindowClass string    `json:"window_class,omitempty"`
	Mode        string    `json:"mode,omitempty"`
}

// Store appends to and reads from one JSONL file, keeping at most maxEntries.
type Store struct {
	path       string
	maxEntries int

	mu    sync.Mutex
	now   func() time.Time
	newID func() string
}

// NewStore returns a store rooted at path. It does not touch the filesystem.
func NewStore(path string, maxEntries int) *Store {
	return &Store{
		path:       path,
		maxEntries: maxEntries,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Append stamps entry with an ID and timestamp when unset, writes it, and
// prunes the oldest entries beyond the limit.
func (s *Store) Append(entry Entry) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = s.newID()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now().UTC()
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return Entry{}, fmt.Errorf("marshal history entry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return Entry{}, fmt.Errorf("create history dir: %w", err)
	}
	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return Entry{}, fmt.Errorf("open history file %q: %w", s.path, err)
	}
	_, writeErr := file.Write(append(line, '\n'))
	closeErr := file.Close()
	if writeErr != nil {
		return Entry{}, fmt.Errorf("write history entry: %w", writeErr)
	}
	if closeErr != nil {
		return Entry{}, fmt.Errorf("close history file: %w", closeErr)
	}

	if err := s.prune(); err != nil {
		return entry, err
	}
	return entry, nil
}

// Recent returns up to n entries, newest first. n <= 0 returns all entries.
func (s *Store) Recent(n int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readAll()
	if err != nil {
		return nil, err
	}
	reverse(entries)
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}

// Search returns entries whose text contains query case-insensitively,
// newest first.
func (s *Store) Search(query string) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readAll()
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	matches := make([]Entry, 0)
	for i := len(entries) - 1; i >= 0; i-- {
		if strings.Contains(strings.ToLower(entries[i].Text), needle) {
			matches = append(matches, entries[i])
		}
	}
	return matches, nil
}

func (s *Store) prune() error {
	if s.maxEntries <= 0 {
		return nil
	}
	entries, err := s.readAll()
	if err != nil {
		return err
	}
	if len(entries) <= s.maxEntries {
		return nil
	}
	return s.rewrite(entries[len(entries)-s.maxEntries:])
}

func (s *Store) rewrite(entries []Entry) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	for _, entry := range entries {
		if err := encoder.Encode(entry); err != nil {
			return fmt.Errorf("marshal history entry: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write pruned history: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace history file: %w", err)
	}
	return nil
}

// readAll returns entries oldest first. Malformed lines are skipped.
func (s *Store) readAll() ([]Entry, error) {
	file, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open history file %q: %w", s.path, err)
	}
	defer file.Close()

	entries := make([]Entry, 0)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read history file %q: %w", s.path, err)
	}
	return entries, nil
}

func reverse(entries []Entry) {
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
}
