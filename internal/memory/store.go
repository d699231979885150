// Package memory is the long-term note store behind the memory directives:
// a newline-delimited text file with whole-file atomic rewrites.
package memory

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"
)

// Store holds free-text notes, one per line.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore returns a store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Add appends one note. Embedded newlines are flattened so a note never
// spans lines.
func (s *Store) Add(note string) error {
	note = strings.ReplaceAll(strings.TrimSpace(note), "\n", " ")
	if note == "" {
		return fmt.Errorf("memory: empty note")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	notes, err := s.read()
	if err != nil {
		return err
	}
	return s.write(append(notes, note))
}

// Delete removes every note containing fragment as a case-normalized
// substring and returns how many were removed. Zero is a valid result.
func (s *Store) Delete(fragment string) (int, error) {
	needle := normalize(fragment)
	if needle == "" {
		return 0, fmt.Errorf("memory: empty fragment")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	notes, err := s.read()
	if err != nil {
		return 0, err
	}

	kept := notes[:0]
	removed := 0
	for _, note := range notes {
		if strings.Contains(normalize(note), needle) {
			removed++
			continue
		}
		kept = append(kept, note)
	}
	if removed == 0 {
		return 0, nil
	}
	return removed, s.write(kept)
}

// List returns all notes in file order.
func (s *Store) List() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *Store) read() ([]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("memory: %w", err)
	}

	var notes []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			notes = append(notes, line)
		}
	}
	return notes, nil
}

func (s *Store) write(notes []string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("memory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".memory-*.tmp")
	if err != nil {
		return fmt.Errorf("memory: %w", err)
	}
	tmpName := tmp.Name()

	content := ""
	if len(notes) > 0 {
		content = strings.Join(notes, "\n") + "\n"
	}
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("memory: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("memory: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("memory: %w", err)
	}
	return nil
}

func normalize(s string) string {
	return strings.ToLower(norm.NFKC.String(strings.TrimSpace(s)))
}
