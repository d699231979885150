package crontab

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrTableWrite reports that the job table could not be persisted. The table
// on disk (or in the system crontab) is unchanged when this is returned.
var ErrTableWrite = errors.New("job table write failed")

// Source abstracts where the job table lives.
type Source interface {
	// Read returns the raw table lines. A missing table reads as empty.
	Read() ([]string, error)
	// Write replaces the whole table atomically.
	Write(lines []string) error
}

// fileSource keeps the table in a plain text file, one job per line.
// Writes go through a temp file and rename so a crash never leaves a
// truncated table.
type fileSource struct {
	path string
}

// NewFileSource returns a Source backed by the file at path.
func NewFileSource(path string) Source {
	return &fileSource{path: path}
}

func (s *fileSource) Read() ([]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read job table: %w", err)
	}
	return splitLines(string(data)), nil
}

func (s *fileSource) Write(lines []string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrTableWrite, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".crontab-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTableWrite, err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if _, err := tmp.WriteString(joinLines(lines)); err != nil {
		cleanup()
		return fmt.Errorf("%w: %v", ErrTableWrite, err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("%w: %v", ErrTableWrite, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrTableWrite, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrTableWrite, err)
	}
	return nil
}

// execSource drives the real system crontab through the crontab binary:
// `crontab -l` to read, `crontab -` to replace.
type execSource struct{}

// NewExecSource returns a Source backed by the user's system crontab.
func NewExecSource() Source {
	return &execSource{}
}

func (s *execSource) Read() ([]string, error) {
	out, err := exec.Command("crontab", "-l").Output()
	if err != nil {
		// `crontab -l` exits non-zero when the user has no crontab yet.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, nil
		}
		return nil, fmt.Errorf("read crontab: %w", err)
	}
	return splitLines(string(out)), nil
}

func (s *execSource) Write(lines []string) error {
	cmd := exec.Command("crontab", "-")
	cmd.Stdin = bytes.NewBufferString(joinLines(lines))
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %v: %s", ErrTableWrite, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func splitLines(data string) []string {
	data = strings.TrimRight(data, "\n")
	if data == "" {
		return nil
	}
	return strings.Split(data, "\n")
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
