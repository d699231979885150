package events

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "events.log")
	q := NewQueue(path)

	require.NoError(t, q.Append("Wake up ☀️"))
	require.NoError(t, q.Append("Buy milk"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		ts, msg, found := strings.Cut(line, " | ")
		require.True(t, found, "line has a separator: %q", line)
		assert.Regexp(t, `^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`, ts)
		assert.NotEmpty(t, msg)
	}
	assert.True(t, strings.HasSuffix(lines[0], "Wake up ☀️"))
	assert.True(t, strings.HasSuffix(lines[1], "Buy milk"))
}

func TestQueueAppendFlattensNewlines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.log")
	q := NewQueue(path)

	require.NoError(t, q.Append("line one\nline two"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "line one line two")
}

func TestQueueConcurrentAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.log")
	q := NewQueue(path)

	const n = 32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, q.Append("tick"))
		}()
	}
	wg.Wait()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimRight(string(data), "\n"), "\n"), n)
}
