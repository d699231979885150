// Package events implements the append-only event notification queue and the
// desktop notification sink fired reminders go through.
package events

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/picobot/picobot/internal/logger"
)

// timeLayout is the timestamp format of queue lines.
const timeLayout = "2006-01-02 15:04:05"

// Queue is an append-only file of `timestamp | message` lines. A separate
// consumer drains it; this side only ever appends.
type Queue struct {
	mu   sync.Mutex
	path string
}

// NewQueue returns a queue backed by the file at path.
func NewQueue(path string) *Queue {
	return &Queue{path: path}
}

// Append adds one message to the queue. Newlines inside the message are
// flattened so every queue line stays self-contained.
func (q *Queue) Append(message string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(q.path), 0o755); err != nil {
		return fmt.Errorf("event queue: %w", err)
	}

	f, err := os.OpenFile(q.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("event queue: %w", err)
	}
	defer f.Close()

	message = strings.ReplaceAll(strings.TrimSpace(message), "\n", " ")
	line := fmt.Sprintf("%s | %s\n", time.Now().Format(timeLayout), message)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("event queue: %w", err)
	}
	return nil
}

// Path returns the queue file location.
func (q *Queue) Path() string {
	return q.path
}

// Notifier delivers fired reminders: the echo text goes onto the event queue
// and the bare label goes to the desktop as a silent notification. Queue
// append is the contract; the desktop part is best-effort.
type Notifier struct {
	queue *Queue
	log   *logger.Logger
}

// NewNotifier creates a Notifier over the given queue.
func NewNotifier(queue *Queue, log *logger.Logger) *Notifier {
	return &Notifier{queue: queue, log: log}
}

// Fire records a fired reminder. The echo text (label plus trailing
// decoration) is appended to the queue; the silent notification carries the
// label only.
func (n *Notifier) Fire(ctx context.Context, label, echoText string) error {
	if err := n.queue.Append(echoText); err != nil {
		return err
	}
	n.notifyDesktop(ctx, label)
	return nil
}

// Notify shows only the silent desktop notification. Job table entries use
// this path: their echo fragment already appends to the queue, so appending
// here again would duplicate the event.
func (n *Notifier) Notify(ctx context.Context, label string) {
	n.notifyDesktop(ctx, label)
}

// notifyDesktop shows a silent desktop notification when notify-send is
// available. Failures are logged and swallowed; the queue append already
// succeeded.
func (n *Notifier) notifyDesktop(ctx context.Context, label string) {
	if _, err := exec.LookPath("notify-send"); err != nil {
		return
	}
	cmd := exec.CommandContext(ctx, "notify-send", "--urgency=low", "picobot", label)
	if err := cmd.Run(); err != nil {
		n.log.WarnCtx(ctx, "desktop notification failed",
			logger.Field{Key: "error", Value: err.Error()})
	}
}
