package crontab

import (
	"context"
	"sync"

	"github.com/picobot/picobot/internal/logger"
	"github.com/picobot/picobot/internal/retry"
)

// Adapter is the sole gateway to the job table. All mutations run inside one
// mutex-held read-modify-write cycle, so concurrent directive batches can
// never interleave partial table states.
type Adapter struct {
	mu         sync.Mutex
	source     Source
	notifier   string
	eventsFile string
	log        *logger.Logger
	metrics    *Metrics
}

// New creates an Adapter over the given source. notifier is the notification
// command that marks a line as managed; eventsFile is the event queue path
// baked into every entry's echo fragment.
func New(source Source, notifier, eventsFile string, log *logger.Logger, metrics *Metrics) *Adapter {
	return &Adapter{
		source:     source,
		notifier:   notifier,
		eventsFile: eventsFile,
		log:        log,
		metrics:    metrics,
	}
}

// Update runs fn over the current managed entries and persists whatever fn
// returns. Foreign lines survive the rewrite byte-identical; managed lines
// are re-serialized from fn's result. fn returning an error aborts the cycle
// with the table untouched.
func (a *Adapter) Update(ctx context.Context, fn func(entries []Entry) ([]Entry, error)) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	lines, err := a.source.Read()
	if err != nil {
		a.metrics.RecordError()
		return err
	}

	var (
		entries []Entry
		foreign []string
	)
	for _, line := range lines {
		if e, ok := parseLine(line, a.notifier); ok {
			entries = append(entries, e)
			continue
		}
		foreign = append(foreign, line)
	}

	updated, err := fn(entries)
	if err != nil {
		return err
	}

	out := make([]string, 0, len(foreign)+len(updated))
	out = append(out, foreign...)
	for _, e := range updated {
		out = append(out, e.formatLine(a.notifier, a.eventsFile))
	}

	err = retry.Do(ctx, func() error {
		return a.source.Write(out)
	}, retry.Config{})
	if err != nil {
		a.metrics.RecordError()
		a.log.ErrorCtx(ctx, "job table rewrite failed", err)
		return err
	}

	a.metrics.RecordRewrite(len(updated))
	a.log.DebugCtx(ctx, "job table rewritten",
		logger.Field{Key: "managed", Value: len(updated)},
		logger.Field{Key: "foreign", Value: len(foreign)})
	return nil
}

// Entries returns a snapshot of the managed entries without rewriting the
// table.
func (a *Adapter) Entries(ctx context.Context) ([]Entry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	lines, err := a.source.Read()
	if err != nil {
		a.metrics.RecordError()
		return nil, err
	}

	var entries []Entry
	for _, line := range lines {
		if e, ok := parseLine(line, a.notifier); ok {
			entries = append(entries, e)
		}
	}
	return entries, nil
}
