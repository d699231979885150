package schedule

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/robfig/cron/v3"
	"golang.org/x/text/unicode/norm"

	"github.com/picobot/picobot/internal/crontab"
	"github.com/picobot/picobot/internal/logger"
)

// Scheduler implements reminder creation, deletion and pruning on top of the
// job table adapter.
type Scheduler struct {
	adapter *crontab.Adapter
	log     *logger.Logger
}

// NewScheduler creates a Scheduler over the given adapter.
func NewScheduler(adapter *crontab.Adapter, log *logger.Logger) *Scheduler {
	return &Scheduler{adapter: adapter, log: log}
}

// Compile turns a validated request into a job table entry. One-shots get a
// year guard from the request's reference time; recurring entries pass their
// wildcards through unguarded. Trailing decorative runes are split off the
// label so they only ever appear at the end of the echo fragment.
func Compile(req Request) (crontab.Entry, error) {
	label, decoration := splitDecoration(req.Label)
	if label == "" {
		return crontab.Entry{}, &ValidationError{Field: "label", Rule: "must contain more than decoration"}
	}

	e := crontab.Entry{
		Minute:     req.Minute,
		Hour:       req.Hour,
		DayOfMonth: req.DayOfMonth,
		Month:      req.Month,
		DayOfWeek:  crontab.Wildcard,
		Label:      label,
		Decoration: decoration,
	}
	if req.Mode == ModeOnce {
		e.GuardYear = req.Now.Year()
	}

	// Cross-check the compiled expression with a real cron parser so a
	// field combination the range checks missed never reaches the table.
	if _, err := cron.ParseStandard(e.Schedule()); err != nil {
		return crontab.Entry{}, &ValidationError{Field: "schedule", Rule: err.Error()}
	}

	return e, nil
}

// Create validates, compiles and appends a reminder to the job table. The
// same request created twice yields two entries; dedup is the caller's
// contract.
func (s *Scheduler) Create(ctx context.Context, req Request) (crontab.Entry, error) {
	if err := req.validate(); err != nil {
		return crontab.Entry{}, err
	}
	entry, err := Compile(req)
	if err != nil {
		return crontab.Entry{}, err
	}

	err = s.adapter.Update(ctx, func(entries []crontab.Entry) ([]crontab.Entry, error) {
		return append(entries, entry), nil
	})
	if err != nil {
		return crontab.Entry{}, err
	}

	s.log.InfoCtx(ctx, "reminder created",
		logger.Field{Key: "label", Value: entry.Label},
		logger.Field{Key: "schedule", Value: entry.Schedule()},
		logger.Field{Key: "mode", Value: string(req.Mode)})
	return entry, nil
}

// DeleteResult reports what a fuzzy delete removed.
type DeleteResult struct {
	// Removed holds the labels of every deleted entry, in table order.
	Removed []string
}

// Count returns how many entries the delete removed.
func (r DeleteResult) Count() int { return len(r.Removed) }

// Delete removes every managed entry whose label (or echo text) contains
// fragment as a normalized substring. Zero matches is a valid outcome, not
// an error; multiple matches are all removed because the caller cannot
// disambiguate interactively.
func (s *Scheduler) Delete(ctx context.Context, fragment string) (DeleteResult, error) {
	needle := normalizeLabel(fragment)
	if needle == "" {
		return DeleteResult{}, &ValidationError{Field: "fragment", Rule: "must not be empty"}
	}

	var result DeleteResult
	err := s.adapter.Update(ctx, func(entries []crontab.Entry) ([]crontab.Entry, error) {
		kept := entries[:0]
		for _, e := range entries {
			if strings.Contains(normalizeLabel(e.Label), needle) ||
				strings.Contains(normalizeLabel(e.EchoText()), needle) {
				result.Removed = append(result.Removed, e.Label)
				continue
			}
			kept = append(kept, e)
		}
		return kept, nil
	})
	if err != nil {
		return DeleteResult{}, err
	}

	s.log.InfoCtx(ctx, "reminder delete",
		logger.Field{Key: "fragment", Value: fragment},
		logger.Field{Key: "removed", Value: result.Count()})
	return result, nil
}

// Prune drops one-shot entries whose guarded fire time has already passed.
// Entries guarded for a future year, recurring entries and anything with a
// wildcard fire time are kept.
func (s *Scheduler) Prune(ctx context.Context, now time.Time) (int, error) {
	pruned := 0
	err := s.adapter.Update(ctx, func(entries []crontab.Entry) ([]crontab.Entry, error) {
		kept := entries[:0]
		for _, e := range entries {
			if elapsed(e, now) {
				pruned++
				continue
			}
			kept = append(kept, e)
		}
		return kept, nil
	})
	if err != nil {
		return 0, err
	}

	if pruned > 0 {
		s.log.InfoCtx(ctx, "pruned expired reminders",
			logger.Field{Key: "count", Value: pruned})
	}
	return pruned, nil
}

// elapsed reports whether a one-shot entry can never fire again.
func elapsed(e crontab.Entry, now time.Time) bool {
	if e.GuardYear == 0 {
		return false
	}
	if e.GuardYear < now.Year() {
		return true
	}
	if e.GuardYear > now.Year() {
		return false
	}

	fire, ok := fireTime(e, e.GuardYear)
	return ok && fire.Before(now)
}

// fireTime resolves a fully concrete entry to its wall-clock fire time in
// the given year. Entries with wildcard fields have no single fire time.
func fireTime(e crontab.Entry, year int) (time.Time, bool) {
	fields := []string{e.Minute, e.Hour, e.DayOfMonth, e.Month}
	nums := make([]int, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return time.Time{}, false
		}
		nums[i] = n
	}
	return time.Date(year, time.Month(nums[3]), nums[2], nums[1], nums[0], 0, 0, time.Local), true
}

// normalizeLabel prepares text for fuzzy substring matching: NFKC folds
// width and compatibility variants, then everything is lowercased.
func normalizeLabel(s string) string {
	return strings.ToLower(norm.NFKC.String(strings.TrimSpace(s)))
}

// splitDecoration separates trailing decorative runes (emoji, symbols,
// joiners) from the label. Letters, digits, punctuation and interior
// whitespace stay in the label; whitespace leading into the decoration
// moves with it so label+decoration reassembles the original text.
func splitDecoration(label string) (string, string) {
	runes := []rune(label)
	i := len(runes)
	for i > 0 {
		r := runes[i-1]
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsPunct(r) {
			break
		}
		i--
	}

	// Nothing but whitespace trimmed off the end means no decoration.
	decoration := string(runes[i:])
	if strings.TrimSpace(decoration) == "" {
		return strings.TrimSpace(label), ""
	}
	return strings.TrimRight(string(runes[:i]), " \t"), decoration
}

// Describe renders an entry for outcome summaries.
func Describe(e crontab.Entry) string {
	kind := "recurring"
	if e.GuardYear != 0 {
		kind = fmt.Sprintf("once in %d", e.GuardYear)
	}
	return fmt.Sprintf("%q at %s (%s)", e.Label, e.Schedule(), kind)
}
