// Package schedule turns reminder requests into job table entries and back:
// creation with validation and year-guard synthesis, fuzzy deletion, pruning
// of expired one-shots, and an in-process runner that fires due entries.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Mode says whether a reminder fires once or on a repeating schedule.
type Mode string

const (
	ModeOnce      Mode = "once"
	ModeRecurring Mode = "recurring"
)

// Request is the decoded payload of a schedule-create directive.
type Request struct {
	Mode       Mode
	Minute     string
	Hour       string
	DayOfMonth string
	Month      string
	// Label is the reminder text, possibly ending in decorative runes.
	Label string
	// Now anchors one-shot requests to a calendar year.
	Now time.Time
}

// ValidationError names the request field and rule a schedule-create
// violated. It is reported to the dispatcher, never raised past it.
type ValidationError struct {
	Field string
	Rule  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid schedule request: %s: %s", e.Field, e.Rule)
}

// ParseRequest decodes a schedule-create directive body of the form
//
//	mode minute hour day month label...
//
// where the label consumes the rest of the body. Markdown escapes the model
// tends to emit around wildcards are undone, and a stray trailing colon left
// over from sloppy delimiter writing is trimmed off the label.
func ParseRequest(body string, now time.Time) (Request, error) {
	body = unescapeMarkdown(strings.TrimSpace(body))

	fields := strings.Fields(body)
	if len(fields) < 6 {
		return Request{}, &ValidationError{Field: "body", Rule: "expected: mode minute hour day month label"}
	}

	mode, ok := parseMode(fields[0])
	if !ok {
		return Request{}, &ValidationError{Field: "mode", Rule: fmt.Sprintf("unknown mode %q", fields[0])}
	}

	label := strings.TrimSpace(strings.TrimSuffix(strings.Join(fields[5:], " "), ":"))

	req := Request{
		Mode:       mode,
		Minute:     fields[1],
		Hour:       fields[2],
		DayOfMonth: fields[3],
		Month:      fields[4],
		Label:      label,
		Now:        now,
	}
	if err := req.validate(); err != nil {
		return Request{}, err
	}
	return req, nil
}

// parseMode accepts the canonical mode tokens plus the legacy Spanish ones
// older prompts trained the model on.
func parseMode(token string) (Mode, bool) {
	switch strings.ToLower(token) {
	case "once", "unico", "único":
		return ModeOnce, true
	case "recurring", "recurrente":
		return ModeRecurring, true
	}
	return "", false
}

// validate checks the request in a fixed order: mode-specific concreteness,
// numeric ranges, then the anti-runaway rule.
func (r Request) validate() error {
	if r.Label == "" {
		return &ValidationError{Field: "label", Rule: "must not be empty"}
	}

	if r.Mode == ModeOnce {
		if r.DayOfMonth == "*" {
			return &ValidationError{Field: "day_of_month", Rule: "must be concrete for a one-shot"}
		}
		if r.Month == "*" {
			return &ValidationError{Field: "month", Rule: "must be concrete for a one-shot"}
		}
	}

	ranges := []struct {
		field    string
		value    string
		min, max int
	}{
		{"minute", r.Minute, 0, 59},
		{"hour", r.Hour, 0, 23},
		{"day_of_month", r.DayOfMonth, 1, 31},
		{"month", r.Month, 1, 12},
	}
	for _, f := range ranges {
		if f.value == "*" {
			continue
		}
		n, err := strconv.Atoi(f.value)
		if err != nil {
			return &ValidationError{Field: f.field, Rule: fmt.Sprintf("%q is not a number or wildcard", f.value)}
		}
		if n < f.min || n > f.max {
			return &ValidationError{Field: f.field, Rule: fmt.Sprintf("%d outside %d-%d", n, f.min, f.max)}
		}
	}

	// A reminder firing every minute of every hour is never what the user
	// asked for.
	if r.Minute == "*" && r.Hour == "*" {
		return &ValidationError{Field: "minute", Rule: "minute and hour must not both be wildcards"}
	}

	return nil
}

// unescapeMarkdown strips backslash escapes the model adds to wildcard
// asterisks and underscores when it formats directive bodies as markdown.
func unescapeMarkdown(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		if runes[i] == '\\' && i+1 < len(runes) && unicode.IsPunct(runes[i+1]) {
			continue
		}
		b.WriteRune(runes[i])
	}
	return b.String()
}
