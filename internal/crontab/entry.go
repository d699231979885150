// Package crontab owns the external time-based job table. It is the only
// component that reads or writes the table; every mutation goes through a
// single read-modify-write critical section with an atomic rewrite, so no
// partial table state is ever observable.
//
// Managed lines are standard 5-field crontab entries whose command invokes
// the configured notifier. Lines that do not (comments, foreign jobs,
// environment assignments) are preserved byte-identical on every rewrite.
package crontab

import (
	"fmt"
	"strconv"
	"strings"

	"al.essio.dev/pkg/shellescape"
	"github.com/wasilibs/go-re2"
)

// Wildcard is the schedule field value matching every slot.
const Wildcard = "*"

// Entry is one managed line of the job table.
type Entry struct {
	// The five crontab schedule fields. DayOfWeek is always "*" for
	// entries produced by the scheduler.
	Minute     string
	Hour       string
	DayOfMonth string
	Month      string
	DayOfWeek  string

	// GuardYear, when non-zero, restricts the entry to a single calendar
	// year via a shell test on `date +%Y`. Crontab has no year field; the
	// guard is how one-shot entries self-expire.
	GuardYear int

	// Label is the reminder text exactly as the user phrased it, without
	// trailing decoration. It rides in the silent notification action and
	// is the key for fuzzy substring deletion.
	Label string

	// Decoration holds trailing decorative runes (emoji and the like)
	// split off the label. It appears only at the end of the echo
	// fragment, never in the silent notification.
	Decoration string
}

// guardPattern recognizes the year guard produced by formatCommand. The `%`
// is backslash-escaped in the serialized line because crontab treats a bare
// `%` as a newline.
var guardPattern = re2.MustCompile(`^\[ "\$\(date \+\\%Y\)" = "(\d{4})" \] && \{ (.*); \}$`)

// echoPrefix stamps cron-fired events with the same `timestamp | message`
// shape events.Queue produces, so one reader drains both. The `%` signs are
// backslash-escaped for crontab, same as the year guard.
const echoPrefix = `"$(date '+\%Y-\%m-\%d \%H:\%M:\%S') | "`

// Schedule returns the entry's 5-field cron expression.
func (e Entry) Schedule() string {
	return fmt.Sprintf("%s %s %s %s %s", e.Minute, e.Hour, e.DayOfMonth, e.Month, e.DayOfWeek)
}

// EchoText returns the text the entry appends to the event queue when it
// fires: the label with decoration restored at the very end.
func (e Entry) EchoText() string {
	return e.Label + e.Decoration
}

// formatLine serializes the entry into one crontab line. notifier is the
// notification command and eventsFile the event queue path, both supplied by
// the adapter.
func (e Entry) formatLine(notifier, eventsFile string) string {
	action := fmt.Sprintf("%s %s", notifier, shellescape.Quote(e.Label))
	echo := fmt.Sprintf("echo %s%s >> %s", echoPrefix, shellescape.Quote(e.EchoText()), shellescape.Quote(eventsFile))
	command := action + " ; " + echo

	if e.GuardYear != 0 {
		command = fmt.Sprintf(`[ "$(date +\%%Y)" = "%d" ] && { %s; }`, e.GuardYear, command)
	}

	return e.Schedule() + " " + command
}

// parseLine attempts to decode a managed crontab line back into an Entry.
// It returns ok=false for lines this system does not own.
func parseLine(line, notifier string) (Entry, bool) {
	fields := strings.Fields(line)
	if len(fields) < 6 || strings.HasPrefix(fields[0], "#") {
		return Entry{}, false
	}

	var e Entry
	e.Minute, e.Hour, e.DayOfMonth, e.Month, e.DayOfWeek = fields[0], fields[1], fields[2], fields[3], fields[4]

	// Command is everything after the fifth schedule field.
	idx := 0
	for i := 0; i < 5; i++ {
		idx = strings.Index(line[idx:], fields[i]) + idx + len(fields[i])
	}
	command := strings.TrimSpace(line[idx:])

	if m := guardPattern.FindStringSubmatch(command); m != nil {
		year, err := strconv.Atoi(m[1])
		if err != nil {
			return Entry{}, false
		}
		e.GuardYear = year
		command = strings.TrimSpace(m[2])
	}

	if !strings.HasPrefix(command, notifier+" ") {
		return Entry{}, false
	}

	// The label itself may contain " ; ", so the action/echo boundary is
	// found by decoding the quoted label first, never by a blind split.
	label, rest, ok := cutArg(strings.TrimPrefix(command, notifier+" "))
	if !ok || label == "" {
		return Entry{}, false
	}
	e.Label = label

	const echoSep = " ; echo "
	if !strings.HasPrefix(rest, echoSep) {
		return Entry{}, false
	}
	rest = rest[len(echoSep):]
	if !strings.HasPrefix(rest, echoPrefix) {
		return Entry{}, false
	}

	echoText, _, ok := cutArg(rest[len(echoPrefix):])
	if !ok {
		return Entry{}, false
	}
	e.Decoration = strings.TrimPrefix(echoText, label)

	return e, true
}

// cutArg undoes shellescape.Quote on the leading argument of a command
// fragment, returning the decoded value and the remainder of the fragment.
func cutArg(s string) (string, string, bool) {
	if s == "" {
		return "", "", false
	}

	if s[0] != '\'' {
		// Unquoted single word (shellescape leaves safe strings bare).
		if i := strings.IndexByte(s, ' '); i >= 0 {
			return s[:i], s[i:], true
		}
		return s, "", true
	}

	// Single-quoted with embedded quotes escaped as '"'"'. Scan until the
	// closing quote, honoring the escape sequence.
	var b strings.Builder
	rest := s[1:]
	for {
		i := strings.Index(rest, "'")
		if i == -1 {
			return "", "", false
		}
		b.WriteString(rest[:i])
		rest = rest[i+1:]
		if strings.HasPrefix(rest, `"'"'`) {
			b.WriteString("'")
			rest = rest[len(`"'"'`):]
			continue
		}
		return b.String(), rest, true
	}
}
