package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/picobot/picobot/internal/directive"
	"github.com/picobot/picobot/internal/memory"
	"github.com/picobot/picobot/internal/schedule"
	"github.com/picobot/picobot/internal/websearch"
)

// ScheduleCreateHandler serves schedule-create directives.
type ScheduleCreateHandler struct {
	Scheduler *schedule.Scheduler
}

func (h *ScheduleCreateHandler) Kind() directive.Kind { return directive.KindScheduleCreate }

func (h *ScheduleCreateHandler) Handle(ctx context.Context, d directive.Directive, now time.Time) Outcome {
	req, err := schedule.ParseRequest(d.Body, now)
	if err != nil {
		return failedOutcome(err)
	}

	entry, err := h.Scheduler.Create(ctx, req)
	if err != nil {
		return failedOutcome(err)
	}
	return Outcome{
		Success: true,
		Detail:  "reminder created: " + schedule.Describe(entry),
	}
}

// ScheduleDeleteHandler serves schedule-delete directives.
type ScheduleDeleteHandler struct {
	Scheduler *schedule.Scheduler
}

func (h *ScheduleDeleteHandler) Kind() directive.Kind { return directive.KindScheduleDelete }

func (h *ScheduleDeleteHandler) Handle(ctx context.Context, d directive.Directive, _ time.Time) Outcome {
	result, err := h.Scheduler.Delete(ctx, d.Body)
	if err != nil {
		return failedOutcome(err)
	}

	switch result.Count() {
	case 0:
		// Not an error: the model may retry with a different fragment.
		return Outcome{
			Success: true,
			Detail:  fmt.Sprintf("no reminder matches %q", strings.TrimSpace(d.Body)),
		}
	case 1:
		return Outcome{
			Success: true,
			Detail:  fmt.Sprintf("reminder removed: %q", result.Removed[0]),
		}
	default:
		return Outcome{
			Success: true,
			Detail:  fmt.Sprintf("%d matching reminders removed: %s", result.Count(), strings.Join(quoteAll(result.Removed), ", ")),
		}
	}
}

// MemoryWriteHandler serves memory-write directives.
type MemoryWriteHandler struct {
	Store *memory.Store
}

func (h *MemoryWriteHandler) Kind() directive.Kind { return directive.KindMemoryWrite }

func (h *MemoryWriteHandler) Handle(_ context.Context, d directive.Directive, _ time.Time) Outcome {
	if err := h.Store.Add(d.Body); err != nil {
		return failedOutcome(err)
	}
	return Outcome{Success: true, Detail: "note saved"}
}

// MemoryDeleteHandler serves memory-delete directives.
type MemoryDeleteHandler struct {
	Store *memory.Store
}

func (h *MemoryDeleteHandler) Kind() directive.Kind { return directive.KindMemoryDelete }

func (h *MemoryDeleteHandler) Handle(_ context.Context, d directive.Directive, _ time.Time) Outcome {
	removed, err := h.Store.Delete(d.Body)
	if err != nil {
		return failedOutcome(err)
	}
	if removed == 0 {
		return Outcome{
			Success: true,
			Detail:  fmt.Sprintf("no note matches %q", strings.TrimSpace(d.Body)),
		}
	}
	return Outcome{Success: true, Detail: fmt.Sprintf("%d note(s) removed", removed)}
}

// SearchHandler serves search directives. The result block rides in
// SideEffectText for the follow-up turn.
type SearchHandler struct {
	Client  *websearch.Client
	Enabled bool
}

func (h *SearchHandler) Kind() directive.Kind { return directive.KindSearch }

func (h *SearchHandler) Handle(ctx context.Context, d directive.Directive, _ time.Time) Outcome {
	if !h.Enabled {
		return Outcome{Success: false, Detail: "web search is disabled"}
	}

	results, err := h.Client.Search(ctx, d.Body)
	if err != nil {
		return failedOutcome(err)
	}
	return Outcome{
		Success:        true,
		Detail:         fmt.Sprintf("search completed for %q", strings.TrimSpace(d.Body)),
		SideEffectText: results,
	}
}

// MathHandler serves math-redirect directives. It performs no computation
// itself; the outcome asks the follow-up turn to answer with the dedicated
// math treatment.
type MathHandler struct{}

func (h *MathHandler) Kind() directive.Kind { return directive.KindMathRedirect }

func (h *MathHandler) Handle(_ context.Context, d directive.Directive, _ time.Time) Outcome {
	detail := "math question redirected"
	if body := strings.TrimSpace(d.Body); body != "" {
		detail = fmt.Sprintf("math question redirected: %s", body)
	}
	return Outcome{
		Success:        true,
		Detail:         detail,
		SideEffectText: "Answer the pending math question step by step, showing the calculation.",
	}
}

// failedOutcome maps a handler error to a failed outcome, surfacing the
// specific violated rule for validation errors.
func failedOutcome(err error) Outcome {
	var verr *schedule.ValidationError
	if errors.As(err, &verr) {
		return Outcome{Success: false, Detail: verr.Error()}
	}
	return Outcome{Success: false, Detail: err.Error()}
}

func quoteAll(items []string) []string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return quoted
}
