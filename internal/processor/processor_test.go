package processor

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/picobot/picobot/internal/config"
	"github.com/picobot/picobot/internal/crontab"
	"github.com/picobot/picobot/internal/directive"
	"github.com/picobot/picobot/internal/dispatch"
	"github.com/picobot/picobot/internal/llm"
	"github.com/picobot/picobot/internal/logger"
	"github.com/picobot/picobot/internal/schedule"
)

var testNow = time.Date(2026, time.January, 31, 15, 0, 0, 0, time.Local)

type fixture struct {
	processor *Processor
	provider  *llm.MockProvider
	scheduler *schedule.Scheduler
}

// searchStub answers search directives without the network.
type searchStub struct{}

func (searchStub) Kind() directive.Kind { return directive.KindSearch }

func (searchStub) Handle(_ context.Context, d directive.Directive, _ time.Time) dispatch.Outcome {
	return dispatch.Outcome{
		Success:        true,
		Detail:         "search completed",
		SideEffectText: "1. Example - https://example.com",
	}
}

func newFixture(t *testing.T, provider *llm.MockProvider) *fixture {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "text", Output: "stderr"})
	require.NoError(t, err)

	source := crontab.NewFileSource(filepath.Join(t.TempDir(), "crontab"))
	adapter := crontab.New(source, "picobot notify", "/tmp/events.log", log, nil)
	scheduler := schedule.NewScheduler(adapter, log)

	registry := dispatch.NewRegistry()
	require.NoError(t, registry.Register(&dispatch.ScheduleCreateHandler{Scheduler: scheduler}))
	require.NoError(t, registry.Register(&dispatch.ScheduleDeleteHandler{Scheduler: scheduler}))
	require.NoError(t, registry.Register(searchStub{}))

	extractor := directive.NewExtractor(log)
	dispatcher := dispatch.New(extractor, registry, 0, log, nil)

	return &fixture{
		processor: New(provider, dispatcher, extractor, config.LLMConfig{Model: "test-model"}, log),
		provider:  provider,
		scheduler: scheduler,
	}
}

func userMessage(content string) []llm.Message {
	return []llm.Message{{Role: llm.RoleUser, Content: content}}
}

func TestProcessPlainReplySingleTurn(t *testing.T) {
	f := newFixture(t, llm.NewFixedProvider("Hello there!"))

	result, err := f.processor.Process(context.Background(), "s1", userMessage("hi"), testNow)
	require.NoError(t, err)
	assert.Equal(t, "Hello there!", result.UserText)
	assert.Empty(t, result.Outcomes)
	assert.Empty(t, result.FollowUpText)
	assert.Equal(t, 1, result.Turns)
	assert.Equal(t, 1, f.provider.CallCount())
}

func TestProcessScheduleCreateNoSecondTurn(t *testing.T) {
	f := newFixture(t, llm.NewFixedProvider(
		"Noted! :::cron once 5 15 31 1 Buy milk::: I'll remind you.",
	))

	result, err := f.processor.Process(context.Background(), "s1", userMessage("remind me"), testNow)
	require.NoError(t, err)
	assert.Equal(t, "Noted!  I'll remind you.", result.UserText)
	require.Len(t, result.Outcomes, 1)
	assert.True(t, result.Outcomes[0].Success)
	assert.Equal(t, 1, result.Turns)
	assert.Equal(t, 1, f.provider.CallCount())

	res, err := f.scheduler.Delete(context.Background(), "Buy milk")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count())
}

func TestProcessSearchRunsSecondTurn(t *testing.T) {
	f := newFixture(t, llm.NewFixturesProvider([]string{
		"Let me look that up. :::search weather in Madrid:::",
		"It is sunny in Madrid today.",
	}))

	result, err := f.processor.Process(context.Background(), "s1", userMessage("weather?"), testNow)
	require.NoError(t, err)
	assert.Equal(t, "Let me look that up.", result.UserText)
	assert.Equal(t, "It is sunny in Madrid today.", result.FollowUpText)
	assert.Equal(t, 2, result.Turns)
	assert.Equal(t, 2, f.provider.CallCount())

	// The follow-up request carries the outcomes as the last user message.
	require.Len(t, f.provider.Requests, 2)
	last := f.provider.Requests[1].Messages
	require.NotEmpty(t, last)
	assert.Equal(t, llm.RoleUser, last[len(last)-1].Role)
	assert.Contains(t, last[len(last)-1].Content, "https://example.com")
}

func TestSecondReplyDirectivesStrippedNotExecuted(t *testing.T) {
	f := newFixture(t, llm.NewFixturesProvider([]string{
		"Checking. :::search something:::",
		"Found it. :::cron once 5 15 31 1 Sneaky reminder::: Done.",
	}))

	result, err := f.processor.Process(context.Background(), "s1", userMessage("check"), testNow)
	require.NoError(t, err)
	assert.Equal(t, "Found it.  Done.", result.FollowUpText)

	// The cron directive in the second reply must not have reached the
	// scheduler.
	res, err := f.scheduler.Delete(context.Background(), "Sneaky reminder")
	require.NoError(t, err)
	assert.Zero(t, res.Count())
}

func TestFollowUpFailureDegradesToSingleTurn(t *testing.T) {
	f := newFixture(t, llm.NewMockProvider(llm.MockConfig{
		Mode:       llm.MockModeFixed,
		Responses:  []string{"Looking. :::search thing:::"},
		ErrorAfter: 1,
	}))

	result, err := f.processor.Process(context.Background(), "s1", userMessage("go"), testNow)
	require.NoError(t, err)
	assert.Equal(t, "Looking.", result.UserText)
	assert.Empty(t, result.FollowUpText)
	assert.Equal(t, 1, result.Turns)
}

func TestFirstGenerationErrorPropagates(t *testing.T) {
	f := newFixture(t, llm.NewErrorProvider())

	_, err := f.processor.Process(context.Background(), "s1", userMessage("hi"), testNow)
	assert.Error(t, err)
}

func TestSessionsSerializeIndependently(t *testing.T) {
	f := newFixture(t, llm.NewFixedProvider("ok"))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		session := "a"
		if i%2 == 0 {
			session = "b"
		}
		wg.Add(1)
		go func(s string) {
			defer wg.Done()
			_, err := f.processor.Process(context.Background(), s, userMessage("hi"), testNow)
			assert.NoError(t, err)
		}(session)
	}
	wg.Wait()
	assert.Equal(t, 8, f.provider.CallCount())
}
