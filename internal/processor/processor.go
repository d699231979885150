// Package processor drives the per-message loop: model generation, directive
// dispatch, and the optional follow-up turn that lets the model interpret
// search or calculation outcomes before answering.
package processor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/picobot/picobot/internal/config"
	"github.com/picobot/picobot/internal/directive"
	"github.com/picobot/picobot/internal/dispatch"
	"github.com/picobot/picobot/internal/llm"
	"github.com/picobot/picobot/internal/logger"
)

// Result is what one processed message produces.
type Result struct {
	// UserText is the residual text of the first reply, always delivered.
	UserText string
	// Outcomes are the per-directive results, in execution order.
	Outcomes []dispatch.Outcome
	// FollowUpText is the cleaned second reply, empty when no follow-up
	// turn ran.
	FollowUpText string
	// Turns counts the model generations performed (1 or 2).
	Turns int
}

// Processor serializes message handling per session and runs the
// generate-dispatch-reduce loop.
type Processor struct {
	provider   llm.Provider
	dispatcher *dispatch.Dispatcher
	extractor  *directive.Extractor
	cfg        config.LLMConfig
	log        *logger.Logger

	mu       sync.Mutex
	sessions map[string]*sync.Mutex
}

// New creates a Processor.
func New(provider llm.Provider, dispatcher *dispatch.Dispatcher, extractor *directive.Extractor, cfg config.LLMConfig, log *logger.Logger) *Processor {
	return &Processor{
		provider:   provider,
		dispatcher: dispatcher,
		extractor:  extractor,
		cfg:        cfg,
		log:        log,
		sessions:   make(map[string]*sync.Mutex),
	}
}

// sessionLock returns the mutex serializing one session's messages.
func (p *Processor) sessionLock(session string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()

	lock, ok := p.sessions[session]
	if !ok {
		lock = &sync.Mutex{}
		p.sessions[session] = lock
	}
	return lock
}

// Process generates a reply for the conversation history, executes any
// directives it carries, and when an outcome needs model interpretation runs
// one follow-up generation with the outcomes appended as context. Directives
// in the follow-up reply are stripped for cleanliness but never executed;
// one message triggers at most one round of side effects.
func (p *Processor) Process(ctx context.Context, session string, history []llm.Message, now time.Time) (*Result, error) {
	lock := p.sessionLock(session)
	lock.Lock()
	defer lock.Unlock()

	first, err := p.chat(ctx, history)
	if err != nil {
		return nil, fmt.Errorf("first generation: %w", err)
	}

	residual, outcomes, needsFollowUp := p.dispatcher.Process(ctx, first, now)
	result := &Result{
		UserText: strings.TrimSpace(residual),
		Outcomes: outcomes,
		Turns:    1,
	}
	if !needsFollowUp {
		return result, nil
	}

	followUp := append(append([]llm.Message{}, history...),
		llm.Message{Role: llm.RoleAssistant, Content: first},
		llm.Message{Role: llm.RoleUser, Content: outcomeContext(outcomes)},
	)

	second, err := p.chat(ctx, followUp)
	if err != nil {
		// The first reply's residual already reached the user; a failed
		// follow-up degrades to a single-turn answer.
		p.log.ErrorCtx(ctx, "follow-up generation failed", err,
			logger.Field{Key: "session", Value: session})
		return result, nil
	}

	_, cleaned := p.extractor.Extract(second)
	result.FollowUpText = strings.TrimSpace(cleaned)
	result.Turns = 2
	return result, nil
}

// chat performs one generation with the configured model settings.
func (p *Processor) chat(ctx context.Context, messages []llm.Message) (string, error) {
	model := p.cfg.Model
	if model == "" {
		model = p.provider.GetDefaultModel()
	}

	resp, err := p.provider.Chat(ctx, llm.ChatRequest{
		Messages:    messages,
		Model:       model,
		Temperature: p.cfg.Temperature,
		MaxTokens:   p.cfg.MaxTokens,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// outcomeContext serializes directive outcomes into the follow-up context
// block the model answers from.
func outcomeContext(outcomes []dispatch.Outcome) string {
	var b strings.Builder
	b.WriteString("Results of your requested actions:\n")
	for _, o := range outcomes {
		status := "ok"
		if !o.Success {
			status = "failed"
		}
		fmt.Fprintf(&b, "- [%s] %s\n", status, o.Detail)
		if o.SideEffectText != "" {
			b.WriteString(o.SideEffectText)
			b.WriteString("\n")
		}
	}
	b.WriteString("\nAnswer the user using these results. Do not issue new action commands.")
	return b.String()
}
