package directive

import (
	"strings"

	"github.com/wasilibs/go-re2"

	"github.com/picobot/picobot/internal/logger"
)

var (
	// directivePattern matches one delimited directive: head token, optional
	// colon padding after the head (models occasionally emit ":::cron: ..."),
	// then a lazy body up to the closing marker. An unterminated opening
	// marker simply never matches and stays in the residual text.
	directivePattern = re2.MustCompile(`(?s):::([a-z_]+):*\s*(.*?):::`)

	// Reasoning blocks are stripped before extraction so directives emitted
	// inside model thinking never execute. The second pattern catches an
	// unterminated trailing block.
	thinkClosedPattern = re2.MustCompile(`(?s)<think>.*?</think>`)
	thinkOpenPattern   = re2.MustCompile(`(?s)<think>.*`)
)

// Extractor scans generated text for embedded directives.
type Extractor struct {
	log *logger.Logger
}

// NewExtractor creates an extractor. The logger records dropped empty
// directives; it must not be nil.
func NewExtractor(log *logger.Logger) *Extractor {
	return &Extractor{log: log}
}

// StripThink removes reasoning blocks from model output.
func StripThink(text string) string {
	text = thinkClosedPattern.ReplaceAllString(text, "")
	return thinkOpenPattern.ReplaceAllString(text, "")
}

// Extract parses raw model output into an ordered directive list and the
// residual user-facing text. Directive spans are removed from the residual;
// everything else is concatenated in original order. Malformed directives
// (unterminated marker) are left in the residual untouched. Directives whose
// kind requires a body but whose body is whitespace-only are dropped and
// logged, never surfaced.
//
// The returned directives carry offsets into the think-stripped input, so
// residual + removed spans always reconstruct that input exactly.
func (e *Extractor) Extract(text string) ([]Directive, string) {
	text = StripThink(text)

	matches := directivePattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil, text
	}

	var (
		directives []Directive
		residual   strings.Builder
		prev       int
	)

	for _, m := range matches {
		start, end := m[0], m[1]
		head := text[m[2]:m[3]]
		body := strings.TrimSpace(text[m[4]:m[5]])

		residual.WriteString(text[prev:start])
		prev = end

		kind := KindOf(head)
		if body == "" && kind.RequiresBody() {
			e.log.Debug("dropped empty directive",
				logger.Field{Key: "head", Value: head})
			continue
		}

		directives = append(directives, Directive{
			Kind:       kind,
			Head:       head,
			Body:       body,
			OrderIndex: len(directives),
			Start:      start,
			End:        end,
		})
	}
	residual.WriteString(text[prev:])

	return directives, residual.String()
}
