// Package directive defines the in-band command grammar embedded in model
// output and the extractor that separates directives from user-facing text.
//
// A directive is delimited by a fixed triple-colon marker pair:
//
//	:::cron recurring 0 9 * * Wake up:::
//
// The head token after the opening marker selects the directive kind from a
// small closed vocabulary; the rest of the span is the raw body. Text outside
// the markers is residual and is what the user sees.
package directive

// Marker is the fixed 3-character delimiter that opens and closes a directive.
const Marker = ":::"

// Kind identifies what a directive asks the host to do. The string value is
// the head token as it appears in model output.
type Kind string

const (
	KindScheduleCreate Kind = "cron"
	KindScheduleDelete Kind = "cron_delete"
	KindMemoryWrite    Kind = "memory"
	KindMemoryDelete   Kind = "memory_delete"
	KindSearch         Kind = "search"
	KindTerminal       Kind = "terminal"
	KindMathRedirect   Kind = "math"
	KindImageSearch    Kind = "photo"
	KindUpload         Kind = "upload"
	KindLight          Kind = "light"

	// KindUnknown marks a syntactically well-formed directive whose head is
	// not in the vocabulary. It extracts normally and fails at dispatch.
	KindUnknown Kind = ""
)

// Valid reports whether k is one of the known directive kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindScheduleCreate, KindScheduleDelete, KindMemoryWrite, KindMemoryDelete,
		KindSearch, KindTerminal, KindMathRedirect, KindImageSearch, KindUpload, KindLight:
		return true
	default:
		return false
	}
}

// RequiresBody reports whether directives of this kind must carry a non-empty
// body. Kinds that are pure triggers (math redirect) are complete without one.
func (k Kind) RequiresBody() bool {
	switch k {
	case KindMathRedirect:
		return false
	default:
		return true
	}
}

// NeedsFollowUp reports whether outcomes of this kind must be fed back to the
// model for a second generation pass. Side-effecting kinds resolve silently.
func (k Kind) NeedsFollowUp() bool {
	switch k {
	case KindSearch, KindTerminal, KindMathRedirect, KindImageSearch:
		return true
	default:
		return false
	}
}

// KindOf maps a head token to its Kind, or KindUnknown if the head is not in
// the vocabulary.
func KindOf(head string) Kind {
	k := Kind(head)
	if k.Valid() {
		return k
	}
	return KindUnknown
}

// Directive is one parsed instruction extracted from model output.
type Directive struct {
	Kind Kind   // resolved kind, KindUnknown for unrecognized heads
	Head string // head token as written, kept for diagnostics
	Body string // raw text between head and closing marker, trimmed

	// OrderIndex is the position of this directive in its batch. It is
	// strictly increasing in emission order and drives execution order.
	OrderIndex int

	// Start and End are byte offsets of the full directive span (markers
	// included) in the extractor's input after think-block stripping.
	Start, End int
}
