// Package cond implements the Condition Evaluator and Match Scanner
// (spec.md §4.B, §4.C): a small matching language over level, edge, and
// skip predicates, evaluated against packed-bit sample chunks.
package cond

// TermKind is the closed set of term predicates (spec.md §3 "Condition
// list"). Represented as a tagged enum rather than a type hierarchy, per
// spec.md §9 ("Dynamic dispatch ... represent them as tagged variants").
type TermKind int

const (
	High TermKind = iota
	Low
	RisingEdge
	FallingEdge
	EitherEdge
	NoEdge
	Skip
	// AlwaysFalse is produced for out-of-range channel references or
	// negative skip counts; it never matches.
	AlwaysFalse
)

func (k TermKind) String() string {
	switch k {
	case High:
		return "high"
	case Low:
		return "low"
	case RisingEdge:
		return "rising-edge"
	case FallingEdge:
		return "falling-edge"
	case EitherEdge:
		return "either-edge"
	case NoEdge:
		return "no-edge"
	case Skip:
		return "skip"
	case AlwaysFalse:
		return "always-false"
	default:
		return "unknown"
	}
}

// ParseLevelOrEdge maps the single-letter keywords accepted by wait()'s
// channel-number keys ('h', 'l', 'r', 'f', 'e', 'n') to a TermKind. The
// second return is false for an unrecognized keyword.
func ParseLevelOrEdge(s string) (TermKind, bool) {
	if len(s) == 0 {
		return AlwaysFalse, false
	}
	switch s[0] {
	case 'h':
		return High, true
	case 'l':
		return Low, true
	case 'r':
		return RisingEdge, true
	case 'f':
		return FallingEdge, true
	case 'e':
		return EitherEdge, true
	case 'n':
		return NoEdge, true
	default:
		return AlwaysFalse, false
	}
}

// Term is a single match predicate. Channel is a decoder-declared
// channel index (as named in spec.md's "Condition list": "the key
// either is a channel index or a keyword"), meaningful for all kinds
// except Skip. SkipTarget/SkipDone implement the SKIP(n) counter
// described in spec.md §3 ("already_skipped <= n").
type Term struct {
	Kind       TermKind
	Channel    int
	SkipTarget uint64
	SkipDone   uint64
}

// NewLevelOrEdgeTerm builds a term for a channel index. If the channel
// is out of range for the decoder (validated by the caller, which knows
// dec_num_channels), the caller should instead construct an AlwaysFalse
// term.
func NewLevelOrEdgeTerm(channel int, kind TermKind) Term {
	return Term{Kind: kind, Channel: channel}
}

// NewSkipTerm builds a SKIP(n) term. Negative n is represented by the
// caller passing an AlwaysFalse term instead (uint64 cannot carry the
// sign, so the negative check must happen before this constructor, as
// the original core does in create_term_list()).
func NewSkipTerm(n uint64) Term {
	return Term{Kind: Skip, SkipTarget: n}
}

// NewAlwaysFalseTerm builds the trivially-false marker term.
func NewAlwaysFalseTerm() Term {
	return Term{Kind: AlwaysFalse}
}

// Done reports whether a SKIP term has reached its target count.
func (t *Term) Done() bool {
	return t.Kind == Skip && t.SkipDone == t.SkipTarget
}

// sampleMatches is the Condition Evaluator (spec.md §4.B) for level and
// edge kinds only; SKIP and AlwaysFalse are handled by the scanner since
// they carry state/short-circuit behavior beyond a pure (old, cur) check.
func sampleMatches(old, cur uint8, kind TermKind) bool {
	switch kind {
	case High:
		return cur == 1
	case Low:
		return cur == 0
	case RisingEdge:
		return old == 0 && cur == 1
	case FallingEdge:
		return old == 1 && cur == 0
	case EitherEdge:
		return old != cur
	case NoEdge:
		return old == cur
	default:
		return false
	}
}

// Condition is an ordered list of terms, matched by conjunction (every
// term must match).
type Condition []Term

// List is an ordered list of conditions, matched by disjunction (any
// condition matching is sufficient). A nil Condition within a List is
// treated as absent: it never contributes a match and is skipped during
// scanning, mirroring the original core's "if (!cond) continue;".
type List []Condition

// Empty reports whether the list is empty or contains only nil/empty
// conditions — the "automatic match" case of spec.md §4.C.
func (l List) Empty() bool {
	if len(l) == 0 {
		return true
	}
	for _, c := range l {
		if len(c) > 0 {
			return false
		}
	}
	return true
}
