package literal

import (
	"unicode/utf8"

	"github.com/coregx/linex/syntax"
)

// ExtractorConfig bounds literal extraction.
type ExtractorConfig struct {
	// MaxLiterals caps the size of any intermediate sequence. A concatenation
	// whose cross product would exceed it stops growing its literals; an
	// alternation exceeding it becomes infinite. Default: 64.
	MaxLiterals int

	// MaxLiteralLen caps the length of a literal in bytes. Longer literals
	// are truncated and marked incomplete. Default: 64.
	MaxLiteralLen int

	// MaxClassSize is the largest class expanded into one literal per code
	// point; larger classes make the sequence infinite. Default: 10.
	MaxClassSize int

	// MaxDepth bounds recursion into the syntax tree. Default: 100.
	MaxDepth int
}

// DefaultConfig returns the default extraction limits.
func DefaultConfig() ExtractorConfig {
	return ExtractorConfig{
		MaxLiterals:   64,
		MaxLiteralLen: 64,
		MaxClassSize:  10,
		MaxDepth:      100,
	}
}

// Extractor computes prefix literal sequences from a syntax tree.
//
// Examples of extracted prefixes (* marks an incomplete literal):
//
//	hello          [hello]
//	foo|bar        [foo bar]
//	[ab]cd         [acd bcd]
//	hello\w+       [hello*]
//	ab?c           [abc ac]
//	a*b            [a* b]
//	.*foo          [inf]
//	(?i)k          [K k K]
type Extractor struct {
	config ExtractorConfig
}

// New creates an Extractor. Zero limits fall back to the defaults.
func New(config ExtractorConfig) *Extractor {
	def := DefaultConfig()
	if config.MaxLiterals <= 0 {
		config.MaxLiterals = def.MaxLiterals
	}
	if config.MaxLiteralLen <= 0 {
		config.MaxLiteralLen = def.MaxLiteralLen
	}
	if config.MaxClassSize <= 0 {
		config.MaxClassSize = def.MaxClassSize
	}
	if config.MaxDepth <= 0 {
		config.MaxDepth = def.MaxDepth
	}
	return &Extractor{config: config}
}

// ExtractPrefixes returns the literals every match of re begins with, or nil
// when no finite set exists. The result is deduplicated but not minimized;
// callers that only need candidate positions should call Minimize.
//
// A pattern containing an anchor never yields complete literals: the
// literal text occurring is not enough for the assertion to hold.
func (e *Extractor) ExtractPrefixes(re *syntax.Regexp) *Seq {
	if re == nil || re.Root == nil {
		return nil
	}
	seq := e.prefixes(re.Root, 0)
	if seq != nil {
		seq.Dedup()
		if hasAnchor(re.Root) {
			seq.MakeInexact()
		}
	}
	return seq
}

func hasAnchor(n *syntax.Node) bool {
	if n.Op == syntax.OpAnchor {
		return true
	}
	for _, sub := range n.Subs {
		if hasAnchor(sub) {
			return true
		}
	}
	return false
}

func (e *Extractor) prefixes(n *syntax.Node, depth int) *Seq {
	if depth > e.config.MaxDepth {
		return nil
	}

	switch n.Op {
	case syntax.OpEmpty, syntax.OpAnchor:
		return empty()

	case syntax.OpLiteral:
		if n.Rune == utf8.RuneError {
			// Invalid input bytes also match U+FFFD.
			return nil
		}
		return NewSeq(NewLiteral(utf8.AppendRune(nil, n.Rune), true))

	case syntax.OpClass:
		return e.expandClass(n.Set())

	case syntax.OpGroup:
		return e.prefixes(n.Sub(), depth+1)

	case syntax.OpConcat:
		acc := empty()
		for _, sub := range n.Subs {
			if !hasComplete(acc) {
				break
			}
			next := e.prefixes(sub, depth+1)
			acc = e.cross(acc, next)
			if acc == nil {
				return nil
			}
		}
		return acc

	case syntax.OpAlternate:
		var lits []Literal
		for _, sub := range n.Subs {
			seq := e.prefixes(sub, depth+1)
			if seq == nil {
				return nil
			}
			lits = append(lits, seq.literals...)
			if len(lits) > e.config.MaxLiterals {
				return nil
			}
		}
		return NewSeq(lits...)

	case syntax.OpRepeat:
		return e.repeat(n, depth)
	}
	return nil
}

// repeat handles x{min,max}. Only the first copy contributes literals;
// they stay complete only when no second copy can follow.
func (e *Extractor) repeat(n *syntax.Node, depth int) *Seq {
	if n.Max == 0 {
		return empty()
	}
	sub := e.prefixes(n.Sub(), depth+1)
	if sub == nil {
		return nil
	}
	if n.Max != 1 {
		sub.MakeInexact()
	}
	if n.Min > 0 {
		return sub
	}

	// An optional operand also allows the empty prefix, ordered by
	// greediness so the sequence keeps preference order.
	if len(sub.literals)+1 > e.config.MaxLiterals {
		return nil
	}
	if n.Greedy {
		return NewSeq(append(sub.literals, NewLiteral([]byte{}, true))...)
	}
	return NewSeq(append([]Literal{NewLiteral([]byte{}, true)}, sub.literals...)...)
}

// cross appends every literal of next to every complete literal of acc.
// Incomplete literals of acc already end at an unknown point and pass
// through unchanged. When next is infinite, or the product grows past the
// limits, the complete literals of acc are frozen as incomplete prefixes.
func (e *Extractor) cross(acc, next *Seq) *Seq {
	if next == nil || acc.Len()*next.Len() > e.config.MaxLiterals {
		return freeze(acc)
	}

	out := make([]Literal, 0, acc.Len()*next.Len())
	for _, a := range acc.literals {
		if !a.Complete {
			out = append(out, a)
			continue
		}
		for _, b := range next.literals {
			joined := make([]byte, 0, len(a.Bytes)+len(b.Bytes))
			joined = append(joined, a.Bytes...)
			joined = append(joined, b.Bytes...)
			lit := NewLiteral(joined, b.Complete)
			if len(lit.Bytes) > e.config.MaxLiteralLen {
				lit = NewLiteral(lit.Bytes[:e.config.MaxLiteralLen], false)
			}
			out = append(out, lit)
		}
	}
	return NewSeq(out...)
}

// freeze marks acc incomplete. A frozen empty literal means the
// concatenation starts with something unknown, so the result is infinite.
func freeze(acc *Seq) *Seq {
	for _, lit := range acc.literals {
		if len(lit.Bytes) == 0 {
			return nil
		}
	}
	acc.MakeInexact()
	return acc
}

func hasComplete(s *Seq) bool {
	for _, lit := range s.literals {
		if lit.Complete {
			return true
		}
	}
	return false
}

// expandClass turns a small class into one literal per code point.
func (e *Extractor) expandClass(set syntax.RangeSet) *Seq {
	if set.IsEmpty() || set.Len() > e.config.MaxClassSize || set.Contains(utf8.RuneError) {
		return nil
	}
	lits := make([]Literal, 0, set.Len())
	for _, r := range set {
		for c := r.Lo; c <= r.Hi; c++ {
			lits = append(lits, NewLiteral(utf8.AppendRune(nil, c), true))
		}
	}
	return NewSeq(lits...)
}
