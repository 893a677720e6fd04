// Package literal extracts the literal prefixes every match of a pattern
// must begin with.
//
// A Seq is a finite set of alternative byte strings. When a Seq is usable,
// any match of the pattern starts with one of its literals, so a substring
// search for those literals finds candidate match starts much faster than
// running the automaton over every position.
package literal

import (
	"bytes"
	"sort"
	"strings"
)

// Literal is one byte string of a Seq.
//
// Complete reports whether the literal is an entire match of the
// expression it was extracted from, not just a prefix of one.
type Literal struct {
	Bytes    []byte
	Complete bool
}

// NewLiteral creates a Literal.
func NewLiteral(b []byte, complete bool) Literal {
	return Literal{Bytes: b, Complete: complete}
}

// Len returns the length of the literal in bytes.
func (l Literal) Len() int {
	return len(l.Bytes)
}

// String returns a debug representation such as literal{foo, complete=true}.
func (l Literal) String() string {
	complete := "false"
	if l.Complete {
		complete = "true"
	}
	return "literal{" + string(l.Bytes) + ", complete=" + complete + "}"
}

// Seq is a set of alternative literals in preference order.
//
// A nil Seq is infinite: nothing is known about how matches begin.
type Seq struct {
	literals []Literal
}

// NewSeq creates a sequence from the given literals.
func NewSeq(lits ...Literal) *Seq {
	return &Seq{literals: lits}
}

// empty returns the sequence holding only the complete empty literal, the
// prefix set of a zero-width expression.
func empty() *Seq {
	return NewSeq(NewLiteral([]byte{}, true))
}

// Len returns the number of literals.
func (s *Seq) Len() int {
	if s == nil {
		return 0
	}
	return len(s.literals)
}

// Get returns the literal at index i.
func (s *Seq) Get(i int) Literal {
	return s.literals[i]
}

// Literals returns the literals of the sequence. The slice is shared.
func (s *Seq) Literals() []Literal {
	if s == nil {
		return nil
	}
	return s.literals
}

// IsEmpty reports whether the sequence has no literals.
func (s *Seq) IsEmpty() bool {
	return s == nil || len(s.literals) == 0
}

// IsFinite reports whether the sequence constrains matches at all.
func (s *Seq) IsFinite() bool {
	return s != nil
}

// IsExact reports whether every literal is complete, so the sequence
// enumerates the whole language of its expression.
func (s *Seq) IsExact() bool {
	if s.IsEmpty() {
		return false
	}
	for _, lit := range s.literals {
		if !lit.Complete {
			return false
		}
	}
	return true
}

// IsUsable reports whether the sequence can drive a substring search:
// it is finite, non-empty, and has no empty literal (an empty literal
// matches everywhere).
func (s *Seq) IsUsable() bool {
	if s.IsEmpty() {
		return false
	}
	for _, lit := range s.literals {
		if len(lit.Bytes) == 0 {
			return false
		}
	}
	return true
}

// MinLen returns the length of the shortest literal, or 0 for an empty
// sequence.
func (s *Seq) MinLen() int {
	if s.IsEmpty() {
		return 0
	}
	minLen := len(s.literals[0].Bytes)
	for _, lit := range s.literals[1:] {
		minLen = min(minLen, len(lit.Bytes))
	}
	return minLen
}

// Clone returns a deep copy of the sequence.
func (s *Seq) Clone() *Seq {
	if s == nil {
		return nil
	}
	cloned := make([]Literal, len(s.literals))
	for i, lit := range s.literals {
		cloned[i] = Literal{Bytes: bytes.Clone(lit.Bytes), Complete: lit.Complete}
	}
	return &Seq{literals: cloned}
}

// MakeInexact marks every literal incomplete.
func (s *Seq) MakeInexact() {
	if s == nil {
		return
	}
	for i := range s.literals {
		s.literals[i].Complete = false
	}
}

// Dedup removes repeated literals, keeping the first occurrence. A literal
// that appears both complete and incomplete stays incomplete.
func (s *Seq) Dedup() {
	if s.IsEmpty() {
		return
	}
	kept := s.literals[:0]
	seen := make(map[string]int, len(s.literals))
	for _, lit := range s.literals {
		if i, ok := seen[string(lit.Bytes)]; ok {
			kept[i].Complete = kept[i].Complete && lit.Complete
			continue
		}
		seen[string(lit.Bytes)] = len(kept)
		kept = append(kept, lit)
	}
	s.literals = kept
}

// Minimize drops every literal that has a shorter literal of the set as a
// prefix. Whatever the longer literal matches, the shorter one finds first,
// so the candidate positions are unchanged. The surviving prefix is marked
// incomplete because it no longer stands for every literal it absorbed.
//
// The result is sorted by length, shortest first.
func (s *Seq) Minimize() {
	if s.IsEmpty() {
		return
	}
	sort.SliceStable(s.literals, func(i, j int) bool {
		return len(s.literals[i].Bytes) < len(s.literals[j].Bytes)
	})

	kept := make([]Literal, 0, len(s.literals))
	for _, lit := range s.literals {
		redundant := false
		for j := range kept {
			if bytes.HasPrefix(lit.Bytes, kept[j].Bytes) {
				if len(lit.Bytes) > len(kept[j].Bytes) || !lit.Complete {
					kept[j].Complete = false
				}
				redundant = true
				break
			}
		}
		if !redundant {
			kept = append(kept, lit)
		}
	}
	s.literals = kept
}

// LongestCommonPrefix returns the longest prefix shared by all literals.
func (s *Seq) LongestCommonPrefix() []byte {
	if s.IsEmpty() {
		return []byte{}
	}
	prefix := s.literals[0].Bytes
	for _, lit := range s.literals[1:] {
		prefix = commonPrefix(prefix, lit.Bytes)
		if len(prefix) == 0 {
			break
		}
	}
	return bytes.Clone(prefix)
}

// String renders the sequence for debugging, e.g. [foo bar*]; an
// incomplete literal is followed by *.
func (s *Seq) String() string {
	if s == nil {
		return "[inf]"
	}
	var b strings.Builder
	b.WriteByte('[')
	for i, lit := range s.literals {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.Write(lit.Bytes)
		if !lit.Complete {
			b.WriteByte('*')
		}
	}
	b.WriteByte(']')
	return b.String()
}

func commonPrefix(a, b []byte) []byte {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[:i]
		}
	}
	return a[:n]
}
