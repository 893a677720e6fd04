package syntax

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Range is an inclusive range of code points.
type Range struct {
	Lo, Hi rune
}

// RangeSet is a set of code points stored as sorted ranges.
//
// A canonical RangeSet has non-overlapping, non-adjacent ranges in
// ascending order. All constructors in this package return canonical sets;
// Contains relies on it.
type RangeSet []Range

const (
	// minFold and maxFold bound the code points that take part in simple case folding.
	minFold = 0x0041
	maxFold = 0x1E943
)

// NewRangeSet returns the canonical set covering the given ranges.
func NewRangeSet(ranges ...Range) RangeSet {
	s := make(RangeSet, 0, len(ranges))
	for _, r := range ranges {
		s = s.appendRange(r.Lo, r.Hi)
	}
	return s.Canonical()
}

// appendRange adds [lo, hi] without canonicalizing.
func (s RangeSet) appendRange(lo, hi rune) RangeSet {
	if lo > hi {
		lo, hi = hi, lo
	}
	// Merge with the last range when possible; parsing adds mostly ascending runs.
	if n := len(s); n > 0 {
		last := &s[n-1]
		if lo <= last.Hi+1 && hi >= last.Lo-1 {
			last.Lo = min(last.Lo, lo)
			last.Hi = max(last.Hi, hi)
			return s
		}
	}
	return append(s, Range{Lo: lo, Hi: hi})
}

// Canonical sorts and merges the ranges in place and returns the result.
func (s RangeSet) Canonical() RangeSet {
	if len(s) < 2 {
		return s
	}
	slices.SortFunc(s, func(a, b Range) int {
		if a.Lo != b.Lo {
			return int(a.Lo - b.Lo)
		}
		return int(a.Hi - b.Hi)
	})
	w := 0
	for _, r := range s[1:] {
		cur := &s[w]
		if r.Lo <= cur.Hi+1 {
			cur.Hi = max(cur.Hi, r.Hi)
			continue
		}
		w++
		s[w] = r
	}
	return s[:w+1]
}

// Union returns the canonical union of s and t. Neither input is modified.
func (s RangeSet) Union(t RangeSet) RangeSet {
	out := make(RangeSet, 0, len(s)+len(t))
	out = append(out, s...)
	out = append(out, t...)
	return out.Canonical()
}

// Negate returns the complement of a canonical set within [0, unicode.MaxRune].
func (s RangeSet) Negate() RangeSet {
	out := make(RangeSet, 0, len(s)+1)
	next := rune(0)
	for _, r := range s {
		if r.Lo > next {
			out = append(out, Range{Lo: next, Hi: r.Lo - 1})
		}
		next = r.Hi + 1
	}
	if next <= unicode.MaxRune {
		out = append(out, Range{Lo: next, Hi: unicode.MaxRune})
	}
	return out
}

// Contains reports whether r is in the canonical set.
func (s RangeSet) Contains(r rune) bool {
	// Linear scan wins for the short sets most classes produce.
	if len(s) <= 8 {
		for _, rg := range s {
			if r < rg.Lo {
				return false
			}
			if r <= rg.Hi {
				return true
			}
		}
		return false
	}
	lo, hi := 0, len(s)
	for lo < hi {
		m := int(uint(lo+hi) >> 1)
		switch rg := s[m]; {
		case r < rg.Lo:
			hi = m
		case r > rg.Hi:
			lo = m + 1
		default:
			return true
		}
	}
	return false
}

// Len returns the number of code points in the set.
func (s RangeSet) Len() int {
	n := 0
	for _, r := range s {
		n += int(r.Hi-r.Lo) + 1
	}
	return n
}

// IsEmpty reports whether the set has no code points.
func (s RangeSet) IsEmpty() bool {
	return len(s) == 0
}

// Single returns the only code point of a one-element set.
func (s RangeSet) Single() (rune, bool) {
	if len(s) == 1 && s[0].Lo == s[0].Hi {
		return s[0].Lo, true
	}
	return 0, false
}

// FoldCase returns the canonical set closed under simple case folding.
func (s RangeSet) FoldCase() RangeSet {
	out := make(RangeSet, 0, len(s)*2)
	out = append(out, s...)
	for _, rg := range s {
		lo, hi := max(rg.Lo, minFold), min(rg.Hi, maxFold)
		for r := lo; r <= hi; r++ {
			for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
				out = out.appendRange(f, f)
			}
		}
	}
	return out.Canonical()
}

// foldRune returns the set of r and its simple case folds.
func foldRune(r rune) RangeSet {
	s := RangeSet{{Lo: r, Hi: r}}
	for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
		s = append(s, Range{Lo: f, Hi: f})
	}
	return s.Canonical()
}

// String renders the set in character class syntax.
func (s RangeSet) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for _, r := range s {
		writeClassRune(&b, r.Lo)
		if r.Hi != r.Lo {
			b.WriteByte('-')
			writeClassRune(&b, r.Hi)
		}
	}
	b.WriteByte(']')
	return b.String()
}

func writeClassRune(b *strings.Builder, r rune) {
	switch {
	case r < utf8.RuneSelf && strings.ContainsRune(`\-[]^`, r):
		b.WriteByte('\\')
		b.WriteRune(r)
	case unicode.IsPrint(r):
		b.WriteRune(r)
	case r <= 0xFF:
		fmt.Fprintf(b, `\x%02X`, r)
	default:
		fmt.Fprintf(b, `\x{%X}`, r)
	}
}
