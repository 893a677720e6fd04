package syntax

import (
	"sync"
	"unicode"

	"golang.org/x/text/unicode/rangetable"
)

// ClassTable supplies the Unicode data behind \p{...} classes.
//
// The parser never embeds Unicode data itself: category, script and
// property membership come from the table passed in Options. UnicodeTable
// is the default and is backed by the tables of the Go release in use.
type ClassTable interface {
	// Lookup returns the range table for a class name such as "L", "Lu",
	// "Greek" or "White_Space".
	Lookup(name string) (*unicode.RangeTable, bool)
}

// UnicodeTable looks names up in unicode.Categories, unicode.Scripts and
// unicode.Properties, in that order.
type UnicodeTable struct{}

// Lookup implements ClassTable.
func (UnicodeTable) Lookup(name string) (*unicode.RangeTable, bool) {
	if t, ok := unicode.Categories[name]; ok {
		return t, true
	}
	if t, ok := unicode.Scripts[name]; ok {
		return t, true
	}
	if t, ok := unicode.Properties[name]; ok {
		return t, true
	}
	return nil, false
}

// MapTable is a ClassTable over a fixed set of named tables.
// It is handy for restricting or extending the default classes.
type MapTable map[string]*unicode.RangeTable

// Lookup implements ClassTable.
func (m MapTable) Lookup(name string) (*unicode.RangeTable, bool) {
	t, ok := m[name]
	return t, ok
}

// ChainTable consults each table in order and returns the first hit.
type ChainTable []ClassTable

// Lookup implements ClassTable.
func (c ChainTable) Lookup(name string) (*unicode.RangeTable, bool) {
	for _, t := range c {
		if rt, ok := t.Lookup(name); ok {
			return rt, true
		}
	}
	return nil, false
}

// TableRanges converts a unicode.RangeTable to a canonical RangeSet.
func TableRanges(t *unicode.RangeTable) RangeSet {
	s := make(RangeSet, 0, len(t.R16)+len(t.R32))
	for _, r := range t.R16 {
		s = appendStrided(s, rune(r.Lo), rune(r.Hi), rune(r.Stride))
	}
	for _, r := range t.R32 {
		s = appendStrided(s, rune(r.Lo), rune(r.Hi), rune(r.Stride))
	}
	return s.Canonical()
}

func appendStrided(s RangeSet, lo, hi, stride rune) RangeSet {
	if stride <= 1 {
		return s.appendRange(lo, hi)
	}
	for r := lo; r <= hi; r += stride {
		s = s.appendRange(r, r)
	}
	return s
}

var (
	digitSet = sync.OnceValue(func() RangeSet { return TableRanges(unicode.Nd) })
	spaceSet = sync.OnceValue(func() RangeSet { return TableRanges(unicode.White_Space) })
	wordSet  = sync.OnceValue(func() RangeSet {
		return TableRanges(rangetable.Merge(unicode.L, unicode.M, unicode.Nd, unicode.Pc))
	})
	anySet = RangeSet{{Lo: 0, Hi: unicode.MaxRune}}
)

// IsWordRune reports whether r is a word character for \w and \b.
func IsWordRune(r rune) bool {
	if r < 0x80 {
		return 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || '0' <= r && r <= '9' || r == '_'
	}
	return wordSet().Contains(r)
}

// perlClass returns the set for \d, \s or \w. The bool reports success.
func perlClass(c byte) (RangeSet, bool) {
	switch c {
	case 'd':
		return digitSet(), true
	case 's':
		return spaceSet(), true
	case 'w':
		return wordSet(), true
	}
	return nil, false
}

var posixClasses = map[string]RangeSet{
	"alnum":  {{'0', '9'}, {'A', 'Z'}, {'a', 'z'}},
	"alpha":  {{'A', 'Z'}, {'a', 'z'}},
	"ascii":  {{0, 0x7F}},
	"blank":  {{'\t', '\t'}, {' ', ' '}},
	"cntrl":  {{0, 0x1F}, {0x7F, 0x7F}},
	"digit":  {{'0', '9'}},
	"graph":  {{'!', '~'}},
	"lower":  {{'a', 'z'}},
	"print":  {{' ', '~'}},
	"punct":  {{'!', '/'}, {':', '@'}, {'[', '`'}, {'{', '~'}},
	"space":  {{'\t', '\r'}, {' ', ' '}},
	"upper":  {{'A', 'Z'}},
	"word":   {{'0', '9'}, {'A', 'Z'}, {'_', '_'}, {'a', 'z'}},
	"xdigit": {{'0', '9'}, {'A', 'F'}, {'a', 'f'}},
}
