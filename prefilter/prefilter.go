// Package prefilter finds candidate match starts with substring search
// before the automaton runs.
//
// A prefilter is built from the prefix literals of a pattern. Every match
// begins with one of those literals, so no match can start before the first
// literal occurrence at or after the search start. The engine skips straight
// to that position and lets the PikeVM verify from there.
//
// Strategies, by literal set:
//   - one single-byte literal: Memchr (strings.IndexByte)
//   - one literal, or several sharing a common prefix: Memmem (strings.Index)
//   - several literals: AhoCorasick (github.com/coregx/ahocorasick)
//
// Example:
//
//	re := syntax.MustParse(`(hello|world)\d+`, 0)
//	seq := literal.New(literal.DefaultConfig()).ExtractPrefixes(re)
//	pf := prefilter.Build(seq)
//	pos := pf.Find("foo hello42 bar", 0) // 4
package prefilter

import (
	"fmt"
	"strings"
	"sync"

	"github.com/coregx/ahocorasick"

	"github.com/coregx/linex/literal"
)

// Prefilter reports candidate match starts.
type Prefilter interface {
	// Find returns the first position at or after start where a literal
	// occurs, or -1. A candidate does not guarantee a match unless
	// IsComplete is true.
	Find(haystack string, start int) int

	// IsComplete reports whether a candidate is itself a match of length
	// LiteralLen, so no verification is needed.
	IsComplete() bool

	// LiteralLen returns the match length when IsComplete is true, else 0.
	LiteralLen() int

	// HeapBytes returns the heap memory held by the prefilter.
	HeapBytes() int

	// String names the strategy for logs.
	String() string
}

// minCommonPrefix is the shortest shared prefix worth a single substring
// search over a multi-literal automaton.
const minCommonPrefix = 3

// Build selects a prefilter for seq, or returns nil when seq cannot drive
// a substring search. seq is minimized in place.
func Build(seq *literal.Seq) Prefilter {
	if !seq.IsUsable() {
		return nil
	}
	seq.Minimize()

	if seq.Len() == 1 {
		lit := seq.Get(0)
		if len(lit.Bytes) == 1 {
			return newMemchr(lit.Bytes[0], lit.Complete)
		}
		return newMemmem(lit.Bytes, lit.Complete)
	}

	if lcp := seq.LongestCommonPrefix(); len(lcp) >= minCommonPrefix {
		return newMemmem(lcp, false)
	}

	pf, err := newAhoCorasick(seq)
	if err != nil {
		return nil
	}
	return pf
}

type memchr struct {
	needle   byte
	complete bool
}

func newMemchr(needle byte, complete bool) *memchr {
	return &memchr{needle: needle, complete: complete}
}

func (p *memchr) Find(haystack string, start int) int {
	if start < 0 || start >= len(haystack) {
		return -1
	}
	idx := strings.IndexByte(haystack[start:], p.needle)
	if idx < 0 {
		return -1
	}
	return start + idx
}

func (p *memchr) IsComplete() bool {
	return p.complete
}

func (p *memchr) LiteralLen() int {
	if p.complete {
		return 1
	}
	return 0
}

func (p *memchr) HeapBytes() int {
	return 0
}

func (p *memchr) String() string {
	return fmt.Sprintf("memchr(%q)", p.needle)
}

type memmem struct {
	needle   string
	complete bool
}

func newMemmem(needle []byte, complete bool) *memmem {
	return &memmem{needle: string(needle), complete: complete}
}

func (p *memmem) Find(haystack string, start int) int {
	if start < 0 || start >= len(haystack) {
		return -1
	}
	idx := strings.Index(haystack[start:], p.needle)
	if idx < 0 {
		return -1
	}
	return start + idx
}

func (p *memmem) IsComplete() bool {
	return p.complete
}

func (p *memmem) LiteralLen() int {
	if p.complete {
		return len(p.needle)
	}
	return 0
}

func (p *memmem) HeapBytes() int {
	return len(p.needle)
}

func (p *memmem) String() string {
	return fmt.Sprintf("memmem(%q)", p.needle)
}

// Window sizes for the automaton scan. The automaton searches byte slices
// while haystacks are strings, so the haystack is copied one window at a
// time. Windows start small and double, which keeps the copy proportional
// to the distance scanned.
const (
	minWindow = 64
	maxWindow = 64 << 10
)

// ahoCorasick finds the leftmost start of any of several literals.
type ahoCorasick struct {
	automaton *ahocorasick.Automaton
	maxLen    int
	count     int
	heap      int

	// buffers holds window copies of the haystack, reused across searches.
	buffers sync.Pool
}

func newAhoCorasick(seq *literal.Seq) (*ahoCorasick, error) {
	builder := ahocorasick.NewBuilder()
	maxLen, heap := 0, 0
	for _, lit := range seq.Literals() {
		builder.AddPattern(lit.Bytes)
		maxLen = max(maxLen, len(lit.Bytes))
		heap += len(lit.Bytes)
	}
	automaton, err := builder.Build()
	if err != nil {
		return nil, err
	}
	p := &ahoCorasick{
		automaton: automaton,
		maxLen:    maxLen,
		count:     seq.Len(),
		heap:      heap,
	}
	p.buffers.New = func() any {
		buf := make([]byte, 0, minWindow+maxLen)
		return &buf
	}
	return p, nil
}

func (p *ahoCorasick) Find(haystack string, start int) int {
	if start < 0 || start >= len(haystack) {
		return -1
	}
	bufp := p.buffers.Get().(*[]byte)
	defer p.buffers.Put(bufp)

	window := minWindow
	for pos := start; pos < len(haystack); {
		// The chunk extends maxLen-1 bytes past the window so a literal
		// starting inside the window is never cut off.
		end := min(len(haystack), pos+window+p.maxLen-1)
		buf := append((*bufp)[:0], haystack[pos:end]...)
		*bufp = buf
		if m := p.automaton.Find(buf, 0); m != nil {
			if first := p.earliestStart(buf, m); first < window || end == len(haystack) {
				return pos + first
			}
		}
		pos += window
		window = min(window*2, maxWindow)
	}
	return -1
}

// earliestStart returns the leftmost literal start in buf given m, the
// occurrence that ends first. A literal starting before m.Start ends at or
// after m.End, so it starts no earlier than m.End-maxLen.
func (p *ahoCorasick) earliestStart(buf []byte, m *ahocorasick.Match) int {
	for at := max(0, m.End-p.maxLen); at < m.Start; at++ {
		if p.automaton.FindAt(buf, at) != nil {
			return at
		}
	}
	return m.Start
}

func (p *ahoCorasick) IsComplete() bool {
	return false
}

func (p *ahoCorasick) LiteralLen() int {
	return 0
}

func (p *ahoCorasick) HeapBytes() int {
	return p.heap
}

func (p *ahoCorasick) String() string {
	return fmt.Sprintf("ahocorasick(%d literals)", p.count)
}
