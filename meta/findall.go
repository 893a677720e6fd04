package meta

import (
	"iter"
	"unicode/utf8"

	"github.com/coregx/linex/nfa"
)

// FindAll returns an iterator over successive non-overlapping matches.
//
// Each search resumes at the end of the previous match. After an empty
// match the search advances one code point, and an empty match adjacent to
// the previous match is not reported. The iterator is finite and may be
// ranged over again.
//
// Example:
//
//	for m := range engine.FindAll("a1 b22 c333") {
//	    fmt.Println(m.Text())
//	}
func (e *Engine) FindAll(haystack string) iter.Seq[*Match] {
	return func(yield func(*Match) bool) {
		cache := e.getCache()
		defer e.putCache(cache)

		slots := e.newSlots()
		e.findAll(cache, haystack, slots, func() bool {
			return yield(NewMatch(haystack, slots, e.names))
		})
	}
}

// FindAllIndices returns the bounds of up to n successive matches; n < 0
// means no limit. Capture groups are not resolved.
func (e *Engine) FindAllIndices(haystack string, n int) [][2]int {
	if n == 0 {
		return nil
	}
	cache := e.getCache()
	defer e.putCache(cache)

	var results [][2]int
	var slots [2]int
	e.findAll(cache, haystack, slots[:], func() bool {
		results = append(results, [2]int{slots[0], slots[1]})
		return n < 0 || len(results) < n
	})
	return results
}

// Count returns the number of successive matches in haystack.
func (e *Engine) Count(haystack string) int {
	cache := e.getCache()
	defer e.putCache(cache)

	count := 0
	var slots [2]int
	e.findAll(cache, haystack, slots[:], func() bool {
		count++
		return true
	})
	return count
}

// findAll runs the iteration rule shared by every FindAll variant. For each
// accepted match it calls emit with slots filled in; emit returns false to
// stop. slots must hold at least the two group 0 slots.
func (e *Engine) findAll(cache *nfa.Cache, haystack string, slots []int, emit func() bool) {
	prevEnd := -1
	for pos := 0; pos <= len(haystack); {
		if !e.search(cache, haystack, pos, slots, false) {
			return
		}
		start, end := slots[0], slots[1]

		accept := true
		if end == pos {
			// Empty match: it may not touch the previous match, and the
			// next search starts one code point later.
			if start == prevEnd {
				accept = false
			}
			if pos < len(haystack) {
				_, w := utf8.DecodeRuneInString(haystack[pos:])
				pos += w
			} else {
				pos++
			}
		} else {
			pos = end
		}
		prevEnd = end

		if accept && !emit() {
			return
		}
	}
}
