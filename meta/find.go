package meta

import (
	"sync/atomic"

	"github.com/coregx/linex/nfa"
)

// search finds the leftmost match at or after at and fills slots (which
// may be shorter than the full slot count, or empty for a yes/no answer).
func (e *Engine) search(cache *nfa.Cache, haystack string, at int, slots []int, earliest bool) bool {
	atomic.AddUint64(&e.stats.Searches, 1)
	if at < 0 || at > len(haystack) {
		return false
	}

	if e.prefilter != nil {
		candidate := e.prefilter.Find(haystack, at)
		if candidate < 0 {
			atomic.AddUint64(&e.stats.PrefilterMisses, 1)
			return false
		}
		if e.prefilter.IsComplete() && e.nfa.CaptureCount() == 1 {
			atomic.AddUint64(&e.stats.PrefilterComplete, 1)
			atomic.AddUint64(&e.stats.Matches, 1)
			if len(slots) >= 2 {
				slots[0], slots[1] = candidate, candidate+e.prefilter.LiteralLen()
			}
			return true
		}
		atomic.AddUint64(&e.stats.PrefilterHits, 1)
		at = candidate
	}

	atomic.AddUint64(&e.stats.NFASearches, 1)
	var ok bool
	if earliest {
		ok = e.pikevm.IsMatch(cache, haystack, at)
	} else {
		ok = e.pikevm.SearchSlots(cache, haystack, at, slots)
	}
	if ok {
		atomic.AddUint64(&e.stats.Matches, 1)
	}
	return ok
}

// IsMatch reports whether the pattern matches anywhere in haystack.
func (e *Engine) IsMatch(haystack string) bool {
	cache := e.getCache()
	defer e.putCache(cache)
	return e.search(cache, haystack, 0, nil, true)
}

// Find returns the leftmost match in haystack with all capture groups, or
// nil.
func (e *Engine) Find(haystack string) *Match {
	return e.FindAt(haystack, 0)
}

// FindAt returns the leftmost match that starts at or after byte offset at,
// or nil. Assertions such as ^ and \b still see the text before at.
func (e *Engine) FindAt(haystack string, at int) *Match {
	cache := e.getCache()
	defer e.putCache(cache)

	slots := e.newSlots()
	if !e.search(cache, haystack, at, slots, false) {
		return nil
	}
	return NewMatch(haystack, slots, e.names)
}

// FindIndicesAt returns the bounds of the leftmost match at or after at
// without resolving capture groups.
func (e *Engine) FindIndicesAt(haystack string, at int) (start, end int, found bool) {
	cache := e.getCache()
	defer e.putCache(cache)

	var slots [2]int
	if !e.search(cache, haystack, at, slots[:], false) {
		return -1, -1, false
	}
	return slots[0], slots[1], true
}

func (e *Engine) newSlots() []int {
	slots := make([]int, e.nfa.SlotCount())
	for i := range slots {
		slots[i] = -1
	}
	return slots
}
