package nfa

import (
	"unicode/utf8"

	"github.com/coregx/linex/internal/conv"
	"github.com/coregx/linex/internal/sparse"
	"github.com/coregx/linex/syntax"
)

// PikeVM implements the Pike VM algorithm for NFA execution.
// It simulates the NFA by maintaining an ordered set of active states and
// stepping all of them over each code point of the input.
//
// Every state enters an active set at most once per input position, so a
// search costs O(states × (len(input)+1)) regardless of the pattern.
//
// The order of an active set is thread priority. A Split explores its left
// branch before its right one, so threads that took preferred branches sit
// earlier in the set. When a Match state is reached, every thread after it
// is dropped: this yields leftmost-first (Perl) semantics without tracking
// priorities explicitly.
//
// Thread safety: PikeVM is immutable after creation. All mutable search
// state lives in a Cache, which must not be shared between goroutines.
type PikeVM struct {
	nfa *NFA
}

// Cache holds mutable per-search state for a PikeVM.
// This struct should be pooled (via sync.Pool) for concurrent usage.
// Each goroutine must use its own Cache instance.
type Cache struct {
	// curr and next are the active states for the current and next
	// input position
	curr, next activeStates

	// stack drives the epsilon closure without recursion
	stack []frame

	// scratch holds the capture slots of the thread being explored
	scratch []int

	// best holds the slots of the best match found so far
	best []int

	// steps counts state visits during the last search
	steps int

	// Longest enables leftmost-longest (POSIX) matching semantics.
	// By default (false), uses leftmost-first (Perl) semantics where
	// the first alternative wins. When true, the longest match wins.
	Longest bool
}

// activeStates is an ordered set of states together with the capture
// slots of the thread that reached each state.
type activeStates struct {
	set   *sparse.SparseSet
	slots *SlotTable
}

type frameKind uint8

const (
	// frameExplore follows epsilon transitions from sid
	frameExplore frameKind = iota
	// frameRestore puts a scratch slot back after a capture branch is done
	frameRestore
)

type frame struct {
	kind   frameKind
	sid    StateID
	slot   int
	offset int
}

// NewPikeVM creates a new PikeVM for executing the given NFA
func NewPikeVM(nfa *NFA) *PikeVM {
	return &PikeVM{nfa: nfa}
}

// NFA returns the program being executed.
func (p *PikeVM) NFA() *NFA {
	return p.nfa
}

// NumStates returns the number of NFA states
func (p *PikeVM) NumStates() int {
	return p.nfa.States()
}

// NewCache allocates a Cache sized for this PikeVM.
func (p *PikeVM) NewCache() *Cache {
	n := conv.IntToUint32(p.nfa.States())
	return &Cache{
		curr:  activeStates{set: sparse.NewSparseSet(n), slots: NewSlotTable(0, 0)},
		next:  activeStates{set: sparse.NewSparseSet(n), slots: NewSlotTable(0, 0)},
		stack: make([]frame, 0, 16),
	}
}

// Steps returns the number of state visits performed by the last search.
// It is bounded by 2 × states × (searched positions + 1).
func (c *Cache) Steps() int {
	return c.steps
}

// MemoryUsage returns the approximate heap bytes held by the cache.
func (c *Cache) MemoryUsage() int {
	return c.curr.set.MemoryUsage() + c.next.set.MemoryUsage() +
		c.curr.slots.MemoryUsage() + c.next.slots.MemoryUsage() +
		cap(c.stack)*32 + (cap(c.scratch)+cap(c.best))*8
}

func (c *Cache) reset(p *PikeVM, slots int) {
	n := p.nfa.States()
	if c.curr.set.Capacity() < n {
		c.curr.set.Resize(conv.IntToUint32(n))
		c.next.set.Resize(conv.IntToUint32(n))
	}
	c.curr.set.Clear()
	c.next.set.Clear()
	c.curr.slots.Reset(n, slots)
	c.next.slots.Reset(n, slots)

	if cap(c.scratch) < slots {
		c.scratch = make([]int, slots)
		c.best = make([]int, slots)
	}
	c.scratch = c.scratch[:slots]
	c.best = c.best[:slots]
	for i := range c.scratch {
		c.scratch[i] = -1
		c.best[i] = -1
	}
	c.stack = c.stack[:0]
	c.steps = 0
}

// IsMatch reports whether the NFA matches anywhere in haystack at or after
// start. It stops at the first Match state reached, whatever its priority.
func (p *PikeVM) IsMatch(cache *Cache, haystack string, start int) bool {
	return p.search(cache, haystack, start, nil, true)
}

// Find returns the bounds of the leftmost match starting the scan at start.
func (p *PikeVM) Find(cache *Cache, haystack string, start int) (int, int, bool) {
	var slots [2]int
	if !p.search(cache, haystack, start, slots[:], false) {
		return -1, -1, false
	}
	return slots[0], slots[1], true
}

// SearchSlots finds the leftmost match starting the scan at start and fills
// slots with capture offsets: slots[2i] and slots[2i+1] bound group i, or
// are -1 when the group did not participate. Only len(slots) slots are
// tracked, so a short slice makes the search cheaper.
func (p *PikeVM) SearchSlots(cache *Cache, haystack string, start int, slots []int) bool {
	return p.search(cache, haystack, start, slots, false)
}

func (p *PikeVM) search(c *Cache, haystack string, start int, slots []int, earliest bool) bool {
	if start < 0 || start > len(haystack) {
		return false
	}

	nslots := len(slots)
	if c.Longest && !earliest && nslots < 2 {
		// Longest mode compares match starts.
		nslots = 2
	}
	nslots = min(nslots, p.nfa.SlotCount())
	c.reset(p, nslots)

	curr, next := &c.curr, &c.next
	matched := false
	bestStart, bestEnd := -1, -1

	p.closure(c, curr, p.nfa.startUnanchored, haystack, start)
	at := start
	for !curr.set.IsEmpty() {
		r, w := utf8.RuneError, 0
		if at < len(haystack) {
			r, w = utf8.DecodeRuneInString(haystack[at:])
		}
		next.set.Clear()

	threads:
		for _, v := range curr.set.Values() {
			sid := StateID(v)
			st := &p.nfa.states[sid]
			switch st.kind {
			case StateChar:
				c.steps++
				if w == 0 || !st.set.Contains(r) {
					continue
				}
				if matched && sid == p.nfa.prefixChar {
					// A match is known; later starts cannot be leftmost.
					continue
				}
				copy(c.scratch, curr.slots.ForState(sid))
				p.closure(c, next, st.next, haystack, at+w)
			case StateMatch:
				c.steps++
				if earliest {
					return true
				}
				row := curr.slots.ForState(sid)
				if c.Longest {
					if matched && (row[0] > bestStart || row[0] == bestStart && at <= bestEnd) {
						continue
					}
					bestStart, bestEnd = row[0], at
					copy(c.best, row)
					matched = true
					continue
				}
				copy(c.best, row)
				matched = true
				// Lower priority threads can never win.
				break threads
			}
		}

		if at >= len(haystack) {
			break
		}
		at += w
		curr, next = next, curr
	}

	if matched {
		copy(slots, c.best)
	}
	return matched
}

// closure adds sid and every state reachable from it by epsilon
// transitions to dst, in priority order. Char and Match states record a
// copy of the scratch slots.
//
// The explicit stack holds both states still to explore and slot values to
// restore, so a capture written on one branch is undone before its sibling
// branch is explored.
func (p *PikeVM) closure(c *Cache, dst *activeStates, sid StateID, haystack string, at int) {
	c.stack = append(c.stack[:0], frame{kind: frameExplore, sid: sid})
	for len(c.stack) > 0 {
		f := c.stack[len(c.stack)-1]
		c.stack = c.stack[:len(c.stack)-1]
		if f.kind == frameRestore {
			c.scratch[f.slot] = f.offset
			continue
		}

		id := f.sid
		for dst.set.Insert(uint32(id)) {
			c.steps++
			st := &p.nfa.states[id]
			switch st.kind {
			case StateEpsilon:
				id = st.next
				continue
			case StateSplit:
				c.stack = append(c.stack, frame{kind: frameExplore, sid: st.right})
				id = st.left
				continue
			case StateCapture:
				if slot := int(st.slot); slot < len(c.scratch) {
					c.stack = append(c.stack, frame{kind: frameRestore, slot: slot, offset: c.scratch[slot]})
					c.scratch[slot] = at
				}
				id = st.next
				continue
			case StateLook:
				if IsLookSatisfied(st.look, haystack, at) {
					id = st.next
					continue
				}
			case StateChar, StateMatch:
				copy(dst.slots.ForState(id), c.scratch)
			}
			break
		}
	}
}

// IsLookSatisfied checks if a zero-width assertion holds at byte offset at.
// Word boundaries use the Unicode definition of \w; invalid UTF-8 decodes
// as U+FFFD, which is not a word character.
func IsLookSatisfied(look Look, haystack string, at int) bool {
	switch look {
	case LookStartText:
		return at == 0
	case LookEndText:
		return at == len(haystack)
	case LookStartLine:
		return at == 0 || haystack[at-1] == '\n'
	case LookEndLine:
		return at == len(haystack) || haystack[at] == '\n'
	case LookWordBoundary:
		return isWordBefore(haystack, at) != isWordAfter(haystack, at)
	case LookNoWordBoundary:
		return isWordBefore(haystack, at) == isWordAfter(haystack, at)
	}
	return false
}

func isWordBefore(haystack string, at int) bool {
	if at == 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(haystack[:at])
	return syntax.IsWordRune(r)
}

func isWordAfter(haystack string, at int) bool {
	if at >= len(haystack) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(haystack[at:])
	return syntax.IsWordRune(r)
}
