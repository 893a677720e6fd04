package nfa

import (
	"fmt"
	"strings"

	"github.com/coregx/linex/syntax"
)

// StateID uniquely identifies an NFA state.
// This is a 32-bit unsigned integer for compact representation.
type StateID uint32

// InvalidState represents an invalid/uninitialized state ID
const InvalidState StateID = 0xFFFFFFFF

// StateKind identifies the type of NFA state and determines which fields are valid.
type StateKind uint8

const (
	// StateMatch is the accepting state. Every NFA has exactly one.
	StateMatch StateKind = iota

	// StateChar consumes one code point that belongs to its range set.
	StateChar

	// StateSplit is an epsilon transition to two states; left is preferred.
	// Alternation and repetition priorities are encoded by the branch order.
	StateSplit

	// StateEpsilon is an unconditional jump that consumes no input.
	StateEpsilon

	// StateCapture records the current input offset in a capture slot.
	StateCapture

	// StateLook is a zero-width assertion such as ^ or \b.
	StateLook

	// StateFail never matches.
	StateFail
)

// String returns a human-readable representation of the StateKind
func (k StateKind) String() string {
	switch k {
	case StateMatch:
		return "Match"
	case StateChar:
		return "Char"
	case StateSplit:
		return "Split"
	case StateEpsilon:
		return "Epsilon"
	case StateCapture:
		return "Capture"
	case StateLook:
		return "Look"
	case StateFail:
		return "Fail"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

// Look identifies a zero-width assertion.
type Look uint8

const (
	// LookStartText is \A: only at offset 0.
	LookStartText Look = iota
	// LookEndText is \z: only at the end of input.
	LookEndText
	// LookStartLine is (?m:^): at offset 0 or after '\n'.
	LookStartLine
	// LookEndLine is (?m:$): at the end of input or before '\n'.
	LookEndLine
	// LookWordBoundary is \b.
	LookWordBoundary
	// LookNoWordBoundary is \B.
	LookNoWordBoundary
)

// String returns the pattern syntax of the assertion.
func (l Look) String() string {
	switch l {
	case LookStartText:
		return `\A`
	case LookEndText:
		return `\z`
	case LookStartLine:
		return `(?m:^)`
	case LookEndLine:
		return `(?m:$)`
	case LookWordBoundary:
		return `\b`
	case LookNoWordBoundary:
		return `\B`
	default:
		return fmt.Sprintf("Look(%d)", l)
	}
}

// lookFromAnchor maps a syntax anchor to its assertion.
func lookFromAnchor(k syntax.AnchorKind) Look {
	switch k {
	case syntax.AnchorStartText:
		return LookStartText
	case syntax.AnchorEndText:
		return LookEndText
	case syntax.AnchorStartLine:
		return LookStartLine
	case syntax.AnchorEndLine:
		return LookEndLine
	case syntax.AnchorWordBoundary:
		return LookWordBoundary
	default:
		return LookNoWordBoundary
	}
}

// State represents a single NFA state with its transitions.
// The state's kind determines which fields are valid.
type State struct {
	kind StateKind

	// next is the target for Char, Epsilon, Capture and Look states
	next StateID

	// set is the range set consumed by Char states
	set syntax.RangeSet

	// left and right are the Split targets; left has priority
	left, right StateID

	// slot is the capture slot written by Capture states
	slot uint32

	// look is the assertion checked by Look states
	look Look
}

// Kind returns the state's type
func (s *State) Kind() StateKind {
	return s.kind
}

// IsMatch returns true if this is a match state
func (s *State) IsMatch() bool {
	return s.kind == StateMatch
}

// Char returns the range set and target of a Char state.
// Returns (nil, InvalidState) for other kinds.
func (s *State) Char() (syntax.RangeSet, StateID) {
	if s.kind == StateChar {
		return s.set, s.next
	}
	return nil, InvalidState
}

// Split returns the two target states for Split states.
// Returns (InvalidState, InvalidState) for non-Split states.
func (s *State) Split() (left, right StateID) {
	if s.kind == StateSplit {
		return s.left, s.right
	}
	return InvalidState, InvalidState
}

// Epsilon returns the target state for Epsilon states.
// Returns InvalidState for non-Epsilon states.
func (s *State) Epsilon() StateID {
	if s.kind == StateEpsilon {
		return s.next
	}
	return InvalidState
}

// Capture returns the slot and target of a Capture state.
// Slot 2i holds the start of group i and slot 2i+1 its end.
func (s *State) Capture() (slot uint32, next StateID) {
	if s.kind == StateCapture {
		return s.slot, s.next
	}
	return 0, InvalidState
}

// Look returns the assertion and target of a Look state.
func (s *State) Look() (Look, StateID) {
	if s.kind == StateLook {
		return s.look, s.next
	}
	return 0, InvalidState
}

// String returns a human-readable representation of the state
func (s *State) String() string {
	switch s.kind {
	case StateMatch:
		return "Match"
	case StateChar:
		return fmt.Sprintf("Char %s -> %d", s.set, s.next)
	case StateSplit:
		return fmt.Sprintf("Split -> [%d, %d]", s.left, s.right)
	case StateEpsilon:
		return fmt.Sprintf("Epsilon -> %d", s.next)
	case StateCapture:
		return fmt.Sprintf("Capture slot %d -> %d", s.slot, s.next)
	case StateLook:
		return fmt.Sprintf("Look %s -> %d", s.look, s.next)
	case StateFail:
		return "Fail"
	default:
		return "Unknown"
	}
}

// NFA represents a compiled Thompson NFA: the program a PikeVM runs.
// An NFA is immutable once built and safe for concurrent use.
type NFA struct {
	// states contains all NFA states indexed by StateID
	states []State

	// startAnchored is the start state for anchored searches.
	// Points directly to the compiled pattern.
	startAnchored StateID

	// startUnanchored is the start state for unanchored searches.
	// Points to the lazy (?s:.)*? prefix loop in front of startAnchored.
	// When the pattern is anchored at \A, equals startAnchored.
	startUnanchored StateID

	// prefixChar is the Char state of the unanchored prefix loop, or
	// InvalidState when there is no loop.
	prefixChar StateID

	// anchored indicates if the pattern must match at the start of input
	anchored bool

	// captureCount is the number of capture groups in the pattern
	// Group 0 is the entire match, groups 1+ are explicit captures
	captureCount int

	// captureNames stores the names of named capture groups.
	// Index 0 is always "" (entire match), subsequent indices correspond to capture groups.
	// For unnamed captures, the name is "".
	captureNames []string
}

// StartAnchored returns the start state for anchored searches
func (n *NFA) StartAnchored() StateID {
	return n.startAnchored
}

// StartUnanchored returns the start state for unanchored searches
func (n *NFA) StartUnanchored() StateID {
	return n.startUnanchored
}

// IsAlwaysAnchored returns true if anchored and unanchored starts are the same.
// This indicates the pattern is inherently anchored (has \A prefix).
func (n *NFA) IsAlwaysAnchored() bool {
	return n.startAnchored == n.startUnanchored
}

// State returns the state with the given ID.
// Returns nil if the ID is invalid.
func (n *NFA) State(id StateID) *State {
	if id == InvalidState || int(id) >= len(n.states) {
		return nil
	}
	return &n.states[id]
}

// IsMatch returns true if the given state is a match state
func (n *NFA) IsMatch(id StateID) bool {
	if s := n.State(id); s != nil {
		return s.IsMatch()
	}
	return false
}

// States returns the total number of states in the NFA
func (n *NFA) States() int {
	return len(n.states)
}

// IsAnchored returns true if the NFA requires anchored matching
func (n *NFA) IsAnchored() bool {
	return n.anchored
}

// CaptureCount returns the number of capture groups in the NFA.
// Group 0 is the entire match, groups 1+ are explicit captures.
// For a pattern like "(a)(b)", this returns 3 (entire match + 2 groups).
func (n *NFA) CaptureCount() int {
	return n.captureCount
}

// SlotCount returns the number of capture slots, two per group.
func (n *NFA) SlotCount() int {
	return n.captureCount * 2
}

// SubexpNames returns the names of capture groups in the pattern.
// Index 0 is always "" (representing the entire match).
// Named groups return their names, unnamed groups return "".
//
// Example:
//
//	pattern: `(?P<year>\d+)-(\d+)-(?P<day>\d+)`
//	returns: ["", "year", "", "day"]
func (n *NFA) SubexpNames() []string {
	names := make([]string, n.captureCount)
	copy(names, n.captureNames)
	return names
}

// String returns a listing of the program, one state per line.
func (n *NFA) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "NFA{states: %d, startAnchored: %d, startUnanchored: %d, anchored: %v, captures: %d}\n",
		len(n.states), n.startAnchored, n.startUnanchored, n.anchored, n.captureCount)
	for i := range n.states {
		fmt.Fprintf(&b, "%6d: %s\n", i, n.states[i].String())
	}
	return b.String()
}
