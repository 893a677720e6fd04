package nfa

import (
	"fmt"

	"github.com/coregx/linex/syntax"
)

// Builder constructs NFAs incrementally using a low-level API.
// This provides full control over NFA construction and is used by the Compiler.
type Builder struct {
	states          []State
	startAnchored   StateID
	startUnanchored StateID
	prefixChar      StateID
}

// NewBuilder creates a new NFA builder with default capacity
func NewBuilder() *Builder {
	return NewBuilderWithCapacity(16)
}

// NewBuilderWithCapacity creates a new NFA builder with specified initial capacity
func NewBuilderWithCapacity(capacity int) *Builder {
	return &Builder{
		states:          make([]State, 0, capacity),
		startAnchored:   InvalidState,
		startUnanchored: InvalidState,
		prefixChar:      InvalidState,
	}
}

func (b *Builder) add(s State) StateID {
	id := StateID(len(b.states))
	b.states = append(b.states, s)
	return id
}

// AddMatch adds a match (accepting) state and returns its ID
func (b *Builder) AddMatch() StateID {
	return b.add(State{kind: StateMatch})
}

// AddChar adds a state that consumes one code point contained in set.
// The set must be canonical; it is shared, not copied.
func (b *Builder) AddChar(set syntax.RangeSet, next StateID) StateID {
	return b.add(State{kind: StateChar, set: set, next: next})
}

// AddSplit adds a state with epsilon transitions to two states.
// The left branch has priority over the right one.
func (b *Builder) AddSplit(left, right StateID) StateID {
	return b.add(State{kind: StateSplit, left: left, right: right})
}

// AddEpsilon adds a state with a single epsilon transition (no input consumed)
func (b *Builder) AddEpsilon(next StateID) StateID {
	return b.add(State{kind: StateEpsilon, next: next})
}

// AddFail adds a dead state with no transitions
func (b *Builder) AddFail() StateID {
	return b.add(State{kind: StateFail})
}

// AddCapture adds a capture boundary state that records the current offset
// in slot before moving to next.
func (b *Builder) AddCapture(slot uint32, next StateID) StateID {
	return b.add(State{kind: StateCapture, slot: slot, next: next})
}

// AddLook adds a zero-width assertion state.
// next is the state to transition to if the assertion succeeds.
func (b *Builder) AddLook(look Look, next StateID) StateID {
	return b.add(State{kind: StateLook, look: look, next: next})
}

// Patch updates a state's target. This is used during compilation to handle
// forward references (e.g., loops, alternations).
// This only works for states with a single 'next' target.
func (b *Builder) Patch(stateID, target StateID) error {
	if int(stateID) >= len(b.states) {
		return &BuildError{
			Message: "state ID out of bounds",
			StateID: stateID,
		}
	}

	s := &b.states[stateID]
	switch s.kind {
	case StateChar, StateEpsilon, StateCapture, StateLook:
		s.next = target
		return nil
	default:
		return &BuildError{
			Message: fmt.Sprintf("cannot patch state of kind %s", s.kind),
			StateID: stateID,
		}
	}
}

// PatchSplit updates the left and right targets of a Split state
func (b *Builder) PatchSplit(stateID StateID, left, right StateID) error {
	if int(stateID) >= len(b.states) {
		return &BuildError{
			Message: "state ID out of bounds",
			StateID: stateID,
		}
	}

	s := &b.states[stateID]
	if s.kind != StateSplit {
		return &BuildError{
			Message: fmt.Sprintf("expected Split state, got %s", s.kind),
			StateID: stateID,
		}
	}

	s.left = left
	s.right = right
	return nil
}

// SetStarts sets separate anchored and unanchored start states
func (b *Builder) SetStarts(anchored, unanchored StateID) {
	b.startAnchored = anchored
	b.startUnanchored = unanchored
}

// SetPrefixChar marks the Char state of the unanchored prefix loop.
func (b *Builder) SetPrefixChar(id StateID) {
	b.prefixChar = id
}

// States returns the current number of states
func (b *Builder) States() int {
	return len(b.states)
}

// Validate checks that the NFA is well-formed:
// - Start states are set and in range
// - All state references point to valid states
// - Exactly one match state exists
func (b *Builder) Validate() error {
	if b.startAnchored == InvalidState {
		return &BuildError{Message: "anchored start state not set", StateID: InvalidState}
	}
	if int(b.startAnchored) >= len(b.states) {
		return &BuildError{
			Message: "anchored start state out of bounds",
			StateID: b.startAnchored,
		}
	}
	if b.startUnanchored == InvalidState {
		return &BuildError{Message: "unanchored start state not set", StateID: InvalidState}
	}
	if int(b.startUnanchored) >= len(b.states) {
		return &BuildError{
			Message: "unanchored start state out of bounds",
			StateID: b.startUnanchored,
		}
	}

	matches := 0
	for i, s := range b.states {
		id := StateID(i)
		switch s.kind {
		case StateMatch:
			matches++
		case StateChar, StateEpsilon, StateCapture, StateLook:
			if int(s.next) >= len(b.states) {
				return &BuildError{
					Message: fmt.Sprintf("invalid next state %d", s.next),
					StateID: id,
				}
			}
		case StateSplit:
			if int(s.left) >= len(b.states) {
				return &BuildError{
					Message: fmt.Sprintf("invalid left state %d", s.left),
					StateID: id,
				}
			}
			if int(s.right) >= len(b.states) {
				return &BuildError{
					Message: fmt.Sprintf("invalid right state %d", s.right),
					StateID: id,
				}
			}
		}
	}
	if matches != 1 {
		return &BuildError{
			Message: fmt.Sprintf("expected exactly one match state, found %d", matches),
			StateID: InvalidState,
		}
	}

	return nil
}

// Build finalizes and returns the constructed NFA.
// Options can be provided to set the anchored mode and capture metadata.
func (b *Builder) Build(opts ...BuildOption) (*NFA, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	nfa := &NFA{
		states:          b.states,
		startAnchored:   b.startAnchored,
		startUnanchored: b.startUnanchored,
		prefixChar:      b.prefixChar,
		captureCount:    1,
	}

	for _, opt := range opts {
		opt(nfa)
	}

	return nfa, nil
}

// BuildOption is a functional option for configuring the built NFA
type BuildOption func(*NFA)

// WithAnchored sets whether the NFA requires anchored matching
func WithAnchored(anchored bool) BuildOption {
	return func(n *NFA) {
		n.anchored = anchored
	}
}

// WithCaptureCount sets the number of capture groups in the NFA
func WithCaptureCount(count int) BuildOption {
	return func(n *NFA) {
		n.captureCount = count
	}
}

// WithCaptureNames sets the names of capture groups in the NFA.
// The slice should have length equal to captureCount.
// Index 0 should be "" (entire match), named groups have their names, unnamed groups are "".
func WithCaptureNames(names []string) BuildOption {
	return func(n *NFA) {
		if len(names) > 0 {
			n.captureNames = make([]string, len(names))
			copy(n.captureNames, names)
		}
	}
}
