package nfa

// SlotTable is a 2D table (flattened to 1D) storing capture slot values per NFA state.
//
// Each state has a row of slots. A search only tracks as many slots as it
// needs, so the stride is the active slot count rather than the full
// capture width:
//   - 0: IsMatch mode (no capture tracking)
//   - 2: Find mode (only track overall match start/end)
//   - full: Captures mode (track all groups)
//
// Memory layout: table[stateID * stride + slotIndex]
//
// Rows are never cleared between searches. A row is only read after the
// epsilon closure has inserted its state into the active set, and insertion
// always overwrites the row first.
type SlotTable struct {
	// table is the flattened 2D array: [stateID][slotIndex] → value
	// Value of -1 means "not set"
	table []int

	// stride is the row length, equal to the active slot count
	stride int

	// numStates is the total NFA states count.
	numStates int
}

// NewSlotTable creates a new SlotTable for an NFA with the given parameters.
// All slots start out unset (-1).
func NewSlotTable(numStates, slots int) *SlotTable {
	st := &SlotTable{}
	st.Reset(numStates, slots)
	return st
}

// Reset prepares the table for a search over numStates states tracking
// slots slots each. The backing array is reused when it is large enough.
func (st *SlotTable) Reset(numStates, slots int) {
	if numStates < 0 {
		numStates = 0
	}
	if slots < 0 {
		slots = 0
	}
	st.numStates = numStates
	st.stride = slots
	size := numStates * slots
	if cap(st.table) >= size {
		st.table = st.table[:size]
		return
	}
	st.table = make([]int, size)
	for i := range st.table {
		st.table[i] = -1
	}
}

// ForState returns a slice of slots for the given state ID.
// Modifying the returned slice modifies the table.
// Returns nil when no slots are tracked.
func (st *SlotTable) ForState(sid StateID) []int {
	if st.stride == 0 {
		return nil
	}
	i := int(sid) * st.stride
	return st.table[i : i+st.stride : i+st.stride]
}

// Stride returns the number of slots per state.
func (st *SlotTable) Stride() int {
	return st.stride
}

// NumStates returns the number of rows.
func (st *SlotTable) NumStates() int {
	return st.numStates
}

// MemoryUsage returns the bytes held by the table.
func (st *SlotTable) MemoryUsage() int {
	return cap(st.table) * 8
}
