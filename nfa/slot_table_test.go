package nfa

import (
	"testing"
)

func TestSlotTable_New(t *testing.T) {
	tests := []struct {
		name      string
		numStates int
		slots     int
		wantLen   int
	}{
		{"normal creation", 10, 4, 40},
		{"zero states", 0, 4, 0},
		{"negative states", -1, 4, 0},
		{"zero slots", 10, 0, 0},
		{"single state single group", 1, 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := NewSlotTable(tt.numStates, tt.slots)
			if len(st.table) != tt.wantLen {
				t.Fatalf("len(table) = %d, want %d", len(st.table), tt.wantLen)
			}
			for i, v := range st.table {
				if v != -1 {
					t.Fatalf("table[%d] = %d, want -1", i, v)
				}
			}
		})
	}
}

func TestSlotTable_ForState(t *testing.T) {
	st := NewSlotTable(3, 4)
	row := st.ForState(1)
	if len(row) != 4 {
		t.Fatalf("len(ForState) = %d, want 4", len(row))
	}
	row[0], row[3] = 7, 9

	if got := st.ForState(1); got[0] != 7 || got[3] != 9 {
		t.Errorf("writes through ForState not visible: %v", got)
	}
	if got := st.ForState(0); got[3] != -1 {
		t.Errorf("neighbouring row modified: %v", got)
	}
	if got := st.ForState(2); got[0] != -1 {
		t.Errorf("neighbouring row modified: %v", got)
	}

	// Rows are capped so an append cannot spill into the next state.
	row = append(row, 42)
	if st.ForState(2)[0] != -1 {
		t.Error("append on a row overwrote the next row")
	}
}

func TestSlotTable_ZeroStride(t *testing.T) {
	st := NewSlotTable(10, 0)
	if st.ForState(5) != nil {
		t.Error("ForState should be nil when no slots are tracked")
	}
	if st.Stride() != 0 {
		t.Errorf("Stride() = %d, want 0", st.Stride())
	}
}

func TestSlotTable_Reset(t *testing.T) {
	st := NewSlotTable(4, 2)
	before := st.MemoryUsage()

	st.Reset(2, 2)
	if st.NumStates() != 2 || st.Stride() != 2 {
		t.Errorf("Reset(2, 2): numStates=%d stride=%d", st.NumStates(), st.Stride())
	}
	if st.MemoryUsage() != before {
		t.Error("shrinking should reuse the backing array")
	}

	st.Reset(100, 6)
	if len(st.ForState(99)) != 6 {
		t.Errorf("len(ForState(99)) = %d, want 6", len(st.ForState(99)))
	}
	if st.MemoryUsage() < 600*8 {
		t.Errorf("MemoryUsage() = %d, want at least %d", st.MemoryUsage(), 600*8)
	}
}
