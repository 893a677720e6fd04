// Package sparse provides a sparse set of state IDs.
//
// A sparse set supports O(1) insertion, membership testing and clearing
// while keeping a dense list of its elements in insertion order. The PikeVM
// relies on that order: the dense list of an active set is its thread
// priority order.
package sparse

const defaultCapacity = 64

// SparseSet is a set of uint32 values drawn from [0, Capacity()).
// The sparse array maps values to their index in the dense array; stale
// entries left behind by Clear are detected by cross-checking dense.
type SparseSet struct {
	sparse []uint32 // value -> index in dense
	dense  []uint32 // values in insertion order
}

// NewSparseSet creates a new sparse set for values below capacity.
// A capacity of zero selects a small default.
func NewSparseSet(capacity uint32) *SparseSet {
	if capacity == 0 {
		capacity = defaultCapacity
	}
	return &SparseSet{
		sparse: make([]uint32, capacity),
		dense:  make([]uint32, 0, capacity),
	}
}

// Insert adds value to the set and reports whether it was newly added.
// Panics if value >= Capacity().
func (s *SparseSet) Insert(value uint32) bool {
	if s.Contains(value) {
		return false
	}
	//nolint:gosec // G115: len(dense) < capacity, which fits in uint32
	s.sparse[value] = uint32(len(s.dense))
	s.dense = append(s.dense, value)
	return true
}

// Contains returns true if the value is in the set
func (s *SparseSet) Contains(value uint32) bool {
	if int(value) >= len(s.sparse) {
		return false
	}
	idx := s.sparse[value]
	return int(idx) < len(s.dense) && s.dense[idx] == value
}

// Clear removes all elements from the set in O(1) time
func (s *SparseSet) Clear() {
	s.dense = s.dense[:0]
}

// IsEmpty returns true if the set contains no elements
func (s *SparseSet) IsEmpty() bool {
	return len(s.dense) == 0
}

// Capacity returns the exclusive upper bound on storable values.
func (s *SparseSet) Capacity() int {
	return len(s.sparse)
}

// Values returns the elements in insertion order.
// The returned slice is valid until the next mutation.
func (s *SparseSet) Values() []uint32 {
	return s.dense
}

// Resize changes the capacity. Growing keeps the elements; any other
// resize clears the set. Zero selects the default capacity.
func (s *SparseSet) Resize(capacity uint32) {
	if capacity == 0 {
		capacity = defaultCapacity
	}
	if int(capacity) <= len(s.sparse) {
		s.Clear()
		return
	}
	sparse := make([]uint32, capacity)
	copy(sparse, s.sparse)
	dense := make([]uint32, len(s.dense), capacity)
	copy(dense, s.dense)
	s.sparse, s.dense = sparse, dense
}

// MemoryUsage returns the bytes held by the backing arrays.
func (s *SparseSet) MemoryUsage() int {
	return len(s.sparse)*4 + cap(s.dense)*4
}
