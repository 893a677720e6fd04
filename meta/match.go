package meta

// Span is a half-open byte range [Start, End) of the input.
type Span struct {
	Start int
	End   int
}

// Len returns the length of the span in bytes.
func (s Span) Len() int {
	return s.End - s.Start
}

// IsEmpty reports whether the span covers no bytes.
func (s Span) IsEmpty() bool {
	return s.Start == s.End
}

// Match is the result of a successful search: the overall span, the span of
// every capture group, and the input they index into.
//
// A Match is immutable. Group 0 is the overall match; groups that did not
// participate report ok == false.
//
// Example:
//
//	engine, _ := meta.Compile(`(?P<user>\w+)@(\w+)`, meta.DefaultConfig())
//	m := engine.Find("mail bob@example now")
//	m.Span()              // {5 16}
//	m.Name("user")        // {5 8}, true
//	m.GroupText(2)        // "example", true
type Match struct {
	slots []int
	names []string
	input string
}

// NewMatch creates a Match from capture slots: slots[2i] and slots[2i+1]
// bound group i, or are -1 when it did not participate. names maps group
// indices to names and may be nil. slots is copied.
func NewMatch(input string, slots []int, names []string) *Match {
	return &Match{
		slots: append([]int(nil), slots...),
		names: names,
		input: input,
	}
}

// Span returns the span of the overall match.
func (m *Match) Span() Span {
	return Span{Start: m.slots[0], End: m.slots[1]}
}

// Start returns the byte offset where the match begins.
func (m *Match) Start() int {
	return m.slots[0]
}

// End returns the byte offset just past the match.
func (m *Match) End() int {
	return m.slots[1]
}

// Len returns the length of the match in bytes.
func (m *Match) Len() int {
	return m.slots[1] - m.slots[0]
}

// IsEmpty reports whether the match is zero-width.
func (m *Match) IsEmpty() bool {
	return m.slots[0] == m.slots[1]
}

// Contains reports whether pos lies inside the match.
func (m *Match) Contains(pos int) bool {
	return pos >= m.slots[0] && pos < m.slots[1]
}

// NumGroups returns the number of groups including group 0.
func (m *Match) NumGroups() int {
	return len(m.slots) / 2
}

// Group returns the span of group i. ok is false when i is out of range
// or the group did not participate in the match.
func (m *Match) Group(i int) (Span, bool) {
	if i < 0 || 2*i+1 >= len(m.slots) {
		return Span{}, false
	}
	start, end := m.slots[2*i], m.slots[2*i+1]
	if start < 0 || end < 0 {
		return Span{}, false
	}
	return Span{Start: start, End: end}, true
}

// Name returns the span of the group called name.
func (m *Match) Name(name string) (Span, bool) {
	if name == "" {
		return Span{}, false
	}
	for i, n := range m.names {
		if n == name {
			return m.Group(i)
		}
	}
	return Span{}, false
}

// Slice returns the input text covered by span, or "" if span does not
// lie within the input.
func (m *Match) Slice(span Span) string {
	if span.Start < 0 || span.End > len(m.input) || span.Start > span.End {
		return ""
	}
	return m.input[span.Start:span.End]
}

// Text returns the matched text.
func (m *Match) Text() string {
	return m.Slice(m.Span())
}

// String returns the matched text.
func (m *Match) String() string {
	return m.Text()
}

// GroupText returns the text of group i.
func (m *Match) GroupText(i int) (string, bool) {
	span, ok := m.Group(i)
	if !ok {
		return "", false
	}
	return m.Slice(span), true
}

// Slots returns a copy of the capture slots in the layout NewMatch takes.
func (m *Match) Slots() []int {
	return append([]int(nil), m.slots...)
}

// Input returns the text the match was found in.
func (m *Match) Input() string {
	return m.input
}
