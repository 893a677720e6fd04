package meta

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatch(t *testing.T) {
	input := "key=value"
	m := NewMatch(input, []int{0, 9, 0, 3, -1, -1, 4, 9}, []string{"", "k", "", "v"})

	assert.Equal(t, Span{0, 9}, m.Span())
	assert.Equal(t, 0, m.Start())
	assert.Equal(t, 9, m.End())
	assert.Equal(t, 9, m.Len())
	assert.False(t, m.IsEmpty())
	assert.True(t, m.Contains(0))
	assert.False(t, m.Contains(9))
	assert.Equal(t, 4, m.NumGroups())
	assert.Equal(t, "key=value", m.Text())
	assert.Equal(t, "key=value", m.String())
	assert.Equal(t, input, m.Input())

	span, ok := m.Group(1)
	assert.True(t, ok)
	assert.Equal(t, Span{0, 3}, span)
	assert.Equal(t, "key", m.Slice(span))

	_, ok = m.Group(2)
	assert.False(t, ok)
	_, ok = m.Group(4)
	assert.False(t, ok)
	_, ok = m.Group(-1)
	assert.False(t, ok)

	text, ok := m.GroupText(3)
	assert.True(t, ok)
	assert.Equal(t, "value", text)
	text, ok = m.GroupText(2)
	assert.False(t, ok)
	assert.Empty(t, text)

	span, ok = m.Name("v")
	assert.True(t, ok)
	assert.Equal(t, Span{4, 9}, span)
	_, ok = m.Name("missing")
	assert.False(t, ok)
	_, ok = m.Name("")
	assert.False(t, ok)
}

func TestMatch_Immutable(t *testing.T) {
	slots := []int{1, 2}
	m := NewMatch("abc", slots, nil)
	slots[0] = 0
	assert.Equal(t, 1, m.Start(), "NewMatch must copy slots")

	out := m.Slots()
	out[1] = 3
	assert.Equal(t, 2, m.End(), "Slots must return a copy")
}

func TestMatch_Slice(t *testing.T) {
	m := NewMatch("hello", []int{1, 1}, nil)
	assert.True(t, m.IsEmpty())
	assert.Equal(t, "", m.Text())
	assert.Equal(t, "ell", m.Slice(Span{1, 4}))
	assert.Equal(t, "", m.Slice(Span{-1, 2}))
	assert.Equal(t, "", m.Slice(Span{3, 9}))
	assert.Equal(t, "", m.Slice(Span{3, 2}))
}

func TestSpan(t *testing.T) {
	assert.Equal(t, 3, Span{2, 5}.Len())
	assert.True(t, Span{4, 4}.IsEmpty())
	assert.False(t, Span{4, 5}.IsEmpty())
}
