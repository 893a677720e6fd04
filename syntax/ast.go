// Package syntax parses regular expression patterns into an abstract
// syntax tree.
//
// The tree is a tagged union: every Node carries an Op and only the fields
// that Op uses are meaningful. Parse assigns capture indices to groups in
// order of their opening parenthesis, starting at 1; index 0 is reserved for
// the overall match.
package syntax

import (
	"fmt"
	"strconv"
	"strings"
)

// Op identifies the kind of a Node.
type Op uint8

const (
	// OpEmpty matches the empty string.
	OpEmpty Op = iota
	// OpLiteral matches the single code point Rune.
	OpLiteral
	// OpClass matches one code point in Class, or outside it when Negated.
	OpClass
	// OpConcat matches Subs in sequence.
	OpConcat
	// OpAlternate matches one of Subs, preferring earlier ones.
	OpAlternate
	// OpRepeat matches Subs[0] between Min and Max times (Max -1 = unbounded).
	OpRepeat
	// OpGroup wraps Subs[0]; Cap is its capture index or -1.
	OpGroup
	// OpAnchor is a zero-width assertion of kind Anchor.
	OpAnchor
)

// String returns the name of the op.
func (op Op) String() string {
	switch op {
	case OpEmpty:
		return "Empty"
	case OpLiteral:
		return "Literal"
	case OpClass:
		return "Class"
	case OpConcat:
		return "Concat"
	case OpAlternate:
		return "Alternate"
	case OpRepeat:
		return "Repeat"
	case OpGroup:
		return "Group"
	case OpAnchor:
		return "Anchor"
	default:
		return fmt.Sprintf("Op(%d)", op)
	}
}

// AnchorKind identifies a zero-width assertion.
type AnchorKind uint8

const (
	// AnchorStartText is \A, and ^ without the m flag.
	AnchorStartText AnchorKind = iota
	// AnchorEndText is \z, and $ without the m flag.
	AnchorEndText
	// AnchorStartLine is ^ with the m flag.
	AnchorStartLine
	// AnchorEndLine is $ with the m flag.
	AnchorEndLine
	// AnchorWordBoundary is \b.
	AnchorWordBoundary
	// AnchorNotWordBoundary is \B.
	AnchorNotWordBoundary
)

// String returns the pattern syntax of the anchor.
func (k AnchorKind) String() string {
	switch k {
	case AnchorStartText:
		return `\A`
	case AnchorEndText:
		return `\z`
	case AnchorStartLine:
		return `(?m:^)`
	case AnchorEndLine:
		return `(?m:$)`
	case AnchorWordBoundary:
		return `\b`
	case AnchorNotWordBoundary:
		return `\B`
	default:
		return fmt.Sprintf("Anchor(%d)", k)
	}
}

// Node is one node of the syntax tree.
type Node struct {
	Op  Op
	Pos int // byte offset of the node in the pattern

	Rune    rune     // OpLiteral
	Class   RangeSet // OpClass, before negation
	Negated bool     // OpClass

	Subs []*Node // OpConcat, OpAlternate; single child for OpRepeat and OpGroup

	Min, Max int  // OpRepeat; Max == -1 means unbounded
	Greedy   bool // OpRepeat

	Cap  int    // OpGroup capture index, -1 for non-capturing
	Name string // OpGroup name of a named capture

	Anchor AnchorKind // OpAnchor
}

// Sub returns the only child of a Repeat or Group node.
func (n *Node) Sub() *Node {
	if len(n.Subs) == 0 {
		return nil
	}
	return n.Subs[0]
}

// Set returns the code points an OpClass or OpLiteral node matches,
// with negation applied.
func (n *Node) Set() RangeSet {
	switch n.Op {
	case OpLiteral:
		return RangeSet{{Lo: n.Rune, Hi: n.Rune}}
	case OpClass:
		if n.Negated {
			return n.Class.Negate()
		}
		return n.Class
	}
	return nil
}

// String renders the node back into pattern syntax. The output parses to
// an equivalent tree but is not necessarily the original text.
func (n *Node) String() string {
	var b strings.Builder
	n.write(&b)
	return b.String()
}

func (n *Node) write(b *strings.Builder) {
	switch n.Op {
	case OpEmpty:
		b.WriteString("(?:)")
	case OpLiteral:
		writeLiteral(b, n.Rune)
	case OpClass:
		if n.Negated {
			s := n.Class.String()
			b.WriteString("[^")
			b.WriteString(s[1:])
			return
		}
		b.WriteString(n.Class.String())
	case OpConcat:
		for _, sub := range n.Subs {
			if sub.Op == OpAlternate {
				b.WriteString("(?:")
				sub.write(b)
				b.WriteByte(')')
				continue
			}
			sub.write(b)
		}
	case OpAlternate:
		for i, sub := range n.Subs {
			if i > 0 {
				b.WriteByte('|')
			}
			sub.write(b)
		}
	case OpRepeat:
		sub := n.Sub()
		if sub.Op == OpConcat || sub.Op == OpAlternate || sub.Op == OpRepeat || sub.Op == OpEmpty {
			b.WriteString("(?:")
			sub.write(b)
			b.WriteByte(')')
		} else {
			sub.write(b)
		}
		switch {
		case n.Min == 0 && n.Max == -1:
			b.WriteByte('*')
		case n.Min == 1 && n.Max == -1:
			b.WriteByte('+')
		case n.Min == 0 && n.Max == 1:
			b.WriteByte('?')
		case n.Max == -1:
			b.WriteString("{" + strconv.Itoa(n.Min) + ",}")
		case n.Min == n.Max:
			b.WriteString("{" + strconv.Itoa(n.Min) + "}")
		default:
			b.WriteString("{" + strconv.Itoa(n.Min) + "," + strconv.Itoa(n.Max) + "}")
		}
		if !n.Greedy {
			b.WriteByte('?')
		}
	case OpGroup:
		switch {
		case n.Name != "":
			b.WriteString("(?P<" + n.Name + ">")
		case n.Cap >= 0:
			b.WriteByte('(')
		default:
			b.WriteString("(?:")
		}
		n.Sub().write(b)
		b.WriteByte(')')
	case OpAnchor:
		b.WriteString(n.Anchor.String())
	}
}

func writeLiteral(b *strings.Builder, r rune) {
	if r < 0x80 && strings.ContainsRune(`\.+*?()|[]{}^$`, r) {
		b.WriteByte('\\')
		b.WriteRune(r)
		return
	}
	if r < ' ' || r == 0x7F {
		fmt.Fprintf(b, `\x%02X`, r)
		return
	}
	b.WriteRune(r)
}

// Regexp is the result of parsing a pattern.
type Regexp struct {
	Root *Node

	// NumCap is the number of capturing groups, excluding the overall match.
	NumCap int

	// Names holds the name of each group by capture index; Names[0] is the
	// overall match and unnamed groups have "".
	Names []string

	// Pattern is the source text.
	Pattern string
}

// NameIndex returns the capture index of the named group, or -1.
func (re *Regexp) NameIndex(name string) int {
	if name == "" {
		return -1
	}
	for i, n := range re.Names {
		if n == name {
			return i
		}
	}
	return -1
}
