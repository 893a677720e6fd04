package syntax

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Flags select parsing modes. Each corresponds to an inline flag.
type Flags uint16

const (
	// FoldCase enables case-insensitive matching (i).
	FoldCase Flags = 1 << iota
	// MultiLine makes ^ and $ match at line boundaries (m).
	MultiLine
	// DotNL lets . match \n (s).
	DotNL
	// NonGreedy swaps the meaning of x* and x*? (U).
	NonGreedy
)

const (
	// DefaultMaxRepeat is the largest count allowed in x{n,m}.
	DefaultMaxRepeat = 1000

	// maxDepth bounds group nesting so that parsing and compiling stay
	// within a reasonable stack.
	maxDepth = 1000

	// tooBig marks a repeat count too long to convert.
	tooBig = 1 << 30
)

// Options configure ParseWithOptions.
type Options struct {
	// Flags are the initial flags, as if the pattern began with (?flags).
	Flags Flags

	// Table resolves \p{...} names. Nil means UnicodeTable.
	Table ClassTable

	// MaxRepeat caps repetition counts. Zero means DefaultMaxRepeat.
	MaxRepeat int
}

// Parse parses pattern with the given flags and the default class table.
func Parse(pattern string, flags Flags) (*Regexp, error) {
	return ParseWithOptions(pattern, Options{Flags: flags})
}

// ParseWithOptions parses pattern into a syntax tree.
// Any error is an *Error carrying the byte offset of the problem.
func ParseWithOptions(pattern string, opts Options) (*Regexp, error) {
	if !utf8.ValidString(pattern) {
		for i := 0; i < len(pattern); {
			r, w := utf8.DecodeRuneInString(pattern[i:])
			if r == utf8.RuneError && w == 1 {
				return nil, &Error{Code: ErrInvalidUTF8, Pos: i, Expr: pattern[i : i+1]}
			}
			i += w
		}
	}
	p := &parser{
		src:       pattern,
		flags:     opts.Flags,
		table:     opts.Table,
		maxRepeat: opts.MaxRepeat,
		names:     []string{""},
	}
	if p.table == nil {
		p.table = UnicodeTable{}
	}
	if p.maxRepeat <= 0 {
		p.maxRepeat = DefaultMaxRepeat
	}

	root, err := p.parseAlternate()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.src) {
		// parseAlternate only stops early at ')'.
		return nil, p.error(ErrUnexpectedParen, p.pos, p.pos+1)
	}
	if err := p.checkRefs(); err != nil {
		return nil, err
	}
	return &Regexp{
		Root:    root,
		NumCap:  p.ncap,
		Names:   p.names,
		Pattern: pattern,
	}, nil
}

// MustParse is like Parse but panics on error.
func MustParse(pattern string, flags Flags) *Regexp {
	re, err := Parse(pattern, flags)
	if err != nil {
		panic("syntax: Parse(`" + pattern + "`): " + err.Error())
	}
	return re
}

type parser struct {
	src       string
	pos       int
	flags     Flags
	table     ClassTable
	maxRepeat int
	depth     int

	ncap  int
	names []string
	refs  []groupRef
}

// groupRef is a backreference seen during parsing. It is always an error;
// which one depends on whether the group exists once parsing completes.
type groupRef struct {
	pos, end int
	index    int
	name     string
}

func (p *parser) error(code ErrorCode, start, end int) *Error {
	end = min(end, len(p.src))
	if end < start {
		end = start
	}
	return &Error{Code: code, Pos: start, Expr: p.src[start:end]}
}

func (p *parser) more() bool {
	return p.pos < len(p.src)
}

func (p *parser) peek() byte {
	return p.src[p.pos]
}

func (p *parser) parseAlternate() (*Node, error) {
	start := p.pos
	var branches []*Node
	for {
		n, err := p.parseConcat()
		if err != nil {
			return nil, err
		}
		branches = append(branches, n)
		if p.more() && p.peek() == '|' {
			p.pos++
			continue
		}
		break
	}
	if len(branches) == 1 {
		return branches[0], nil
	}
	return &Node{Op: OpAlternate, Pos: start, Subs: branches}, nil
}

func (p *parser) parseConcat() (*Node, error) {
	start := p.pos
	var items []*Node
	for p.more() {
		c := p.peek()
		if c == '|' || c == ')' {
			break
		}
		if strings.HasPrefix(p.src[p.pos:], `\Q`) {
			lits := p.parseQuoted()
			if len(lits) == 0 {
				continue
			}
			items = append(items, lits[:len(lits)-1]...)
			last, err := p.parseRepeat(lits[len(lits)-1])
			if err != nil {
				return nil, err
			}
			items = append(items, last)
			continue
		}
		atom, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		if atom == nil {
			// A bare flag group such as (?i) leaves nothing to repeat.
			if p.atRepeatOp() {
				return nil, p.error(ErrMissingRepeatArgument, p.pos, p.pos+1)
			}
			continue
		}
		atom, err = p.parseRepeat(atom)
		if err != nil {
			return nil, err
		}
		items = append(items, atom)
	}
	switch len(items) {
	case 0:
		return &Node{Op: OpEmpty, Pos: start}, nil
	case 1:
		return items[0], nil
	}
	return &Node{Op: OpConcat, Pos: start, Subs: items}, nil
}

// atRepeatOp reports whether a repetition operator starts at the current position.
func (p *parser) atRepeatOp() bool {
	if !p.more() {
		return false
	}
	switch p.peek() {
	case '*', '+', '?':
		return true
	case '{':
		_, _, _, ok := parseBraces(p.src[p.pos:])
		return ok
	}
	return false
}

// parseRepeat applies a following repetition operator, if any, to atom.
func (p *parser) parseRepeat(atom *Node) (*Node, error) {
	if !p.atRepeatOp() {
		return atom, nil
	}
	opStart := p.pos
	lo, hi := 0, -1
	switch p.peek() {
	case '*':
		p.pos++
	case '+':
		lo = 1
		p.pos++
	case '?':
		hi = 1
		p.pos++
	case '{':
		var size int
		lo, hi, size, _ = parseBraces(p.src[p.pos:])
		p.pos += size
		if lo > p.maxRepeat || hi > p.maxRepeat || (hi >= 0 && lo > hi) {
			return nil, p.error(ErrInvalidRepeatSize, opStart, p.pos)
		}
	}
	lazy := false
	if p.more() && p.peek() == '?' {
		lazy = true
		p.pos++
	}
	if p.atRepeatOp() {
		return nil, p.error(ErrInvalidRepeatOp, opStart, p.pos+1)
	}
	greedy := !lazy
	if p.flags&NonGreedy != 0 {
		greedy = lazy
	}
	return &Node{
		Op:     OpRepeat,
		Pos:    atom.Pos,
		Subs:   []*Node{atom},
		Min:    lo,
		Max:    hi,
		Greedy: greedy,
	}, nil
}

// parseBraces parses {n}, {n,} or {n,m} at the start of s.
// ok is false when s does not start with a well-formed repetition, in which
// case the brace is an ordinary literal.
func parseBraces(s string) (lo, hi, size int, ok bool) {
	if s == "" || s[0] != '{' {
		return 0, 0, 0, false
	}
	i := 1
	lo, i, ok = parseInt(s, i)
	if !ok {
		return 0, 0, 0, false
	}
	hi = lo
	if i < len(s) && s[i] == ',' {
		i++
		if i < len(s) && s[i] == '}' {
			hi = -1
		} else if hi, i, ok = parseInt(s, i); !ok {
			return 0, 0, 0, false
		}
	}
	if i >= len(s) || s[i] != '}' {
		return 0, 0, 0, false
	}
	return lo, hi, i + 1, true
}

func parseInt(s string, i int) (n, next int, ok bool) {
	start := i
	for i < len(s) && '0' <= s[i] && s[i] <= '9' {
		i++
	}
	if i == start {
		return 0, i, false
	}
	if i-start > 8 {
		return tooBig, i, true
	}
	n, err := strconv.Atoi(s[start:i])
	if err != nil {
		return 0, i, false
	}
	return n, i, true
}

// parseAtom parses one operand. It returns a nil node for a flag-only group.
func (p *parser) parseAtom() (*Node, error) {
	start := p.pos
	switch p.peek() {
	case '(':
		return p.parseGroup()
	case '[':
		return p.parseClass()
	case '.':
		p.pos++
		if p.flags&DotNL != 0 {
			return &Node{Op: OpClass, Pos: start, Class: anySet}, nil
		}
		return &Node{Op: OpClass, Pos: start, Class: RangeSet{{Lo: '\n', Hi: '\n'}}, Negated: true}, nil
	case '^':
		p.pos++
		if p.flags&MultiLine != 0 {
			return p.anchor(AnchorStartLine, start), nil
		}
		return p.anchor(AnchorStartText, start), nil
	case '$':
		p.pos++
		if p.flags&MultiLine != 0 {
			return p.anchor(AnchorEndLine, start), nil
		}
		return p.anchor(AnchorEndText, start), nil
	case '*', '+', '?':
		return nil, p.error(ErrMissingRepeatArgument, start, start+1)
	case '{':
		if _, _, size, ok := parseBraces(p.src[p.pos:]); ok {
			return nil, p.error(ErrMissingRepeatArgument, start, start+size)
		}
		p.pos++
		return p.literal('{', start), nil
	case '\\':
		return p.parseEscapeAtom()
	}
	r, w := utf8.DecodeRuneInString(p.src[p.pos:])
	p.pos += w
	return p.literal(r, start), nil
}

func (p *parser) anchor(kind AnchorKind, pos int) *Node {
	return &Node{Op: OpAnchor, Pos: pos, Anchor: kind}
}

// literal returns a node matching r, honoring case folding.
func (p *parser) literal(r rune, pos int) *Node {
	if p.flags&FoldCase != 0 {
		if set := foldRune(r); len(set) > 1 || set[0].Lo != set[0].Hi {
			return &Node{Op: OpClass, Pos: pos, Class: set}
		}
	}
	return &Node{Op: OpLiteral, Pos: pos, Rune: r}
}

// parseQuoted consumes \Q...\E (the \E is optional at the end of the
// pattern) and returns one literal per rune.
func (p *parser) parseQuoted() []*Node {
	p.pos += 2
	text := p.src[p.pos:]
	end := len(p.src)
	if i := strings.Index(text, `\E`); i >= 0 {
		text = text[:i]
		end = p.pos + i + 2
	}
	var lits []*Node
	for i, r := range text {
		lits = append(lits, p.literal(r, p.pos+i))
	}
	p.pos = end
	return lits
}

func (p *parser) parseGroup() (*Node, error) {
	start := p.pos
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxDepth {
		return nil, p.error(ErrNestingDepth, start, start+1)
	}
	p.pos++

	capIndex, name := -1, ""
	if p.more() && p.peek() == '?' {
		rest := p.src[p.pos:]
		switch {
		case strings.HasPrefix(rest, "?="), strings.HasPrefix(rest, "?!"):
			return nil, p.error(ErrLookaround, start, p.pos+2)
		case strings.HasPrefix(rest, "?<="), strings.HasPrefix(rest, "?<!"):
			return nil, p.error(ErrLookaround, start, p.pos+3)
		case strings.HasPrefix(rest, "?P="):
			ref, err := p.parseNamedRef(start, p.pos+3, ')')
			if err != nil {
				return nil, err
			}
			return ref, nil
		case strings.HasPrefix(rest, "?P<"), strings.HasPrefix(rest, "?<"):
			begin := p.pos + 2
			if rest[1] == 'P' {
				begin++
			}
			end := strings.IndexByte(p.src[begin:], '>')
			if end < 0 {
				return nil, p.error(ErrInvalidNamedCapture, start, len(p.src))
			}
			name = p.src[begin : begin+end]
			p.pos = begin + end + 1
			if !isValidGroupName(name) {
				return nil, p.error(ErrInvalidNamedCapture, start, p.pos)
			}
			for _, n := range p.names {
				if n == name {
					return nil, p.error(ErrDuplicateName, start, p.pos)
				}
			}
			p.ncap++
			capIndex = p.ncap
			p.names = append(p.names, name)
		case strings.HasPrefix(rest, "?:"):
			p.pos += 2
		default:
			return p.parseFlags(start)
		}
	} else {
		p.ncap++
		capIndex = p.ncap
		p.names = append(p.names, "")
	}

	return p.parseGroupBody(start, capIndex, name)
}

// parseGroupBody parses the alternation inside a group up to and including ')'.
func (p *parser) parseGroupBody(start, capIndex int, name string) (*Node, error) {
	saved := p.flags
	sub, err := p.parseAlternate()
	p.flags = saved
	if err != nil {
		return nil, err
	}
	if !p.more() || p.peek() != ')' {
		return nil, p.error(ErrMissingParen, start, len(p.src))
	}
	p.pos++
	return &Node{Op: OpGroup, Pos: start, Subs: []*Node{sub}, Cap: capIndex, Name: name}, nil
}

// parseFlags handles (?flags) and (?flags:re). p.pos is at the '?'.
func (p *parser) parseFlags(start int) (*Node, error) {
	p.pos++
	flags := p.flags
	negate, sawFlag, sawAny := false, false, false
	for p.more() {
		c, w := utf8.DecodeRuneInString(p.src[p.pos:])
		p.pos += w
		var f Flags
		switch c {
		case 'i':
			f = FoldCase
		case 'm':
			f = MultiLine
		case 's':
			f = DotNL
		case 'U':
			f = NonGreedy
		case '-':
			if negate {
				return nil, p.error(ErrInvalidPerlOp, start, p.pos)
			}
			negate, sawFlag = true, false
			continue
		case ':', ')':
			if !sawAny || (negate && !sawFlag) {
				return nil, p.error(ErrInvalidPerlOp, start, p.pos)
			}
			if c == ')' {
				p.flags = flags
				return nil, nil
			}
			saved := p.flags
			p.flags = flags
			n, err := p.parseGroupBody(start, -1, "")
			p.flags = saved
			return n, err
		default:
			return nil, p.error(ErrInvalidPerlOp, start, p.pos)
		}
		if negate {
			flags &^= f
		} else {
			flags |= f
		}
		sawFlag, sawAny = true, true
	}
	return nil, p.error(ErrMissingParen, start, len(p.src))
}

func isValidGroupName(name string) bool {
	if name == "" {
		return false
	}
	for _, c := range name {
		if c != '_' && !('0' <= c && c <= '9') && !('a' <= c && c <= 'z') && !('A' <= c && c <= 'Z') {
			return false
		}
	}
	return true
}

// parseNamedRef records a reference to a named group. begin is the offset of
// the name and closer the byte that terminates it.
func (p *parser) parseNamedRef(start, begin int, closer byte) (*Node, error) {
	end := strings.IndexByte(p.src[begin:], closer)
	if end < 0 {
		return nil, p.error(ErrInvalidNamedCapture, start, len(p.src))
	}
	name := p.src[begin : begin+end]
	p.pos = begin + end + 1
	if !isValidGroupName(name) {
		return nil, p.error(ErrInvalidNamedCapture, start, p.pos)
	}
	p.refs = append(p.refs, groupRef{pos: start, end: p.pos, index: -1, name: name})
	return &Node{Op: OpEmpty, Pos: start}, nil
}

// checkRefs reports the first backreference. A reference to a group that
// exists is unsupported; one to a missing group is undefined.
func (p *parser) checkRefs() error {
	if len(p.refs) == 0 {
		return nil
	}
	ref := p.refs[0]
	defined := ref.index > 0 && ref.index <= p.ncap
	if ref.name != "" {
		defined = false
		for _, n := range p.names {
			if n == ref.name {
				defined = true
				break
			}
		}
	}
	if !defined {
		return p.error(ErrUndefinedGroup, ref.pos, ref.end)
	}
	return p.error(ErrBackreference, ref.pos, ref.end)
}

func (p *parser) parseEscapeAtom() (*Node, error) {
	start := p.pos
	if p.pos+1 >= len(p.src) {
		return nil, p.error(ErrInvalidEscape, start, len(p.src))
	}
	switch c := p.src[p.pos+1]; c {
	case 'A':
		p.pos += 2
		return p.anchor(AnchorStartText, start), nil
	case 'z':
		p.pos += 2
		return p.anchor(AnchorEndText, start), nil
	case 'b':
		p.pos += 2
		return p.anchor(AnchorWordBoundary, start), nil
	case 'B':
		p.pos += 2
		return p.anchor(AnchorNotWordBoundary, start), nil
	case 'd', 's', 'w', 'D', 'S', 'W':
		p.pos += 2
		set, _ := perlClass(c | 0x20)
		return &Node{Op: OpClass, Pos: start, Class: set, Negated: c < 'a'}, nil
	case 'p', 'P':
		set, negated, err := p.parseUnicodeClass()
		if err != nil {
			return nil, err
		}
		return &Node{Op: OpClass, Pos: start, Class: set, Negated: negated}, nil
	case 'k':
		if p.pos+2 < len(p.src) && (p.src[p.pos+2] == '<' || p.src[p.pos+2] == '{') {
			closer := byte('>')
			if p.src[p.pos+2] == '{' {
				closer = '}'
			}
			return p.parseNamedRef(start, p.pos+3, closer)
		}
		return nil, p.error(ErrInvalidEscape, start, p.pos+2)
	case '1', '2', '3', '4', '5', '6', '7', '8', '9':
		n, next, _ := parseInt(p.src, p.pos+1)
		p.pos = next
		p.refs = append(p.refs, groupRef{pos: start, end: next, index: n})
		return &Node{Op: OpEmpty, Pos: start}, nil
	}
	r, err := p.parseEscapeRune()
	if err != nil {
		return nil, err
	}
	return p.literal(r, start), nil
}

// parseEscapeRune parses an escape that stands for a single code point.
func (p *parser) parseEscapeRune() (rune, error) {
	start := p.pos
	p.pos++
	if !p.more() {
		return 0, p.error(ErrInvalidEscape, start, p.pos)
	}
	c, w := utf8.DecodeRuneInString(p.src[p.pos:])
	p.pos += w
	switch c {
	case 'a':
		return '\a', nil
	case 'f':
		return '\f', nil
	case 't':
		return '\t', nil
	case 'n':
		return '\n', nil
	case 'r':
		return '\r', nil
	case 'v':
		return '\v', nil
	case '0':
		r := rune(0)
		for i := 0; i < 2 && p.more() && '0' <= p.peek() && p.peek() <= '7'; i++ {
			r = r*8 + rune(p.peek()-'0')
			p.pos++
		}
		return r, nil
	case 'x':
		return p.parseHex(start)
	}
	if c < utf8.RuneSelf && !isWordByte(byte(c)) {
		return c, nil
	}
	return 0, p.error(ErrInvalidEscape, start, p.pos)
}

// parseHex parses the digits of \xHH or \x{H...}; p.pos is just after the x.
func (p *parser) parseHex(start int) (rune, error) {
	if !p.more() {
		return 0, p.error(ErrInvalidEscape, start, p.pos)
	}
	if p.peek() == '{' {
		end := strings.IndexByte(p.src[p.pos:], '}')
		if end < 2 || end > 9 {
			return 0, p.error(ErrInvalidEscape, start, p.pos+max(end, 0)+1)
		}
		digits := p.src[p.pos+1 : p.pos+end]
		p.pos += end + 1
		v, err := strconv.ParseUint(digits, 16, 32)
		if err != nil || v > unicode.MaxRune {
			return 0, p.error(ErrInvalidEscape, start, p.pos)
		}
		return rune(v), nil
	}
	if p.pos+2 > len(p.src) {
		return 0, p.error(ErrInvalidEscape, start, len(p.src))
	}
	v, err := strconv.ParseUint(p.src[p.pos:p.pos+2], 16, 8)
	p.pos += 2
	if err != nil {
		return 0, p.error(ErrInvalidEscape, start, p.pos)
	}
	return rune(v), nil
}

// parseUnicodeClass parses \pN, \p{Name}, \PN, \P{Name} and \p{^Name}.
func (p *parser) parseUnicodeClass() (RangeSet, bool, error) {
	start := p.pos
	negated := p.src[p.pos+1] == 'P'
	p.pos += 2
	if !p.more() {
		return nil, false, p.error(ErrInvalidEscape, start, p.pos)
	}
	var name string
	if p.peek() == '{' {
		end := strings.IndexByte(p.src[p.pos:], '}')
		if end < 0 {
			return nil, false, p.error(ErrInvalidEscape, start, len(p.src))
		}
		name = p.src[p.pos+1 : p.pos+end]
		p.pos += end + 1
	} else {
		r, w := utf8.DecodeRuneInString(p.src[p.pos:])
		name = string(r)
		p.pos += w
	}
	if strings.HasPrefix(name, "^") {
		negated = !negated
		name = name[1:]
	}
	if name == "Any" {
		return anySet, negated, nil
	}
	t, ok := p.table.Lookup(name)
	if !ok {
		return nil, false, p.error(ErrUnknownClass, start, p.pos)
	}
	set := TableRanges(t)
	if p.flags&FoldCase != 0 {
		set = set.FoldCase()
	}
	return set, negated, nil
}

func (p *parser) parseClass() (*Node, error) {
	start := p.pos
	p.pos++
	negated := false
	if p.more() && p.peek() == '^' {
		negated = true
		p.pos++
	}
	var set RangeSet
	first := true
	for {
		if !p.more() {
			return nil, p.error(ErrMissingBracket, start, len(p.src))
		}
		c := p.peek()
		if c == ']' && !first {
			p.pos++
			break
		}
		first = false

		if c == '[' && strings.HasPrefix(p.src[p.pos:], "[:") {
			posix, ok, err := p.parsePosixClass()
			if err != nil {
				return nil, err
			}
			if ok {
				set = set.Union(posix)
				continue
			}
		}
		if c == '\\' && p.pos+1 < len(p.src) {
			switch e := p.src[p.pos+1]; e {
			case 'd', 's', 'w', 'D', 'S', 'W':
				perl, _ := perlClass(e | 0x20)
				if e < 'a' {
					perl = perl.Negate()
				}
				set = set.Union(perl)
				p.pos += 2
				continue
			case 'p', 'P':
				uc, neg, err := p.parseUnicodeClass()
				if err != nil {
					return nil, err
				}
				if neg {
					uc = uc.Negate()
				}
				set = set.Union(uc)
				continue
			}
		}

		itemStart := p.pos
		lo, err := p.parseClassRune()
		if err != nil {
			return nil, err
		}
		hi := lo
		if p.pos+1 < len(p.src) && p.peek() == '-' && p.src[p.pos+1] != ']' {
			p.pos++
			if hi, err = p.parseClassRune(); err != nil {
				return nil, err
			}
			if hi < lo {
				return nil, p.error(ErrInvalidCharRange, itemStart, p.pos)
			}
		}
		set = set.appendRange(lo, hi)
	}
	set = set.Canonical()
	if p.flags&FoldCase != 0 {
		set = set.FoldCase()
	}
	return &Node{Op: OpClass, Pos: start, Class: set, Negated: negated}, nil
}

func (p *parser) parseClassRune() (rune, error) {
	if p.peek() == '\\' {
		return p.parseEscapeRune()
	}
	r, w := utf8.DecodeRuneInString(p.src[p.pos:])
	p.pos += w
	return r, nil
}

// parsePosixClass parses [:name:] or [:^name:]. ok is false when the
// bracket does not open a POSIX class and is an ordinary '['.
func (p *parser) parsePosixClass() (RangeSet, bool, error) {
	rest := p.src[p.pos+2:]
	end := strings.Index(rest, ":]")
	if end < 0 {
		return nil, false, nil
	}
	name := rest[:end]
	negated := strings.HasPrefix(name, "^")
	if negated {
		name = name[1:]
	}
	for i := 0; i < len(name); i++ {
		if name[i] < 'a' || name[i] > 'z' {
			return nil, false, nil
		}
	}
	set, ok := posixClasses[name]
	if !ok {
		return nil, false, p.error(ErrInvalidCharRange, p.pos, p.pos+2+end+2)
	}
	p.pos += 2 + end + 2
	if negated {
		return set.Negate(), true, nil
	}
	return set, true, nil
}

func isWordByte(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9' || c == '_'
}
