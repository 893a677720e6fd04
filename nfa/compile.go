package nfa

import (
	"unicode"

	"github.com/coregx/linex/syntax"
)

const (
	// DefaultMaxStates bounds the size of a compiled NFA.
	// Bounded repetition unrolls its operand, so a pattern like
	// ((a{1,100}){1,100}){1,100} would otherwise grow without limit.
	DefaultMaxStates = 1 << 20

	// DefaultMaxRecursionDepth bounds compiler recursion over the syntax tree.
	DefaultMaxRecursionDepth = 5000
)

// anyRune is consumed by the unanchored prefix loop.
var anyRune = syntax.RangeSet{{Lo: 0, Hi: unicode.MaxRune}}

// CompilerConfig configures NFA compilation behavior
type CompilerConfig struct {
	// Flags are the initial parse flags (i, m, s, U).
	Flags syntax.Flags

	// Table resolves \p{...} class names. Nil means syntax.UnicodeTable.
	Table syntax.ClassTable

	// MaxRepeat caps counts in x{n,m}. Zero means syntax.DefaultMaxRepeat.
	MaxRepeat int

	// MaxStates caps the number of NFA states.
	// Default: DefaultMaxStates
	MaxStates int

	// MaxRecursionDepth limits recursion during compilation to prevent stack overflow
	// Default: DefaultMaxRecursionDepth
	MaxRecursionDepth int
}

// DefaultCompilerConfig returns a compiler configuration with sensible defaults
func DefaultCompilerConfig() CompilerConfig {
	return CompilerConfig{
		MaxRepeat:         syntax.DefaultMaxRepeat,
		MaxStates:         DefaultMaxStates,
		MaxRecursionDepth: DefaultMaxRecursionDepth,
	}
}

// Compiler compiles syntax trees into Thompson NFAs
type Compiler struct {
	config  CompilerConfig
	builder *Builder
	pattern string
	depth   int // current recursion depth
}

// NewCompiler creates a new NFA compiler with the given configuration
func NewCompiler(config CompilerConfig) *Compiler {
	if config.MaxStates <= 0 {
		config.MaxStates = DefaultMaxStates
	}
	if config.MaxRecursionDepth <= 0 {
		config.MaxRecursionDepth = DefaultMaxRecursionDepth
	}
	return &Compiler{
		config:  config,
		builder: NewBuilder(),
	}
}

// NewDefaultCompiler creates a new NFA compiler with default configuration
func NewDefaultCompiler() *Compiler {
	return NewCompiler(DefaultCompilerConfig())
}

// Compile parses pattern and compiles it into an NFA.
// Parse errors and size limit violations are returned as *syntax.Error.
func (c *Compiler) Compile(pattern string) (*NFA, error) {
	re, err := syntax.ParseWithOptions(pattern, syntax.Options{
		Flags:     c.config.Flags,
		Table:     c.config.Table,
		MaxRepeat: c.config.MaxRepeat,
	})
	if err != nil {
		return nil, err
	}
	return c.CompileRegexp(re)
}

// CompileRegexp compiles a parsed syntax tree into an NFA.
//
// The whole pattern is wrapped in capture group 0. Unless the pattern is
// anchored at \A on every path, the unanchored start is a lazy (?s:.)*? loop
// that prefers entering the pattern over skipping another code point.
func (c *Compiler) CompileRegexp(re *syntax.Regexp) (*NFA, error) {
	c.builder = NewBuilderWithCapacity(64)
	c.pattern = re.Pattern
	c.depth = 0

	start, end, err := c.compile(re.Root)
	if err != nil {
		return nil, err
	}

	open := c.builder.AddCapture(0, start)
	closing := c.builder.AddCapture(1, InvalidState)
	if err := c.builder.Patch(end, closing); err != nil {
		return nil, &CompileError{Pattern: c.pattern, Err: err}
	}
	match := c.builder.AddMatch()
	if err := c.builder.Patch(closing, match); err != nil {
		return nil, &CompileError{Pattern: c.pattern, Err: err}
	}

	anchored := isAnchoredStart(re.Root)
	unanchored := open
	if !anchored {
		split := c.builder.AddSplit(open, InvalidState)
		skip := c.builder.AddChar(anyRune, split)
		if err := c.builder.PatchSplit(split, open, skip); err != nil {
			return nil, &CompileError{Pattern: c.pattern, Err: err}
		}
		c.builder.SetPrefixChar(skip)
		unanchored = split
	}
	c.builder.SetStarts(open, unanchored)

	if err := c.checkSize(0); err != nil {
		return nil, err
	}

	nfa, err := c.builder.Build(
		WithAnchored(anchored),
		WithCaptureCount(re.NumCap+1),
		WithCaptureNames(re.Names),
	)
	if err != nil {
		return nil, &CompileError{Pattern: c.pattern, Err: err}
	}
	return nfa, nil
}

func (c *Compiler) checkSize(pos int) error {
	if c.builder.States() > c.config.MaxStates {
		return &syntax.Error{Code: syntax.ErrPatternTooLarge, Pos: pos, Expr: c.pattern}
	}
	return nil
}

// compile recursively compiles a syntax node.
// Returns (start, end) state IDs for the compiled fragment.
// The 'end' state always has a single patchable 'next' target.
func (c *Compiler) compile(n *syntax.Node) (start, end StateID, err error) {
	c.depth++
	if c.depth > c.config.MaxRecursionDepth {
		return InvalidState, InvalidState, &CompileError{Pattern: c.pattern, Err: ErrTooComplex}
	}
	defer func() { c.depth-- }()

	if err := c.checkSize(n.Pos); err != nil {
		return InvalidState, InvalidState, err
	}

	switch n.Op {
	case syntax.OpEmpty:
		id := c.builder.AddEpsilon(InvalidState)
		return id, id, nil
	case syntax.OpLiteral, syntax.OpClass:
		id := c.builder.AddChar(n.Set(), InvalidState)
		return id, id, nil
	case syntax.OpConcat:
		return c.compileConcat(n.Subs)
	case syntax.OpAlternate:
		return c.compileAlternate(n.Subs)
	case syntax.OpRepeat:
		return c.compileRepeat(n)
	case syntax.OpGroup:
		return c.compileGroup(n)
	case syntax.OpAnchor:
		id := c.builder.AddLook(lookFromAnchor(n.Anchor), InvalidState)
		return id, id, nil
	default:
		return InvalidState, InvalidState, &CompileError{Pattern: c.pattern, Err: ErrInvalidState}
	}
}

func (c *Compiler) compileConcat(subs []*syntax.Node) (start, end StateID, err error) {
	if len(subs) == 0 {
		id := c.builder.AddEpsilon(InvalidState)
		return id, id, nil
	}
	start, end, err = c.compile(subs[0])
	if err != nil {
		return InvalidState, InvalidState, err
	}
	for _, sub := range subs[1:] {
		s, e, err := c.compile(sub)
		if err != nil {
			return InvalidState, InvalidState, err
		}
		if err := c.builder.Patch(end, s); err != nil {
			return InvalidState, InvalidState, &CompileError{Pattern: c.pattern, Err: err}
		}
		end = e
	}
	return start, end, nil
}

// compileAlternate builds a right-leaning chain of splits so that earlier
// alternatives have priority: Split(a, Split(b, c)).
func (c *Compiler) compileAlternate(subs []*syntax.Node) (start, end StateID, err error) {
	starts := make([]StateID, 0, len(subs))
	ends := make([]StateID, 0, len(subs))
	for _, sub := range subs {
		s, e, err := c.compile(sub)
		if err != nil {
			return InvalidState, InvalidState, err
		}
		starts = append(starts, s)
		ends = append(ends, e)
	}

	join := c.builder.AddEpsilon(InvalidState)
	for _, e := range ends {
		if err := c.builder.Patch(e, join); err != nil {
			return InvalidState, InvalidState, &CompileError{Pattern: c.pattern, Err: err}
		}
	}

	start = starts[len(starts)-1]
	for i := len(starts) - 2; i >= 0; i-- {
		start = c.builder.AddSplit(starts[i], start)
	}
	return start, join, nil
}

func (c *Compiler) compileGroup(n *syntax.Node) (start, end StateID, err error) {
	s, e, err := c.compile(n.Sub())
	if err != nil {
		return InvalidState, InvalidState, err
	}
	if n.Cap < 0 {
		return s, e, nil
	}
	open := c.builder.AddCapture(uint32(2*n.Cap), s)
	closing := c.builder.AddCapture(uint32(2*n.Cap+1), InvalidState)
	if err := c.builder.Patch(e, closing); err != nil {
		return InvalidState, InvalidState, &CompileError{Pattern: c.pattern, Err: err}
	}
	return open, closing, nil
}

// split adds a split whose preferred branch is body when greedy and exit otherwise.
func (c *Compiler) split(body, exit StateID, greedy bool) StateID {
	if greedy {
		return c.builder.AddSplit(body, exit)
	}
	return c.builder.AddSplit(exit, body)
}

// compileRepeat expands x{m,n} into m mandatory copies followed by either a
// star (unbounded) or n-m nested optional copies.
// There is no counter state: a per-thread counter would defeat the
// per-state dedup that keeps the PikeVM linear.
func (c *Compiler) compileRepeat(n *syntax.Node) (start, end StateID, err error) {
	sub, lo, hi, greedy := n.Sub(), n.Min, n.Max, n.Greedy
	switch {
	case lo == 0 && hi == -1:
		return c.compileStar(sub, greedy)
	case lo >= 1 && hi == -1:
		return c.compileMin(sub, lo, greedy)
	case hi == 0:
		id := c.builder.AddEpsilon(InvalidState)
		return id, id, nil
	case lo == 0 && hi == 1:
		return c.compileQuest(sub, greedy)
	}

	start, end = InvalidState, InvalidState
	appendFrag := func(s, e StateID) error {
		if start == InvalidState {
			start = s
		} else if err := c.builder.Patch(end, s); err != nil {
			return &CompileError{Pattern: c.pattern, Err: err}
		}
		end = e
		return nil
	}

	for i := 0; i < lo; i++ {
		s, e, err := c.compile(sub)
		if err != nil {
			return InvalidState, InvalidState, err
		}
		if err := appendFrag(s, e); err != nil {
			return InvalidState, InvalidState, err
		}
	}
	if hi > lo {
		s, e, err := c.compileOptionals(sub, hi-lo, greedy)
		if err != nil {
			return InvalidState, InvalidState, err
		}
		if err := appendFrag(s, e); err != nil {
			return InvalidState, InvalidState, err
		}
	}
	return start, end, nil
}

// compileOptionals builds k nested optional copies, (x(x(x)?)?)?, innermost
// first. Every skip edge goes to the same exit, so copy i+1 is reachable only
// through copy i.
func (c *Compiler) compileOptionals(sub *syntax.Node, k int, greedy bool) (start, end StateID, err error) {
	exit := c.builder.AddEpsilon(InvalidState)
	next := exit
	for i := 0; i < k; i++ {
		s, e, err := c.compile(sub)
		if err != nil {
			return InvalidState, InvalidState, err
		}
		if err := c.builder.Patch(e, next); err != nil {
			return InvalidState, InvalidState, &CompileError{Pattern: c.pattern, Err: err}
		}
		next = c.split(s, exit, greedy)
	}
	return next, exit, nil
}

// compileStar compiles x* as a loop: L: split(x -> L, exit). When x can
// match empty it compiles (?:x+)? instead, so an empty iteration still
// records its captures before the loop exits.
func (c *Compiler) compileStar(sub *syntax.Node, greedy bool) (start, end StateID, err error) {
	if nullable(sub) {
		s, e, err := c.compilePlus(sub, greedy)
		if err != nil {
			return InvalidState, InvalidState, err
		}
		return c.quest(s, e, greedy)
	}

	loop := c.builder.AddSplit(InvalidState, InvalidState)
	s, e, err := c.compile(sub)
	if err != nil {
		return InvalidState, InvalidState, err
	}
	if err := c.builder.Patch(e, loop); err != nil {
		return InvalidState, InvalidState, &CompileError{Pattern: c.pattern, Err: err}
	}
	exit := c.builder.AddEpsilon(InvalidState)
	left, right := s, exit
	if !greedy {
		left, right = exit, s
	}
	if err := c.builder.PatchSplit(loop, left, right); err != nil {
		return InvalidState, InvalidState, &CompileError{Pattern: c.pattern, Err: err}
	}
	return loop, exit, nil
}

// compileMin compiles x{m,} as m-1 copies of x followed by x+.
func (c *Compiler) compileMin(sub *syntax.Node, lo int, greedy bool) (start, end StateID, err error) {
	start, end = InvalidState, InvalidState
	for i := 0; i < lo-1; i++ {
		s, e, err := c.compile(sub)
		if err != nil {
			return InvalidState, InvalidState, err
		}
		if start == InvalidState {
			start = s
		} else if err := c.builder.Patch(end, s); err != nil {
			return InvalidState, InvalidState, &CompileError{Pattern: c.pattern, Err: err}
		}
		end = e
	}

	s, e, err := c.compilePlus(sub, greedy)
	if err != nil {
		return InvalidState, InvalidState, err
	}
	if start == InvalidState {
		return s, e, nil
	}
	if err := c.builder.Patch(end, s); err != nil {
		return InvalidState, InvalidState, &CompileError{Pattern: c.pattern, Err: err}
	}
	return start, e, nil
}

// compilePlus compiles x+ as x followed by a split back to x.
func (c *Compiler) compilePlus(sub *syntax.Node, greedy bool) (start, end StateID, err error) {
	s, e, err := c.compile(sub)
	if err != nil {
		return InvalidState, InvalidState, err
	}
	exit := c.builder.AddEpsilon(InvalidState)
	loop := c.split(s, exit, greedy)
	if err := c.builder.Patch(e, loop); err != nil {
		return InvalidState, InvalidState, &CompileError{Pattern: c.pattern, Err: err}
	}
	return s, exit, nil
}

// compileQuest compiles x? as split(x, skip)
func (c *Compiler) compileQuest(sub *syntax.Node, greedy bool) (start, end StateID, err error) {
	s, e, err := c.compile(sub)
	if err != nil {
		return InvalidState, InvalidState, err
	}
	return c.quest(s, e, greedy)
}

// quest makes the fragment (s, e) optional.
func (c *Compiler) quest(s, e StateID, greedy bool) (start, end StateID, err error) {
	exit := c.builder.AddEpsilon(InvalidState)
	if err := c.builder.Patch(e, exit); err != nil {
		return InvalidState, InvalidState, &CompileError{Pattern: c.pattern, Err: err}
	}
	return c.split(s, exit, greedy), exit, nil
}

// isAnchoredStart reports whether every match of n must begin at offset 0.
func isAnchoredStart(n *syntax.Node) bool {
	switch n.Op {
	case syntax.OpAnchor:
		return n.Anchor == syntax.AnchorStartText
	case syntax.OpConcat:
		for _, sub := range n.Subs {
			if isAnchoredStart(sub) {
				return true
			}
			if !isEmptyWidth(sub) {
				return false
			}
		}
		return false
	case syntax.OpAlternate:
		for _, sub := range n.Subs {
			if !isAnchoredStart(sub) {
				return false
			}
		}
		return len(n.Subs) > 0
	case syntax.OpGroup:
		return isAnchoredStart(n.Sub())
	case syntax.OpRepeat:
		return n.Min >= 1 && isAnchoredStart(n.Sub())
	}
	return false
}

// isEmptyWidth reports whether n never consumes input, so an anchor after it
// still constrains the match start.
func isEmptyWidth(n *syntax.Node) bool {
	switch n.Op {
	case syntax.OpEmpty, syntax.OpAnchor:
		return true
	case syntax.OpGroup:
		return isEmptyWidth(n.Sub())
	case syntax.OpConcat:
		for _, sub := range n.Subs {
			if !isEmptyWidth(sub) {
				return false
			}
		}
		return true
	}
	return false
}

// nullable reports whether n can match the empty string.
func nullable(n *syntax.Node) bool {
	switch n.Op {
	case syntax.OpEmpty, syntax.OpAnchor:
		return true
	case syntax.OpGroup:
		return nullable(n.Sub())
	case syntax.OpRepeat:
		return n.Min == 0 || nullable(n.Sub())
	case syntax.OpConcat:
		for _, sub := range n.Subs {
			if !nullable(sub) {
				return false
			}
		}
		return true
	case syntax.OpAlternate:
		for _, sub := range n.Subs {
			if nullable(sub) {
				return true
			}
		}
		return false
	}
	return false
}
