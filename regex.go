// Package linex is a regular expression engine whose search time is linear
// in the input length for every pattern.
//
// Patterns compile to a Thompson NFA that a PikeVM simulates one input
// position at a time, so nested or ambiguous repetitions such as (a*)*b
// cannot backtrack catastrophically. Matching is leftmost-first (Perl
// semantics) and reports byte offsets.
//
// Supported syntax follows Perl and Go's regexp: classes with Unicode
// categories and scripts (\pL, \p{Greek}), POSIX classes, counted
// repetition, named groups, the i m s U flags, and the anchors ^ $ \A \z \b
// \B. Unicode-aware \d \s \w and \b are the default. Lookaround and
// backreferences are rejected.
//
// Basic usage:
//
//	re := linex.MustCompile(`(?P<user>\w+)@(?P<host>\w+)`)
//	if m := re.Find("mail bob@example now"); m != nil {
//	    host, _ := m.Name("host")
//	    fmt.Println(m.Slice(host)) // example
//	}
//
// A compiled Regex is safe for concurrent use.
package linex

import (
	"iter"
	"strings"

	"github.com/coregx/linex/meta"
)

// Regex is a compiled regular expression.
//
// A Regex is safe to use concurrently from multiple goroutines. Longest
// changes matching semantics for every holder of the Regex, so it should be
// called before the Regex is shared.
type Regex struct {
	engine  *meta.Engine
	pattern string
}

// Program is the compiled form of a pattern.
type Program = Regex

// Regexp is an alias for Regex, so code written against Go's regexp can
// switch packages without renaming types.
type Regexp = Regex

// Compile parses a pattern and compiles it. A pattern error is returned as
// *syntax.Error carrying the byte offset of the problem.
//
// Example:
//
//	re, err := linex.Compile(`\d{3}-\d{4}`)
//	if err != nil {
//	    log.Fatal(err)
//	}
func Compile(pattern string) (*Regex, error) {
	return CompileWithConfig(pattern, meta.DefaultConfig())
}

// CompilePattern is Compile.
func CompilePattern(pattern string) (*Program, error) {
	return Compile(pattern)
}

// MustCompile is like Compile but panics if the pattern is invalid.
func MustCompile(pattern string) *Regex {
	re, err := Compile(pattern)
	if err != nil {
		panic("linex: Compile(`" + pattern + "`): " + err.Error())
	}
	return re
}

// CompileWithConfig compiles a pattern with custom limits, flags, class
// table and logger. An invalid config is reported as *meta.ConfigError.
//
// Example:
//
//	config := linex.DefaultConfig()
//	config.Flags = syntax.FoldCase
//	re, err := linex.CompileWithConfig(`hello`, config)
func CompileWithConfig(pattern string, config meta.Config) (*Regex, error) {
	engine, err := meta.Compile(pattern, config)
	if err != nil {
		return nil, err
	}
	return &Regex{engine: engine, pattern: pattern}, nil
}

// DefaultConfig returns the default compilation configuration.
func DefaultConfig() meta.Config {
	return meta.DefaultConfig()
}

// QuoteMeta returns a pattern that matches the literal text s.
//
// Example:
//
//	linex.QuoteMeta("1.5+2") // `1\.5\+2`
func QuoteMeta(s string) string {
	const special = `\.+*?()|[]{}^$`
	if !strings.ContainsAny(s, special) {
		return s
	}
	var b strings.Builder
	b.Grow(2 * len(s))
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(special, s[i]) >= 0 {
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// String returns the source text of the pattern.
func (r *Regex) String() string {
	return r.pattern
}

// Longest makes future searches prefer the leftmost-longest match instead
// of the leftmost-first one. Programs returned by a Cache are shared, so
// call Longest only on a Regex you compiled yourself.
func (r *Regex) Longest() {
	r.engine.SetLongest(true)
}

// NumSubexp returns the number of capturing groups, not counting the
// overall match.
func (r *Regex) NumSubexp() int {
	return r.engine.NumCaptures() - 1
}

// SubexpNames returns the names of the groups by index. Index 0 is the
// overall match; it and unnamed groups are "".
func (r *Regex) SubexpNames() []string {
	return r.engine.SubexpNames()
}

// SubexpIndex returns the index of the group called name, or -1.
func (r *Regex) SubexpIndex(name string) int {
	return r.engine.SubexpIndex(name)
}

// Stats returns the search counters of the compiled program.
func (r *Regex) Stats() meta.Stats {
	return r.engine.Stats()
}

// Find returns the leftmost match in s with its capture groups, or nil.
//
// Example:
//
//	re := linex.MustCompile(`(\w+)@(\w+)`)
//	m := re.Find("to: bob@example")
//	user, _ := m.GroupText(1) // "bob"
func (r *Regex) Find(s string) *meta.Match {
	return r.engine.Find(s)
}

// FindAt returns the leftmost match starting at or after byte offset at.
// Unlike searching s[at:], anchors and word boundaries see the text before
// at.
func (r *Regex) FindAt(s string, at int) *meta.Match {
	return r.engine.FindAt(s, at)
}

// FindAll returns an iterator over the successive non-overlapping matches
// of s.
//
// Example:
//
//	for m := range linex.MustCompile(`\d+`).FindAll("a1 b22 c333") {
//	    fmt.Println(m.Text()) // 1, 22, 333
//	}
func (r *Regex) FindAll(s string) iter.Seq[*meta.Match] {
	return r.engine.FindAll(s)
}

// MatchString reports whether s contains any match.
func (r *Regex) MatchString(s string) bool {
	return r.engine.IsMatch(s)
}

// Match reports whether b contains any match.
func (r *Regex) Match(b []byte) bool {
	return r.engine.IsMatch(string(b))
}

// FindString returns the text of the leftmost match, or "" if there is
// none. Use FindStringIndex to tell an empty match from no match.
func (r *Regex) FindString(s string) string {
	start, end, ok := r.engine.FindIndicesAt(s, 0)
	if !ok {
		return ""
	}
	return s[start:end]
}

// FindStringIndex returns the bounds of the leftmost match as a two-element
// slice, or nil.
func (r *Regex) FindStringIndex(s string) []int {
	start, end, ok := r.engine.FindIndicesAt(s, 0)
	if !ok {
		return nil
	}
	return []int{start, end}
}

// FindIndex is FindStringIndex for a byte slice.
func (r *Regex) FindIndex(b []byte) []int {
	return r.FindStringIndex(string(b))
}

// FindStringSubmatch returns the text of the leftmost match and of each
// group, or nil. Groups that did not participate are "".
func (r *Regex) FindStringSubmatch(s string) []string {
	m := r.engine.Find(s)
	if m == nil {
		return nil
	}
	return submatchText(m)
}

// FindStringSubmatchIndex returns index pairs for the leftmost match and
// each group, or nil. Groups that did not participate are -1, -1.
func (r *Regex) FindStringSubmatchIndex(s string) []int {
	m := r.engine.Find(s)
	if m == nil {
		return nil
	}
	return m.Slots()
}

// FindAllString returns the text of up to n successive matches; n < 0
// means all of them. The result is nil when nothing matches.
func (r *Regex) FindAllString(s string, n int) []string {
	indices := r.engine.FindAllIndices(s, n)
	if indices == nil {
		return nil
	}
	out := make([]string, len(indices))
	for i, loc := range indices {
		out[i] = s[loc[0]:loc[1]]
	}
	return out
}

// FindAllStringIndex returns the bounds of up to n successive matches.
func (r *Regex) FindAllStringIndex(s string, n int) [][]int {
	indices := r.engine.FindAllIndices(s, n)
	if indices == nil {
		return nil
	}
	out := make([][]int, len(indices))
	for i, loc := range indices {
		out[i] = []int{loc[0], loc[1]}
	}
	return out
}

// FindAllStringSubmatch returns the match and group texts of up to n
// successive matches.
func (r *Regex) FindAllStringSubmatch(s string, n int) [][]string {
	var out [][]string
	r.eachMatch(s, n, func(m *meta.Match) {
		out = append(out, submatchText(m))
	})
	return out
}

// FindAllStringSubmatchIndex returns the slot pairs of up to n successive
// matches.
func (r *Regex) FindAllStringSubmatchIndex(s string, n int) [][]int {
	var out [][]int
	r.eachMatch(s, n, func(m *meta.Match) {
		out = append(out, m.Slots())
	})
	return out
}

// CountString returns the number of successive matches in s.
func (r *Regex) CountString(s string) int {
	return r.engine.Count(s)
}

func (r *Regex) eachMatch(s string, n int, fn func(*meta.Match)) {
	if n == 0 {
		return
	}
	count := 0
	for m := range r.engine.FindAll(s) {
		fn(m)
		count++
		if n > 0 && count >= n {
			return
		}
	}
}

func submatchText(m *meta.Match) []string {
	out := make([]string, m.NumGroups())
	for i := range out {
		out[i], _ = m.GroupText(i)
	}
	return out
}
