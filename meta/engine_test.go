package meta

import (
	"errors"
	"regexp"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/coregx/linex/syntax"
)

func TestCompile_Errors(t *testing.T) {
	_, err := Compile("a(b", DefaultConfig())
	var serr *syntax.Error
	require.True(t, errors.As(err, &serr), "got %T: %v", err, err)
	assert.Equal(t, syntax.ErrMissingParen, serr.Code)

	config := DefaultConfig()
	config.MaxStates = 64
	_, err = Compile("(?:abcd){100}", config)
	require.True(t, errors.As(err, &serr), "got %T: %v", err, err)
	assert.Equal(t, syntax.ErrPatternTooLarge, serr.Code)

	config = DefaultConfig()
	config.MaxDepth = 1
	_, err = Compile("a", config)
	var cerr *ConfigError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "MaxDepth", cerr.Field)
}

func TestEngine_Find(t *testing.T) {
	tests := []struct {
		pattern  string
		haystack string
		want     []int // nil = no match
	}{
		{`abc`, "xxabcxx", []int{2, 5}},
		{`a+`, "baaab", []int{1, 4}},
		{`cat|cats`, "cats", []int{0, 3}},
		{`^abc$`, "abc", []int{0, 3}},
		{`^abc$`, "abcd", nil},
		{`[^0-9]+`, "12ab34", []int{2, 4}},
		{`(foo|bar)\d+`, "test bar42 foo1", []int{5, 10}},
		{`x*`, "abc", []int{0, 0}},
		{`\bword\b`, "a sword word", []int{8, 12}},
		{`hello`, "", nil},
		{``, "", []int{0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.haystack, func(t *testing.T) {
			e, err := Compile(tt.pattern, DefaultConfig())
			require.NoError(t, err)
			m := e.Find(tt.haystack)
			if tt.want == nil {
				assert.Nil(t, m)
				assert.False(t, e.IsMatch(tt.haystack))
				return
			}
			require.NotNil(t, m)
			assert.Equal(t, Span{tt.want[0], tt.want[1]}, m.Span())
			assert.True(t, e.IsMatch(tt.haystack))

			start, end, ok := e.FindIndicesAt(tt.haystack, 0)
			assert.True(t, ok)
			assert.Equal(t, tt.want, []int{start, end})
		})
	}
}

func TestEngine_Captures(t *testing.T) {
	e := MustCompile(`(?P<key>\w+)=(\w+)?(;)?`)
	m := e.Find("  name= ")
	require.NotNil(t, m)
	assert.Equal(t, 4, m.NumGroups())
	assert.Equal(t, "name=", m.Text())

	key, ok := m.Name("key")
	assert.True(t, ok)
	assert.Equal(t, Span{2, 6}, key)

	_, ok = m.Group(2)
	assert.False(t, ok, "optional group did not participate")
	_, ok = m.Group(3)
	assert.False(t, ok)

	assert.Equal(t, []string{"", "key", "", ""}, e.SubexpNames())
	assert.Equal(t, 1, e.SubexpIndex("key"))
	assert.Equal(t, -1, e.SubexpIndex("missing"))
	assert.Equal(t, -1, e.SubexpIndex(""))
}

func TestEngine_FindAt(t *testing.T) {
	e := MustCompile(`\bab`)
	m := e.FindAt("ab ab xab", 1)
	require.NotNil(t, m)
	assert.Equal(t, 3, m.Start(), "FindAt must see the text before at")

	assert.Nil(t, e.FindAt("ab", 3))
	assert.Nil(t, e.FindAt("ab", -1))

	anchored := MustCompile(`^a`)
	assert.Nil(t, anchored.FindAt("aa", 1), "^ only matches at offset 0")
}

func TestEngine_FindAll(t *testing.T) {
	tests := []struct {
		pattern  string
		haystack string
		want     [][2]int
	}{
		{`a*`, "bbb", [][2]int{{0, 0}, {1, 1}, {2, 2}, {3, 3}}},
		{`a*`, "baaab", [][2]int{{0, 0}, {1, 4}, {5, 5}}},
		{`\d+`, "a1 b22 c333", [][2]int{{1, 2}, {4, 6}, {8, 11}}},
		{`x*`, "日本", [][2]int{{0, 0}, {3, 3}, {6, 6}}},
		{`cat|dog`, "cat dog bird", [][2]int{{0, 3}, {4, 7}}},
		{`q`, "abc", nil},
		{``, "ab", [][2]int{{0, 0}, {1, 1}, {2, 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.haystack, func(t *testing.T) {
			e := MustCompile(tt.pattern)

			var got [][2]int
			for m := range e.FindAll(tt.haystack) {
				got = append(got, [2]int{m.Start(), m.End()})
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, e.FindAllIndices(tt.haystack, -1))
			assert.Equal(t, len(tt.want), e.Count(tt.haystack))

			// The iterator is restartable.
			again := slices.Collect(e.FindAll(tt.haystack))
			assert.Len(t, again, len(tt.want))
		})
	}
}

func TestEngine_FindAllAgreesWithRegexp(t *testing.T) {
	patterns := []string{`a*`, `a+?`, `\w+`, `(a|ab)(c|bcd)`, `x*|b`, `[a-c]*`, `\b`, `$`, `(?m)^`}
	haystacks := []string{"", "abc", "aaa bbb", "abcd xabcd", "ba\nab"}
	for _, pattern := range patterns {
		e := MustCompile(pattern)
		std := regexp.MustCompile(pattern)
		for _, h := range haystacks {
			var want [][2]int
			for _, loc := range std.FindAllStringIndex(h, -1) {
				want = append(want, [2]int{loc[0], loc[1]})
			}
			assert.Equal(t, want, e.FindAllIndices(h, -1), "pattern %q on %q", pattern, h)
		}
	}
}

func TestEngine_FindAllLimitAndBreak(t *testing.T) {
	e := MustCompile(`\d`)
	assert.Equal(t, [][2]int{{0, 1}, {1, 2}}, e.FindAllIndices("12345", 2))
	assert.Nil(t, e.FindAllIndices("12345", 0))

	count := 0
	for range e.FindAll("12345") {
		count++
		if count == 3 {
			break
		}
	}
	assert.Equal(t, 3, count)
}

func TestEngine_Longest(t *testing.T) {
	e := MustCompile(`a|ab|abc`)
	assert.Equal(t, "a", e.Find("abcd").Text())

	e.SetLongest(true)
	assert.Equal(t, "abc", e.Find("abcd").Text())

	e.SetLongest(false)
	assert.Equal(t, "a", e.Find("abcd").Text())
}

func TestEngine_Prefilter(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
	}{
		{`hello\s+\w+`, `memmem("hello")`},
		{`needle`, `memmem("needle")`},
		{`(cat|dog)s?`, `ahocorasick(2 literals)`},
		{`^hello`, ""},
		{`\w+`, ""},
	}
	for _, tt := range tests {
		e := MustCompile(tt.pattern)
		if tt.want == "" {
			assert.Nil(t, e.Prefilter(), tt.pattern)
			continue
		}
		require.NotNil(t, e.Prefilter(), tt.pattern)
		assert.Equal(t, tt.want, e.Prefilter().String())
	}

	config := DefaultConfig()
	config.EnablePrefilter = false
	e, err := Compile(`needle`, config)
	require.NoError(t, err)
	assert.Nil(t, e.Prefilter())
}

// A literal that ends first is not necessarily the one that starts first.
func TestEngine_PrefilterLeftmostStart(t *testing.T) {
	tests := []struct {
		pattern  string
		haystack string
		longest  bool
		want     [2]int
	}{
		{`hello|ll`, "hello", false, [2]int{0, 5}},
		{`abcd|bc`, "abcd", false, [2]int{0, 4}},
		{`abcdef|cd`, "xabcdef", false, [2]int{1, 7}},
		{`b|abc`, "abcd", true, [2]int{0, 3}},
		{`b|abc`, "abcd", false, [2]int{0, 3}},
		{`hello|ll`, strings.Repeat("-", 61) + "hello", false, [2]int{61, 66}},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			e := MustCompile(tt.pattern)
			require.NotNil(t, e.Prefilter())
			assert.Equal(t, `ahocorasick(2 literals)`, e.Prefilter().String())
			e.SetLongest(tt.longest)

			start, end, ok := e.FindIndicesAt(tt.haystack, 0)
			require.True(t, ok)
			assert.Equal(t, tt.want, [2]int{start, end})
		})
	}
}

func TestEngine_Stats(t *testing.T) {
	e := MustCompile(`needle`)
	haystack := strings.Repeat("hay ", 100) + "needle"

	require.NotNil(t, e.Find(haystack))
	assert.False(t, e.IsMatch("no match here"))

	stats := e.Stats()
	assert.Equal(t, uint64(2), stats.Searches)
	assert.Equal(t, uint64(1), stats.PrefilterComplete)
	assert.Equal(t, uint64(1), stats.PrefilterMisses)
	assert.Equal(t, uint64(0), stats.NFASearches)
	assert.Equal(t, uint64(1), stats.Matches)

	capturing := MustCompile(`hello (\w+)`)
	m := capturing.Find("say hello world")
	require.NotNil(t, m)
	text, ok := m.GroupText(1)
	assert.True(t, ok)
	assert.Equal(t, "world", text)
	assert.Equal(t, uint64(1), capturing.Stats().PrefilterHits)
	assert.Equal(t, uint64(1), capturing.Stats().NFASearches)

	e.ResetStats()
	assert.Equal(t, Stats{}, e.Stats())
}

func TestEngine_CompleteLiteralNeedsNoVerification(t *testing.T) {
	e := MustCompile(`foo`)
	assert.Equal(t, [][2]int{{0, 3}, {4, 7}}, e.FindAllIndices("foo foo", -1))
	assert.Equal(t, uint64(0), e.Stats().NFASearches)
}

func TestEngine_Accessors(t *testing.T) {
	e := MustCompile(`^(a)(b)`)
	assert.Equal(t, `^(a)(b)`, e.Pattern())
	assert.True(t, e.IsStartAnchored())
	assert.Equal(t, 3, e.NumCaptures())
	assert.Equal(t, e.NFA().States(), e.pikevm.NumStates())

	names := e.SubexpNames()
	names[0] = "changed"
	assert.Equal(t, "", e.SubexpNames()[0])
}

func TestEngine_Logging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	config := DefaultConfig()
	config.Logger = zap.New(core)

	_, err := Compile(`hello\d+`, config)
	require.NoError(t, err)

	compiled := logs.FilterMessage("compiled pattern").All()
	require.Len(t, compiled, 1)
	fields := compiled[0].ContextMap()
	assert.Equal(t, `hello\d+`, fields["pattern"])
	assert.Equal(t, `memmem("hello")`, fields["prefilter"])
	assert.Equal(t, false, fields["anchored"])
	assert.Equal(t, 1, logs.FilterMessage("prefix literals").Len())

	_, err = Compile(`(`, config)
	require.Error(t, err)
	assert.Equal(t, 0, logs.FilterMessage("pattern rejected").Len(), "parse errors fail before compilation")

	config.MaxStates = 16
	_, err = Compile(`(?:abc){50}`, config)
	require.Error(t, err)
	assert.Equal(t, 1, logs.FilterMessage("pattern rejected").Len())
}

func TestMustCompile_Panics(t *testing.T) {
	assert.Panics(t, func() { MustCompile(`a)`) })
}
