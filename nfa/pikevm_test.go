package nfa

import (
	"fmt"
	"regexp"
	"strings"
	"testing"
)

func searchSlots(t *testing.T, pattern, haystack string) []int {
	t.Helper()
	nfa := mustCompile(t, pattern)
	vm := NewPikeVM(nfa)
	slots := make([]int, nfa.SlotCount())
	if !vm.SearchSlots(vm.NewCache(), haystack, 0, slots) {
		return nil
	}
	return slots
}

func equalSlots(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// These patterns only use constructs whose semantics agree with package
// regexp on the inputs below (ASCII text for \w and \b).
func TestPikeVM_AgreesWithStdlib(t *testing.T) {
	patterns := []string{
		`abc`,
		`a|b|c`,
		`(a)(b)?`,
		`(a|ab)(c|bcd)(d*)`,
		`(\w+)\s(\w+)`,
		`a{2,3}`,
		`a{2,}?`,
		`(?m)^\w+$`,
		`\bfoo\b`,
		`[^0-9]+`,
		`(foo|foobar)baz`,
		`(a+)(b+)?`,
		`.*`,
		`(?s).+`,
		`x*y*`,
		`[[:alpha:]]+`,
		`\p{Greek}+`,
		`(?i)FOO|bar`,
		`(a*?)(a*)`,
		`(?U)a+`,
		`^$`,
		`(?:(a)|b)+`,
		`\d{3}-\d{4}`,
		`(a*)*`,
		`(a|)*`,
		`(|a)*`,
		`(a*)+`,
	}
	haystacks := []string{
		"",
		"abc",
		"aaa bbb",
		"foobarbaz foobaz",
		"line1\nline2",
		"αβγ",
		"abcd",
		"call 555-1234 now",
		"xxyy",
		"FOO foo",
		"ab",
	}

	for _, pattern := range patterns {
		std := regexp.MustCompile(pattern)
		for _, h := range haystacks {
			t.Run(fmt.Sprintf("%s/%q", pattern, h), func(t *testing.T) {
				want := std.FindStringSubmatchIndex(h)
				got := searchSlots(t, pattern, h)
				if !equalSlots(got, want) {
					t.Errorf("slots = %v, want %v", got, want)
				}
			})
		}
	}
}

func TestPikeVM_Find(t *testing.T) {
	tests := []struct {
		name      string
		pattern   string
		haystack  string
		at        int
		wantStart int
		wantEnd   int
		wantFound bool
	}{
		{"from beginning", "foo", "foo bar foo", 0, 0, 3, true},
		{"skip first match", "foo", "foo bar foo", 3, 8, 11, true},
		{"from exact match start", "bar", "foo bar baz", 4, 4, 7, true},
		{"no match after position", "foo", "foo", 1, -1, -1, false},
		{"at end of haystack", "a", "abc", 3, -1, -1, false},
		{"past end of haystack", "a", "abc", 10, -1, -1, false},
		{"negative start", "a", "abc", -1, -1, -1, false},
		{"empty pattern at position", "", "abc", 2, 2, 2, true},
		{"empty pattern at end", "", "abc", 3, 3, 3, true},
		{"digit class from middle", `\d+`, "abc123def456", 6, 9, 12, true},
		{"empty haystack", "", "", 0, 0, 0, true},
		{"leftmost first alternation", "cat|cats", "cats", 0, 0, 3, true},
		{"greedy", "a+", "aaa", 0, 0, 3, true},
		{"lazy", "a+?", "aaa", 0, 0, 1, true},
		{"start anchor past zero", "^a", "aa", 1, -1, -1, false},
		{"end anchor", "a$", "aab", 0, -1, -1, false},
		{"multibyte", "é+", "caféé!", 0, 3, 7, true},
		{"dot is one code point", "^.$", "日", 0, 0, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := NewPikeVM(mustCompile(t, tt.pattern))
			start, end, found := vm.Find(vm.NewCache(), tt.haystack, tt.at)
			if found != tt.wantFound {
				t.Fatalf("Find(%q, %d) found=%v, want %v", tt.haystack, tt.at, found, tt.wantFound)
			}
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("Find(%q, %d) = (%d, %d), want (%d, %d)",
					tt.haystack, tt.at, start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestPikeVM_CaptureRestoredBetweenBranches(t *testing.T) {
	// The left branch writes slot 2 before failing; the right branch must
	// not see it.
	got := searchSlots(t, `(a)|b`, "b")
	want := []int{0, 1, -1, -1}
	if !equalSlots(got, want) {
		t.Errorf("slots = %v, want %v", got, want)
	}

	got = searchSlots(t, `(x)?(?:(a)|(b))c`, "bc")
	want = []int{0, 2, -1, -1, -1, -1, 0, 1}
	if !equalSlots(got, want) {
		t.Errorf("slots = %v, want %v", got, want)
	}
}

func TestPikeVM_PartialSlots(t *testing.T) {
	vm := NewPikeVM(mustCompile(t, `(\d+)-(\d+)`))
	cache := vm.NewCache()

	slots := make([]int, 4)
	if !vm.SearchSlots(cache, "tel 12-34", 0, slots) {
		t.Fatal("expected match")
	}
	if want := []int{4, 9, 4, 6}; !equalSlots(slots, want) {
		t.Errorf("slots = %v, want %v", slots, want)
	}

	if !vm.SearchSlots(cache, "tel 12-34", 0, nil) {
		t.Error("search without slots should still match")
	}
}

func TestPikeVM_IsMatch(t *testing.T) {
	tests := []struct {
		pattern  string
		haystack string
		want     bool
	}{
		{"abc", "xxabcxx", true},
		{"abc", "ab", false},
		{`^\d+$`, "12345", true},
		{`^\d+$`, "123a5", false},
		{`[^0-9]+`, "123", false},
		{"a*", "", true},
		{`\bfoo\b`, "a foo b", true},
		{`\bfoo\b`, "afoo", false},
		{`(?:a|b)*c`, strings.Repeat("ab", 100), false},
	}
	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.haystack, func(t *testing.T) {
			vm := NewPikeVM(mustCompile(t, tt.pattern))
			if got := vm.IsMatch(vm.NewCache(), tt.haystack, 0); got != tt.want {
				t.Errorf("IsMatch(%q) = %v, want %v", tt.haystack, got, tt.want)
			}
		})
	}
}

func TestPikeVM_Longest(t *testing.T) {
	tests := []struct {
		pattern    string
		haystack   string
		start, end int
	}{
		{"cat|cats", "cats", 0, 4},
		{"a|ab|abc", "xabcx", 1, 4},
		{"a+?", "aaa", 0, 3},
		{"(a|ab)(c|bcd)", "abcd", 0, 4},
		{"b|abc", "abc", 0, 3},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			vm := NewPikeVM(mustCompile(t, tt.pattern))
			cache := vm.NewCache()
			cache.Longest = true
			start, end, ok := vm.Find(cache, tt.haystack, 0)
			if !ok || start != tt.start || end != tt.end {
				t.Errorf("Find(%q) = (%d, %d, %v), want (%d, %d)", tt.haystack, start, end, ok, tt.start, tt.end)
			}
		})
	}
}

func TestPikeVM_InvalidUTF8(t *testing.T) {
	vm := NewPikeVM(mustCompile(t, `a.b`))
	cache := vm.NewCache()

	start, end, ok := vm.Find(cache, "xa\xffb", 0)
	if !ok || start != 1 || end != 4 {
		t.Errorf("Find = (%d, %d, %v), want (1, 4, true)", start, end, ok)
	}

	vm = NewPikeVM(mustCompile(t, `\xFF`))
	if vm.IsMatch(vm.NewCache(), "\xff", 0) {
		t.Error(`\xFF is U+00FF and must not match the raw byte 0xFF`)
	}
}

func TestPikeVM_UnicodeWordBoundary(t *testing.T) {
	vm := NewPikeVM(mustCompile(t, `\bfoo\b`))
	cache := vm.NewCache()
	if vm.IsMatch(cache, "éfoo", 0) {
		t.Error("é is a word character, so there is no boundary before foo")
	}
	if !vm.IsMatch(cache, "—foo—", 0) {
		t.Error("an em dash is not a word character")
	}
}

func TestPikeVM_CacheReuse(t *testing.T) {
	small := NewPikeVM(mustCompile(t, "a"))
	large := NewPikeVM(mustCompile(t, strings.Repeat("(a)", 50)))

	cache := small.NewCache()
	if _, _, ok := large.Find(cache, strings.Repeat("a", 50), 0); !ok {
		t.Error("cache from a smaller NFA must grow to fit")
	}
	if start, end, ok := small.Find(cache, "ba", 0); !ok || start != 1 || end != 2 {
		t.Errorf("Find = (%d, %d, %v), want (1, 2, true)", start, end, ok)
	}
}

// The number of state visits never exceeds 2 × states × (positions + 1),
// whatever the pattern.
func TestPikeVM_StepBound(t *testing.T) {
	tests := []struct {
		pattern  string
		haystack string
	}{
		{`(a*)*b`, strings.Repeat("a", 64)},
		{`(a|a)*b`, strings.Repeat("a", 64)},
		{`(x+x+)+y`, strings.Repeat("x", 64)},
		{`(.*)*z`, strings.Repeat("abc", 30)},
		{`((a{1,10}){1,10}){1,10}c`, strings.Repeat("a", 40)},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			nfa := mustCompile(t, tt.pattern)
			vm := NewPikeVM(nfa)
			cache := vm.NewCache()
			slots := make([]int, nfa.SlotCount())
			if vm.SearchSlots(cache, tt.haystack, 0, slots) {
				t.Fatalf("unexpected match %v", slots)
			}
			bound := 2 * nfa.States() * (len(tt.haystack) + 1)
			if cache.Steps() > bound {
				t.Errorf("steps = %d, bound = %d", cache.Steps(), bound)
			}
		})
	}
}

// A failing search over nested bounded repeats keeps most of the unrolled
// program active at every position; the visit count stays within the bound.
func TestPikeVM_NestedBoundedRepeatsNoMatch(t *testing.T) {
	if testing.Short() {
		t.Skip("large program")
	}
	nfa := mustCompile(t, `((a{1,50}){1,50}){1,50}b`)
	vm := NewPikeVM(nfa)
	cache := vm.NewCache()
	haystack := strings.Repeat("a", 24)
	if _, _, ok := vm.Find(cache, haystack, 0); ok {
		t.Fatal("unexpected match")
	}
	bound := 2 * nfa.States() * (len(haystack) + 1)
	if cache.Steps() > bound {
		t.Errorf("steps = %d, bound = %d", cache.Steps(), bound)
	}
}

func TestPikeVM_NestedBoundedRepeats(t *testing.T) {
	nfa := mustCompile(t, `((a{1,50}){1,50}){1,50}`)
	vm := NewPikeVM(nfa)
	start, end, ok := vm.Find(vm.NewCache(), "aaaaaaaaaa", 0)
	if !ok || start != 0 || end != 10 {
		t.Errorf("Find = (%d, %d, %v), want (0, 10, true)", start, end, ok)
	}
}

func TestIsLookSatisfied(t *testing.T) {
	tests := []struct {
		look     Look
		haystack string
		at       int
		want     bool
	}{
		{LookStartText, "ab", 0, true},
		{LookStartText, "ab", 1, false},
		{LookEndText, "ab", 2, true},
		{LookEndText, "ab\n", 2, false},
		{LookStartLine, "a\nb", 2, true},
		{LookStartLine, "a\nb", 1, false},
		{LookEndLine, "a\nb", 1, true},
		{LookEndLine, "a\nb", 3, true},
		{LookEndLine, "a\nb", 0, false},
		{LookWordBoundary, "ab cd", 2, true},
		{LookWordBoundary, "ab cd", 1, false},
		{LookWordBoundary, "", 0, false},
		{LookNoWordBoundary, "", 0, true},
		{LookNoWordBoundary, "ab", 1, true},
		{LookWordBoundary, "日本", 0, true},
		{LookWordBoundary, "a\xff", 1, true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%q/%d", tt.look, tt.haystack, tt.at), func(t *testing.T) {
			if got := IsLookSatisfied(tt.look, tt.haystack, tt.at); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func BenchmarkPikeVM_Find(b *testing.B) {
	nfa := mustCompile(b, `(\w+)@(\w+)\.com`)
	vm := NewPikeVM(nfa)
	cache := vm.NewCache()
	haystack := strings.Repeat("lorem ipsum dolor ", 50) + "user@example.com"
	slots := make([]int, nfa.SlotCount())
	b.SetBytes(int64(len(haystack)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		vm.SearchSlots(cache, haystack, 0, slots)
	}
}
