package meta

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/coregx/linex/literal"
	"github.com/coregx/linex/nfa"
	"github.com/coregx/linex/prefilter"
	"github.com/coregx/linex/syntax"
)

// Engine is a compiled pattern ready for searching.
//
// Thread safety: the NFA, PikeVM and prefilter are immutable after
// compilation and per-search state is pooled, so search methods may be
// called from many goroutines at once. SetLongest is safe to call
// concurrently, but a search already running keeps the semantics it
// started with.
//
// Example:
//
//	engine, err := meta.Compile(`(foo|bar)\d+`, meta.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	if m := engine.Find("test foo123 end"); m != nil {
//	    fmt.Println(m.Text()) // foo123
//	}
type Engine struct {
	// stats stays first so its uint64 fields are 8-byte aligned on 32-bit
	// platforms.
	stats Stats

	pattern   string
	nfa       *nfa.NFA
	pikevm    *nfa.PikeVM
	prefilter prefilter.Prefilter
	names     []string
	config    Config
	longest   atomic.Bool

	cachePool sync.Pool
}

// Stats counts search activity. Counters are updated atomically.
type Stats struct {
	// Searches counts calls into the search driver.
	Searches uint64

	// NFASearches counts searches that ran the PikeVM.
	NFASearches uint64

	// PrefilterHits counts prefilter candidates handed to the PikeVM.
	PrefilterHits uint64

	// PrefilterMisses counts searches the prefilter ended with no candidate.
	PrefilterMisses uint64

	// PrefilterComplete counts matches reported by a complete prefilter
	// without running the PikeVM.
	PrefilterComplete uint64

	// Matches counts successful searches.
	Matches uint64
}

// Compile parses and compiles pattern. Pattern errors are returned as
// *syntax.Error and configuration errors as *ConfigError.
func Compile(pattern string, config Config) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	re, err := syntax.ParseWithOptions(pattern, syntax.Options{
		Flags:     config.Flags,
		Table:     config.Table,
		MaxRepeat: config.MaxRepeat,
	})
	if err != nil {
		return nil, err
	}
	return CompileRegexp(re, config)
}

// CompileRegexp compiles an already parsed pattern.
func CompileRegexp(re *syntax.Regexp, config Config) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	log := config.logger()

	program, err := nfa.NewCompiler(config.compilerConfig()).CompileRegexp(re)
	if err != nil {
		var serr *syntax.Error
		if errors.As(err, &serr) {
			log.Debug("pattern rejected", zap.String("pattern", re.Pattern), zap.Error(err))
			return nil, err
		}
		return nil, errors.Wrapf(err, "compile %q", re.Pattern)
	}

	var pf prefilter.Prefilter
	if config.EnablePrefilter && !program.IsAnchored() {
		extractor := literal.New(literal.ExtractorConfig{MaxLiterals: config.MaxPrefixLiterals})
		seq := extractor.ExtractPrefixes(re)
		pf = prefilter.Build(seq)
		log.Debug("prefix literals", zap.String("pattern", re.Pattern), zap.Stringer("literals", seq))
	}

	e := &Engine{
		pattern:   re.Pattern,
		nfa:       program,
		pikevm:    nfa.NewPikeVM(program),
		prefilter: pf,
		names:     program.SubexpNames(),
		config:    config,
	}
	e.cachePool.New = func() any {
		return e.pikevm.NewCache()
	}

	log.Debug("compiled pattern",
		zap.String("pattern", re.Pattern),
		zap.Int("states", program.States()),
		zap.Int("captures", program.CaptureCount()),
		zap.Bool("anchored", program.IsAnchored()),
		zap.String("prefilter", e.prefilterName()),
	)
	return e, nil
}

// MustCompile is like Compile with the default configuration but panics
// on error.
func MustCompile(pattern string) *Engine {
	e, err := Compile(pattern, DefaultConfig())
	if err != nil {
		panic(`meta: Compile(` + pattern + `): ` + err.Error())
	}
	return e
}

func (e *Engine) prefilterName() string {
	if e.prefilter == nil {
		return "none"
	}
	return e.prefilter.String()
}

// Pattern returns the source text.
func (e *Engine) Pattern() string {
	return e.pattern
}

// NFA returns the compiled program.
func (e *Engine) NFA() *nfa.NFA {
	return e.nfa
}

// Prefilter returns the candidate search used before the PikeVM, or nil.
func (e *Engine) Prefilter() prefilter.Prefilter {
	return e.prefilter
}

// IsStartAnchored reports whether every match must begin at offset 0.
func (e *Engine) IsStartAnchored() bool {
	return e.nfa.IsAnchored()
}

// NumCaptures returns the number of groups including group 0.
func (e *Engine) NumCaptures() int {
	return e.nfa.CaptureCount()
}

// SubexpNames returns the group names by index; index 0 and unnamed
// groups are "".
func (e *Engine) SubexpNames() []string {
	return append([]string(nil), e.names...)
}

// SubexpIndex returns the index of the group called name, or -1.
func (e *Engine) SubexpIndex(name string) int {
	if name == "" {
		return -1
	}
	for i, n := range e.names {
		if n == name {
			return i
		}
	}
	return -1
}

// SetLongest switches between leftmost-first (false, the default) and
// leftmost-longest (true) semantics.
func (e *Engine) SetLongest(longest bool) {
	e.longest.Store(longest)
}

// Stats returns a snapshot of the search counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Searches:          atomic.LoadUint64(&e.stats.Searches),
		NFASearches:       atomic.LoadUint64(&e.stats.NFASearches),
		PrefilterHits:     atomic.LoadUint64(&e.stats.PrefilterHits),
		PrefilterMisses:   atomic.LoadUint64(&e.stats.PrefilterMisses),
		PrefilterComplete: atomic.LoadUint64(&e.stats.PrefilterComplete),
		Matches:           atomic.LoadUint64(&e.stats.Matches),
	}
}

// ResetStats sets every counter to zero.
func (e *Engine) ResetStats() {
	atomic.StoreUint64(&e.stats.Searches, 0)
	atomic.StoreUint64(&e.stats.NFASearches, 0)
	atomic.StoreUint64(&e.stats.PrefilterHits, 0)
	atomic.StoreUint64(&e.stats.PrefilterMisses, 0)
	atomic.StoreUint64(&e.stats.PrefilterComplete, 0)
	atomic.StoreUint64(&e.stats.Matches, 0)
}

// getCache borrows search state from the pool. Callers must putCache it.
func (e *Engine) getCache() *nfa.Cache {
	cache := e.cachePool.Get().(*nfa.Cache)
	cache.Longest = e.longest.Load()
	return cache
}

func (e *Engine) putCache(cache *nfa.Cache) {
	e.cachePool.Put(cache)
}
