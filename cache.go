package linex

import (
	"github.com/dgraph-io/ristretto/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/coregx/linex/meta"
)

// CacheConfig configures a program Cache.
type CacheConfig struct {
	// MaxStates bounds the total NFA states of the cached programs. Each
	// program costs its state count.
	// Default: 1 << 22
	MaxStates int64

	// NumCounters is the number of admission counters. It should be about
	// ten times the number of programs expected to be cached.
	// Default: 10_000
	NumCounters int64

	// Config compiles every program in the cache.
	Config meta.Config
}

// DefaultCacheConfig returns the default cache configuration.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		MaxStates:   1 << 22,
		NumCounters: 10_000,
		Config:      meta.DefaultConfig(),
	}
}

// Cache holds compiled programs keyed by pattern text, for callers that
// receive patterns at run time and see the same ones repeatedly. Admission
// and eviction are decided by frequency within the state budget.
//
// A Cache is safe for concurrent use.
type Cache struct {
	programs *ristretto.Cache[string, *Regex]
	config   meta.Config
	log      *zap.Logger
}

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Hits   uint64
	Misses uint64
}

// NewCache creates a program cache. Zero fields of config take their
// defaults; a Config with no limits set is replaced by meta.DefaultConfig,
// keeping its Logger.
func NewCache(config CacheConfig) (*Cache, error) {
	def := DefaultCacheConfig()
	if config.MaxStates <= 0 {
		config.MaxStates = def.MaxStates
	}
	if config.NumCounters <= 0 {
		config.NumCounters = def.NumCounters
	}
	if config.Config.MaxRepeat == 0 && config.Config.MaxStates == 0 && config.Config.MaxDepth == 0 {
		logger := config.Config.Logger
		config.Config = def.Config
		config.Config.Logger = logger
	}
	if err := config.Config.Validate(); err != nil {
		return nil, errors.Wrap(err, "linex: cache config")
	}

	programs, err := ristretto.NewCache(&ristretto.Config[string, *Regex]{
		NumCounters: config.NumCounters,
		MaxCost:     config.MaxStates,
		BufferItems: 64,
		Metrics:     true,
		Cost: func(re *Regex) int64 {
			return int64(re.engine.NFA().States())
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "linex: create program cache")
	}

	log := config.Config.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{programs: programs, config: config.Config, log: log}, nil
}

// Get returns the compiled program for pattern, compiling it on a miss.
// Compile errors are wrapped with the pattern; errors.As still finds the
// *syntax.Error.
//
// The returned Regex is shared with every other caller of Get for the same
// pattern. Calling Longest on it changes the semantics for all of them;
// compile a private copy with CompileWithConfig instead.
func (c *Cache) Get(pattern string) (*Regex, error) {
	if re, ok := c.programs.Get(pattern); ok {
		return re, nil
	}
	re, err := CompileWithConfig(pattern, c.config)
	if err != nil {
		return nil, errors.Wrapf(err, "linex: compile %q", pattern)
	}
	if !c.programs.Set(pattern, re, 0) {
		c.log.Debug("program not admitted", zap.String("pattern", pattern))
	}
	c.programs.Wait()
	return re, nil
}

// Stats returns hit and miss counts.
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Hits:   c.programs.Metrics.Hits(),
		Misses: c.programs.Metrics.Misses(),
	}
}

// Clear drops every cached program.
func (c *Cache) Clear() {
	c.programs.Clear()
}

// Close releases the cache's background goroutines. The Cache must not be
// used afterwards.
func (c *Cache) Close() {
	c.programs.Close()
}
