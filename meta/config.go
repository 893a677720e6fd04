// Package meta compiles patterns into search engines and drives them.
//
// An Engine couples the Thompson NFA with an optional literal prefilter.
// The prefilter jumps to the first position where a match can begin; the
// PikeVM then resolves the leftmost-first match and its capture groups.
// Both are immutable after compilation, and per-search state comes from a
// sync.Pool, so one Engine serves any number of goroutines.
package meta

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/coregx/linex/nfa"
	"github.com/coregx/linex/syntax"
)

// Config controls compilation limits and search acceleration.
//
// Example:
//
//	config := meta.DefaultConfig()
//	config.EnablePrefilter = false // always run the PikeVM from the start
//	engine, err := meta.Compile(`\w+@\w+`, config)
type Config struct {
	// Flags are the initial parse flags, as if the pattern began with (?flags).
	Flags syntax.Flags

	// Table resolves \p{...} names. Nil means syntax.UnicodeTable.
	Table syntax.ClassTable

	// MaxRepeat caps the counts of x{n,m}.
	// Default: 1000
	MaxRepeat int

	// MaxStates caps the size of the compiled program. A pattern that needs
	// more states fails with syntax.ErrPatternTooLarge. Search time per input
	// byte grows with the state count, so lower it for untrusted patterns.
	// Default: 1<<20
	MaxStates int

	// MaxDepth limits compiler recursion into nested expressions.
	// Default: 5000
	MaxDepth int

	// EnablePrefilter enables literal-prefix candidate search.
	// Default: true
	EnablePrefilter bool

	// MaxPrefixLiterals limits how many alternative prefix literals are
	// extracted for the prefilter.
	// Default: 64
	MaxPrefixLiterals int

	// Logger receives compile-time decisions at Debug level. Nil disables
	// logging. Searches never log.
	Logger *zap.Logger
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MaxRepeat:         syntax.DefaultMaxRepeat,
		MaxStates:         nfa.DefaultMaxStates,
		MaxDepth:          nfa.DefaultMaxRecursionDepth,
		EnablePrefilter:   true,
		MaxPrefixLiterals: 64,
	}
}

// Validate checks that every limit is within its allowed range.
func (c Config) Validate() error {
	if c.MaxRepeat < 1 || c.MaxRepeat > 100_000 {
		return &ConfigError{Field: "MaxRepeat", Message: "must be between 1 and 100,000"}
	}
	if c.MaxStates < 16 || c.MaxStates > 1<<24 {
		return &ConfigError{Field: "MaxStates", Message: fmt.Sprintf("must be between 16 and %d", 1<<24)}
	}
	if c.MaxDepth < 10 || c.MaxDepth > 100_000 {
		return &ConfigError{Field: "MaxDepth", Message: "must be between 10 and 100,000"}
	}
	if c.EnablePrefilter {
		if c.MaxPrefixLiterals < 1 || c.MaxPrefixLiterals > 1_000 {
			return &ConfigError{Field: "MaxPrefixLiterals", Message: "must be between 1 and 1,000"}
		}
	}
	return nil
}

func (c Config) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

func (c Config) compilerConfig() nfa.CompilerConfig {
	return nfa.CompilerConfig{
		Flags:             c.Flags,
		Table:             c.Table,
		MaxRepeat:         c.MaxRepeat,
		MaxStates:         c.MaxStates,
		MaxRecursionDepth: c.MaxDepth,
	}
}

// ConfigError reports an invalid Config field.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "linex: invalid config: " + e.Field + ": " + e.Message
}
