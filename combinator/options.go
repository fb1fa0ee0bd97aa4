package combinator

import (
	"fmt"

	"github.com/tliron/commonlog"
)

// AmbiguityPolicy decides what happens when two alternatives of an Alt can
// start with the same token.
type AmbiguityPolicy int

const (
	// AmbiguityWarn records a Warning and logs it.
	AmbiguityWarn AmbiguityPolicy = iota
	// AmbiguityIgnore records a Warning without logging it.
	AmbiguityIgnore
	// AmbiguityFail turns the first Warning into a GrammarError.
	AmbiguityFail
)

func (a AmbiguityPolicy) String() string {
	switch a {
	case AmbiguityWarn:
		return "warn"
	case AmbiguityIgnore:
		return "ignore"
	case AmbiguityFail:
		return "fail"
	}
	return "unknown"
}

// ParseAmbiguityPolicy parses "warn", "ignore" or "fail". The empty string
// selects AmbiguityWarn.
func ParseAmbiguityPolicy(s string) (AmbiguityPolicy, error) {
	switch s {
	case "", "warn":
		return AmbiguityWarn, nil
	case "ignore":
		return AmbiguityIgnore, nil
	case "fail":
		return AmbiguityFail, nil
	}
	return AmbiguityWarn, fmt.Errorf("unknown ambiguity policy %q (expected warn, ignore or fail)", s)
}

// Stats counts work done by one Parse call.
type Stats struct {
	Calls      int
	Backtracks int
	MemoHits   int
	MemoMisses int
	Skipped    int // alternatives skipped by the lookahead fast path
}

// Option configures Parse and Analyze.
type Option func(*options)

type options struct {
	logger    commonlog.Logger
	stats     *Stats
	ambiguity AmbiguityPolicy
	lookahead bool
	validate  bool
}

func newOptions(opts []Option) options {
	o := options{validate: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// grammarLogger returns the logger for analyzer warnings.
func (o options) grammarLogger() commonlog.Logger {
	if o.logger != nil {
		return o.logger
	}
	return commonlog.GetLogger("combo.grammar")
}

// WithLogger traces rule attempts at debug level and reports ambiguity
// warnings to logger.
func WithLogger(logger commonlog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithStats collects counters for a Parse call into stats.
func WithStats(stats *Stats) Option {
	return func(o *options) {
		o.stats = stats
	}
}

// WithAmbiguity selects how LL(1) conflicts are reported.
func WithAmbiguity(policy AmbiguityPolicy) Option {
	return func(o *options) {
		o.ambiguity = policy
	}
}

// WithLookahead lets Alt skip alternatives whose FIRST set cannot match the
// next token. Results are the same as without it.
func WithLookahead() Option {
	return func(o *options) {
		o.lookahead = true
	}
}

// WithoutValidation skips grammar analysis in Parse. A left-recursive
// grammar then exhausts the stack instead of returning a GrammarError.
// Combined with WithLookahead, Parse returns ErrLookaheadWithoutValidation.
func WithoutValidation() Option {
	return func(o *options) {
		o.validate = false
	}
}
