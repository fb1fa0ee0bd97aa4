package combinator

import (
	"fmt"
	"math"
	"strings"
)

// Warning describes two alternatives of an Alt that can start with the same
// token. Such a grammar still parses, the first alternative wins, but a
// predictive parser could not choose between them by one token of lookahead.
type Warning struct {
	Rule   string // nearest named rule enclosing the Alt
	Alt    string // the Alt itself
	Left   int    // index of the earlier alternative
	Right  int    // index of the later alternative
	Shared []Key  // keys of Left that overlap with Right
}

func (w Warning) String() string {
	keys := make([]string, len(w.Shared))
	for i, k := range w.Shared {
		keys[i] = k.String()
	}
	where := w.Alt
	if w.Rule != "" && w.Rule != w.Alt {
		where = w.Rule + ": " + w.Alt
	}
	return fmt.Sprintf("%s: alternatives %d and %d can both start with %s",
		where, w.Left+1, w.Right+1, strings.Join(keys, ", "))
}

// Report holds the facts computed by Analyze for one grammar.
type Report struct {
	Warnings []Warning

	first    map[*Parser]FirstSet
	progress *progress
	pending  []*Parser // forward declarations undefined at analysis time
}

// First returns the FIRST set of p. Nodes outside the analyzed grammar are
// computed on demand.
func (r *Report) First(p *Parser) FirstSet {
	if f, ok := r.first[p]; ok {
		return f
	}
	return First(p)
}

// MakesProgress reports whether every success of p consumes at least one
// token.
func (r *Report) MakesProgress(p *Parser) bool {
	return r.progress.of(p)
}

// First computes the FIRST set of p.
func First(p *Parser) FirstSet {
	a := newAnalyzer(p)
	a.computeFirst()
	return a.first[p]
}

// MakesProgress reports whether every success of p consumes at least one
// token. A forward declaration re-entered during its own expansion counts as
// not making progress.
func MakesProgress(p *Parser) bool {
	return newProgress().of(p)
}

// Analyze inspects the grammar rooted at p without reading any input. It
// returns a *GrammarError for undefined forward declarations, left recursion
// and repetitions of parsers that can succeed without consuming input.
// LL(1) conflicts are collected in the report and handled according to the
// ambiguity policy.
//
// Analyze is a pure function of the grammar; only WithAmbiguity and
// WithLogger apply to it.
func Analyze(p *Parser, opts ...Option) (*Report, error) {
	report, err := analyze(p, newOptions(opts))
	if err != nil {
		return nil, err
	}
	return report, nil
}

func analyze(p *Parser, o options) (*Report, error) {
	a := newAnalyzer(p)
	report := &Report{first: a.first, progress: a.progress}
	for _, n := range a.nodes {
		if !n.Defined() {
			report.pending = append(report.pending, n)
		}
	}

	if len(report.pending) > 0 {
		n := report.pending[0]
		return report, &GrammarError{Rule: a.describe(n), Err: ErrUndefined}
	}
	if err := a.checkLeftRecursion(); err != nil {
		return report, err
	}
	if err := a.checkHalting(); err != nil {
		return report, err
	}

	a.computeFirst()
	report.Warnings = a.ambiguities()
	if len(report.Warnings) == 0 {
		return report, nil
	}
	switch o.ambiguity {
	case AmbiguityFail:
		w := report.Warnings[0]
		return report, &GrammarError{Rule: a.ruleOr(w.Rule, w.Alt), Err: ErrAmbiguous, Detail: w.String()}
	case AmbiguityWarn:
		log := o.grammarLogger()
		for _, w := range report.Warnings {
			log.Warningf("LL(1) conflict in %s", w)
		}
	}
	return report, nil
}

// analysis is the cached outcome of analyzing a root parser.
type analysis struct {
	report *Report
	err    error
	policy AmbiguityPolicy
}

// stale reports whether a forward declaration that was undefined when the
// analysis ran has been defined since.
func (c *analysis) stale() bool {
	for _, f := range c.report.pending {
		if f.Defined() {
			return true
		}
	}
	return false
}

// analyzed returns the analysis of the grammar rooted at p, reusing the
// result of an earlier Parse when it is still valid.
func (p *Parser) analyzed(o options) (*Report, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c := p.check; c != nil && c.policy == o.ambiguity && !c.stale() {
		return c.report, c.err
	}
	report, err := analyze(p, o)
	p.check = &analysis{report: report, err: err, policy: o.ambiguity}
	return report, err
}

type analyzer struct {
	nodes    []*Parser          // every reachable node, depth first
	rules    map[*Parser]string // nearest enclosing named rule
	first    map[*Parser]FirstSet
	progress *progress
}

func newAnalyzer(root *Parser) *analyzer {
	a := &analyzer{
		rules:    make(map[*Parser]string),
		first:    make(map[*Parser]FirstSet),
		progress: newProgress(),
	}
	a.collect(root, "")
	return a
}

func (a *analyzer) collect(p *Parser, rule string) {
	if _, seen := a.rules[p]; seen {
		return
	}
	if p.name != "" {
		rule = p.name
	}
	a.rules[p] = rule
	a.nodes = append(a.nodes, p)
	for _, child := range p.Children() {
		a.collect(child, rule)
	}
}

// describe names p for error messages.
func (a *analyzer) describe(p *Parser) string {
	if p.name != "" {
		return p.name
	}
	if rule := a.rules[p]; rule != "" {
		return p.String() + " in " + rule
	}
	return p.String()
}

func (a *analyzer) ruleOr(rule, fallback string) string {
	if rule != "" {
		return rule
	}
	return fallback
}

func (a *analyzer) checkLeftRecursion() error {
	for _, n := range a.nodes {
		if n.kind != KindFwd {
			continue
		}
		if a.leftReaches(n, n.def, make(map[*Parser]bool)) {
			return &GrammarError{
				Rule:   a.describe(n),
				Err:    ErrLeftRecursion,
				Detail: "the rule can reach itself without consuming input",
			}
		}
	}
	return nil
}

// leftReaches reports whether target can be reached from p without
// consuming input.
func (a *analyzer) leftReaches(target, p *Parser, seen map[*Parser]bool) bool {
	if p == target {
		return true
	}
	if p == nil || seen[p] {
		return false
	}
	seen[p] = true

	switch p.kind {
	case KindSeq:
		for _, child := range p.children {
			if a.leftReaches(target, child, seen) {
				return true
			}
			if a.progress.of(child) {
				return false
			}
		}
	case KindAlt:
		for _, child := range p.children {
			if a.leftReaches(target, child, seen) {
				return true
			}
		}
	case KindMap, KindMany, KindMemo:
		return a.leftReaches(target, p.children[0], seen)
	case KindFwd:
		return a.leftReaches(target, p.def, seen)
	}
	return false
}

func (a *analyzer) checkHalting() error {
	for _, n := range a.nodes {
		if n.kind != KindMany {
			continue
		}
		if !a.progress.of(n.children[0]) {
			return &GrammarError{
				Rule:   a.ruleOr(a.rules[n], n.String()),
				Err:    ErrNonHalting,
				Detail: n.String(),
			}
		}
	}
	return nil
}

// computeFirst iterates the FIRST equations over all nodes until nothing
// changes. Nodes are visited children first so acyclic grammars settle in
// one round.
func (a *analyzer) computeFirst() {
	for changed := true; changed; {
		changed = false
		for i := len(a.nodes) - 1; i >= 0; i-- {
			n := a.nodes[i]
			f := a.firstOf(n)
			if !f.equal(a.first[n]) {
				a.first[n] = f
				changed = true
			}
		}
	}
}

func (a *analyzer) firstOf(p *Parser) FirstSet {
	switch p.kind {
	case KindTok:
		return FirstSet{Keys: []Key{p.key}}
	case KindSeq:
		out := FirstSet{Nullable: true}
		for _, child := range p.children {
			f := a.first[child]
			out = out.union(f)
			if !f.Nullable {
				out.Nullable = false
				break
			}
		}
		return out
	case KindAlt:
		var out FirstSet
		for _, child := range p.children {
			f := a.first[child]
			out = out.union(f)
			out.Nullable = out.Nullable || f.Nullable
		}
		return out
	case KindMany:
		f := a.first[p.children[0]]
		out := FirstSet{}.union(f)
		out.Nullable = p.min == 0 || f.Nullable
		return out
	case KindMap, KindMemo:
		return FirstSet{}.union(a.first[p.children[0]])
	case KindFwd:
		if p.def == nil {
			return FirstSet{}
		}
		return FirstSet{}.union(a.first[p.def])
	case KindPure:
		return FirstSet{Nullable: true}
	case KindEof:
		return FirstSet{end: true}
	}
	return FirstSet{}
}

func (a *analyzer) ambiguities() []Warning {
	var warnings []Warning
	for _, n := range a.nodes {
		if n.kind != KindAlt {
			continue
		}
		for i := 0; i < len(n.children); i++ {
			for j := i + 1; j < len(n.children); j++ {
				shared := a.first[n.children[i]].Overlap(a.first[n.children[j]])
				if len(shared) == 0 {
					continue
				}
				warnings = append(warnings, Warning{
					Rule:   a.rules[n],
					Alt:    n.String(),
					Left:   i,
					Right:  j,
					Shared: shared,
				})
			}
		}
	}
	return warnings
}

// progress evaluates MakesProgress with memoization. A result that depended
// on re-entering a forward declaration still being expanded is only cached
// once that declaration is finished.
type progress struct {
	done   map[*Parser]bool
	active map[*Parser]int
}

func newProgress() *progress {
	return &progress{
		done:   make(map[*Parser]bool),
		active: make(map[*Parser]int),
	}
}

func (g *progress) of(p *Parser) bool {
	ok, _ := g.eval(p)
	return ok
}

// eval returns the result for p and the stack depth of the shallowest
// active forward declaration it re-entered, or math.MaxInt.
func (g *progress) eval(p *Parser) (bool, int) {
	if ok, found := g.done[p]; found {
		return ok, math.MaxInt
	}

	var (
		ok    bool
		taint = math.MaxInt
	)
	switch p.kind {
	case KindTok, KindEof:
		ok = true
	case KindPure:
		ok = false
	case KindSeq:
		for _, child := range p.children {
			c, t := g.eval(child)
			taint = min(taint, t)
			if c {
				ok = true
				break
			}
		}
	case KindAlt:
		ok = true
		for _, child := range p.children {
			c, t := g.eval(child)
			taint = min(taint, t)
			if !c {
				ok = false
				break
			}
		}
	case KindMany:
		if p.min > 0 {
			ok, taint = g.eval(p.children[0])
		}
	case KindMap, KindMemo:
		ok, taint = g.eval(p.children[0])
	case KindFwd:
		if depth, running := g.active[p]; running {
			return false, depth
		}
		if p.def == nil {
			return false, math.MaxInt
		}
		depth := len(g.active)
		g.active[p] = depth
		ok, taint = g.eval(p.def)
		delete(g.active, p)
		if taint >= depth {
			taint = math.MaxInt
		}
	}

	if taint == math.MaxInt {
		g.done[p] = ok
	}
	return ok, taint
}
