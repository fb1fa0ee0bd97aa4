package combinator

import (
	"github.com/dhamidi/combo/lex"
	"github.com/tliron/commonlog"
)

// Parse runs p over tokens starting at State{0, 0} and returns its result.
// It does not require the whole input to be consumed; compose with Eof for
// that.
//
// Unless WithoutValidation is given, the grammar is analyzed first and a
// *GrammarError is returned if it cannot terminate. A mismatch is reported as
// a *SyntaxError. No partial result is returned on failure.
func Parse(p *Parser, tokens []lex.Token, opts ...Option) (any, error) {
	o := newOptions(opts)

	r := &runner{
		tokens:   tokens,
		opts:     o,
		farthest: -1,
		stats:    o.stats,
	}
	if r.stats == nil {
		r.stats = &Stats{}
	}
	if o.logger != nil && o.logger.AllowLevel(commonlog.Debug) {
		r.log = o.logger
	}

	if o.lookahead && !o.validate {
		return nil, ErrLookaheadWithoutValidation
	}
	if o.validate {
		report, err := p.analyzed(o)
		if err != nil {
			return nil, err
		}
		if o.lookahead {
			r.report = report
		}
	}

	v, _, err := r.run(p, State{})
	if err == nil {
		return v, nil
	}
	np, ok := asNoParse(err)
	if !ok {
		return nil, err
	}
	return nil, r.syntaxError(np)
}

type memoKey struct {
	node *Parser
	pos  int
}

type memoEntry struct {
	value any
	state State
	err   *noParse

	// what the node expected at its farthest position, replayed on a hit
	farthest int
	expected []string
}

// runner holds everything owned by a single Parse call.
type runner struct {
	tokens []lex.Token
	opts   options
	report *Report // set when the lookahead fast path is enabled
	memo   map[memoKey]memoEntry
	stats  *Stats
	log    commonlog.Logger

	// farthest failure and what was expected there
	farthest int
	expected []string
}

func (r *runner) fail(msg string, s State) (any, State, error) {
	return nil, s, &noParse{msg: msg, state: s}
}

// expect records desc as acceptable at pos.
func (r *runner) expect(pos int, desc string) {
	if pos < r.farthest {
		return
	}
	if pos > r.farthest {
		r.farthest = pos
		r.expected = r.expected[:0]
	}
	for _, have := range r.expected {
		if have == desc {
			return
		}
	}
	r.expected = append(r.expected, desc)
}

type expectMark struct {
	farthest int
	n        int
}

func (r *runner) mark() expectMark {
	return expectMark{farthest: r.farthest, n: len(r.expected)}
}

// collapse replaces what a named rule expected at its own start position by
// the rule's name.
func (r *runner) collapse(m expectMark, start int, name string) {
	if r.farthest != start {
		return
	}
	if m.farthest == start {
		r.expected = r.expected[:m.n]
	} else {
		r.expected = r.expected[:0]
	}
	r.expect(start, name)
}

func (r *runner) run(p *Parser, s State) (any, State, error) {
	r.stats.Calls++
	if r.log != nil {
		r.log.Debugf("trying %s at %s", p, s)
	}
	if p.name == "" {
		return r.dispatch(p, s)
	}
	m := r.mark()
	v, next, err := r.dispatch(p, s)
	if err != nil {
		if _, ok := asNoParse(err); ok {
			r.collapse(m, s.Pos, p.name)
		}
	}
	return v, next, err
}

func (r *runner) dispatch(p *Parser, s State) (any, State, error) {
	switch p.kind {
	case KindTok:
		return r.runTok(p, s)
	case KindSeq:
		return r.runSeq(p, s)
	case KindAlt:
		return r.runAlt(p, s)
	case KindMap:
		v, next, err := r.run(p.children[0], s)
		if err != nil {
			return nil, next, err
		}
		return p.fn(v), next, nil
	case KindMany:
		return r.runMany(p, s)
	case KindPure:
		return p.value, s, nil
	case KindEof:
		if s.Pos >= len(r.tokens) {
			return Ignored{}, s, nil
		}
		r.expect(s.Pos, p.String())
		return r.fail("should have reached end of input", s.reach(s.Pos))
	case KindFwd:
		if p.def == nil {
			return nil, s, &GrammarError{Rule: p.String(), Err: ErrUndefined}
		}
		return r.run(p.def, s)
	case KindMemo:
		return r.runMemo(p, s)
	}
	panic("combinator: unknown parser kind " + p.kind.String())
}

func (r *runner) runTok(p *Parser, s State) (any, State, error) {
	if s.Pos >= len(r.tokens) {
		r.expect(s.Pos, p.String())
		return r.fail("no tokens left in the stream", s.reach(s.Pos))
	}
	t := r.tokens[s.Pos]
	if !p.key.Matches(t) {
		r.expect(s.Pos, p.String())
		return r.fail("got unexpected token", s.reach(s.Pos))
	}
	next := s.advance()
	if r.log != nil {
		r.log.Debugf("matched %s, new state = %s", t, next)
	}
	return t, next, nil
}

func (r *runner) runSeq(p *Parser, s State) (any, State, error) {
	var j joiner
	cur := s
	for _, child := range p.children {
		v, next, err := r.run(child, cur)
		if err != nil {
			return nil, next, err
		}
		j.add(v)
		cur = next
	}
	return j.result(), cur, nil
}

func (r *runner) runAlt(p *Parser, s State) (any, State, error) {
	farthest := s.Max
	var last *noParse
	for _, child := range p.children {
		if r.report != nil {
			if !r.report.First(child).canStart(r.tokens, s.Pos) {
				r.stats.Skipped++
				r.expectFirst(s.Pos, child)
				continue
			}
		}
		v, next, err := r.run(child, State{Pos: s.Pos, Max: farthest})
		if err == nil {
			return v, next, nil
		}
		np, ok := asNoParse(err)
		if !ok {
			return nil, next, err
		}
		r.stats.Backtracks++
		farthest = max(farthest, np.state.Max)
		last = np
	}
	if last == nil {
		return r.fail("got unexpected token", s.reach(s.Pos))
	}
	return r.fail(last.msg, s.rewind(s.Pos, farthest))
}

// expectFirst records what a skipped alternative would have expected had it
// run. Every path through p fails at pos, so only its leading nodes matter: a
// named rule that must consume input collapses to its name, and the walk
// stops after the first node that cannot succeed empty.
func (r *runner) expectFirst(pos int, p *Parser) {
	r.expectLeading(pos, p, make(map[*Parser]bool))
}

func (r *runner) expectLeading(pos int, p *Parser, seen map[*Parser]bool) {
	if seen[p] {
		return
	}
	seen[p] = true
	defer delete(seen, p)

	if p.name != "" && !r.report.First(p).Nullable {
		r.expect(pos, p.name)
		return
	}
	switch p.kind {
	case KindTok, KindEof:
		r.expect(pos, p.String())
	case KindSeq:
		for _, child := range p.children {
			r.expectLeading(pos, child, seen)
			if !r.report.First(child).Nullable {
				return
			}
		}
	case KindAlt:
		// An alternative that can be empty succeeds, so later ones never run.
		for _, child := range p.children {
			r.expectLeading(pos, child, seen)
			if r.report.First(child).Nullable {
				return
			}
		}
	case KindMap, KindMany, KindMemo:
		r.expectLeading(pos, p.children[0], seen)
	case KindFwd:
		if p.def != nil {
			r.expectLeading(pos, p.def, seen)
		}
	}
}

func (r *runner) runMany(p *Parser, s State) (any, State, error) {
	inner := p.children[0]
	results := []any{}
	cur := s
	for {
		v, next, err := r.run(inner, cur)
		if err != nil {
			np, ok := asNoParse(err)
			if !ok {
				return nil, next, err
			}
			stop := cur.rewind(cur.Pos, np.state.Max)
			if len(results) < p.min {
				return r.fail(np.msg, stop)
			}
			return results, stop, nil
		}
		results = append(results, v)
		// A zero-width success would repeat forever.
		if next.Pos == cur.Pos {
			return results, next, nil
		}
		cur = next
	}
}

func (r *runner) runMemo(p *Parser, s State) (any, State, error) {
	key := memoKey{node: p, pos: s.Pos}
	if e, ok := r.memo[key]; ok {
		r.stats.MemoHits++
		for _, desc := range e.expected {
			r.expect(e.farthest, desc)
		}
		if e.err != nil {
			return r.fail(e.err.msg, s.rewind(s.Pos, e.err.state.Max))
		}
		return e.value, e.state.rewind(e.state.Pos, s.Max), nil
	}
	r.stats.MemoMisses++

	// Run the node against empty bookkeeping so that what it expects can
	// be stored with its outcome, then merge it back.
	outerFarthest, outerExpected := r.farthest, r.expected
	r.farthest, r.expected = -1, nil
	v, next, err := r.run(p.children[0], s)
	farthest, expected := r.farthest, r.expected
	r.farthest, r.expected = outerFarthest, outerExpected
	for _, desc := range expected {
		r.expect(farthest, desc)
	}

	if r.memo == nil {
		r.memo = make(map[memoKey]memoEntry)
	}
	entry := memoEntry{farthest: farthest, expected: expected}
	if err != nil {
		np, ok := asNoParse(err)
		if !ok {
			return nil, next, err
		}
		entry.err = np
		r.memo[key] = entry
		return nil, next, err
	}
	entry.value, entry.state = v, next
	r.memo[key] = entry
	return v, next, nil
}

func (r *runner) syntaxError(np *noParse) *SyntaxError {
	e := &SyntaxError{Reason: np.msg, State: np.state}
	if at := np.state.Max; at < len(r.tokens) {
		tok := r.tokens[at]
		e.Token = &tok
	}
	if r.farthest == np.state.Max {
		e.Expected = append([]string(nil), r.expected...)
	}
	return e
}
