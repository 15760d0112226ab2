package search

import (
	"sort"
	"unicode"

	"github.com/cristianoliveira/koyr/internal/command"
)

// DefaultLimit caps results when no limit is configured.
const DefaultLimit = 10

// typoMinRunes is the shortest query for which a dropped rune is tried.
// Shorter queries would match almost anything once a rune is removed.
const typoMinRunes = 4

// Result is a ranked command with its match annotation.
type Result struct {
	Command command.Command
	Score   int
	// Positions are ascending rune offsets into the command name.
	Positions []int
	// Typo is set when the match needed a one-edit query correction.
	Typo bool
}

// ID returns the command id.
func (r Result) ID() string { return r.Command.CommandID() }

// Spans returns the matched runes as [Start, End) ranges.
func (r Result) Spans() []Span { return Spans(r.Positions) }

// Span is a half-open range of rune offsets.
type Span struct {
	Start int
	End   int
}

// Spans collapses ascending positions into contiguous ranges.
func Spans(positions []int) []Span {
	var spans []Span
	for _, p := range positions {
		if n := len(spans); n > 0 && spans[n-1].End == p {
			spans[n-1].End++
			continue
		}
		spans = append(spans, Span{Start: p, End: p + 1})
	}
	return spans
}

// Options configures ranking.
type Options struct {
	Limit         int
	MatcherName   string
	CaseSensitive bool
	// Matcher overrides MatcherName when set.
	Matcher Matcher
}

// DefaultOptions returns the default ranking options.
func DefaultOptions() Options {
	return Options{Limit: DefaultLimit, MatcherName: MatcherFzf}
}

// Option is a function that modifies ranking options.
type Option func(*Options)

// WithLimit caps the number of results. Values below 1 select DefaultLimit.
func WithLimit(limit int) Option {
	return func(o *Options) {
		o.Limit = limit
	}
}

// WithMatcher selects a built-in matcher by name. Unknown names use fzf.
func WithMatcher(name string) Option {
	return func(o *Options) {
		o.MatcherName = name
	}
}

// WithCaseSensitive turns case sensitive matching on or off.
func WithCaseSensitive(enabled bool) Option {
	return func(o *Options) {
		o.CaseSensitive = enabled
	}
}

// WithCustomMatcher ranks with m instead of a built-in matcher.
func WithCustomMatcher(m Matcher) Option {
	return func(o *Options) {
		o.Matcher = m
	}
}

func applyOptions(opts []Option) Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.Limit < 1 {
		o.Limit = DefaultLimit
	}
	return o
}

// Engine ranks commands with fixed options. It reuses scratch memory
// between calls and must not be shared across goroutines.
type Engine struct {
	opts    Options
	matcher Matcher
}

// NewEngine creates an engine with the given options.
func NewEngine(opts ...Option) *Engine {
	o := applyOptions(opts)
	return &Engine{opts: o, matcher: newMatcher(o)}
}

// Limit returns the result cap.
func (e *Engine) Limit() int { return e.opts.Limit }

// MatcherName returns the name of the active matcher.
func (e *Engine) MatcherName() string { return e.matcher.Name() }

// Rank returns commands matching query, best first. An empty query
// returns the first Limit commands in input order without positions.
// Equal scores keep input order.
func (e *Engine) Rank(cmds []command.Command, query string) []Result {
	if len(cmds) == 0 {
		return []Result{}
	}
	if query == "" {
		n := min(e.opts.Limit, len(cmds))
		results := make([]Result, n)
		for i := 0; i < n; i++ {
			results[i] = Result{Command: cmds[i]}
		}
		return results
	}

	pattern := []rune(query)
	if !e.opts.CaseSensitive {
		for i, r := range pattern {
			pattern[i] = unicode.ToLower(r)
		}
	}
	variants := typoVariants(pattern)

	results := make([]Result, 0, len(cmds))
	for _, c := range cmds {
		if r, ok := e.match(c, pattern, variants); ok {
			results = append(results, r)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Typo != results[j].Typo {
			return !results[i].Typo
		}
		return results[i].Score > results[j].Score
	})
	if len(results) > e.opts.Limit {
		results = results[:e.opts.Limit]
	}
	return results
}

func (e *Engine) match(c command.Command, pattern []rune, variants [][]rune) (Result, bool) {
	name := c.CommandName()
	if score, pos, ok := e.matcher.Match(name, pattern); ok {
		return Result{Command: c, Score: score, Positions: pos}, true
	}
	best := Result{Command: c, Typo: true}
	found := false
	for _, v := range variants {
		score, pos, ok := e.matcher.Match(name, v)
		if !ok {
			continue
		}
		if !found || score > best.Score {
			best.Score = score
			best.Positions = pos
			found = true
		}
	}
	if found {
		best.Score /= 2
	}
	return best, found
}

// typoVariants returns the single-edit corrections of pattern: every
// adjacent transposition and, for longer patterns, every single-rune
// deletion. Duplicates are skipped so ranking stays deterministic and cheap.
func typoVariants(pattern []rune) [][]rune {
	seen := make(map[string]bool)
	var out [][]rune
	add := func(v []rune) {
		key := string(v)
		if key == string(pattern) || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, v)
	}
	for i := 0; i+1 < len(pattern); i++ {
		v := append([]rune(nil), pattern...)
		v[i], v[i+1] = v[i+1], v[i]
		add(v)
	}
	if len(pattern) >= typoMinRunes {
		for i := range pattern {
			v := make([]rune, 0, len(pattern)-1)
			v = append(v, pattern[:i]...)
			v = append(v, pattern[i+1:]...)
			add(v)
		}
	}
	return out
}

// Rank ranks cmds with a throwaway engine.
func Rank(cmds []command.Command, query string, opts ...Option) []Result {
	return NewEngine(opts...).Rank(cmds, query)
}
