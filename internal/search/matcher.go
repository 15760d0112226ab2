// Package search ranks commands against a query.
//
// Matching is pluggable through the Matcher interface. Two strategies ship
// with the package: the fzf V2 algorithm (default) and sahilm/fuzzy's
// subsequence matcher. Both are wrapped by the Engine's single-edit typo
// fallback.
package search

import (
	"sort"
	"sync"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
	"github.com/sahilm/fuzzy"
)

// Matcher scores one candidate name against a pattern.
type Matcher interface {
	// Match reports whether pattern matches name, with a score (higher is
	// better) and the ascending rune offsets of the matched characters.
	// The pattern is already lowercased unless matching is case sensitive.
	Match(name string, pattern []rune) (score int, positions []int, ok bool)

	// Name returns the matcher name for identification and debugging.
	Name() string
}

// Matcher names accepted by WithMatcher.
const (
	MatcherFzf         = "fzf"
	MatcherSubsequence = "subsequence"
)

// Matchers lists the built-in matcher names.
func Matchers() []string {
	return []string{MatcherFzf, MatcherSubsequence}
}

func newMatcher(opts Options) Matcher {
	if opts.Matcher != nil {
		return opts.Matcher
	}
	switch opts.MatcherName {
	case MatcherSubsequence:
		return &subsequenceMatcher{caseSensitive: opts.CaseSensitive}
	default:
		return newFzfMatcher(opts.CaseSensitive)
	}
}

var fzfInit sync.Once

// fzfMatcher wraps fzf's FuzzyMatchV2. The slab makes it unsafe for
// concurrent use.
type fzfMatcher struct {
	caseSensitive bool
	slab          *util.Slab
}

func newFzfMatcher(caseSensitive bool) *fzfMatcher {
	fzfInit.Do(func() { algo.Init("default") })
	return &fzfMatcher{
		caseSensitive: caseSensitive,
		slab:          util.MakeSlab(100*1024, 2048),
	}
}

func (m *fzfMatcher) Name() string { return MatcherFzf }

func (m *fzfMatcher) Match(name string, pattern []rune) (int, []int, bool) {
	chars := util.ToChars([]byte(name))
	res, pos := algo.FuzzyMatchV2(m.caseSensitive, false, true, &chars, pattern, true, m.slab)
	if res.Start < 0 {
		return 0, nil, false
	}
	var positions []int
	if pos != nil {
		positions = append(positions, (*pos)...)
		sort.Ints(positions)
	} else {
		for i := res.Start; i < res.End; i++ {
			positions = append(positions, i)
		}
	}
	return res.Score, positions, true
}

// subsequenceMatcher wraps sahilm/fuzzy. sahilm always folds case, so case
// sensitive matching re-checks the matched runes.
type subsequenceMatcher struct {
	caseSensitive bool
}

func (m *subsequenceMatcher) Name() string { return MatcherSubsequence }

func (m *subsequenceMatcher) Match(name string, pattern []rune) (int, []int, bool) {
	matches := fuzzy.Find(string(pattern), []string{name})
	if len(matches) == 0 {
		return 0, nil, false
	}
	match := matches[0]
	positions := runeOffsets(name, match.MatchedIndexes)
	if m.caseSensitive {
		nameRunes := []rune(name)
		for i, p := range positions {
			if i >= len(pattern) || nameRunes[p] != pattern[i] {
				return 0, nil, false
			}
		}
	}
	return match.Score, positions, true
}

// runeOffsets converts ascending byte offsets in s to rune offsets.
func runeOffsets(s string, byteOffsets []int) []int {
	if len(byteOffsets) == 0 {
		return nil
	}
	out := make([]int, 0, len(byteOffsets))
	next := 0
	runeIdx := 0
	for byteIdx := range s {
		if next < len(byteOffsets) && byteOffsets[next] == byteIdx {
			out = append(out, runeIdx)
			next++
		}
		runeIdx++
	}
	return out
}
