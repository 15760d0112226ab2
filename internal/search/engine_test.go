package search

import (
	"fmt"
	"testing"

	"github.com/cristianoliveira/koyr/internal/command"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sample() []command.Command {
	return []command.Command{
		command.New("a", "Alpha", nil, nil),
		command.New("b", "Beta", nil, nil),
		command.New("c", "Gamma", nil, nil),
	}
}

func many(n int) []command.Command {
	cmds := make([]command.Command, n)
	for i := range cmds {
		cmds[i] = command.New(fmt.Sprintf("id%d", i), fmt.Sprintf("Command %d", i), nil, nil)
	}
	return cmds
}

func ids(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.ID()
	}
	return out
}

func TestRankEmptyQueryReturnsPrefix(t *testing.T) {
	results := Rank(sample(), "")

	assert.Equal(t, []string{"a", "b", "c"}, ids(results))
	for _, r := range results {
		assert.Nil(t, r.Positions)
		assert.Zero(t, r.Score)
	}
}

func TestRankEmptyQueryHonoursLimit(t *testing.T) {
	cmds := many(25)

	results := Rank(cmds, "")
	require.Len(t, results, DefaultLimit)
	for i, r := range results {
		assert.Equal(t, cmds[i].CommandID(), r.ID())
	}

	assert.Len(t, Rank(cmds, "", WithLimit(3)), 3)
	assert.Len(t, Rank(cmds, "", WithLimit(0)), DefaultLimit)
}

func TestRankEmptyCommands(t *testing.T) {
	for _, q := range []string{"", "a", "anything"} {
		results := Rank(nil, q)
		assert.NotNil(t, results)
		assert.Empty(t, results)
	}
}

func TestRankMatchesWithSpans(t *testing.T) {
	for _, matcher := range Matchers() {
		t.Run(matcher, func(t *testing.T) {
			results := Rank(sample(), "Gam", WithMatcher(matcher))

			require.Equal(t, []string{"c"}, ids(results))
			assert.Equal(t, []int{0, 1, 2}, results[0].Positions)
			assert.Equal(t, []Span{{Start: 0, End: 3}}, results[0].Spans())
			assert.False(t, results[0].Typo)
		})
	}
}

func TestRankNoMatch(t *testing.T) {
	for _, matcher := range Matchers() {
		t.Run(matcher, func(t *testing.T) {
			results := Rank(sample(), "zzz", WithMatcher(matcher))
			assert.NotNil(t, results)
			assert.Empty(t, results)
		})
	}
}

func TestRankNeverExceedsLimit(t *testing.T) {
	cmds := many(40)
	for _, q := range []string{"", "c", "cmd", "Command 1", "zzz"} {
		assert.LessOrEqual(t, len(Rank(cmds, q, WithLimit(7))), 7, q)
	}
}

func TestRankIsIdempotent(t *testing.T) {
	cmds := append(sample(), many(15)...)
	engine := NewEngine()
	for _, q := range []string{"", "a", "mma", "cmd 1", "Gmama"} {
		assert.Equal(t, engine.Rank(cmds, q), engine.Rank(cmds, q), q)
		assert.Equal(t, Rank(cmds, q), engine.Rank(cmds, q), q)
	}
}

func TestRankCaseSensitivity(t *testing.T) {
	cmds := []command.Command{
		command.New("lower", "gamma ray", nil, nil),
		command.New("upper", "Gamma", nil, nil),
	}

	assert.ElementsMatch(t, []string{"lower", "upper"}, ids(Rank(cmds, "GAM")))

	for _, matcher := range Matchers() {
		t.Run(matcher, func(t *testing.T) {
			results := Rank(cmds, "Gam", WithCaseSensitive(true), WithMatcher(matcher))
			assert.Equal(t, []string{"upper"}, ids(results))
		})
	}
}

func TestRankTypoTolerance(t *testing.T) {
	cmds := []command.Command{
		command.New("open", "Open file", nil, nil),
		command.New("save", "Save all", nil, nil),
	}

	t.Run("adjacent transposition", func(t *testing.T) {
		results := Rank(cmds, "oepn")
		require.Equal(t, []string{"open"}, ids(results))
		assert.True(t, results[0].Typo)
		assert.NotEmpty(t, results[0].Positions)
	})

	t.Run("extra rune", func(t *testing.T) {
		results := Rank(cmds, "savxe")
		require.Equal(t, []string{"save"}, ids(results))
		assert.True(t, results[0].Typo)
	})

	t.Run("short query gets no deletion", func(t *testing.T) {
		assert.Empty(t, Rank(cmds, "sxv"))
	})
}

func TestRankTypoMatchesSortAfterExact(t *testing.T) {
	cmds := []command.Command{
		command.New("typo", "Oepn", nil, nil),
		command.New("exact", "Open", nil, nil),
	}

	results := Rank(cmds, "oepn")

	require.Len(t, results, 2)
	assert.Equal(t, "typo", results[0].ID())
	assert.False(t, results[0].Typo)

	results = Rank(cmds, "open")
	assert.Equal(t, []string{"exact", "typo"}, ids(results))
	assert.True(t, results[1].Typo)
}

func TestRankStableOnTies(t *testing.T) {
	m := &MockMatcher{}
	m.On("Name").Return("mock")
	m.On("Match", "first", "x").Return(5, []int{0}, true)
	m.On("Match", "second", "x").Return(9, []int{0}, true)
	m.On("Match", "third", "x").Return(5, []int{0}, true)
	m.On("Match", "fourth", "x").Return(0, nil, false)
	cmds := []command.Command{
		command.New("1", "first", nil, nil),
		command.New("2", "second", nil, nil),
		command.New("3", "third", nil, nil),
		command.New("4", "fourth", nil, nil),
	}

	engine := NewEngine(WithCustomMatcher(m))
	results := engine.Rank(cmds, "x")

	assert.Equal(t, []string{"2", "1", "3"}, ids(results))
	assert.Equal(t, "mock", engine.MatcherName())
	m.AssertExpectations(t)
}

func TestRankLowercasesPatternForMatcher(t *testing.T) {
	m := &MockMatcher{}
	m.On("Match", "Name", "ab").Return(1, []int{0, 1}, true).Once()

	results := NewEngine(WithCustomMatcher(m)).Rank([]command.Command{command.New("n", "Name", nil, nil)}, "AB")

	require.Len(t, results, 1)
	m.AssertExpectations(t)
}

func TestWithMatcherUnknownFallsBack(t *testing.T) {
	assert.Equal(t, MatcherFzf, NewEngine(WithMatcher("regex")).MatcherName())
	assert.Equal(t, MatcherSubsequence, NewEngine(WithMatcher(MatcherSubsequence)).MatcherName())
}

func TestSpans(t *testing.T) {
	tests := []struct {
		name      string
		positions []int
		want      []Span
	}{
		{"empty", nil, nil},
		{"single", []int{4}, []Span{{4, 5}}},
		{"contiguous", []int{0, 1, 2}, []Span{{0, 3}}},
		{"gaps", []int{0, 2, 3, 7}, []Span{{0, 1}, {2, 4}, {7, 8}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Spans(tt.positions))
		})
	}
}

func TestRuneOffsets(t *testing.T) {
	// "héllo": h=0, é=1..2, l=3, l=4, o=5 in bytes.
	assert.Equal(t, []int{0, 2, 4}, runeOffsets("héllo", []int{0, 3, 5}))
	assert.Nil(t, runeOffsets("abc", nil))
}

func TestTypoVariants(t *testing.T) {
	assert.ElementsMatch(t, []string{"ba"}, variantStrings(typoVariants([]rune("ab"))))
	assert.Empty(t, typoVariants([]rune("aa")))
	assert.ElementsMatch(t,
		[]string{"bacd", "acbd", "abdc", "bcd", "acd", "abd", "abc"},
		variantStrings(typoVariants([]rune("abcd"))))
}

func variantStrings(vs [][]rune) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = string(v)
	}
	return out
}

func TestMockMatcherFuncReturn(t *testing.T) {
	m := &MockMatcher{}
	m.On("Match", mock.Anything, mock.Anything).Return(func(name string, _ []rune) int { return len(name) }, nil, true)

	score, _, ok := m.Match("four", []rune("x"))
	assert.True(t, ok)
	assert.Equal(t, 4, score)
}
