package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioWith(steps ...string) *Scenario {
	s := &Scenario{}
	for _, step := range steps {
		s.Steps = append(s.Steps, Step{WaitSerial: step})
	}
	return s
}

func isDone(m *Matcher) bool {
	select {
	case <-m.Done():
		return true
	default:
		return false
	}
}

func TestMatcherOrderedSteps(t *testing.T) {
	m := NewMatcher(scenarioWith("BOOT", "READY"))
	require.True(t, m.Gating())
	assert.False(t, m.Satisfied())

	assert.False(t, m.Observe("device BOOT complete"))
	assert.False(t, m.Satisfied())
	assert.False(t, isDone(m))

	assert.True(t, m.Observe("system READY"))
	assert.True(t, m.Satisfied())
	assert.True(t, isDone(m))
}

func TestMatcherOutOfOrderNeverSatisfies(t *testing.T) {
	m := NewMatcher(scenarioWith("BOOT", "READY"))

	// READY before BOOT must not match: the first step is still pending.
	assert.False(t, m.Observe("system READY"))
	assert.False(t, m.Observe("late output"))
	assert.False(t, m.Satisfied())

	matched, total := m.Progress()
	assert.Equal(t, 0, matched)
	assert.Equal(t, 2, total)
}

func TestMatcherOneLineMatchesAtMostOneStep(t *testing.T) {
	m := NewMatcher(scenarioWith("init", "init"))

	// A single line containing the text advances exactly one step even
	// though the next step expects the same text.
	assert.False(t, m.Observe("init"))
	matched, _ := m.Progress()
	assert.Equal(t, 1, matched)
	assert.False(t, m.Satisfied())

	assert.True(t, m.Observe("init"))
	assert.True(t, m.Satisfied())
}

func TestMatcherSubstringMatch(t *testing.T) {
	m := NewMatcher(scenarioWith("temperature: 25"))

	assert.False(t, m.Observe("temperature: 24"))
	assert.True(t, m.Observe("[sensor] temperature: 25C"))
	assert.True(t, m.Satisfied())
}

func TestMatcherStripsANSISequences(t *testing.T) {
	m := NewMatcher(scenarioWith("READY"))

	assert.True(t, m.Observe("\x1b[32mREADY\x1b[0m"))
	assert.True(t, m.Satisfied())
}

func TestMatcherNilScenarioIsNotGating(t *testing.T) {
	m := NewMatcher(nil)

	assert.False(t, m.Gating())
	assert.True(t, m.Satisfied())
	// Non-gating matchers are born terminal; the run lifecycle must not
	// race on Done() for them.
	assert.True(t, isDone(m))
}

func TestMatcherEmptyScenarioIsNotGating(t *testing.T) {
	m := NewMatcher(&Scenario{})

	assert.False(t, m.Gating())
	assert.True(t, m.Satisfied())
	assert.True(t, isDone(m))
}

func TestMatcherObserveAfterTerminal(t *testing.T) {
	m := NewMatcher(scenarioWith("done"))
	require.True(t, m.Observe("done"))

	// Further output must not panic or regress the terminal state.
	assert.True(t, m.Observe("trailing output"))
	assert.True(t, m.Satisfied())
}
