package scenario

import (
	"strings"
	"sync"

	"github.com/acarl005/stripansi"
)

// Matcher is a state machine over a scenario's ordered steps. The state is
// the index of the next unmatched step; observing a line that contains the
// current step's text advances it by one. A line can satisfy at most one
// step, steps are never skipped, and a matched step is never un-matched.
//
// Observe is called from the single output-relay goroutine of a run;
// Satisfied and Done may be read from the run lifecycle concurrently.
type Matcher struct {
	mu    sync.Mutex
	steps []Step
	next  int
	done  chan struct{}
}

// NewMatcher builds a matcher for the given scenario. A nil or empty
// scenario yields a vacuously satisfied matcher that applies no gating.
func NewMatcher(s *Scenario) *Matcher {
	m := &Matcher{done: make(chan struct{})}
	if s != nil {
		m.steps = s.Steps
	}
	if len(m.steps) == 0 {
		close(m.done)
	}
	return m
}

// Gating reports whether the matcher carries any steps. A non-gating matcher
// defers the pass/fail decision entirely to the process exit status.
func (m *Matcher) Gating() bool {
	return len(m.steps) > 0
}

// Observe feeds one line of serial output to the matcher and reports whether
// the terminal state was reached. ANSI escape sequences are stripped before
// matching, since flasher and simulator output is typically colored.
func (m *Matcher) Observe(line string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.next >= len(m.steps) {
		return len(m.steps) > 0
	}

	if strings.Contains(stripansi.Strip(line), m.steps[m.next].WaitSerial) {
		m.next++
		if m.next == len(m.steps) {
			close(m.done)
			return true
		}
	}
	return false
}

// Satisfied reports whether every step has been matched.
func (m *Matcher) Satisfied() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.next == len(m.steps)
}

// Progress returns the number of matched steps and the total step count.
func (m *Matcher) Progress() (matched, total int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.next, len(m.steps)
}

// Done returns a channel that is closed once the terminal state is reached.
// For a gating matcher the run lifecycle races this channel against process
// exit and the timeout.
func (m *Matcher) Done() <-chan struct{} {
	return m.done
}
