// Package scenario loads serial-output scenarios and matches them against a
// live line stream. A scenario is an ordered list of substrings that must
// appear, in order, on the serial output of a running example.
package scenario

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Step is a single expected serial event.
type Step struct {
	WaitSerial string `yaml:"wait-serial"`
}

// Scenario is an ordered sequence of expected serial events. Read-only after
// load.
type Scenario struct {
	Steps []Step `yaml:"steps"`
}

// Load reads a scenario file. A missing file is not an error: it returns a
// nil scenario, meaning pass/fail is decided by process exit status alone.
// A malformed file is a configuration error and aborts before any run.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read scenario %q: %w", path, err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %q: %w", path, err)
	}

	for i, step := range s.Steps {
		if step.WaitSerial == "" {
			return nil, fmt.Errorf("scenario %q: step %d has no wait-serial text", path, i)
		}
	}

	return &s, nil
}
