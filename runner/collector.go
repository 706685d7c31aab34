package runner

import (
	"fmt"
	"sort"
	"time"

	"github.com/firmware-ci/fw-acceptor/types"
)

var _ ResultCollector = (*resultCollector)(nil)

// BatchResult captures the complete result of one batch run. It is owned by
// the single collecting goroutine while outcomes stream in; workers never
// touch it directly.
type BatchResult struct {
	RunID    string
	Outcomes map[string]*types.RunOutcome // keyed by descriptor ID
	Status   types.TestStatus
	Stats    types.BatchStats

	// Aborted is set when a failure stopped the batch from dispatching the
	// remaining descriptors (continue-on-error disabled).
	Aborted bool
}

// SortedOutcomes returns the outcomes ordered by descriptor ID for stable
// display.
func (r *BatchResult) SortedOutcomes() []*types.RunOutcome {
	keys := make([]string, 0, len(r.Outcomes))
	for k := range r.Outcomes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]*types.RunOutcome, 0, len(keys))
	for _, k := range keys {
		out = append(out, r.Outcomes[k])
	}
	return out
}

// String renders the batch summary block printed at the end of every run,
// even when the batch stopped early.
func (r *BatchResult) String() string {
	return fmt.Sprintf(
		"Test run summary:\n"+
			"Total build time: %v\n"+
			"Total test time: %v\n"+
			"Passed tests: %d\n"+
			"Failed tests: %d",
		r.Stats.BuildTime.Round(time.Millisecond),
		r.Stats.RunTime.Round(time.Millisecond),
		r.Stats.Passed,
		r.Stats.Failed,
	)
}

// ResultCollector aggregates run outcomes. All mutation goes through the
// single goroutine draining the result channel; the collector itself holds
// no shared mutable state.
type ResultCollector interface {
	// NewBatchResult initializes an empty batch result.
	NewBatchResult(runID string) *BatchResult

	// AddOutcome records one outcome and updates the counters.
	AddOutcome(result *BatchResult, outcome *types.RunOutcome)

	// FinalizeResults computes the overall batch status.
	FinalizeResults(result *BatchResult)
}

// resultCollector implements ResultCollector.
type resultCollector struct{}

// NewResultCollector creates a new result collector.
func NewResultCollector() ResultCollector {
	return &resultCollector{}
}

func (c *resultCollector) NewBatchResult(runID string) *BatchResult {
	return &BatchResult{
		RunID:    runID,
		Outcomes: make(map[string]*types.RunOutcome),
		Status:   types.TestStatusPass,
	}
}

func (c *resultCollector) AddOutcome(result *BatchResult, outcome *types.RunOutcome) {
	if result == nil {
		panic("result cannot be nil")
	}
	if outcome == nil {
		panic("outcome cannot be nil")
	}

	result.Outcomes[outcome.Descriptor.ID()] = outcome
	result.Stats.Total++
	switch outcome.Status {
	case types.TestStatusPass:
		result.Stats.Passed++
	default:
		result.Stats.Failed++
	}
}

func (c *resultCollector) FinalizeResults(result *BatchResult) {
	if result.Stats.Failed > 0 {
		result.Status = types.TestStatusFail
	} else {
		result.Status = types.TestStatusPass
	}
}
