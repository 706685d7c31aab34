package runner

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firmware-ci/fw-acceptor/types"
)

func TestCollectorCountsOutcomes(t *testing.T) {
	c := NewResultCollector()
	result := c.NewBatchResult("run-1")

	c.AddOutcome(result, &types.RunOutcome{
		Descriptor: types.TestDescriptor{Name: "a", Mode: types.BuildModeDebug},
		Status:     types.TestStatusPass,
	})
	c.AddOutcome(result, &types.RunOutcome{
		Descriptor: types.TestDescriptor{Name: "a", Mode: types.BuildModeRelease},
		Status:     types.TestStatusFail,
		Error:      errors.New("boom"),
	})
	c.FinalizeResults(result)

	assert.Equal(t, 2, result.Stats.Total)
	assert.Equal(t, 1, result.Stats.Passed)
	assert.Equal(t, 1, result.Stats.Failed)
	assert.Equal(t, types.TestStatusFail, result.Status)
}

func TestCollectorAllPassing(t *testing.T) {
	c := NewResultCollector()
	result := c.NewBatchResult("run-2")

	c.AddOutcome(result, &types.RunOutcome{
		Descriptor: types.TestDescriptor{Name: "a", Mode: types.BuildModeDebug},
		Status:     types.TestStatusPass,
	})
	c.FinalizeResults(result)

	assert.Equal(t, types.TestStatusPass, result.Status)
}

func TestCollectorPanicsOnNilArguments(t *testing.T) {
	c := NewResultCollector()
	result := c.NewBatchResult("run-3")

	assert.Panics(t, func() { c.AddOutcome(nil, &types.RunOutcome{}) })
	assert.Panics(t, func() { c.AddOutcome(result, nil) })
}

func TestSortedOutcomesStableOrder(t *testing.T) {
	c := NewResultCollector()
	result := c.NewBatchResult("run-4")

	for _, name := range []string{"zeta", "alpha", "mid"} {
		c.AddOutcome(result, &types.RunOutcome{
			Descriptor: types.TestDescriptor{Name: name, Mode: types.BuildModeDebug},
			Status:     types.TestStatusPass,
		})
	}

	outcomes := result.SortedOutcomes()
	require.Len(t, outcomes, 3)
	assert.Equal(t, "alpha", outcomes[0].Descriptor.Name)
	assert.Equal(t, "mid", outcomes[1].Descriptor.Name)
	assert.Equal(t, "zeta", outcomes[2].Descriptor.Name)
}

func TestBatchResultString(t *testing.T) {
	result := &BatchResult{
		RunID:  "run-5",
		Status: types.TestStatusFail,
		Stats: types.BatchStats{
			Total:     3,
			Passed:    2,
			Failed:    1,
			BuildTime: 90 * time.Second,
			RunTime:   30 * time.Second,
		},
	}

	s := result.String()
	assert.Contains(t, s, "Test run summary:")
	assert.Contains(t, s, "Passed tests: 2")
	assert.Contains(t, s, "Failed tests: 1")
	assert.Contains(t, s, "1m30s")
}
