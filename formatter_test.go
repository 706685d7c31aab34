package acceptor

import (
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"

	"github.com/firmware-ci/fw-acceptor/runner"
	"github.com/firmware-ci/fw-acceptor/types"
)

func sampleBatchResult(status types.TestStatus) *runner.BatchResult {
	result := &runner.BatchResult{
		RunID:  "run-1",
		Status: status,
		Stats: types.BatchStats{
			Total:     2,
			Passed:    1,
			Failed:    1,
			BuildTime: 30 * time.Second,
			RunTime:   10 * time.Second,
		},
		Outcomes: map[string]*types.RunOutcome{
			"blinky-debug": {
				Descriptor: types.TestDescriptor{Name: "blinky", Mode: types.BuildModeDebug},
				Status:     types.TestStatusPass,
				Duration:   2 * time.Second,
				LogPath:    "/out/passed/blinky-debug.txt",
			},
			"blinky-release": {
				Descriptor: types.TestDescriptor{Name: "blinky", Mode: types.BuildModeRelease},
				Status:     types.TestStatusFail,
				Duration:   5 * time.Second,
				Error:      errors.New("backend exited with failure: exit status 3"),
				LogPath:    "/out/failed/blinky-release.txt",
			},
		},
	}
	return result
}

// The table rendering is a visual artifact; these tests only pin down that
// formatting any shape of result does not panic.
func TestConsoleResultFormatterFormat(t *testing.T) {
	formatter := NewConsoleResultFormatter(log.New())

	assert.NotPanics(t, func() {
		formatter.Format(sampleBatchResult(types.TestStatusFail))
	})
}

func TestConsoleResultFormatterEmptyResult(t *testing.T) {
	formatter := NewConsoleResultFormatter(log.New())

	result := &runner.BatchResult{
		RunID:    "empty-run",
		Status:   types.TestStatusPass,
		Outcomes: map[string]*types.RunOutcome{},
	}
	assert.NotPanics(t, func() {
		formatter.Format(result)
	})
}

func TestConsoleResultFormatterAbortedResult(t *testing.T) {
	formatter := NewConsoleResultFormatter(log.New())

	result := sampleBatchResult(types.TestStatusFail)
	result.Aborted = true
	assert.NotPanics(t, func() {
		formatter.Format(result)
	})
}
