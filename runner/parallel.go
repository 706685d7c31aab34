package runner

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/firmware-ci/fw-acceptor/types"
)

// ParallelExecutor fans run lifecycles out over a bounded worker pool. The
// build phase is strictly sequential, but runs only contend on distinct
// descriptor-named log files and can proceed in parallel.
type ParallelExecutor struct {
	runner          TestRunner
	concurrency     int
	continueOnError bool
	log             log.Logger
	collector       ResultCollector
	ui              ProgressIndicator
}

// NewParallelExecutor creates a new parallel test executor with validation.
func NewParallelExecutor(runner TestRunner, concurrency int, continueOnError bool, logger log.Logger, ui ProgressIndicator) *ParallelExecutor {
	if runner == nil {
		panic("runner cannot be nil")
	}
	if concurrency <= 0 {
		panic("concurrency must be positive")
	}

	if concurrency > 32 {
		logger.Warn("Very high concurrency requested", "concurrency", concurrency,
			"recommendation", "Consider using lower values to avoid resource exhaustion")
	}

	return &ParallelExecutor{
		runner:          runner,
		concurrency:     concurrency,
		continueOnError: continueOnError,
		log:             logger.New("component", "parallel-executor"),
		collector:       NewResultCollector(),
		ui:              ui,
	}
}

// ExecuteTests runs the provided descriptors on the worker pool and returns
// the aggregated batch result. Every dispatched descriptor produces exactly
// one outcome; with continue-on-error disabled, the first failure stops
// dispatching new runs while in-flight runs are allowed to finish.
func (pe *ParallelExecutor) ExecuteTests(ctx context.Context, runID string, descriptors []types.TestDescriptor) *BatchResult {
	start := time.Now()
	result := pe.collector.NewBatchResult(runID)

	if len(descriptors) == 0 {
		pe.log.Debug("No descriptors to execute")
		pe.collector.FinalizeResults(result)
		return result
	}

	if pe.ui != nil {
		pe.ui.StartBatch(len(descriptors))
	}

	pe.log.Info("Starting parallel test execution", "totalTests", len(descriptors), "concurrency", pe.concurrency)

	// Conservative buffering: 2x concurrency or 100, whichever is smaller.
	bufferSize := min(pe.concurrency*2, 100)
	workChan := make(chan types.TestDescriptor, bufferSize)
	resultChan := make(chan *types.RunOutcome, bufferSize)

	// stopped flips on the first failure when continue-on-error is off; the
	// dispatcher then stops feeding workers, but never interrupts them.
	var stopped atomic.Bool

	var wg sync.WaitGroup
	for i := 0; i < pe.concurrency; i++ {
		wg.Add(1)
		go pe.worker(ctx, &wg, workChan, resultChan, &stopped)
	}

	// Dispatch work to workers.
	dispatched := 0
	go func() {
		defer close(workChan)
		for _, desc := range descriptors {
			if stopped.Load() {
				pe.log.Warn("Stopping dispatch after failure", "remaining", len(descriptors)-dispatched)
				return
			}
			select {
			case workChan <- desc:
				dispatched++
			case <-ctx.Done():
				pe.log.Debug("Context cancelled while dispatching work")
				return
			}
		}
	}()

	// Close the result channel once all in-flight runs have finished.
	go func() {
		wg.Wait()
		close(resultChan)
	}()

	// Single-owner aggregation: this goroutine is the only writer of the
	// batch result, so no locks are needed around the counters.
	for outcome := range resultChan {
		pe.collector.AddOutcome(result, outcome)

		if outcome.Status == types.TestStatusPass {
			pe.log.Info("Test passed", "test", outcome.Descriptor.ID(), "duration", outcome.Duration)
		} else {
			pe.log.Error("Test failed", "test", outcome.Descriptor.ID(), "duration", outcome.Duration, "error", outcome.Error)
		}
	}

	if stopped.Load() && !pe.continueOnError {
		result.Aborted = true
	}

	result.Stats.RunTime = time.Since(start)
	pe.collector.FinalizeResults(result)

	pe.log.Info("Parallel test execution completed",
		"duration", result.Stats.RunTime,
		"status", result.Status,
		"passed", result.Stats.Passed,
		"failed", result.Stats.Failed)

	return result
}

// worker processes descriptors until the work channel closes or the context
// is cancelled.
func (pe *ParallelExecutor) worker(ctx context.Context, wg *sync.WaitGroup, workChan <-chan types.TestDescriptor, resultChan chan<- *types.RunOutcome, stopped *atomic.Bool) {
	defer wg.Done()

	for {
		select {
		case desc, ok := <-workChan:
			if !ok {
				return
			}

			if pe.ui != nil {
				pe.ui.StartTest(desc.ID())
			}

			outcome := pe.runner.RunTest(ctx, desc)

			if pe.ui != nil {
				pe.ui.UpdateTest(desc.ID(), outcome.Status)
			}

			if outcome.Status == types.TestStatusFail && !pe.continueOnError {
				stopped.Store(true)
			}

			// The result must always be delivered: the collector owns the
			// only record of this run.
			resultChan <- outcome

		case <-ctx.Done():
			pe.log.Debug("Worker received context cancellation")
			return
		}
	}
}
