package acceptor

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/log"

	"github.com/firmware-ci/fw-acceptor/builder"
	"github.com/firmware-ci/fw-acceptor/logging"
	"github.com/firmware-ci/fw-acceptor/runner"
	"github.com/firmware-ci/fw-acceptor/types"
)

// BatchExecutor is responsible for driving one batch: the sequential build
// phase followed by the parallel run phase.
type BatchExecutor interface {
	RunBatch(ctx context.Context, runID string, descriptors []types.TestDescriptor) (*runner.BatchResult, error)
}

// DefaultBatchExecutor implements the BatchExecutor interface.
type DefaultBatchExecutor struct {
	config  *Config
	builder *builder.Builder
	runner  runner.TestRunner
	archive *logging.Archive
	logger  log.Logger
}

// NewDefaultBatchExecutor creates a new DefaultBatchExecutor.
func NewDefaultBatchExecutor(config *Config, b *builder.Builder, r runner.TestRunner, archive *logging.Archive, logger log.Logger) *DefaultBatchExecutor {
	return &DefaultBatchExecutor{
		config:  config,
		builder: b,
		runner:  r,
		archive: archive,
		logger:  logger,
	}
}

// RunBatch builds every descriptor in sequence, then fans the survivors out
// over the worker pool. A build failure with continue-on-error disabled is
// fatal and aborts before any run begins; otherwise failed builds become
// failed outcomes and the rest of the batch proceeds.
func (e *DefaultBatchExecutor) RunBatch(ctx context.Context, runID string, descriptors []types.TestDescriptor) (*runner.BatchResult, error) {
	// Malformed scenario files abort here, before anything is built or run.
	if err := e.runner.LoadScenarios(descriptors); err != nil {
		return nil, fmt.Errorf("loading scenarios: %w", err)
	}

	runnable := descriptors
	collector := runner.NewResultCollector()
	var buildFailures []*types.RunOutcome

	if e.config.SkipBuild {
		e.logger.Info("Skipping build phase", "tests", len(descriptors))
	} else {
		buildResult, err := e.builder.BuildAll(ctx, descriptors)
		if err != nil {
			return nil, err
		}

		if len(buildResult.Failed) > 0 {
			runnable = make([]types.TestDescriptor, 0, len(descriptors))
			for _, desc := range descriptors {
				buildErr, failed := buildResult.Failed[desc]
				if !failed {
					runnable = append(runnable, desc)
					continue
				}
				buildFailures = append(buildFailures, e.buildFailureOutcome(desc, buildErr))
			}
		}

		defer func() {
			// Build time is accounted even when the run phase aborts early.
			e.logger.Info("Build phase complete", "duration", buildResult.Duration, "failed", len(buildResult.Failed))
		}()

		result := e.runPhase(ctx, runID, runnable, collector, buildFailures)
		result.Stats.BuildTime = buildResult.Duration
		return result, nil
	}

	return e.runPhase(ctx, runID, runnable, collector, buildFailures), nil
}

// runPhase executes the parallel run phase and merges in any outcomes
// recorded for descriptors that never built.
func (e *DefaultBatchExecutor) runPhase(ctx context.Context, runID string, runnable []types.TestDescriptor, collector runner.ResultCollector, buildFailures []*types.RunOutcome) *runner.BatchResult {
	ui := runner.NewNoOpProgressIndicator()
	if e.config.ShowProgress {
		ui = runner.NewConsoleProgressIndicator(e.logger, e.config.ProgressInterval)
	}
	defer ui.Stop()

	executor := runner.NewParallelExecutor(e.runner, e.config.Concurrency, e.config.ContinueOnError, e.logger, ui)
	result := executor.ExecuteTests(ctx, runID, runnable)

	for _, outcome := range buildFailures {
		collector.AddOutcome(result, outcome)
	}
	collector.FinalizeResults(result)

	return result
}

// buildFailureOutcome records a descriptor that failed to build as a failed
// outcome, with the build error archived as its log.
func (e *DefaultBatchExecutor) buildFailureOutcome(desc types.TestDescriptor, buildErr error) *types.RunOutcome {
	cause := fmt.Errorf("build failed: %w", buildErr)
	if err := e.archive.WriteStagingNote(desc, cause.Error()); err != nil {
		e.logger.Error("Failed to write build failure note", "test", desc.ID(), "error", err)
	}
	logPath, err := e.archive.Finalize(desc, false)
	if err != nil {
		e.logger.Error("Failed to archive build failure note", "test", desc.ID(), "error", err)
	}
	return &types.RunOutcome{
		Descriptor: desc,
		Status:     types.TestStatusFail,
		Error:      cause,
		LogPath:    logPath,
	}
}
