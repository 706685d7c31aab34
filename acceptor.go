package acceptor

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/optimism/op-service/cliapp"

	"github.com/firmware-ci/fw-acceptor/builder"
	"github.com/firmware-ci/fw-acceptor/catalog"
	"github.com/firmware-ci/fw-acceptor/exitcodes"
	"github.com/firmware-ci/fw-acceptor/logging"
	"github.com/firmware-ci/fw-acceptor/reporting"
	"github.com/firmware-ci/fw-acceptor/runner"
	"github.com/firmware-ci/fw-acceptor/types"
)

// acceptor implements the cliapp.Lifecycle interface.
var _ cliapp.Lifecycle = &acceptor{}

// acceptor is a Firmware Acceptance Tester that builds and runs firmware
// examples against a hardware or emulation backend.
type acceptor struct {
	ctx       context.Context
	config    *Config
	version   string
	archive   *logging.Archive
	runner    runner.TestRunner
	executor  BatchExecutor
	scheduler BatchScheduler
	formatter ResultFormatter
	reporters []ResultReporter
	result    *runner.BatchResult

	shutdownCallback func(error) // Callback to signal application shutdown
}

func New(ctx context.Context, config *Config, version string, shutdownCallback func(error)) (*acceptor, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}

	config.Log.Debug("Creating acceptor with config",
		"projectDir", config.ProjectDir,
		"outputDir", config.OutputDir,
		"service", config.Service,
		"runInterval", config.RunInterval,
		"runOnce", config.RunOnce)

	archive, err := logging.NewArchive(config.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create log archive: %w", err)
	}

	b, err := builder.New(builder.Config{
		ProjectDir:      config.ProjectDir,
		BuildBinary:     config.BuildBinary,
		ContinueOnError: config.ContinueOnError,
		Log:             config.Log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create builder: %w", err)
	}

	testRunner, err := runner.NewTestRunner(runner.Config{
		Service:            config.Service,
		ProjectDir:         config.ProjectDir,
		ScenarioDir:        config.ScenarioDir,
		DevicePort:         config.DevicePort,
		Timeout:            config.Timeout,
		Archive:            archive,
		Log:                config.Log,
		OutputRealtimeLogs: config.OutputRealtimeLogs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create test runner: %w", err)
	}
	config.Log.Info("acceptor.New: created archive, builder and test runner")

	return &acceptor{
		ctx:              ctx,
		config:           config,
		version:          version,
		archive:          archive,
		runner:           testRunner,
		executor:         NewDefaultBatchExecutor(config, b, testRunner, archive, config.Log),
		scheduler:        NewDefaultBatchScheduler(config.RunInterval, config.RunOnce, config.Log),
		formatter:        NewConsoleResultFormatter(config.Log),
		reporters: []ResultReporter{
			NewMetricsReporter(config.Service),
			reporting.NewFileReporter(config.OutputDir, config.Log),
		},
		shutdownCallback: shutdownCallback,
	}, nil
}

// Start runs the acceptance batch, immediately and then periodically at the
// configured interval. Start implements the cliapp.Lifecycle interface.
func (a *acceptor) Start(ctx context.Context) error {
	// Set up panic recovery to ensure we exit with code 2 for runtime errors
	defer func() {
		if r := recover(); r != nil {
			a.config.Log.Error("Runtime error occurred", "error", r)
			os.Exit(exitcodes.RuntimeErr)
		}
	}()

	a.ctx = ctx

	if a.config.RunOnce {
		a.config.Log.Info("Starting fw-acceptor in run-once mode")
	} else {
		a.config.Log.Info("Starting fw-acceptor in continuous mode", "interval", a.config.RunInterval)
	}

	a.scheduler.RegisterCallback(a.runBatch)

	err := a.scheduler.Start(ctx)
	if err != nil {
		// A runtime error, not a test failure
		a.config.Log.Error("Runtime error running batch", "error", err)
		return cli.Exit(err.Error(), exitcodes.RuntimeErr)
	}

	if a.config.RunOnce {
		a.config.Log.Info("Batch completed, exiting (run-once mode)")

		if a.result != nil && a.result.Status == types.TestStatusFail {
			a.config.Log.Warn("Run-once batch completed with failures, returning exit code 1")
			return NewTestFailureError(a.result.String())
		}

		// Only needed in run-once mode when every test passed
		go func() {
			a.shutdownCallback(nil)
		}()
		return nil
	}

	a.config.Log.Debug("fw-acceptor started successfully")
	return nil
}

// runBatch discovers the current example set, runs one full batch and
// processes the results.
func (a *acceptor) runBatch() error {
	descriptors, err := catalog.Discover(a.config.ProjectDir, a.config.Log)
	if err != nil {
		a.config.Log.Error("Runtime error discovering examples", "error", err)
		return NewRuntimeError(err)
	}
	if len(descriptors) == 0 {
		a.config.Log.Warn("No examples discovered, nothing to run", "projectDir", a.config.ProjectDir)
	}

	runID := uuid.New().String()
	a.config.Log.Info("Running batch", "run_id", runID, "tests", len(descriptors))

	result, err := a.executor.RunBatch(a.ctx, runID, descriptors)
	if err != nil {
		// This is a runtime error (not a test failure)
		a.config.Log.Error("Runtime error running batch", "error", err)
		return NewRuntimeError(err)
	}
	a.result = result

	a.formatter.Format(result)
	fmt.Println(result.String())
	for _, reporter := range a.reporters {
		reporter.Report(result)
	}

	a.config.Log.Info("Batch completed", "run_id", result.RunID, "status", result.Status)
	return nil
}

// Stop stops the fw-acceptor service.
// Stop implements the cliapp.Lifecycle interface.
func (a *acceptor) Stop(ctx context.Context) error {
	a.config.Log.Info("Stopping fw-acceptor")

	if a.scheduler.Stopped() {
		a.config.Log.Debug("Service already stopped, nothing to do")
		return nil
	}

	if err := a.scheduler.Stop(); err != nil {
		return err
	}

	a.config.Log.Info("fw-acceptor stopped successfully")
	return nil
}

// Stopped returns true if the fw-acceptor service is stopped.
// Stopped implements the cliapp.Lifecycle interface.
func (a *acceptor) Stopped() bool {
	return a.scheduler.Stopped()
}

// WaitForShutdown blocks until all goroutines have terminated.
// This is useful in tests to ensure complete cleanup before moving to the next test.
func (a *acceptor) WaitForShutdown(ctx context.Context) error {
	return a.scheduler.WaitForShutdown(ctx)
}
