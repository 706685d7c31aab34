package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/acarl005/stripansi"
	"github.com/ethereum/go-ethereum/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/firmware-ci/fw-acceptor/backend"
	"github.com/firmware-ci/fw-acceptor/logging"
	"github.com/firmware-ci/fw-acceptor/metrics"
	"github.com/firmware-ci/fw-acceptor/scenario"
	"github.com/firmware-ci/fw-acceptor/types"
)

// childTimeoutGrace is added to the parent-side timeout when the backend
// enforces its own timeout flag, so the child gets a chance to trigger its
// timeout before the parent kills it.
const childTimeoutGrace = 200 * time.Millisecond

// waitDelay bounds how long Wait blocks on output pipes after the process
// has been killed.
const waitDelay = 5 * time.Second

// TestRunner defines the interface for executing one test descriptor.
type TestRunner interface {
	// RunTest executes a single descriptor and always returns exactly one
	// outcome: spawn failures and timeouts are failed outcomes, not errors.
	RunTest(ctx context.Context, desc types.TestDescriptor) *types.RunOutcome

	// LoadScenarios preloads and validates the scenario files for the given
	// descriptors. A malformed scenario is a configuration error and must
	// abort the batch before any run starts.
	LoadScenarios(descriptors []types.TestDescriptor) error
}

// Config holds configuration for creating a new runner.
type Config struct {
	Service     types.Service
	ProjectDir  string // Working directory the backends run in
	ScenarioDir string // Directory holding per-mode scenario files
	DevicePort  string // Serial device for the flash backend
	Timeout     time.Duration
	Archive     *logging.Archive
	Log         log.Logger

	// OutputRealtimeLogs raises forwarded serial lines from debug to info.
	OutputRealtimeLogs bool
}

// runner struct implements the TestRunner interface.
type runner struct {
	service     types.Service
	projectDir  string
	scenarioDir string
	devicePort  string
	timeout     time.Duration
	archive     *logging.Archive
	log         log.Logger
	realtime    bool
	tracer      trace.Tracer

	mu        sync.RWMutex
	scenarios map[string]*scenario.Scenario // keyed by descriptor ID, nil entries mean "no scenario"
}

// NewTestRunner creates a new test runner instance.
func NewTestRunner(cfg Config) (TestRunner, error) {
	if cfg.ProjectDir == "" {
		return nil, fmt.Errorf("project directory is required")
	}
	if cfg.Archive == nil {
		return nil, fmt.Errorf("log archive is required")
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}
	if _, err := types.ParseService(string(cfg.Service)); err != nil {
		return nil, err
	}

	return &runner{
		service:     cfg.Service,
		projectDir:  cfg.ProjectDir,
		scenarioDir: cfg.ScenarioDir,
		devicePort:  cfg.DevicePort,
		timeout:     cfg.Timeout,
		archive:     cfg.Archive,
		log:         cfg.Log,
		realtime:    cfg.OutputRealtimeLogs,
		tracer:      otel.Tracer("test runner"),
		scenarios:   make(map[string]*scenario.Scenario),
	}, nil
}

// LoadScenarios implements the TestRunner interface.
func (r *runner) LoadScenarios(descriptors []types.TestDescriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, desc := range descriptors {
		path := backend.ScenarioPath(r.scenarioDir, desc)
		sc, err := scenario.Load(path)
		if err != nil {
			return err
		}
		if sc == nil {
			r.log.Debug("No scenario for test, gating on exit status", "test", desc.ID())
		}
		r.scenarios[desc.ID()] = sc
	}
	return nil
}

func (r *runner) scenarioFor(desc types.TestDescriptor) *scenario.Scenario {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.scenarios[desc.ID()]
}

// RunTest implements the TestRunner interface. It spawns the backend,
// relays its output through the scenario matcher and the staging log, and
// races process exit against scenario success and the timeout. The outcome
// is not reported until the process is confirmed terminated and the serial
// log is archived.
func (r *runner) RunTest(ctx context.Context, desc types.TestDescriptor) *types.RunOutcome {
	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("run %s", desc.ID()))
	defer span.End()

	start := time.Now()
	outcome := &types.RunOutcome{
		Descriptor: desc,
		Status:     types.TestStatusFail,
	}
	defer func() {
		outcome.Duration = time.Since(start)
		metrics.RecordRun(string(r.service), desc.ID(), outcome.Status, outcome.Duration)
	}()

	spec, err := backend.Command(r.service, desc, backend.Paths{
		ProjectDir:  r.projectDir,
		ScenarioDir: r.scenarioDir,
		DevicePort:  r.devicePort,
		StagingLog:  r.archive.StagingPath(desc),
	}, r.timeout)
	if err != nil {
		outcome.Error = err
		outcome.LogPath = r.archiveFailureNote(desc, err)
		return outcome
	}

	var matcher *scenario.Matcher
	if spec.SuppliesScenario {
		// The backend enforces the scenario itself; the core only consumes
		// its exit status.
		matcher = scenario.NewMatcher(nil)
	} else {
		matcher = scenario.NewMatcher(r.scenarioFor(desc))
	}

	r.log.Info("Running test", "test", desc.ID(), "service", r.service)
	r.log.Debug("Run command", "dir", r.projectDir, "command", spec.String(), "timeout", r.timeout)

	passed, runErr, timedOut := r.execute(ctx, desc, spec, matcher)
	outcome.Error = runErr
	outcome.TimedOut = timedOut
	outcome.ScenarioOK = matcher.Gating() && matcher.Satisfied()
	if passed {
		outcome.Status = types.TestStatusPass
	}

	logPath, err := r.archive.Finalize(desc, passed)
	if err != nil {
		r.log.Error("Failed to archive serial log", "test", desc.ID(), "error", err)
		if outcome.Error == nil {
			outcome.Error = err
			outcome.Status = types.TestStatusFail
		}
	}
	outcome.LogPath = logPath

	return outcome
}

// execute runs the backend process to completion and classifies the result.
func (r *runner) execute(ctx context.Context, desc types.TestDescriptor, spec backend.CommandSpec, matcher *scenario.Matcher) (passed bool, runErr error, timedOut bool) {
	runCtx := ctx
	var cancel context.CancelFunc
	if r.timeout > 0 {
		grace := time.Duration(0)
		if spec.SuppliesScenario {
			grace = childTimeoutGrace
		}
		runCtx, cancel = context.WithTimeout(ctx, r.timeout+grace)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	cmd := exec.CommandContext(runCtx, spec.Program, spec.Args...)
	cmd.Dir = r.projectDir
	cmd.WaitDelay = waitDelay

	// Merge stdout and stderr into one line stream; serial output ordering
	// between the two is not meaningful for matching.
	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	var stagingLog *logging.AsyncFile
	if !spec.CapturesLog {
		var err error
		stagingLog, err = r.archive.CreateStagingLog(desc)
		if err != nil {
			pw.Close()
			pr.Close()
			return false, fmt.Errorf("create staging log: %w", err), false
		}
	}

	relayDone := make(chan struct{})
	go r.relay(pr, desc, stagingLog, matcher, relayDone)

	if err := cmd.Start(); err != nil {
		pw.Close()
		<-relayDone
		if stagingLog != nil {
			stagingLog.Close()
		}
		spawnErr := fmt.Errorf("spawning %s: %w", spec.Program, err)
		if noteErr := r.archive.WriteStagingNote(desc, spawnErr.Error()); noteErr != nil {
			r.log.Error("Failed to write spawn failure note", "test", desc.ID(), "error", noteErr)
		}
		return false, spawnErr, false
	}

	waitCh := make(chan error, 1)
	go func() {
		err := cmd.Wait()
		pw.Close()
		waitCh <- err
	}()

	var waitErr error
	if matcher.Gating() {
		select {
		case waitErr = <-waitCh:
			// Natural exit (or killed on timeout).
		case <-matcher.Done():
			// Scenario satisfied on a backend that streams forever; kill it
			// and confirm termination before reporting.
			r.log.Debug("Scenario satisfied, terminating backend", "test", desc.ID())
			cancel()
			waitErr = <-waitCh
		}
	} else {
		waitErr = <-waitCh
	}

	// Tear down the relay before touching the staging log: no readers may
	// outlive the run.
	<-relayDone
	pr.Close()
	if stagingLog != nil {
		if err := stagingLog.Close(); err != nil {
			r.log.Error("Failed to close staging log", "test", desc.ID(), "error", err)
		}
	}

	timedOut = errors.Is(runCtx.Err(), context.DeadlineExceeded)

	switch {
	case matcher.Gating() && matcher.Satisfied():
		// Scenario success is authoritative: it overrides the exit status of
		// a backend that was killed, or that exited non-zero after the final
		// step matched.
		return true, nil, false

	case timedOut:
		matched, total := matcher.Progress()
		if matcher.Gating() {
			return false, fmt.Errorf("timed out after %v with %d of %d scenario steps matched", r.timeout, matched, total), true
		}
		return false, fmt.Errorf("timed out after %v", r.timeout), true

	case waitErr != nil:
		return false, fmt.Errorf("backend exited with failure: %w", waitErr), false

	case matcher.Gating():
		matched, total := matcher.Progress()
		return false, fmt.Errorf("output stream ended with %d of %d scenario steps matched", matched, total), false

	default:
		return true, nil, false
	}
}

// relay scans the merged output stream line by line, forwards it to the
// console, appends it to the staging log and feeds the scenario matcher. It
// exits when the pipe is closed after the process has been waited on.
func (r *runner) relay(pr *io.PipeReader, desc types.TestDescriptor, stagingLog *logging.AsyncFile, matcher *scenario.Matcher, done chan<- struct{}) {
	defer close(done)

	scanner := bufio.NewScanner(pr)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()

		if r.realtime {
			r.log.Info("serial", "test", desc.ID(), "line", stripansi.Strip(line))
		} else {
			r.log.Debug("serial", "test", desc.ID(), "line", stripansi.Strip(line))
		}

		if stagingLog != nil {
			if err := stagingLog.WriteLine(line); err != nil {
				r.log.Error("Failed to write serial log line", "test", desc.ID(), "error", err)
			}
		}

		matcher.Observe(line)
	}
}

// archiveFailureNote records an error as the test's archived log so that
// even a run that never spawned leaves evidence in failed/.
func (r *runner) archiveFailureNote(desc types.TestDescriptor, cause error) string {
	if err := r.archive.WriteStagingNote(desc, cause.Error()); err != nil {
		r.log.Error("Failed to write failure note", "test", desc.ID(), "error", err)
	}
	logPath, err := r.archive.Finalize(desc, false)
	if err != nil {
		r.log.Error("Failed to archive failure note", "test", desc.ID(), "error", err)
		return ""
	}
	return logPath
}

// Make sure the runner type implements the interface
var _ TestRunner = &runner{}
