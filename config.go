package acceptor

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/firmware-ci/fw-acceptor/flags"
	"github.com/firmware-ci/fw-acceptor/types"
)

// Config holds the application configuration. It is constructed and
// validated once, then shared read-only across all concurrent runs.
type Config struct {
	ProjectDir  string        // Root of the firmware project under test
	OutputDir   string        // Where serial logs are staged and archived
	ScenarioDir string        // Directory holding per-mode scenario files
	Service     types.Service // Execution backend
	DevicePort  string        // Serial device for the flash backend
	BuildBinary string        // Build tool, defaults to cargo

	Timeout         time.Duration // Per-test timeout
	Concurrency     int           // Number of concurrent test workers
	ContinueOnError bool          // Keep going after build/run failures
	SkipBuild       bool          // Run against existing artifacts

	RunInterval time.Duration // Interval between batch runs
	RunOnce     bool          // Indicates if the service should exit after one batch

	OutputRealtimeLogs bool          // Forward serial output at info level
	ShowProgress       bool          // Log periodic progress updates
	ProgressInterval   time.Duration // Interval between progress updates

	Log log.Logger
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, log log.Logger) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}

	projectDir := ctx.String(flags.ProjectDir.Name)
	if projectDir == "" {
		return nil, errors.New("project directory is required")
	}
	absProjectDir, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for project directory '%s': %w", projectDir, err)
	}

	service, err := types.ParseService(ctx.String(flags.Service.Name))
	if err != nil {
		return nil, err
	}

	timeout := ctx.Duration(flags.Timeout.Name)
	if timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %v", timeout)
	}

	concurrency := ctx.Int(flags.Concurrency.Name)
	if concurrency < 0 {
		return nil, fmt.Errorf("concurrency cannot be negative, got %d", concurrency)
	}
	if concurrency == 0 {
		concurrency = runtime.NumCPU()
	}

	outputDir := ctx.String(flags.OutputDir.Name)
	if outputDir == "" {
		outputDir = "output"
	}
	absOutputDir, err := filepath.Abs(outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for output directory '%s': %w", outputDir, err)
	}

	// Scenario files live inside the project unless an absolute path is
	// given, matching where firmware repos keep them.
	scenarioDir := ctx.String(flags.ScenarioDir.Name)
	if !filepath.IsAbs(scenarioDir) {
		scenarioDir = filepath.Join(absProjectDir, scenarioDir)
	}

	runInterval := ctx.Duration(flags.RunInterval.Name)
	runOnce := runInterval == 0

	return &Config{
		ProjectDir:         absProjectDir,
		OutputDir:          absOutputDir,
		ScenarioDir:        scenarioDir,
		Service:            service,
		DevicePort:         ctx.String(flags.DevicePort.Name),
		BuildBinary:        ctx.String(flags.BuildBinary.Name),
		Timeout:            timeout,
		Concurrency:        concurrency,
		ContinueOnError:    ctx.Bool(flags.ContinueOnError.Name),
		SkipBuild:          ctx.Bool(flags.SkipBuild.Name),
		RunInterval:        runInterval,
		RunOnce:            runOnce,
		OutputRealtimeLogs: ctx.Bool(flags.OutputRealtimeLogs.Name),
		ShowProgress:       ctx.Bool(flags.ShowProgress.Name),
		ProgressInterval:   ctx.Duration(flags.ProgressInterval.Name),
		Log:                log,
	}, nil
}
