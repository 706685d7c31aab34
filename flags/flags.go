package flags

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	opservice "github.com/ethereum-optimism/optimism/op-service"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
)

const EnvVarPrefix = "FW_ACCEPTOR"

var (
	ProjectDir = &cli.StringFlag{
		Name:     "project",
		Value:    "",
		Required: true,
		EnvVars:  opservice.PrefixEnvVar(EnvVarPrefix, "PROJECT"),
		Usage:    "Path to the firmware project whose examples are tested",
	}
	OutputDir = &cli.StringFlag{
		Name:    "output-dir",
		Value:   "output",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "OUTPUT_DIR"),
		Usage:   "Directory where serial logs are staged and archived",
	}
	Service = &cli.StringFlag{
		Name:    "service",
		Value:   "simulate",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SERVICE"),
		Usage:   "Execution backend: 'flash' (espflash), 'emulate' (qemu) or 'simulate' (wokwi)",
	}
	DevicePort = &cli.StringFlag{
		Name:    "device-port",
		Value:   "/dev/tty.usbmodem1101",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "DEVICE_PORT"),
		Usage:   "Serial device used by the flash backend",
	}
	ScenarioDir = &cli.StringFlag{
		Name:    "scenario-dir",
		Value:   "scenarios",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SCENARIO_DIR"),
		Usage:   "Directory holding per-mode scenario files, relative to the project",
	}
	BuildBinary = &cli.StringFlag{
		Name:    "build-binary",
		Value:   "cargo",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "BUILD_BINARY"),
		Usage:   "Path to the build tool used to compile examples",
	}
	Timeout = &cli.DurationFlag{
		Name:    "timeout",
		Value:   5 * time.Second,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "TIMEOUT"),
		Usage:   "Per-test timeout; a run that neither exits nor satisfies its scenario within this window fails",
	}
	Concurrency = &cli.IntFlag{
		Name:    "concurrency",
		Value:   0,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "CONCURRENCY"),
		Usage:   "Number of concurrent test workers (0 = number of CPUs)",
	}
	ContinueOnError = &cli.BoolFlag{
		Name:    "continue-on-error",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "CONTINUE_ON_ERROR"),
		Usage:   "Keep building and running after a failure instead of stopping the batch",
	}
	SkipBuild = &cli.BoolFlag{
		Name:    "skip-build",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SKIP_BUILD"),
		Usage:   "Run against existing artifacts without rebuilding",
	}
	RunInterval = &cli.DurationFlag{
		Name:    "run-interval",
		Value:   0,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "RUN_INTERVAL"),
		Usage:   "Interval between batch runs (e.g. '1h', '30m'). Set to 0 or omit for run-once mode.",
	}
	OutputRealtimeLogs = &cli.BoolFlag{
		Name:    "output-realtime-logs",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "OUTPUT_REALTIME_LOGS"),
		Usage:   "Forward serial output to the console at info level while tests run",
	}
	ShowProgress = &cli.BoolFlag{
		Name:    "show-progress",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SHOW_PROGRESS"),
		Usage:   "Log periodic progress updates during the run phase",
	}
	ProgressInterval = &cli.DurationFlag{
		Name:    "progress-interval",
		Value:   30 * time.Second,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "PROGRESS_INTERVAL"),
		Usage:   "Interval between progress updates when --show-progress is set",
	}
)

var requiredFlags = []cli.Flag{
	ProjectDir,
}

var optionalFlags = []cli.Flag{
	OutputDir,
	Service,
	DevicePort,
	ScenarioDir,
	BuildBinary,
	Timeout,
	Concurrency,
	ContinueOnError,
	SkipBuild,
	RunInterval,
	OutputRealtimeLogs,
	ShowProgress,
	ProgressInterval,
}

var Flags []cli.Flag

func init() {
	optionalFlags = append(optionalFlags, oplog.CLIFlags(EnvVarPrefix)...)

	Flags = append(requiredFlags, optionalFlags...)
}

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}
