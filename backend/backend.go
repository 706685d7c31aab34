// Package backend maps a (service, descriptor) pair onto the external
// command that executes a compiled example: espflash for attached hardware,
// qemu for emulation, or wokwi-cli for the browser-based simulator.
package backend

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/firmware-ci/fw-acceptor/types"
)

// Target triple the examples are cross-compiled for; artifacts land under
// cargo's per-mode output directory for this triple.
const TargetTriple = "riscv32imac-unknown-none-elf"

// Paths carries the filesystem inputs needed to construct a command.
type Paths struct {
	ProjectDir  string // Root of the firmware project (cargo workspace)
	ScenarioDir string // Directory holding per-mode scenario files
	DevicePort  string // Serial device for the flash backend
	StagingLog  string // Where the simulator should write its serial log
}

// CommandSpec describes how to invoke an execution backend and which
// capabilities the backend itself provides.
type CommandSpec struct {
	Program string
	Args    []string

	// SuppliesScenario is set when the backend enforces the scenario
	// natively, so the core must not gate the run on its own matcher.
	SuppliesScenario bool

	// CapturesLog is set when the backend writes its own serial log file,
	// so the core must not duplicate the capture.
	CapturesLog bool
}

func (c CommandSpec) String() string {
	out := c.Program
	for _, a := range c.Args {
		out += " " + a
	}
	return out
}

// ArtifactPath returns the compiled example's location relative to the
// project directory, as produced by cargo for the target triple.
func ArtifactPath(desc types.TestDescriptor) string {
	return filepath.Join("target", TargetTriple, string(desc.Mode), "examples", desc.Name)
}

// ScenarioPath returns the scenario file for a descriptor. Scenarios are
// keyed by build mode, then example name.
func ScenarioPath(scenarioDir string, desc types.TestDescriptor) string {
	return filepath.Join(scenarioDir, string(desc.Mode), desc.Name+".yaml")
}

// Command builds the invocation for the given service and descriptor. It has
// no side effects; unknown services are a configuration error.
func Command(service types.Service, desc types.TestDescriptor, paths Paths, timeout time.Duration) (CommandSpec, error) {
	artifact := ArtifactPath(desc)

	switch service {
	case types.ServiceFlash:
		// espflash streams the monitor output forever; the core captures it
		// and decides the outcome via the scenario matcher.
		return CommandSpec{
			Program: "espflash",
			Args:    []string{"flash", "-p", paths.DevicePort, "--monitor", artifact},
		}, nil

	case types.ServiceEmulate:
		args := []string{artifact}
		if desc.Mode == types.BuildModeRelease {
			args = append(args, "--release")
		}
		return CommandSpec{
			Program: "qemu-system-riscv32",
			Args:    args,
		}, nil

	case types.ServiceSimulate:
		// wokwi-cli takes the scenario and timeout itself and writes its own
		// serial log; the core only consumes the exit status.
		return CommandSpec{
			Program: "wokwi-cli",
			Args: []string{
				"--elf", artifact,
				"--scenario", ScenarioPath(paths.ScenarioDir, desc),
				"--timeout", strconv.FormatInt(timeout.Milliseconds(), 10),
				"--serial-log-file", paths.StagingLog,
			},
			SuppliesScenario: true,
			CapturesLog:      true,
		}, nil

	default:
		return CommandSpec{}, fmt.Errorf("unknown service %q", service)
	}
}
