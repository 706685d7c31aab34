package types

import (
	"fmt"
	"time"
)

// BuildMode selects the compilation profile for an example.
type BuildMode string

const (
	BuildModeDebug   BuildMode = "debug"
	BuildModeRelease BuildMode = "release"
)

// BuildModes lists all supported modes in run order.
var BuildModes = []BuildMode{BuildModeDebug, BuildModeRelease}

// Service identifies the execution backend used to run a compiled artifact.
type Service string

const (
	ServiceFlash    Service = "flash"    // espflash against attached hardware
	ServiceEmulate  Service = "emulate"  // qemu system emulator
	ServiceSimulate Service = "simulate" // wokwi browser simulator CLI
)

// ParseService validates a backend name supplied on the command line.
func ParseService(s string) (Service, error) {
	switch Service(s) {
	case ServiceFlash, ServiceEmulate, ServiceSimulate:
		return Service(s), nil
	default:
		return "", fmt.Errorf("unknown service %q (must be one of: %s, %s, %s)",
			s, ServiceFlash, ServiceEmulate, ServiceSimulate)
	}
}

// TestStatus represents the possible states of a test execution
type TestStatus string

const (
	TestStatusPass TestStatus = "pass"
	TestStatusFail TestStatus = "fail"
)

// TestDescriptor identifies one build+run unit: an example compiled in one
// build mode. Descriptors are immutable once discovered.
type TestDescriptor struct {
	Name string
	Mode BuildMode
}

// ID returns the canonical "<name>-<mode>" identity used for log file names
// and result keys.
func (d TestDescriptor) ID() string {
	return fmt.Sprintf("%s-%s", d.Name, d.Mode)
}

func (d TestDescriptor) String() string {
	return d.ID()
}

// RunOutcome captures the result of running a single descriptor. Exactly one
// outcome is produced per descriptor that enters the run phase, even on
// timeout or spawn failure.
type RunOutcome struct {
	Descriptor TestDescriptor
	Status     TestStatus
	Error      error         // Cause of the failure, nil for passing runs
	Duration   time.Duration // Wall-clock run time
	LogPath    string        // Archived serial log, in passed/ or failed/
	TimedOut   bool          // Run hit the timeout before exit or scenario success
	ScenarioOK bool          // Scenario was configured and fully matched
}

// BatchStats tracks aggregate counters for one batch run.
type BatchStats struct {
	Total     int
	Passed    int
	Failed    int
	BuildTime time.Duration
	RunTime   time.Duration
}
