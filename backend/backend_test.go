package backend

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firmware-ci/fw-acceptor/types"
)

var testPaths = Paths{
	ProjectDir:  "/proj",
	ScenarioDir: "/proj/scenarios",
	DevicePort:  "/dev/ttyUSB0",
	StagingLog:  "/out/tmp/blinky-debug.txt",
}

func TestArtifactPath(t *testing.T) {
	desc := types.TestDescriptor{Name: "blinky", Mode: types.BuildModeRelease}
	assert.Equal(t,
		filepath.Join("target", TargetTriple, "release", "examples", "blinky"),
		ArtifactPath(desc))
}

func TestScenarioPathKeyedByMode(t *testing.T) {
	desc := types.TestDescriptor{Name: "blinky", Mode: types.BuildModeDebug}
	assert.Equal(t,
		filepath.Join("/proj/scenarios", "debug", "blinky.yaml"),
		ScenarioPath("/proj/scenarios", desc))
}

func TestFlashCommand(t *testing.T) {
	desc := types.TestDescriptor{Name: "blinky", Mode: types.BuildModeDebug}

	spec, err := Command(types.ServiceFlash, desc, testPaths, 5*time.Second)
	require.NoError(t, err)

	assert.Equal(t, "espflash", spec.Program)
	assert.Equal(t, []string{"flash", "-p", "/dev/ttyUSB0", "--monitor", ArtifactPath(desc)}, spec.Args)
	assert.False(t, spec.SuppliesScenario)
	assert.False(t, spec.CapturesLog)
}

func TestEmulateCommand(t *testing.T) {
	tests := []struct {
		name     string
		mode     types.BuildMode
		wantArgs []string
	}{
		{
			name:     "debug",
			mode:     types.BuildModeDebug,
			wantArgs: []string{filepath.Join("target", TargetTriple, "debug", "examples", "blinky")},
		},
		{
			name:     "release appends flag",
			mode:     types.BuildModeRelease,
			wantArgs: []string{filepath.Join("target", TargetTriple, "release", "examples", "blinky"), "--release"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc := types.TestDescriptor{Name: "blinky", Mode: tt.mode}
			spec, err := Command(types.ServiceEmulate, desc, testPaths, 5*time.Second)
			require.NoError(t, err)
			assert.Equal(t, "qemu-system-riscv32", spec.Program)
			assert.Equal(t, tt.wantArgs, spec.Args)
			assert.False(t, spec.SuppliesScenario)
		})
	}
}

func TestSimulateCommand(t *testing.T) {
	desc := types.TestDescriptor{Name: "blinky", Mode: types.BuildModeDebug}

	spec, err := Command(types.ServiceSimulate, desc, testPaths, 1500*time.Millisecond)
	require.NoError(t, err)

	assert.Equal(t, "wokwi-cli", spec.Program)
	assert.Equal(t, []string{
		"--elf", ArtifactPath(desc),
		"--scenario", ScenarioPath("/proj/scenarios", desc),
		"--timeout", "1500", // milliseconds
		"--serial-log-file", "/out/tmp/blinky-debug.txt",
	}, spec.Args)
	assert.True(t, spec.SuppliesScenario)
	assert.True(t, spec.CapturesLog)
}

func TestUnknownServiceIsAnError(t *testing.T) {
	desc := types.TestDescriptor{Name: "blinky", Mode: types.BuildModeDebug}

	_, err := Command(types.Service("teleport"), desc, testPaths, time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "teleport")
}
