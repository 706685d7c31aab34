package acceptor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firmware-ci/fw-acceptor/types"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	return &Config{
		ProjectDir:  t.TempDir(),
		OutputDir:   t.TempDir(),
		ScenarioDir: t.TempDir(),
		Service:     types.ServiceSimulate,
		BuildBinary: "cargo",
		Timeout:     time.Second,
		Concurrency: 1,
		RunOnce:     true,
		Log:         log.New(),
	}
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(context.Background(), nil, "v0.0.0", func(error) {})
	require.Error(t, err)
}

func TestNewCreatesService(t *testing.T) {
	svc, err := New(context.Background(), testConfig(t), "v0.0.0", func(error) {})
	require.NoError(t, err)
	assert.True(t, svc.Stopped(), "service is stopped until started")
}

func TestRunOnceEmptyProjectPassesAndShutsDown(t *testing.T) {
	cfg := testConfig(t)

	shutdownCalled := make(chan error, 1)
	svc, err := New(context.Background(), cfg, "v0.0.0", func(err error) {
		shutdownCalled <- err
	})
	require.NoError(t, err)

	// No examples to discover: the batch is empty, passes, and run-once mode
	// triggers the shutdown callback.
	require.NoError(t, svc.Start(context.Background()))

	select {
	case err := <-shutdownCalled:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown callback was not invoked")
	}

	// The batch reports were written even for an empty run.
	_, err = os.Stat(filepath.Join(cfg.OutputDir, "summary.log"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(cfg.OutputDir, "results.html"))
	assert.NoError(t, err)
}

func TestRunOnceFailingBatchReturnsTestFailure(t *testing.T) {
	cfg := testConfig(t)

	// One discoverable example with no backend binary on PATH: the build is
	// skipped, the run fails to spawn, the batch fails.
	cfg.SkipBuild = true
	examplesDir := filepath.Join(cfg.ProjectDir, "examples")
	require.NoError(t, os.MkdirAll(examplesDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(examplesDir, "blinky.rs"), []byte("fn main() {}\n"), 0644))
	t.Setenv("PATH", t.TempDir())

	svc, err := New(context.Background(), cfg, "v0.0.0", func(error) {})
	require.NoError(t, err)

	err = svc.Start(context.Background())
	require.Error(t, err)
	assert.True(t, IsTestFailureError(err))
}

func TestStopIsIdempotent(t *testing.T) {
	svc, err := New(context.Background(), testConfig(t), "v0.0.0", func(error) {})
	require.NoError(t, err)

	require.NoError(t, svc.Stop(context.Background()))
	require.NoError(t, svc.Stop(context.Background()))
	assert.True(t, svc.Stopped())
}
