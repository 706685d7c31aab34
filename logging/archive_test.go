package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firmware-ci/fw-acceptor/types"
)

var testDesc = types.TestDescriptor{Name: "blinky", Mode: types.BuildModeDebug}

func TestNewArchiveCreatesStagingDir(t *testing.T) {
	baseDir := filepath.Join(t.TempDir(), "output")

	archive, err := NewArchive(baseDir)
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(archive.BaseDir(), StagingDirName))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestStagingPathUsesDescriptorID(t *testing.T) {
	archive, err := NewArchive(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t,
		filepath.Join(archive.BaseDir(), StagingDirName, "blinky-debug.txt"),
		archive.StagingPath(testDesc))
}

func TestStagingLogWriteAndFinalize(t *testing.T) {
	archive, err := NewArchive(t.TempDir())
	require.NoError(t, err)

	stagingLog, err := archive.CreateStagingLog(testDesc)
	require.NoError(t, err)
	require.NoError(t, stagingLog.WriteLine("BOOT"))
	require.NoError(t, stagingLog.WriteLine("READY"))
	require.NoError(t, stagingLog.Close())

	dest, err := archive.Finalize(testDesc, true)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(archive.BaseDir(), PassedDirName, "blinky-debug.txt"), dest)

	content, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "BOOT\nREADY\n", string(content))

	// Staging file must be gone after archival.
	_, err = os.Stat(archive.StagingPath(testDesc))
	assert.True(t, os.IsNotExist(err))
}

func TestFinalizeFailedRun(t *testing.T) {
	archive, err := NewArchive(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, archive.WriteStagingNote(testDesc, "timed out after 5s"))

	dest, err := archive.Finalize(testDesc, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(archive.BaseDir(), FailedDirName, "blinky-debug.txt"), dest)

	content, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "timed out after 5s\n", string(content))
}

func TestFinalizeWithoutStagingLogCreatesEmptyArchive(t *testing.T) {
	archive, err := NewArchive(t.TempDir())
	require.NoError(t, err)

	// Simulates a backend that died before producing any serial output.
	dest, err := archive.Finalize(testDesc, false)
	require.NoError(t, err)

	content, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Empty(t, content)
}

func TestFinalizeOverwritesPreviousBatch(t *testing.T) {
	archive, err := NewArchive(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, archive.WriteStagingNote(testDesc, "first run"))
	_, err = archive.Finalize(testDesc, true)
	require.NoError(t, err)

	require.NoError(t, archive.WriteStagingNote(testDesc, "second run"))
	dest, err := archive.Finalize(testDesc, true)
	require.NoError(t, err)

	content, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "second run\n", string(content))
}

func TestAsyncFileTruncatesLeftovers(t *testing.T) {
	archive, err := NewArchive(t.TempDir())
	require.NoError(t, err)

	first, err := archive.CreateStagingLog(testDesc)
	require.NoError(t, err)
	require.NoError(t, first.WriteLine("stale output from a previous batch"))
	require.NoError(t, first.Close())

	second, err := archive.CreateStagingLog(testDesc)
	require.NoError(t, err)
	require.NoError(t, second.WriteLine("fresh"))
	require.NoError(t, second.Close())

	content, err := os.ReadFile(archive.StagingPath(testDesc))
	require.NoError(t, err)
	assert.Equal(t, "fresh\n", string(content))
}
