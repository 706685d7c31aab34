// Package logging handles serial log capture and archival. Every run writes
// its serial output to a staging file; once the outcome is known the file is
// renamed into the passed/ or failed/ archive, so a log is never left in
// staging after a run completes.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/firmware-ci/fw-acceptor/types"
)

const (
	StagingDirName = "tmp"
	PassedDirName  = "passed"
	FailedDirName  = "failed"
)

// Archive manages the staging and archive directories for one batch.
// Concurrent runs write to distinct, descriptor-named files, so no locking
// is needed across runs; directory creation is idempotent under concurrent
// callers (MkdirAll).
type Archive struct {
	baseDir string
}

// NewArchive resolves the output directory to an absolute path and creates
// the staging directory.
func NewArchive(baseDir string) (*Archive, error) {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve output directory %q: %w", baseDir, err)
	}
	if err := os.MkdirAll(filepath.Join(abs, StagingDirName), 0755); err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}
	return &Archive{baseDir: abs}, nil
}

// BaseDir returns the absolute output directory.
func (a *Archive) BaseDir() string {
	return a.baseDir
}

// StagingPath returns the staging log file for a descriptor.
func (a *Archive) StagingPath(desc types.TestDescriptor) string {
	return filepath.Join(a.baseDir, StagingDirName, desc.ID()+".txt")
}

// CreateStagingLog opens an async writer on the descriptor's staging file,
// truncating any leftover from a previous batch.
func (a *Archive) CreateStagingLog(desc types.TestDescriptor) (*AsyncFile, error) {
	return NewAsyncFile(a.StagingPath(desc))
}

// WriteStagingNote replaces the staging log with a short note. Used when the
// backend could not be spawned and there is no serial output to archive.
func (a *Archive) WriteStagingNote(desc types.TestDescriptor, note string) error {
	return os.WriteFile(a.StagingPath(desc), []byte(note+"\n"), 0644)
}

// Finalize moves the staging log into the passed/ or failed/ archive,
// overwriting any prior file of the same name. A missing staging file (a
// backend that died before writing its own log) is replaced with an empty
// one so exactly one archived log exists per outcome.
func (a *Archive) Finalize(desc types.TestDescriptor, passed bool) (string, error) {
	resultDir := FailedDirName
	if passed {
		resultDir = PassedDirName
	}

	destDir := filepath.Join(a.baseDir, resultDir)
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("create %s directory: %w", resultDir, err)
	}

	staging := a.StagingPath(desc)
	if _, err := os.Stat(staging); os.IsNotExist(err) {
		if err := os.WriteFile(staging, nil, 0644); err != nil {
			return "", fmt.Errorf("create empty staging log for %s: %w", desc.ID(), err)
		}
	}

	dest := filepath.Join(destDir, desc.ID()+".txt")
	if err := os.Rename(staging, dest); err != nil {
		return "", fmt.Errorf("archive log for %s: %w", desc.ID(), err)
	}
	return dest, nil
}
