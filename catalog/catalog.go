// Package catalog discovers buildable example programs in a firmware
// project and turns them into test descriptors.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/log"

	"github.com/firmware-ci/fw-acceptor/types"
)

// ExamplesDir is the subdirectory of the project root that is scanned for
// example sources.
const ExamplesDir = "examples"

// Discover scans <projectDir>/examples for .rs sources and returns one
// descriptor per example and build mode, sorted by (name, mode) so run order
// is reproducible. A project without an examples directory yields an empty
// catalog, not an error.
func Discover(projectDir string, logger log.Logger) ([]types.TestDescriptor, error) {
	examplesPath := filepath.Join(projectDir, ExamplesDir)

	entries, err := os.ReadDir(examplesPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Debug("No examples directory, empty catalog", "path", examplesPath)
			return nil, nil
		}
		return nil, fmt.Errorf("read examples directory %q: %w", examplesPath, err)
	}

	var descriptors []types.TestDescriptor
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".rs") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".rs")
		if name == "" {
			continue
		}
		for _, mode := range types.BuildModes {
			descriptors = append(descriptors, types.TestDescriptor{Name: name, Mode: mode})
		}
	}

	sort.Slice(descriptors, func(i, j int) bool {
		if descriptors[i].Name != descriptors[j].Name {
			return descriptors[i].Name < descriptors[j].Name
		}
		return descriptors[i].Mode < descriptors[j].Mode
	})

	logger.Debug("Discovered examples", "count", len(descriptors), "dir", examplesPath)
	return descriptors, nil
}
