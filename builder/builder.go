// Package builder compiles discovered examples ahead of the run phase.
// Builds are strictly sequential: cargo's target directory is a shared,
// non-reentrant resource, so concurrent builds are unsafe.
package builder

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/firmware-ci/fw-acceptor/types"
)

// Config holds configuration for creating a new builder.
type Config struct {
	ProjectDir      string
	BuildBinary     string // Path to the build tool, defaults to "cargo"
	ContinueOnError bool   // Record build failures instead of aborting
	Log             log.Logger
}

// Result captures the outcome of the build phase.
type Result struct {
	// Failed maps descriptors that did not build to their build error.
	// Only populated when ContinueOnError is set; otherwise the first
	// failure aborts the batch.
	Failed map[types.TestDescriptor]error

	// Duration is the accumulated wall-clock time of all builds.
	Duration time.Duration
}

// Builder invokes the build tool once per descriptor.
type Builder struct {
	projectDir      string
	buildBinary     string
	continueOnError bool
	log             log.Logger
	tracer          trace.Tracer
}

// New creates a builder instance.
func New(cfg Config) (*Builder, error) {
	if cfg.ProjectDir == "" {
		return nil, fmt.Errorf("project directory is required")
	}
	if cfg.BuildBinary == "" {
		cfg.BuildBinary = "cargo"
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
	}
	return &Builder{
		projectDir:      cfg.ProjectDir,
		buildBinary:     cfg.BuildBinary,
		continueOnError: cfg.ContinueOnError,
		log:             cfg.Log,
		tracer:          otel.Tracer("builder"),
	}, nil
}

// BuildAll compiles every descriptor in sequence and accumulates the total
// build time. With ContinueOnError unset, the first failure aborts the whole
// batch before any run begins.
func (b *Builder) BuildAll(ctx context.Context, descriptors []types.TestDescriptor) (*Result, error) {
	result := &Result{Failed: make(map[types.TestDescriptor]error)}

	start := time.Now()
	defer func() {
		result.Duration = time.Since(start)
	}()

	for _, desc := range descriptors {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("build phase interrupted: %w", err)
		}

		if err := b.buildOne(ctx, desc); err != nil {
			if !b.continueOnError {
				return result, fmt.Errorf("building %s: %w", desc.ID(), err)
			}
			b.log.Error("Build failed, continuing", "example", desc.Name, "mode", desc.Mode, "error", err)
			result.Failed[desc] = err
		}
	}

	return result, nil
}

// buildOne runs the build tool for a single descriptor in the project
// directory.
func (b *Builder) buildOne(ctx context.Context, desc types.TestDescriptor) error {
	ctx, span := b.tracer.Start(ctx, fmt.Sprintf("build %s", desc.ID()))
	defer span.End()

	args := []string{"build", "--example", desc.Name}
	if desc.Mode == types.BuildModeRelease {
		args = append(args, "--release")
	}

	cmd := exec.CommandContext(ctx, b.buildBinary, args...)
	cmd.Dir = b.projectDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	b.log.Info("Building example", "example", desc.Name, "mode", desc.Mode)
	b.log.Debug("Build command", "dir", cmd.Dir, "command", cmd.String())

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("build tool failed: %w\nstderr: %s", err, tailOf(stderr.String(), 20))
	}
	return nil
}

// tailOf returns the last maxLines lines of the given output.
func tailOf(s string, maxLines int) string {
	if s == "" {
		return ""
	}
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) <= maxLines {
		return strings.Join(lines, "\n")
	}
	return strings.Join(lines[len(lines)-maxLines:], "\n")
}
