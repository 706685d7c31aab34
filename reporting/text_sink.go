package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/firmware-ci/fw-acceptor/runner"
	"github.com/firmware-ci/fw-acceptor/types"
	"github.com/firmware-ci/fw-acceptor/ui"
)

const summaryBoxWidth = 72

// TextSummarySink renders a batch result as a boxed tree grouped by example,
// with one leaf per build mode, and writes it to summary.log.
type TextSummarySink struct {
	baseDir string
}

// NewTextSummarySink creates a new text summary sink.
func NewTextSummarySink(baseDir string) *TextSummarySink {
	return &TextSummarySink{baseDir: baseDir}
}

// Complete writes the text summary file for the batch.
func (s *TextSummarySink) Complete(result *runner.BatchResult) error {
	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", s.baseDir, err)
	}

	content := s.format(result)

	summaryFile := filepath.Join(s.baseDir, "summary.log")
	if err := os.WriteFile(summaryFile, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write summary file: %w", err)
	}
	return nil
}

func (s *TextSummarySink) format(result *runner.BatchResult) string {
	var b strings.Builder

	title := fmt.Sprintf("Firmware Acceptance Results (run %s)", result.RunID)
	b.WriteString(ui.BuildBoxHeader(title, summaryBoxWidth))

	names, byName := groupByExample(result)
	for i, name := range names {
		outcomes := byName[name]
		b.WriteString(ui.BuildBoxLine(name, summaryBoxWidth))
		for j, outcome := range outcomes {
			prefix := ui.TreeBranch
			if j == len(outcomes)-1 {
				prefix = ui.TreeLastBranch
			}
			line := fmt.Sprintf("%s%-8s %-6s %s",
				prefix,
				outcome.Descriptor.Mode,
				statusText(outcome.Status),
				outcome.Duration.Truncate(time.Millisecond))
			if outcome.Error != nil {
				line += "  " + firstLine(outcome.Error.Error())
			}
			b.WriteString(ui.BuildBoxLine(line, summaryBoxWidth))
		}
		if i < len(names)-1 {
			b.WriteString(ui.BuildBoxLine("", summaryBoxWidth))
		}
	}

	b.WriteString(ui.BuildBoxLine("", summaryBoxWidth))
	b.WriteString(ui.BuildBoxLine(fmt.Sprintf("Total: %d  Passed: %d  Failed: %d",
		result.Stats.Total, result.Stats.Passed, result.Stats.Failed), summaryBoxWidth))
	b.WriteString(ui.BuildBoxLine(fmt.Sprintf("Build time: %v  Test time: %v",
		result.Stats.BuildTime.Truncate(time.Millisecond),
		result.Stats.RunTime.Truncate(time.Millisecond)), summaryBoxWidth))
	if result.Aborted {
		b.WriteString(ui.BuildBoxLine("Batch aborted after first failure", summaryBoxWidth))
	}
	b.WriteString(ui.BuildBoxFooter(summaryBoxWidth))

	return b.String()
}

// groupByExample collects outcomes per example name, sorted by name and then
// by build mode.
func groupByExample(result *runner.BatchResult) ([]string, map[string][]*types.RunOutcome) {
	byName := make(map[string][]*types.RunOutcome)
	for _, outcome := range result.SortedOutcomes() {
		byName[outcome.Descriptor.Name] = append(byName[outcome.Descriptor.Name], outcome)
	}
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, byName
}

func statusText(status types.TestStatus) string {
	if status == types.TestStatusPass {
		return "pass"
	}
	return "FAIL"
}

func firstLine(s string) string {
	if idx := strings.Index(s, "\n"); idx != -1 {
		return s[:idx]
	}
	return s
}
