package acceptor

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/firmware-ci/fw-acceptor/runner"
	"github.com/firmware-ci/fw-acceptor/types"
)

// ResultFormatter renders a finished batch result for human consumption.
type ResultFormatter interface {
	Format(result *runner.BatchResult)
}

// ConsoleResultFormatter implements the ResultFormatter interface and prints
// a table of per-test outcomes to stdout.
type ConsoleResultFormatter struct {
	logger log.Logger
}

// NewConsoleResultFormatter creates a new ConsoleResultFormatter.
func NewConsoleResultFormatter(logger log.Logger) *ConsoleResultFormatter {
	return &ConsoleResultFormatter{logger: logger}
}

// Format prints the results of the batch to the console.
func (f *ConsoleResultFormatter) Format(result *runner.BatchResult) {
	f.logger.Info("Printing results...")
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	title := fmt.Sprintf("Firmware Acceptance Results (%s)", formatDuration(result.Stats.BuildTime+result.Stats.RunTime))
	if result.Aborted {
		title += " [aborted]"
	}
	t.SetTitle(title)

	t.AppendHeader(table.Row{
		"Example", "Mode", "Duration", "Status", "Log", "Error",
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Example", WidthMax: 40, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Log", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Error", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
	})

	for _, outcome := range result.SortedOutcomes() {
		errorMsg := ""
		if outcome.Error != nil {
			errorMsg = truncateError(outcome.Error)
		}
		t.AppendRow(table.Row{
			outcome.Descriptor.Name,
			outcome.Descriptor.Mode,
			formatDuration(outcome.Duration),
			getResultString(outcome.Status),
			outcome.LogPath,
			errorMsg,
		})
	}

	if result.Status == types.TestStatusPass {
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	} else {
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	}

	t.AppendFooter(table.Row{
		"TOTAL",
		"",
		formatDuration(result.Stats.BuildTime + result.Stats.RunTime),
		getResultString(result.Status),
		"",
		fmt.Sprintf("%d passed / %d failed", result.Stats.Passed, result.Stats.Failed),
	})

	t.Render()
}
