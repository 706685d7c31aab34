// Package reporting writes per-batch report files into the output directory,
// next to the archived serial logs. Each batch produces a plain-text summary
// and an HTML results page.
package reporting

import (
	"github.com/ethereum/go-ethereum/log"

	"github.com/firmware-ci/fw-acceptor/runner"
)

// ReportSink persists one rendering of a finished batch result.
type ReportSink interface {
	Complete(result *runner.BatchResult) error
}

// FileReporter fans a batch result out to all configured sinks. Report
// failures are logged rather than propagated, so a broken report never fails
// an otherwise green batch.
type FileReporter struct {
	sinks  []ReportSink
	logger log.Logger
}

// NewFileReporter creates a FileReporter writing the text and HTML reports
// under baseDir.
func NewFileReporter(baseDir string, logger log.Logger) *FileReporter {
	return &FileReporter{
		sinks: []ReportSink{
			NewTextSummarySink(baseDir),
			NewHTMLSink(baseDir),
		},
		logger: logger,
	}
}

// Report writes all report files for the batch.
func (r *FileReporter) Report(result *runner.BatchResult) {
	for _, sink := range r.sinks {
		if err := sink.Complete(result); err != nil {
			r.logger.Error("Failed to write batch report", "run_id", result.RunID, "error", err)
		}
	}
}
