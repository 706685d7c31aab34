package acceptor

import (
	"github.com/firmware-ci/fw-acceptor/metrics"
	"github.com/firmware-ci/fw-acceptor/runner"
	"github.com/firmware-ci/fw-acceptor/types"
)

// ResultReporter emits a finished batch result to external sinks.
type ResultReporter interface {
	Report(result *runner.BatchResult)
}

// MetricsReporter implements the ResultReporter interface and records batch
// results to Prometheus.
type MetricsReporter struct {
	service types.Service
}

// NewMetricsReporter creates a new MetricsReporter.
func NewMetricsReporter(service types.Service) *MetricsReporter {
	return &MetricsReporter{service: service}
}

// Report emits the batch-level metrics for a finished run.
func (r *MetricsReporter) Report(result *runner.BatchResult) {
	metrics.RecordBatch(string(r.service), result.RunID, string(result.Status), result.Stats)
}
