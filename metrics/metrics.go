package metrics

import (
	"regexp"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/firmware-ci/fw-acceptor/types"
)

const (
	MetricsNamespace = "fwacceptor"
)

var (
	Debug                bool = true
	nonAlphanumericRegex      = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "runs_total",
		Help:      "Count of example runs",
	}, []string{
		"service",
		"test",
		"result",
	})

	runDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_duration_seconds",
		Help:      "Duration of individual example runs",
	}, []string{
		"service",
		"test",
	})

	batchResults = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "batch_results",
		Help:      "Result of the latest batch",
	}, []string{
		"service",
		"run_id",
		"result",
	})

	batchTestsPassed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "batch_tests_passed",
		Help:      "Number of passed tests in a batch",
	}, []string{
		"service",
		"run_id",
	})

	batchTestsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "batch_tests_failed",
		Help:      "Number of failed tests in a batch",
	}, []string{
		"service",
		"run_id",
	})

	batchBuildDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "batch_build_duration_seconds",
		Help:      "Total build time of a batch",
	}, []string{
		"service",
		"run_id",
	})

	batchRunDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "batch_run_duration_seconds",
		Help:      "Total run time of a batch",
	}, []string{
		"service",
		"run_id",
	})
)

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func RecordError(error string) {
	if Debug {
		log.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	RecordError(label + "." + errToLabel(err))
}

// RecordRun records one example run outcome.
func RecordRun(service string, testID string, result types.TestStatus, duration time.Duration) {
	if Debug {
		log.Debug("metric inc",
			"m", "runs_total",
			"service", service,
			"test", testID,
			"result", result)
	}
	runsTotal.WithLabelValues(service, testID, string(result)).Inc()
	runDuration.WithLabelValues(service, testID).Set(duration.Seconds())
}

// RecordBatch records the aggregate results of one batch.
func RecordBatch(service string, runID string, result string, stats types.BatchStats) {
	batchResults.WithLabelValues(service, runID, result).Set(1)
	batchTestsPassed.WithLabelValues(service, runID).Add(float64(stats.Passed))
	batchTestsFailed.WithLabelValues(service, runID).Add(float64(stats.Failed))
	batchBuildDuration.WithLabelValues(service, runID).Set(stats.BuildTime.Seconds())
	batchRunDuration.WithLabelValues(service, runID).Set(stats.RunTime.Seconds())
}
