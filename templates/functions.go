// Package templates holds the shared template helpers used by the HTML
// report sink.
package templates

import (
	"fmt"
	"html/template"
	"time"

	"github.com/firmware-ci/fw-acceptor/types"
)

// GetTemplateFunc returns the centralized template functions used across the application
func GetTemplateFunc() template.FuncMap {
	return template.FuncMap{
		"formatDuration": func(d time.Duration) string {
			if d < time.Second {
				return fmt.Sprintf("%dms", d.Milliseconds())
			}
			return d.Truncate(time.Millisecond).String()
		},
		"getStatusClass": func(status types.TestStatus) string {
			return getStatusString(status)
		},
		"getStatusText": func(status types.TestStatus) string {
			return getStatusString(status)
		},
		"getOverallStatus": func(stats types.BatchStats) types.TestStatus {
			if stats.Failed > 0 {
				return types.TestStatusFail
			}
			return types.TestStatusPass
		},
	}
}

// getStatusString returns a consistent lowercase status string
func getStatusString(status types.TestStatus) string {
	switch status {
	case types.TestStatusPass:
		return "pass"
	case types.TestStatusFail:
		return "fail"
	default:
		return "unknown"
	}
}
