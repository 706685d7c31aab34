package acceptor

import (
	"fmt"
	"strings"
	"time"

	"github.com/firmware-ci/fw-acceptor/types"
)

// getResultString returns a colored string representing the test result
func getResultString(status types.TestStatus) string {
	if status == types.TestStatusPass {
		return "✓ pass"
	}
	return "✗ fail"
}

// Helper function to format duration to seconds with 1 decimal place
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// truncateError limits an error message to its first line, capped at 80
// characters, so multi-line build output does not blow up the results table.
func truncateError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if idx := strings.Index(msg, "\n"); idx != -1 {
		msg = msg[:idx]
	}
	if len(msg) > 80 {
		msg = msg[:70] + "..."
	}
	return msg
}
