package acceptor

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/firmware-ci/fw-acceptor/types"
)

func TestGetResultString(t *testing.T) {
	assert.Equal(t, "✓ pass", getResultString(types.TestStatusPass))
	assert.Equal(t, "✗ fail", getResultString(types.TestStatusFail))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "1.5s", formatDuration(1500*time.Millisecond))
	assert.Equal(t, "0.0s", formatDuration(0))
}

func TestTruncateError(t *testing.T) {
	assert.Equal(t, "", truncateError(nil))
	assert.Equal(t, "short", truncateError(errors.New("short")))
	assert.Equal(t, "first line", truncateError(errors.New("first line\nsecond line")))

	long := truncateError(errors.New(strings.Repeat("x", 200)))
	assert.Len(t, long, 73)
	assert.True(t, strings.HasSuffix(long, "..."))
}
