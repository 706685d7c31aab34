package acceptor

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuntimeError(t *testing.T) {
	base := errors.New("bad scenario file")
	err := NewRuntimeError(base)

	assert.True(t, IsRuntimeError(err))
	assert.False(t, IsTestFailureError(err))
	assert.ErrorIs(t, err, base)
	assert.Contains(t, err.Error(), "runtime error")
}

func TestRuntimeErrorDetectedThroughWrapping(t *testing.T) {
	err := fmt.Errorf("outer context: %w", NewRuntimeError(errors.New("inner")))
	assert.True(t, IsRuntimeError(err))
}

func TestTestFailureError(t *testing.T) {
	err := NewTestFailureError("3 of 10 tests failed")

	assert.True(t, IsTestFailureError(err))
	assert.False(t, IsRuntimeError(err))
	assert.Contains(t, err.Error(), "3 of 10 tests failed")
}

func TestErrorChecksOnNil(t *testing.T) {
	assert.False(t, IsRuntimeError(nil))
	assert.False(t, IsTestFailureError(nil))
}
