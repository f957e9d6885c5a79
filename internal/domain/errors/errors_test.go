package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunError_MessageIncludesAttemptWhenSet(t *testing.T) {
	err := NewRunError("run-1", 3, "find", "no path reachable", nil)
	assert.Equal(t, `run run-1 attempt 3 [find]: no path reachable`, err.Error())
}

func TestRunError_MessageOmitsAttemptWhenZero(t *testing.T) {
	err := NewRunError("run-1", 0, "persist", "insert failed", nil)
	assert.Equal(t, `run run-1 [persist]: insert failed`, err.Error())
}

func TestRunError_UnwrapExposesCauseForErrorsIs(t *testing.T) {
	err := NewRunError("run-1", 1, "sample", "no candidates", ErrNoCandidates)
	assert.True(t, errors.Is(err, ErrNoCandidates))
}

func TestRunError_UnwrapNilCauseIsSafe(t *testing.T) {
	err := NewRunError("run-1", 1, "sample", "x", nil)
	assert.Nil(t, err.Unwrap())
}
