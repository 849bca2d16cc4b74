package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunStatus_IsValid(t *testing.T) {
	assert.True(t, RunSuccess.IsValid())
	assert.True(t, RunError.IsValid())
	assert.True(t, RunSkipped.IsValid())
	assert.False(t, RunStatus("pending").IsValid())
}

func TestRun_Duration(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	r := Run{StartedAt: start, FinishedAt: start.Add(1500 * time.Millisecond)}
	assert.Equal(t, 1500*time.Millisecond, r.Duration())

	assert.Equal(t, time.Duration(0), Run{StartedAt: start}.Duration())
}
