package scheduler

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestNextTimes_HourlySpec verifies that the hourly expression fires at the
// top of every hour, including across a day boundary.
func TestNextTimes_HourlySpec(t *testing.T) {
	t.Parallel()

	// Arrange
	from := time.Date(2026, 3, 14, 22, 30, 0, 0, time.UTC)

	// Act
	times, err := NextTimes("0 * * * *", from, 3)

	// Assert
	require.NoError(t, err)
	require.Len(t, times, 3)
	assert.Equal(t, time.Date(2026, 3, 14, 23, 0, 0, 0, time.UTC), times[0])
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), times[1])
	assert.Equal(t, time.Date(2026, 3, 15, 1, 0, 0, 0, time.UTC), times[2])
}

// TestNextTimes_RejectsInvalidSpec verifies malformed expressions surface a
// clear error instead of a zero schedule.
func TestNextTimes_RejectsInvalidSpec(t *testing.T) {
	t.Parallel()

	// Act
	_, err := NextTimes("61 * * * *", time.Now(), 1)

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cron expression")
}

// TestAdd_RejectsInvalidSpec verifies a flow with a bad schedule fails at
// registration time, before the scheduler ever starts.
func TestAdd_RejectsInvalidSpec(t *testing.T) {
	t.Parallel()

	// Arrange
	s := New(quietLogger())

	// Act
	err := s.Add("every hour", "notion_embed", func() {})

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid cron expression "every hour"`)
	assert.Empty(t, s.Entries())
}

// TestAdd_RejectsDuplicateFlow verifies the same flow cannot be scheduled
// twice.
func TestAdd_RejectsDuplicateFlow(t *testing.T) {
	t.Parallel()

	// Arrange
	s := New(quietLogger())
	require.NoError(t, s.Add("0 * * * *", "notion_embed", func() {}))

	// Act
	err := s.Add("30 * * * *", "notion_embed", func() {})

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), `already scheduled`)
}

// TestEntries_ListsFlowsSortedByName verifies the listing used by the CLI
// and the API.
func TestEntries_ListsFlowsSortedByName(t *testing.T) {
	t.Parallel()

	// Arrange
	s := New(quietLogger())
	require.NoError(t, s.Add("0 * * * *", "zeta", func() {}))
	require.NoError(t, s.Add("15 * * * *", "alpha", func() {}))

	// Act
	entries := s.Entries()

	// Assert
	require.Len(t, entries, 2)
	assert.Equal(t, "alpha", entries[0].FlowName)
	assert.Equal(t, "15 * * * *", entries[0].Spec)
	assert.Equal(t, "zeta", entries[1].FlowName)
	assert.Equal(t, "0 * * * *", entries[1].Spec)
}

// TestScheduler_StopWaitsForInFlightJobs verifies the drain contract used
// during shutdown.
func TestScheduler_StopWaitsForInFlightJobs(t *testing.T) {
	t.Parallel()

	// Arrange
	s := New(quietLogger())
	require.NoError(t, s.Add("0 * * * *", "notion_embed", func() {}))
	s.Start()

	// Act
	ctx := s.Stop()

	// Assert
	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not drain after Stop")
	}
}
