package trend

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := NewScheduler(nil, nil, time.UTC, 8)
	require.NoError(t, err)
	return s
}

func TestSchedulerStartStop(t *testing.T) {
	s := testScheduler(t)

	assert.False(t, s.Status().Running)

	s.Start()
	assert.True(t, s.Status().Running)
	s.Start() // idempotent
	assert.True(t, s.Status().Running)

	s.Stop()
	assert.False(t, s.Status().Running)
	s.Stop() // idempotent
	assert.False(t, s.Status().Running)
}

func TestSchedulerStatusJobs(t *testing.T) {
	s := testScheduler(t)
	s.Start()
	defer s.Stop()

	status := s.Status()
	require.Len(t, status.Jobs, 1)
	assert.Equal(t, JobDailyBatch, status.Jobs[0].ID)
	assert.False(t, status.Jobs[0].NextFireTime.IsZero(), "started scheduler must report a next fire time")
}

func TestRunNowUnknownJob(t *testing.T) {
	s := testScheduler(t)
	_, err := s.RunNow(context.Background(), "no_such_job")
	assert.Error(t, err)
}

func TestRunNowSkipsWhenHeld(t *testing.T) {
	s := testScheduler(t)

	// Simulate a run in flight.
	require.True(t, s.locks[JobDailyBatch].TryLock())
	defer s.locks[JobDailyBatch].Unlock()

	status, err := s.RunNow(context.Background(), JobDailyBatch)
	require.NoError(t, err)
	assert.Equal(t, StatusAlreadyRunning, status)
}

func TestRunNowConcurrentTriggersSkipNotQueue(t *testing.T) {
	s := testScheduler(t)

	require.True(t, s.locks[JobSkillStatsAggregate].TryLock())

	const n = 8
	results := make(chan RunStatus, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, err := s.RunNow(context.Background(), JobSkillStatsAggregate)
			assert.NoError(t, err)
			results <- status
		}()
	}
	wg.Wait()
	close(results)

	s.locks[JobSkillStatsAggregate].Unlock()

	for status := range results {
		assert.Equal(t, StatusAlreadyRunning, status, "triggers during a run must be skipped, never queued")
	}
}
