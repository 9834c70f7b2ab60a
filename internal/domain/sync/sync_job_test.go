package sync

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		name   string
		status JobStatus
		want   bool
	}{
		{"pending", JobStatusPending, false},
		{"running", JobStatusRunning, false},
		{"cancelling", JobStatusCancelling, false},
		{"succeeded", JobStatusSucceeded, true},
		{"failed", JobStatusFailed, true},
		{"partially succeeded", JobStatusPartiallySucceeded, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.IsTerminal())
		})
	}
}

func TestSyncJob_Lifecycle(t *testing.T) {
	job := NewSyncJob(uuid.New(), uuid.New())
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Nil(t, job.StartedAt)

	require.NoError(t, job.Start())
	assert.Equal(t, JobStatusRunning, job.Status)
	assert.NotNil(t, job.StartedAt)

	// Cannot start twice
	assert.Error(t, job.Start())

	job.RecordCreated()
	job.RecordUpdated()
	job.RecordConflicted()
	assert.Equal(t, 3, job.Processed)

	require.NoError(t, job.Complete())
	assert.Equal(t, JobStatusSucceeded, job.Status)
	assert.NotNil(t, job.CompletedAt)
	assert.True(t, job.IsTerminal())

	// Terminal jobs are immutable
	assert.Error(t, job.Fail("late"))
	assert.Error(t, job.Complete())
}

func TestSyncJob_PartialSuccess(t *testing.T) {
	job := NewSyncJob(uuid.New(), uuid.New())
	require.NoError(t, job.Start())

	job.RecordUpdated()
	job.RecordFailed()

	require.NoError(t, job.Complete())
	assert.Equal(t, JobStatusPartiallySucceeded, job.Status)
	assert.Equal(t, 1, job.Failed)
}

func TestSyncJob_Checkpoint(t *testing.T) {
	job := NewSyncJob(uuid.New(), uuid.New())
	require.NoError(t, job.Start())

	job.Checkpoint("page-3")
	assert.Equal(t, "page-3", job.Cursor)
}

func TestNewResumedSyncJob(t *testing.T) {
	job := NewResumedSyncJob(uuid.New(), uuid.New(), "page-7")
	assert.Equal(t, "page-7", job.Cursor)
	assert.Equal(t, JobStatusPending, job.Status)
}

func TestSyncJob_Cancellation(t *testing.T) {
	job := NewSyncJob(uuid.New(), uuid.New())

	// Only running jobs can be cancelled
	assert.Error(t, job.RequestCancel())

	require.NoError(t, job.Start())
	require.NoError(t, job.RequestCancel())
	assert.Equal(t, JobStatusCancelling, job.Status)
	assert.True(t, job.IsCancelRequested())

	job.RecordUpdated()

	require.NoError(t, job.ConfirmCancelled())
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, FailureReasonCancelled, job.FailureReason)
	assert.Equal(t, 1, job.Updated) // partial counters survive
}

func TestSyncJob_Fail(t *testing.T) {
	job := NewSyncJob(uuid.New(), uuid.New())
	require.NoError(t, job.Start())

	require.NoError(t, job.Fail("source unreachable"))
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, "source unreachable", job.FailureReason)
}
