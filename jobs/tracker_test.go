package jobs

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openjuris/types"
)

func TestCreateIfAbsentIsIdempotent(t *testing.T) {
	tracker := NewTracker()

	first, created := tracker.CreateIfAbsent("https://lawphil.net/ra5.html")
	require.True(t, created)
	assert.Equal(t, types.JobPending, first.Status)

	second, created := tracker.CreateIfAbsent("https://lawphil.net/ra5.html")
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
}

func TestJobLifecycle(t *testing.T) {
	tracker := NewTracker()
	job, _ := tracker.CreateIfAbsent("https://lawphil.net/ra5.html")
	docID := uuid.New()

	require.NoError(t, tracker.MarkInProgress(job.ID))
	require.NoError(t, tracker.MarkCompleted(job.ID, docID))

	got, err := tracker.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, types.JobCompleted, got.Status)
	require.NotNil(t, got.DocumentID)
	assert.Equal(t, docID, *got.DocumentID)
	assert.Empty(t, got.ErrorMessage)
}

func TestFailureAndRetry(t *testing.T) {
	tracker := NewTracker()
	job, _ := tracker.CreateIfAbsent("https://lawphil.net/ra6.html")

	require.NoError(t, tracker.MarkInProgress(job.ID))
	require.NoError(t, tracker.MarkFailed(job.ID, "fetch: status 500"))

	got, err := tracker.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, types.JobFailed, got.Status)
	assert.Equal(t, 1, got.RetryCount)
	assert.Equal(t, "fetch: status 500", got.ErrorMessage)

	require.NoError(t, tracker.Retry(job.ID))
	got, _ = tracker.Get(job.ID)
	assert.Equal(t, types.JobPending, got.Status)
	assert.Equal(t, 1, got.RetryCount)
}

func TestIllegalTransitionsRejected(t *testing.T) {
	tracker := NewTracker()
	job, _ := tracker.CreateIfAbsent("https://lawphil.net/ra7.html")

	// PENDING cannot complete, fail or retry.
	var stateErr *StateError
	assert.ErrorAs(t, tracker.MarkCompleted(job.ID, uuid.New()), &stateErr)
	assert.ErrorAs(t, tracker.MarkFailed(job.ID, "x"), &stateErr)
	assert.ErrorAs(t, tracker.Retry(job.ID), &stateErr)

	// Claiming twice fails the second claim.
	require.NoError(t, tracker.MarkInProgress(job.ID))
	assert.ErrorAs(t, tracker.MarkInProgress(job.ID), &stateErr)

	// COMPLETED is terminal.
	require.NoError(t, tracker.MarkCompleted(job.ID, uuid.New()))
	assert.ErrorAs(t, tracker.MarkInProgress(job.ID), &stateErr)
	assert.ErrorAs(t, tracker.Retry(job.ID), &stateErr)
}

func TestUnknownJob(t *testing.T) {
	tracker := NewTracker()

	_, err := tracker.Get(uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, tracker.MarkInProgress(uuid.New()), ErrNotFound)

	_, err = tracker.GetByURL("https://lawphil.net/none.html")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListByStatus(t *testing.T) {
	tracker := NewTracker()

	a, _ := tracker.CreateIfAbsent("https://lawphil.net/a.html")
	b, _ := tracker.CreateIfAbsent("https://lawphil.net/b.html")
	tracker.CreateIfAbsent("https://lawphil.net/c.html")

	require.NoError(t, tracker.MarkInProgress(b.ID))
	require.NoError(t, tracker.MarkFailed(b.ID, "boom"))

	pending := tracker.Pending(10)
	require.Len(t, pending, 2)
	assert.Equal(t, a.ID, pending[0].ID)

	failed := tracker.Failed(10)
	require.Len(t, failed, 1)
	assert.Equal(t, b.ID, failed[0].ID)

	assert.Len(t, tracker.Pending(1), 1)
}
