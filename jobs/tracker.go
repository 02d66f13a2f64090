// Package jobs tracks per-URL scrape attempts. The tracker is the
// serialization point that prevents two workers from scraping the same URL
// concurrently: a URL maps to exactly one job, and only legal status
// transitions are accepted.
package jobs

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"openjuris/types"
)

// ErrNotFound is returned when a job id or URL is unknown.
var ErrNotFound = fmt.Errorf("scrape job not found")

// StateError reports an illegal status transition. It should not occur in
// normal operation; callers log it as a bug signal.
type StateError struct {
	JobID uuid.UUID
	From  types.JobStatus
	To    types.JobStatus
}

func (e *StateError) Error() string {
	return fmt.Sprintf("job %s: illegal transition %s -> %s", e.JobID, e.From, e.To)
}

// Tracker is an in-memory job registry keyed by URL.
type Tracker struct {
	mu    sync.Mutex
	byURL map[string]*types.ScrapeJob
	byID  map[uuid.UUID]*types.ScrapeJob
}

func NewTracker() *Tracker {
	return &Tracker{
		byURL: make(map[string]*types.ScrapeJob),
		byID:  make(map[uuid.UUID]*types.ScrapeJob),
	}
}

// CreateIfAbsent returns the job for url, creating a PENDING one if none
// exists. The second return value reports whether a new job was created.
func (t *Tracker) CreateIfAbsent(url string) (types.ScrapeJob, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if job, ok := t.byURL[url]; ok {
		return *job, false
	}

	now := time.Now()
	job := &types.ScrapeJob{
		ID:        uuid.New(),
		URL:       url,
		Status:    types.JobPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	t.byURL[url] = job
	t.byID[job.ID] = job
	return *job, true
}

// Get returns a snapshot of the job with the given id.
func (t *Tracker) Get(id uuid.UUID) (types.ScrapeJob, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.byID[id]
	if !ok {
		return types.ScrapeJob{}, ErrNotFound
	}
	return *job, nil
}

// GetByURL returns a snapshot of the job for url.
func (t *Tracker) GetByURL(url string) (types.ScrapeJob, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.byURL[url]
	if !ok {
		return types.ScrapeJob{}, ErrNotFound
	}
	return *job, nil
}

// MarkInProgress transitions a PENDING job to IN_PROGRESS.
func (t *Tracker) MarkInProgress(id uuid.UUID) error {
	return t.transition(id, func(job *types.ScrapeJob) error {
		if job.Status != types.JobPending {
			return &StateError{JobID: id, From: job.Status, To: types.JobInProgress}
		}
		job.Status = types.JobInProgress
		return nil
	})
}

// MarkCompleted transitions an IN_PROGRESS job to COMPLETED and records the
// resulting document. COMPLETED is terminal.
func (t *Tracker) MarkCompleted(id uuid.UUID, documentID uuid.UUID) error {
	return t.transition(id, func(job *types.ScrapeJob) error {
		if job.Status != types.JobInProgress {
			return &StateError{JobID: id, From: job.Status, To: types.JobCompleted}
		}
		job.Status = types.JobCompleted
		job.DocumentID = &documentID
		job.ErrorMessage = ""
		return nil
	})
}

// MarkFailed transitions an IN_PROGRESS job to FAILED, stores the error
// string and increments the retry counter.
func (t *Tracker) MarkFailed(id uuid.UUID, errMsg string) error {
	return t.transition(id, func(job *types.ScrapeJob) error {
		if job.Status != types.JobInProgress {
			return &StateError{JobID: id, From: job.Status, To: types.JobFailed}
		}
		job.Status = types.JobFailed
		job.ErrorMessage = errMsg
		job.RetryCount++
		return nil
	})
}

// Retry resets a FAILED job to PENDING so it becomes eligible for another
// attempt. Only FAILED jobs may be reset.
func (t *Tracker) Retry(id uuid.UUID) error {
	return t.transition(id, func(job *types.ScrapeJob) error {
		if job.Status != types.JobFailed {
			return &StateError{JobID: id, From: job.Status, To: types.JobPending}
		}
		job.Status = types.JobPending
		return nil
	})
}

// Pending returns up to limit jobs in PENDING state, oldest first.
func (t *Tracker) Pending(limit int) []types.ScrapeJob {
	return t.listByStatus(types.JobPending, limit)
}

// Failed returns up to limit jobs in FAILED state, oldest first. Used to
// drive retry sweeps.
func (t *Tracker) Failed(limit int) []types.ScrapeJob {
	return t.listByStatus(types.JobFailed, limit)
}

func (t *Tracker) listByStatus(status types.JobStatus, limit int) []types.ScrapeJob {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []types.ScrapeJob
	for _, job := range t.byURL {
		if job.Status == status {
			out = append(out, *job)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (t *Tracker) transition(id uuid.UUID, apply func(*types.ScrapeJob) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	job, ok := t.byID[id]
	if !ok {
		return ErrNotFound
	}
	if err := apply(job); err != nil {
		return err
	}
	job.UpdatedAt = time.Now()
	return nil
}
