package service

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"onboarding_backend/internal/milestones/domain"
	"onboarding_backend/platform/apperr"
)

// Status is the lifecycle state of a batch job.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Progress is a point-in-time snapshot of a job.
type Progress struct {
	JobID      string
	Scope      domain.Scope
	Status     Status
	Total      int64
	Processed  int64
	Succeeded  int64
	Failed     int64
	StartedAt  time.Time
	FinishedAt *time.Time
	Error      string
}

type progressRecord struct {
	id        string
	scope     domain.Scope
	startedAt time.Time

	total     atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64

	mu         sync.Mutex
	status     Status
	finishedAt *time.Time
	errMsg     string
}

func (r *progressRecord) snapshot() Progress {
	r.mu.Lock()
	status, finishedAt, errMsg := r.status, r.finishedAt, r.errMsg
	r.mu.Unlock()

	succeeded := r.succeeded.Load()
	failed := r.failed.Load()
	return Progress{
		JobID:      r.id,
		Scope:      r.scope,
		Status:     status,
		Total:      r.total.Load(),
		Processed:  succeeded + failed,
		Succeeded:  succeeded,
		Failed:     failed,
		StartedAt:  r.startedAt,
		FinishedAt: finishedAt,
		Error:      errMsg,
	}
}

// ProgressStore keeps job bookkeeping in memory. Counters are updated
// concurrently by workers; status transitions are serialized per job.
type ProgressStore struct {
	mu   sync.RWMutex
	jobs map[string]*progressRecord
	now  func() time.Time
}

// NewProgressStore creates an empty store.
func NewProgressStore() *ProgressStore {
	return &ProgressStore{
		jobs: make(map[string]*progressRecord),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Create registers a running job.
func (s *ProgressStore) Create(jobID string, scope domain.Scope) Progress {
	rec := &progressRecord{id: jobID, scope: scope, startedAt: s.now(), status: StatusRunning}
	s.mu.Lock()
	s.jobs[jobID] = rec
	s.mu.Unlock()
	return rec.snapshot()
}

// Get returns a snapshot of one job.
func (s *ProgressStore) Get(jobID string) (Progress, error) {
	rec, ok := s.lookup(jobID)
	if !ok {
		return Progress{}, apperr.NotFound("job not found")
	}
	return rec.snapshot(), nil
}

// List returns every known job, most recent first.
func (s *ProgressStore) List() []Progress {
	s.mu.RLock()
	out := make([]Progress, 0, len(s.jobs))
	for _, rec := range s.jobs {
		out = append(out, rec.snapshot())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.After(out[j].StartedAt)
		}
		return out[i].JobID < out[j].JobID
	})
	return out
}

// Clear drops a job's bookkeeping. A running job keeps running; its later
// updates are discarded.
func (s *ProgressStore) Clear(jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[jobID]; !ok {
		return apperr.NotFound("job not found")
	}
	delete(s.jobs, jobID)
	return nil
}

// SetTotal records the population size.
func (s *ProgressStore) SetTotal(jobID string, total int64) {
	if rec, ok := s.lookup(jobID); ok {
		rec.total.Store(total)
	}
}

// RecordResult counts one processed driver.
func (s *ProgressStore) RecordResult(jobID string, ok bool) {
	rec, found := s.lookup(jobID)
	if !found {
		return
	}
	if ok {
		rec.succeeded.Add(1)
	} else {
		rec.failed.Add(1)
	}
}

// Finish moves a running job to a terminal status. The total is raised to
// the processed count when the population grew while streaming.
func (s *ProgressStore) Finish(jobID string, status Status, errMsg string) (Progress, bool) {
	rec, ok := s.lookup(jobID)
	if !ok {
		return Progress{}, false
	}

	processed := rec.succeeded.Load() + rec.failed.Load()
	if processed > rec.total.Load() {
		rec.total.Store(processed)
	}

	rec.mu.Lock()
	if rec.status == StatusRunning {
		at := s.now()
		rec.status = status
		rec.finishedAt = &at
		rec.errMsg = errMsg
	}
	rec.mu.Unlock()
	return rec.snapshot(), true
}

func (s *ProgressStore) lookup(jobID string) (*progressRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.jobs[jobID]
	return rec, ok
}
