package store

import (
	"context"
	"sync"
	"time"

	"github.com/fleetify/report-service/internal/domain"
)

// MemoryJobStore keeps job records in a process-local map. Records are copied
// on read and replaced wholesale on write, so readers never see a
// half-updated record.
type MemoryJobStore struct {
	mu   sync.RWMutex
	jobs map[string]domain.ReportJob
}

// NewMemoryJobStore creates an empty in-memory job store.
func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{
		jobs: make(map[string]domain.ReportJob),
	}
}

func (s *MemoryJobStore) Create(_ context.Context, job *domain.ReportJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[job.ID]; ok {
		return domain.ErrJobExists
	}
	s.jobs[job.ID] = *job
	return nil
}

func (s *MemoryJobStore) Get(_ context.Context, jobID string) (*domain.ReportJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return &job, nil
}

func (s *MemoryJobStore) UpdateStatus(_ context.Context, jobID string, status domain.JobStatus, progress int, errorMessage string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return domain.ErrJobNotFound
	}

	if !job.Status.CanTransition(status) {
		// Terminal records are immutable; invalid transitions are no-ops.
		return nil
	}

	job.Status = status
	job.ErrorMessage = errorMessage

	// Progress checkpoints never move backwards while the job is live.
	// A failure freezes progress where it was.
	switch {
	case status == domain.StatusCompleted:
		job.Progress = 100
	case status == domain.StatusFailed:
		// keep current progress
	case progress > job.Progress:
		job.Progress = progress
	}

	if status.Terminal() && job.CompletedAt == nil {
		now := time.Now()
		job.CompletedAt = &now
	}

	s.jobs[jobID] = job
	return nil
}

// Cleanup removes records created before the given age and returns how many
// were evicted. Mirrors the periodic sweep the dashboard relies on to keep
// the process-local map bounded.
func (s *MemoryJobStore) Cleanup(maxAge time.Duration) int {
	threshold := time.Now().Add(-maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, job := range s.jobs {
		if job.CreatedAt.Before(threshold) {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed
}

// Keys returns the ids of all live records.
func (s *MemoryJobStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.jobs))
	for id := range s.jobs {
		ids = append(ids, id)
	}
	return ids
}

// MemoryResultStore keeps rendered documents in a process-local map.
type MemoryResultStore struct {
	mu      sync.RWMutex
	results map[string][]byte
}

// NewMemoryResultStore creates an empty in-memory result store.
func NewMemoryResultStore() *MemoryResultStore {
	return &MemoryResultStore{
		results: make(map[string][]byte),
	}
}

func (s *MemoryResultStore) Put(_ context.Context, jobID string, data []byte) error {
	buf := make([]byte, len(data))
	copy(buf, data)

	s.mu.Lock()
	defer s.mu.Unlock()

	// Last write wins on duplicate delivery.
	s.results[jobID] = buf
	return nil
}

func (s *MemoryResultStore) Get(_ context.Context, jobID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.results[jobID]
	if !ok {
		return nil, domain.ErrResultNotFound
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	return buf, nil
}

// Sweep drops documents whose job record no longer exists.
func (s *MemoryResultStore) Sweep(liveIDs []string) int {
	live := make(map[string]struct{}, len(liveIDs))
	for _, id := range liveIDs {
		live[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id := range s.results {
		if _, ok := live[id]; !ok {
			delete(s.results, id)
			removed++
		}
	}
	return removed
}
