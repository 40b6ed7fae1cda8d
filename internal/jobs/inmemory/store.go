package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dvloznov/pharmainsight/internal/jobs"
)

// DefaultRetention is how many finished export jobs a Store keeps.
const DefaultRetention = 500

// Store keeps export jobs for the lifetime of the process.
// Callers always receive copies. Once more than Retention jobs have
// finished, the oldest finished ones are evicted; pending and running
// jobs are never evicted.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*jobs.ExportSessionJob

	Retention int
}

// NewStore returns an empty store with DefaultRetention.
func NewStore() *Store {
	return &Store{
		jobs:      make(map[string]*jobs.ExportSessionJob),
		Retention: DefaultRetention,
	}
}

// SaveJob stores a copy of job, replacing any earlier state with the same ID.
func (s *Store) SaveJob(ctx context.Context, job *jobs.ExportSessionJob) error {
	if job.JobID == "" {
		return fmt.Errorf("SaveJob: job ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	jobCopy := *job
	s.jobs[job.JobID] = &jobCopy
	if finished(jobCopy.Status) {
		s.evict()
	}

	return nil
}

// GetJob returns a copy of one job or ErrJobNotFound.
func (s *Store) GetJob(ctx context.Context, jobID string) (*jobs.ExportSessionJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("GetJob: %s: %w", jobID, jobs.ErrJobNotFound)
	}

	jobCopy := *job
	return &jobCopy, nil
}

// ListJobs returns the jobs matching filter, newest first.
func (s *Store) ListJobs(ctx context.Context, filter jobs.JobFilter) ([]*jobs.ExportSessionJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*jobs.ExportSessionJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		if filter.SessionID != "" && job.SessionID != filter.SessionID {
			continue
		}
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		jobCopy := *job
		result = append(result, &jobCopy)
	}
	sortNewestFirst(result)

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return []*jobs.ExportSessionJob{}, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}

	return result, nil
}

// UpdateJobStatus moves a job to status. Completing a job clears its error;
// any finished status stamps CompletedAt if it is still unset.
func (s *Store) UpdateJobStatus(ctx context.Context, jobID string, status jobs.JobStatus, errorMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return fmt.Errorf("UpdateJobStatus: %s: %w", jobID, jobs.ErrJobNotFound)
	}

	job.Status = status
	switch {
	case errorMsg != "":
		job.Error = errorMsg
	case status == jobs.JobStatusCompleted:
		job.Error = ""
	}
	if finished(status) {
		if job.CompletedAt == nil {
			now := time.Now()
			job.CompletedAt = &now
		}
		s.evict()
	}

	return nil
}

// evict drops the oldest finished jobs above Retention. Callers hold mu.
func (s *Store) evict() {
	if s.Retention <= 0 {
		return
	}

	var done []*jobs.ExportSessionJob
	for _, job := range s.jobs {
		if finished(job.Status) {
			done = append(done, job)
		}
	}
	if len(done) <= s.Retention {
		return
	}

	sortNewestFirst(done)
	for _, job := range done[s.Retention:] {
		delete(s.jobs, job.JobID)
	}
}

func finished(status jobs.JobStatus) bool {
	return status == jobs.JobStatusCompleted || status == jobs.JobStatusFailed
}

func sortNewestFirst(list []*jobs.ExportSessionJob) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].JobID < list[j].JobID
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}

var _ jobs.JobStore = (*Store)(nil)
