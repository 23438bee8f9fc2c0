package pipeline

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// Status is the state of a run or of one document within it.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusPartial   Status = "partial"
	StatusFailed    Status = "failed"
)

// Job tracks one run submitted through the orchestrator.
type Job struct {
	mu sync.Mutex

	ID        string    `json:"job_id"`
	Status    Status    `json:"status"`
	Error     string    `json:"error,omitempty"`
	Summary   *Summary  `json:"summary,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewJob returns a queued job with a fresh id.
func NewJob() *Job {
	now := time.Now()
	return &Job{ID: newJobID(now), Status: StatusQueued, CreatedAt: now, UpdatedAt: now}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes finished jobs older than the TTL.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		snap := job.Snapshot()
		if snap.Status == StatusQueued || snap.Status == StatusRunning {
			continue
		}
		if now.Sub(snap.UpdatedAt) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status Status) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.UpdatedAt = time.Now()
}

// Finish records the outcome of the run.
func (j *Job) Finish(sum *Summary, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Summary = sum
	switch {
	case err != nil:
		j.Status = StatusFailed
		j.Error = err.Error()
	case sum != nil && sum.Failed > 0 && sum.Processed > 0:
		j.Status = StatusPartial
	case sum != nil && sum.Failed > 0:
		j.Status = StatusFailed
	default:
		j.Status = StatusCompleted
	}
	j.UpdatedAt = time.Now()
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string    `json:"job_id"`
	Status    Status    `json:"status"`
	Error     string    `json:"error,omitempty"`
	Summary   *Summary  `json:"summary,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return JobSnapshot{
		ID:        j.ID,
		Status:    j.Status,
		Error:     j.Error,
		Summary:   j.Summary,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}

func newJobID(now time.Time) string {
	var b [6]byte
	rand.Read(b[:])
	return now.UTC().Format("20060102T150405") + "-" + hex.EncodeToString(b[:])
}
