// Package jobs tracks asynchronous batch submissions until clients
// collect their results.
package jobs

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/vitae/pkg/metrics"
)

// Status is the lifecycle state of one submission job.
type Status string

// Job lifecycle states.
const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusComplete   Status = "complete"
	StatusFailed     Status = "failed"
)

// Job is one tracked batch submission. AnalysisID is set once the
// record has been stored; Error once the submission failed.
type Job struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Status     Status    `json:"status"`
	Step       string    `json:"current_step"`
	AnalysisID string    `json:"analysis_id,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (j *Job) terminal() bool {
	return j.Status == StatusComplete || j.Status == StatusFailed
}

// Registry is an in-memory job table with bounded size. When full, the
// oldest finished job is evicted; running jobs are never dropped.
type Registry struct {
	mu      sync.RWMutex
	jobs    map[string]*Job
	order   []string
	maxSize int
	size    atomic.Int64
}

// Default registry configuration constants.
const defaultMaxSize = 10_000

// Option applies a configuration option to the Registry.
type Option func(*Registry)

// WithMaxSize bounds the number of jobs kept in memory.
func WithMaxSize(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.maxSize = n
		}
	}
}

// NewRegistry creates an in-memory job registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		jobs:    make(map[string]*Job),
		maxSize: defaultMaxSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create registers a new queued job and returns a copy of it.
func (r *Registry) Create(filename string) Job {
	now := time.Now().UTC()
	job := &Job{
		ID:        uuid.NewString(),
		Filename:  filename,
		Status:    StatusQueued,
		Step:      "queued",
		CreatedAt: now,
		UpdatedAt: now,
	}

	r.mu.Lock()
	r.evictLocked()
	r.jobs[job.ID] = job
	r.order = append(r.order, job.ID)
	r.size.Store(int64(len(r.jobs)))
	r.mu.Unlock()

	metrics.UpdateActiveJobs(int(r.size.Load()))
	return *job
}

// Get returns a copy of the job with the given id.
func (r *Registry) Get(id string) (Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// MarkProcessing transitions a job to processing with a step note.
func (r *Registry) MarkProcessing(id, step string) {
	r.update(id, func(j *Job) {
		j.Status = StatusProcessing
		j.Step = step
	})
}

// SetStep updates the progress note of a running job.
func (r *Registry) SetStep(id, step string) {
	r.update(id, func(j *Job) {
		j.Step = step
	})
}

// MarkComplete finishes a job successfully, pointing at the stored
// analysis record.
func (r *Registry) MarkComplete(id, analysisID string) {
	r.update(id, func(j *Job) {
		j.Status = StatusComplete
		j.Step = "analysis complete"
		j.AnalysisID = analysisID
	})
}

// MarkFailed finishes a job with an error message.
func (r *Registry) MarkFailed(id, msg string) {
	r.update(id, func(j *Job) {
		j.Status = StatusFailed
		j.Step = "error"
		j.Error = msg
	})
}

// Size returns the current number of tracked jobs.
func (r *Registry) Size() int64 {
	return r.size.Load()
}

func (r *Registry) update(id string, fn func(*Job)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return
	}
	fn(job)
	job.UpdatedAt = time.Now().UTC()
}

// evictLocked drops the oldest terminal job when the table is full.
func (r *Registry) evictLocked() {
	if len(r.jobs) < r.maxSize {
		return
	}
	for i, id := range r.order {
		job, ok := r.jobs[id]
		if ok && !job.terminal() {
			continue
		}
		if ok {
			delete(r.jobs, id)
		}
		r.order = append(r.order[:i], r.order[i+1:]...)
		return
	}
}
