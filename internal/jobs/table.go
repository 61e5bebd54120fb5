package jobs

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

var (
	// ErrNotFound is returned for unknown job ids.
	ErrNotFound = errors.New("job not found")
	// ErrExists is returned when creating a job whose id is already taken.
	ErrExists = errors.New("job already exists")
)

// Recorder persists job snapshots. Failures are reported to the table's
// error callback and never block status updates.
type Recorder interface {
	Save(ctx context.Context, job Job) error
}

// Table is the concurrent job-status map.
type Table struct {
	mu       sync.RWMutex
	jobs     map[string]*Job
	recorder Recorder
	onError  func(error)
	now      func() time.Time
}

// Option configures a Table.
type Option func(*Table)

// WithRecorder persists every created or updated job.
func WithRecorder(r Recorder, onError func(error)) Option {
	return func(t *Table) {
		t.recorder = r
		t.onError = onError
	}
}

// WithClock overrides the timestamp source (for tests).
func WithClock(now func() time.Time) Option {
	return func(t *Table) {
		if now != nil {
			t.now = now
		}
	}
}

// NewTable returns an empty table.
func NewTable(opts ...Option) *Table {
	t := &Table{jobs: make(map[string]*Job), now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Create inserts job. CreatedAt and UpdatedAt are stamped when zero.
func (t *Table) Create(job Job) (Job, error) {
	if job.ID == "" {
		return Job{}, errors.New("job id required")
	}
	t.mu.Lock()
	if _, ok := t.jobs[job.ID]; ok {
		t.mu.Unlock()
		return Job{}, ErrExists
	}
	now := t.now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	if job.UpdatedAt.IsZero() {
		job.UpdatedAt = now
	}
	stored := job
	t.jobs[job.ID] = &stored
	t.mu.Unlock()

	t.record(job)
	return job, nil
}

// Load inserts previously persisted jobs without re-recording them. Existing
// entries win.
func (t *Table) Load(jobs []Job) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, job := range jobs {
		if _, ok := t.jobs[job.ID]; ok || job.ID == "" {
			continue
		}
		stored := job
		t.jobs[job.ID] = &stored
	}
}

// Get returns a copy of the job.
func (t *Table) Get(id string) (Job, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	job, ok := t.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// List returns copies of every job, newest first.
func (t *Table) List() []Job {
	t.mu.RLock()
	out := make([]Job, 0, len(t.jobs))
	for _, job := range t.jobs {
		out = append(out, *job)
	}
	t.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Update applies fn to the job under the table lock and returns the result.
func (t *Table) Update(id string, fn func(*Job)) (Job, error) {
	t.mu.Lock()
	job, ok := t.jobs[id]
	if !ok {
		t.mu.Unlock()
		return Job{}, ErrNotFound
	}
	fn(job)
	job.ID = id
	job.UpdatedAt = t.now().UTC()
	snapshot := *job
	t.mu.Unlock()

	t.record(snapshot)
	return snapshot, nil
}

// Delete removes the job. Unknown ids are ignored.
func (t *Table) Delete(id string) {
	t.mu.Lock()
	delete(t.jobs, id)
	t.mu.Unlock()
}

// Len returns the number of tracked jobs.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.jobs)
}

func (t *Table) record(job Job) {
	if t.recorder == nil {
		return
	}
	if err := t.recorder.Save(context.Background(), job); err != nil && t.onError != nil {
		t.onError(err)
	}
}
