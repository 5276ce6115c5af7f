// Package job owns compression job lifecycle: a session manager holding
// at most one active job, a worker goroutine per job, and event channels
// for progress observation.
package job

import (
	"context"
	"sync"
	"time"

	"github.com/alharthydev/compresspro/internal/types"
)

// Result is the terminal outcome of a job.
type Result struct {
	Status     types.JobStatus       `json:"status"`
	OutputPath string                `json:"output_path,omitempty"`
	Encoder    string                `json:"encoder,omitempty"`
	Attempts   []types.AttemptResult `json:"attempts,omitempty"`
	Diagnostic string                `json:"diagnostic,omitempty"`
}

// Event is a message from the worker to observers. Exactly one of
// Progress and Result is set.
type Event struct {
	JobID    string                `json:"job_id"`
	Progress *types.ProgressUpdate `json:"progress,omitempty"`
	Result   *Result               `json:"result,omitempty"`
}

// Snapshot is a point-in-time copy of a job's observable state.
type Snapshot struct {
	ID        string                `json:"id"`
	Status    types.JobStatus       `json:"status"`
	Progress  types.ProgressUpdate  `json:"progress"`
	Attempts  []types.AttemptResult `json:"attempts,omitempty"`
	Result    *Result               `json:"result,omitempty"`
	CreatedAt time.Time             `json:"created_at"`
}

// Job is one compression job. The worker goroutine is the only writer;
// observers read snapshots or subscribe to events.
type Job struct {
	id        string
	request   types.CompressionRequest
	createdAt time.Time
	cancel    context.CancelFunc

	mu          sync.RWMutex
	status      types.JobStatus
	progress    types.ProgressUpdate
	attempts    []types.AttemptResult
	result      *Result
	subscribers map[chan Event]struct{}
}

func newJob(id string, req types.CompressionRequest, cancel context.CancelFunc) *Job {
	return &Job{
		id:          id,
		request:     req,
		createdAt:   time.Now(),
		cancel:      cancel,
		status:      types.JobPending,
		subscribers: make(map[chan Event]struct{}),
	}
}

// ID returns the job identifier.
func (j *Job) ID() string {
	return j.id
}

// Request returns the immutable request this job was started with.
func (j *Job) Request() types.CompressionRequest {
	return j.request
}

// Snapshot returns a copy of the job's current observable state.
func (j *Job) Snapshot() Snapshot {
	j.mu.RLock()
	defer j.mu.RUnlock()

	snap := Snapshot{
		ID:        j.id,
		Status:    j.status,
		Progress:  j.progress,
		Attempts:  append([]types.AttemptResult(nil), j.attempts...),
		CreatedAt: j.createdAt,
	}
	if j.result != nil {
		r := *j.result
		snap.Result = &r
	}
	return snap
}

// Subscribe registers an event channel. A job that already finished
// delivers its terminal event immediately and closes the channel.
func (j *Job) Subscribe() chan Event {
	ch := make(chan Event, 16)

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.result != nil {
		r := *j.result
		ch <- Event{JobID: j.id, Result: &r}
		close(ch)
		return ch
	}

	j.subscribers[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a subscriber channel registered with Subscribe.
func (j *Job) Unsubscribe(ch chan Event) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if _, ok := j.subscribers[ch]; ok {
		delete(j.subscribers, ch)
		close(ch)
	}
}

func (j *Job) setStatus(status types.JobStatus) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = status
}

func (j *Job) setAttempts(attempts []types.AttemptResult) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.attempts = append([]types.AttemptResult(nil), attempts...)
}

// publishProgress stores the update and fans it out to subscribers.
// Slow subscribers drop updates rather than stall the worker.
func (j *Job) publishProgress(update types.ProgressUpdate) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.progress = update
	for ch := range j.subscribers {
		u := update
		select {
		case ch <- Event{JobID: j.id, Progress: &u}:
		default:
		}
	}
}

// finish records the terminal result, notifies subscribers and closes
// their channels.
func (j *Job) finish(result Result) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.status = result.Status
	j.result = &result
	if result.Status == types.JobCompleted {
		j.progress.Fraction = 1
	}

	for ch := range j.subscribers {
		r := result
		select {
		case ch <- Event{JobID: j.id, Result: &r}:
		default:
		}
		close(ch)
		delete(j.subscribers, ch)
	}
}
