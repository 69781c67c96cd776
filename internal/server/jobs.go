package server

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/model"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/orchestrator"
)

// JobEventType distinguishes the kinds of progress updates a job emits.
// Grounded on moku's internal/app/orchestrator.go's JobEvent pattern
// (SPEC_FULL.md supplemented feature #6).
type JobEventType string

const (
	JobEventStatus JobEventType = "status"
	JobEventResult JobEventType = "result"
)

type JobEvent struct {
	JobID string       `json:"job_id"`
	Type  JobEventType `json:"type"`

	Status JobStatus `json:"status,omitempty"`
	Error  string    `json:"error,omitempty"`

	Verdict *model.Verdict `json:"verdict,omitempty"`
}

type JobStatus string

const (
	JobPending JobStatus = "pending"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// Job tracks one background /analyze/async run. enable_crawler analyses can
// run up to 30s (spec.md §5); the job lets a caller poll or subscribe
// instead of holding the HTTP connection open the whole time.
type Job struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Status    JobStatus `json:"status"`
	Error     string    `json:"error,omitempty"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at,omitempty"`
	Verdict   *model.Verdict `json:"verdict,omitempty"`
	Events    chan JobEvent  `json:"-"`
}

// jobManager is the in-memory job table backing /analyze/async,
// /jobs/{id}, and /ws/jobs/{id}.
type jobManager struct {
	engine *orchestrator.Engine

	mu   sync.Mutex
	jobs map[string]*Job
}

func newJobManager(engine *orchestrator.Engine) *jobManager {
	return &jobManager{engine: engine, jobs: make(map[string]*Job)}
}

func (m *jobManager) start(url string, opts orchestrator.Options) *Job {
	job := &Job{
		ID:        uuid.New().String(),
		URL:       url,
		Status:    JobPending,
		StartedAt: time.Now(),
		Events:    make(chan JobEvent, 8),
	}
	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()

	go m.run(job, opts)
	return job
}

func (m *jobManager) run(job *Job, opts orchestrator.Options) {
	m.setStatus(job, JobRunning, "")

	verdict, err := m.engine.Analyze(context.Background(), job.URL, opts)

	m.mu.Lock()
	job.EndedAt = time.Now()
	if err != nil {
		job.Status = JobFailed
		job.Error = err.Error()
	} else {
		job.Status = JobDone
		job.Verdict = verdict
	}
	m.mu.Unlock()

	m.emit(job.ID, JobEvent{JobID: job.ID, Type: JobEventResult, Status: job.Status, Error: job.Error, Verdict: verdict})
}

func (m *jobManager) setStatus(job *Job, status JobStatus, errMsg string) {
	m.mu.Lock()
	job.Status = status
	job.Error = errMsg
	m.mu.Unlock()
	m.emit(job.ID, JobEvent{JobID: job.ID, Type: JobEventStatus, Status: status, Error: errMsg})
}

func (m *jobManager) emit(jobID string, ev JobEvent) {
	m.mu.Lock()
	job, ok := m.jobs[jobID]
	m.mu.Unlock()
	if !ok || job.Events == nil {
		return
	}
	select {
	case job.Events <- ev:
	default:
	}
}

func (m *jobManager) get(jobID string) (*Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[jobID]
	return job, ok
}
