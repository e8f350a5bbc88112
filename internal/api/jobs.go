package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/Rhymer/core/cache"
	"github.com/FocuswithJustin/Rhymer/core/errors"
	"github.com/FocuswithJustin/Rhymer/core/partition"
	"github.com/FocuswithJustin/Rhymer/core/poem"
	"github.com/FocuswithJustin/Rhymer/core/rhyme"
	"github.com/FocuswithJustin/Rhymer/internal/batch"
	"github.com/FocuswithJustin/Rhymer/internal/logging"
)

// JobStatus represents the current state of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

func (s JobStatus) terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// JobPoem is one poem submitted to a batch job.
type JobPoem struct {
	ID     string   `json:"id,omitempty"`
	Title  string   `json:"title,omitempty"`
	Author string   `json:"author,omitempty"`
	Lines  []string `json:"lines"`
}

// JobRequest submits poems for asynchronous labeling.
type JobRequest struct {
	Mode  string    `json:"mode,omitempty"`
	Save  bool      `json:"save,omitempty"` // persist labeled poems when a store is configured
	Poems []JobPoem `json:"poems"`
}

// JobOutcome is the labeling of one poem in a job.
type JobOutcome struct {
	ID       string              `json:"id"`
	Groups   partition.Partition `json:"groups,omitempty"`
	Notation string              `json:"notation,omitempty"`
	Cached   bool                `json:"cached,omitempty"`
	Error    string              `json:"error,omitempty"`
}

// Job is an asynchronous batch labeling.
type Job struct {
	ID          string       `json:"id"`
	Status      JobStatus    `json:"status"`
	Mode        string       `json:"mode"`
	Total       int          `json:"total"`
	Done        int          `json:"done"`
	Failed      int          `json:"failed"`
	RunID       string       `json:"run_id,omitempty"`
	Outcomes    []JobOutcome `json:"outcomes,omitempty"`
	Error       string       `json:"error,omitempty"`
	CreatedAt   string       `json:"created_at"`
	UpdatedAt   string       `json:"updated_at"`
	CompletedAt string       `json:"completed_at,omitempty"`

	cancel context.CancelFunc
}

// JobStore manages batch jobs in memory. Pending and running jobs are kept
// until they finish; finished jobs move to an LRU that expires them after
// the retention period.
type JobStore struct {
	mu       sync.RWMutex
	active   map[string]*Job
	finished cache.Cache[string, *Job]
}

// NewJobStore creates a job store that keeps at most maxFinished finished
// jobs for retention each. Zero disables either limit.
func NewJobStore(retention time.Duration, maxFinished int) *JobStore {
	return &JobStore{
		active:   make(map[string]*Job),
		finished: cache.NewLRUCache[string, *Job](cache.Config{MaxSize: maxFinished, TTL: retention}),
	}
}

func (s *JobStore) create(mode rhyme.Mode, total int, cancel context.CancelFunc) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339)
	job := &Job{
		ID:        uuid.NewString(),
		Status:    JobStatusPending,
		Mode:      mode.String(),
		Total:     total,
		CreatedAt: now,
		UpdatedAt: now,
		cancel:    cancel,
	}
	s.active[job.ID] = job
	return job
}

// Get returns a snapshot of a job.
func (s *JobStore) Get(id string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.active[id]
	if !ok {
		if job, ok = s.finished.Get(id); !ok {
			return Job{}, false
		}
	}
	snap := *job
	snap.Outcomes = append([]JobOutcome(nil), job.Outcomes...)
	return snap, true
}

// update applies fn to an active job under the lock. Finished jobs are
// left untouched and update reports false.
func (s *JobStore) update(id string, fn func(*Job)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.active[id]
	if !ok {
		return false
	}
	fn(job)
	job.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	if job.Status.terminal() {
		s.retire(job)
	}
	return true
}

// Cancel stops a pending or running job.
func (s *JobStore) Cancel(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.active[id]
	if !ok {
		if job, ok = s.finished.Get(id); ok {
			return errors.NewConfiguration("job", fmt.Sprintf("job cannot be cancelled (status: %s)", job.Status))
		}
		return errors.NewNotFound("job", id)
	}

	job.Status = JobStatusCancelled
	job.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	s.retire(job)
	return nil
}

// retire releases a finished job's context and moves it to the finished
// cache. The caller holds s.mu.
func (s *JobStore) retire(job *Job) {
	job.cancel()
	job.CompletedAt = job.UpdatedAt
	delete(s.active, job.ID)
	s.finished.Put(job.ID, job)
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req JobRequest
	r.Body = http.MaxBytesReader(w, r.Body, 16*maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body")
		return
	}
	if len(req.Poems) == 0 {
		respondErr(w, errors.NewMalformed(-1, "job has no poems"))
		return
	}

	mode := s.cfg.DefaultMode
	if req.Mode != "" {
		m, err := rhyme.ParseMode(req.Mode)
		if err != nil {
			respondErr(w, err)
			return
		}
		mode = m
	}

	poems := make([]*poem.Poem, len(req.Poems))
	for i, jp := range req.Poems {
		if s.cfg.MaxLines > 0 && len(jp.Lines) > s.cfg.MaxLines {
			respondErr(w, errors.NewMalformed(-1, fmt.Sprintf("poem %d has %d lines, limit is %d", i, len(jp.Lines), s.cfg.MaxLines)))
			return
		}
		p := poem.New(jp.Title, jp.Author, jp.Lines)
		if jp.ID != "" {
			p.ID = jp.ID
		}
		poems[i] = p
	}

	ctx, cancel := context.WithCancel(context.Background())
	job := s.jobs.create(mode, len(poems), cancel)
	go s.runJob(ctx, job.ID, mode, req.Save && s.store != nil, poems)

	snap, _ := s.jobs.Get(job.ID)
	respond(w, http.StatusAccepted, snap)
}

func (s *Server) runJob(ctx context.Context, id string, mode rhyme.Mode, save bool, poems []*poem.Poem) {
	ctx = logging.WithRunID(ctx, id)

	var runID string
	if save {
		run, err := s.store.StartRun(ctx, mode.String(), "api job "+id)
		if err != nil {
			s.finishJob(id, JobStatusFailed, err)
			return
		}
		runID = run.ID
	}

	cfg := batch.Config{
		Workers: s.cfg.BatchWorkers,
		Mode:    mode,
		Memo:    s.memo,
		OnOutcome: func(ctx context.Context, o batch.Outcome) error {
			if save {
				if err := s.store.SavePoem(ctx, runID, mode.String(), o.Poem); err != nil {
					return err
				}
			}
			s.jobs.update(id, func(j *Job) {
				j.Done++
			})
			return nil
		},
	}
	runner, err := batch.NewRunner(s.engine, cfg)
	if err != nil {
		s.finishJob(id, JobStatusFailed, err)
		return
	}

	s.jobs.update(id, func(j *Job) {
		j.Status = JobStatusRunning
		j.RunID = runID
	})
	report, err := runner.Run(ctx, poems)
	if save {
		// The run record is finished even when the job was cancelled.
		if ferr := s.store.FinishRun(context.Background(), runID, report.Labeled, report.Failed); ferr != nil {
			logging.ErrorContext(ctx, "finishing run failed", "run_id", runID, "error", ferr)
		}
	}

	outcomes := make([]JobOutcome, len(report.Outcomes))
	for i, o := range report.Outcomes {
		out := JobOutcome{ID: o.Poem.ID, Groups: o.Groups, Cached: o.Cached}
		if o.Err != nil {
			out.Error = o.Err.Error()
		} else {
			out.Notation = o.Poem.Notation()
		}
		outcomes[i] = out
	}
	s.jobs.update(id, func(j *Job) {
		j.Outcomes = outcomes
		j.Failed = report.Failed
		j.Done = report.Labeled + report.Failed
	})

	if err != nil {
		s.finishJob(id, JobStatusCancelled, err)
		return
	}
	s.finishJob(id, JobStatusCompleted, nil)
}

func (s *Server) finishJob(id string, status JobStatus, err error) {
	applied := s.jobs.update(id, func(j *Job) {
		j.Status = status
		if err != nil {
			j.Error = err.Error()
		}
	})
	if applied {
		s.metrics.jobs.WithLabelValues(string(status)).Inc()
	}
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, ok := s.jobs.Get(r.PathValue("id"))
	if !ok {
		respondErr(w, errors.NewNotFound("job", r.PathValue("id")))
		return
	}
	respond(w, http.StatusOK, job)
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.jobs.Cancel(id); err != nil {
		if errors.Is(err, errors.ErrInvalidConfiguration) {
			respondError(w, http.StatusConflict, "JOB_FINISHED", err.Error())
			return
		}
		respondErr(w, err)
		return
	}
	s.metrics.jobs.WithLabelValues(string(JobStatusCancelled)).Inc()
	job, _ := s.jobs.Get(id)
	respond(w, http.StatusOK, job)
}
