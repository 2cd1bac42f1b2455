package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"cityhr/internal/apperr"
)

const (
	JobReport = "report_generation"
	JobBackup = "database_backup"
)

const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

type RunFunc func(context.Context) (any, error)

// Run is one recorded execution in job_runs.
type Run struct {
	ID          string     `db:"id" json:"id"`
	JobType     string     `db:"job_type" json:"jobType"`
	Status      string     `db:"status" json:"status"`
	Details     string     `db:"details_json" json:"details"`
	Error       string     `db:"error" json:"error,omitempty"`
	CreatedBy   string     `db:"created_by" json:"createdBy"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	CompletedAt *time.Time `db:"completed_at" json:"completedAt,omitempty"`
}

type Service struct {
	DB    *sqlx.DB
	queue chan job
	wg    sync.WaitGroup
}

type job struct {
	RunID     string
	Type      string
	CreatedBy string
	Run       RunFunc
}

func New(db *sqlx.DB) *Service {
	return &Service{
		DB:    db,
		queue: make(chan job, 128),
	}
}

// Start launches the worker. It stops when ctx is cancelled; Wait blocks
// until it has.
func (s *Service) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.worker(ctx)
	}()
}

func (s *Service) Wait() {
	s.wg.Wait()
}

// Schedule enqueues run every interval until ctx is cancelled.
func (s *Service) Schedule(ctx context.Context, jobType string, interval time.Duration, run RunFunc) {
	if interval <= 0 {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.Enqueue(ctx, jobType, "scheduler", run); err != nil {
					slog.Warn("scheduled job enqueue failed", "jobType", jobType, "err", err)
				}
			}
		}
	}()
}

// Enqueue records a queued run and hands it to the worker. The returned ID
// can be polled with Get.
func (s *Service) Enqueue(ctx context.Context, jobType, createdBy string, run RunFunc) (string, error) {
	runID, err := s.insertRun(ctx, jobType, createdBy, StatusQueued)
	if err != nil {
		return "", err
	}
	select {
	case s.queue <- job{RunID: runID, Type: jobType, CreatedBy: createdBy, Run: run}:
		return runID, nil
	default:
		slog.Warn("job queue full", "jobType", jobType)
		s.finishRun(context.WithoutCancel(ctx), runID, nil, errors.New("job queue full"))
		return "", fmt.Errorf("%w: job queue full", apperr.ErrIO)
	}
}

// RunNow executes run synchronously and records it.
func (s *Service) RunNow(ctx context.Context, jobType, createdBy string, run RunFunc) (any, error) {
	runID, err := s.insertRun(ctx, jobType, createdBy, StatusRunning)
	if err != nil {
		slog.Warn("job run insert failed", "err", err)
	}
	return s.runJob(ctx, job{RunID: runID, Type: jobType, CreatedBy: createdBy, Run: run})
}

func (s *Service) Get(ctx context.Context, id string) (Run, error) {
	var out Run
	err := s.DB.GetContext(ctx, &out, s.DB.Rebind(`
    SELECT id, job_type, status, details_json, error, created_by, created_at, completed_at
    FROM job_runs
    WHERE id = ?
  `), id)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: job run %s", apperr.ErrNotFound, id)
	}
	return out, err
}

func (s *Service) List(ctx context.Context, jobType string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	out := []Run{}
	err := s.DB.SelectContext(ctx, &out, s.DB.Rebind(`
    SELECT id, job_type, status, details_json, error, created_by, created_at, completed_at
    FROM job_runs
    WHERE (? = '' OR job_type = ?)
    ORDER BY created_at DESC
    LIMIT ?
  `), jobType, jobType, limit)
	return out, err
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "runId", j.RunID, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	if j.RunID != "" {
		if _, err := s.DB.ExecContext(ctx, s.DB.Rebind("UPDATE job_runs SET status = ? WHERE id = ?"), StatusRunning, j.RunID); err != nil {
			slog.Warn("job run update failed", "err", err)
		}
	}
	details, err := j.Run(ctx)
	if j.RunID != "" {
		s.finishRun(context.WithoutCancel(ctx), j.RunID, details, err)
	}
	return details, err
}

func (s *Service) insertRun(ctx context.Context, jobType, createdBy, status string) (string, error) {
	runID := uuid.NewString()
	if _, err := s.DB.ExecContext(ctx, s.DB.Rebind(`
    INSERT INTO job_runs (id, job_type, status, details_json, created_by, created_at)
    VALUES (?,?,?,?,?,?)
  `), runID, jobType, status, "{}", createdBy, time.Now().UTC()); err != nil {
		return "", err
	}
	return runID, nil
}

func (s *Service) finishRun(ctx context.Context, runID string, details any, runErr error) {
	status, message := StatusCompleted, ""
	if runErr != nil {
		status, message = StatusFailed, runErr.Error()
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil || details == nil {
		if err != nil {
			slog.Warn("job details marshal failed", "err", err)
		}
		detailsJSON = []byte("{}")
	}
	if _, err := s.DB.ExecContext(ctx, s.DB.Rebind(`
    UPDATE job_runs
    SET status = ?, details_json = ?, error = ?, completed_at = ?
    WHERE id = ?
  `), status, string(detailsJSON), message, time.Now().UTC(), runID); err != nil {
		slog.Warn("job run update failed", "err", err)
	}
}
