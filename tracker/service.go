// CLAUDE:SUMMARY Update orchestration: single-flight RunAll over all projects, sample append, views.
// Package tracker orchestrates the tracking cycle: it walks the configured
// projects, syncs each clone, extracts the current counts and appends one
// sample per project, recording per-project outcomes along the way.
//
// Exactly one update cycle runs at a time. Within a process that is a mutex;
// across processes (the daemon and the cron binary share one database) it is
// a SQLite lease, so a manual trigger during a scheduled run is refused
// instead of doubling the work.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/scrib/gitsync"
	"github.com/hazyhaar/scrib/samples"
	"github.com/hazyhaar/scrib/series"
	"github.com/hazyhaar/scrib/texdoc"
)

// Synchronizer is the clone lifecycle the service drives. *gitsync.Syncer
// implements it.
type Synchronizer interface {
	LocalPath(projectID string) (string, bool)
	Clone(ctx context.Context, projectID, url string) (string, error)
	Pull(ctx context.Context, projectID string) (changed bool, msg string, err error)
	LatestRevision(projectID string) string
	Remove(projectID string) error
}

// Extractor computes counts from a synced working tree. *texdoc.Extractor
// implements it.
type Extractor interface {
	Extract(ctx context.Context, dir string) texdoc.Result
}

// ProjectStatus is one project's outcome within an update cycle.
type ProjectStatus struct {
	ProjectID string    `json:"project_id"`
	Name      string    `json:"name,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	WordCount *int64    `json:"word_count"`
	PageCount *int64    `json:"page_count"`
}

// Outcome classifies a finished update cycle.
type Outcome string

const (
	OutcomeCompleted       Outcome = "completed"
	OutcomePartiallyFailed Outcome = "partially_failed"
)

// RunReport summarises one update cycle.
type RunReport struct {
	RunID    string          `json:"run_id"`
	Started  time.Time       `json:"started"`
	Finished time.Time       `json:"finished"`
	Outcome  Outcome         `json:"outcome"`
	Statuses []ProjectStatus `json:"statuses"`
}

// ServiceStatus is a point-in-time snapshot for the status endpoint.
type ServiceStatus struct {
	Running        bool       `json:"running"`
	ProjectCount   int        `json:"project_count"`
	UpdateInterval string     `json:"update_interval"`
	LastRun        *RunReport `json:"last_run,omitempty"`
}

// Service wires the pieces together.
type Service struct {
	cfg    *Config
	sync   Synchronizer
	extr   Extractor
	store  *samples.Store
	runlog *RunLog
	lease  *Lease
	loc    *time.Location
	logger *slog.Logger

	runMu sync.Mutex // in-process single flight for RunAll

	mu      sync.RWMutex
	running bool
	lastRun *RunReport
}

// NewService creates the orchestrator. loc is the viewer timezone used for
// all calendar arithmetic in the aggregated views; nil means UTC.
func NewService(cfg *Config, syncer Synchronizer, extr Extractor, store *samples.Store, runlog *RunLog, lease *Lease, loc *time.Location, logger *slog.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:    cfg,
		sync:   syncer,
		extr:   extr,
		store:  store,
		runlog: runlog,
		lease:  lease,
		loc:    loc,
		logger: logger,
	}
}

// Config exposes the mutable configuration.
func (s *Service) Config() *Config { return s.cfg }

// Location returns the viewer timezone.
func (s *Service) Location() *time.Location { return s.loc }

// RunAll executes one full update cycle over every configured project.
// Returns ErrRunInProgress when a cycle is already running, here or in
// another process holding the run lease. Per-project failures never abort
// the cycle; they are reported in the RunReport instead.
func (s *Service) RunAll(ctx context.Context) (*RunReport, error) {
	if !s.runMu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.runMu.Unlock()

	if s.lease != nil {
		ok, err := s.lease.TryAcquire(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrRunInProgress
		}
		defer func() {
			if err := s.lease.Release(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("run lease release failed", "error", err)
			}
		}()
	}

	report := &RunReport{
		RunID:   fmt.Sprintf("run_%d", time.Now().UnixMilli()),
		Started: time.Now().UTC(),
		Outcome: OutcomeCompleted,
	}
	s.setRunning(true)
	defer func() {
		report.Finished = time.Now().UTC()
		s.finishRun(report)
	}()

	projects := s.cfg.Projects()
	s.logger.Info("update cycle started", "run_id", report.RunID, "projects", len(projects))

	for _, p := range projects {
		if ctx.Err() != nil {
			s.logger.Warn("update cycle cancelled", "run_id", report.RunID)
			report.Outcome = OutcomePartiallyFailed
			break
		}

		st := s.updateProject(ctx, p)
		report.Statuses = append(report.Statuses, st)
		if !st.Success {
			report.Outcome = OutcomePartiallyFailed
		}
		if s.runlog != nil {
			s.runlog.Record(ctx, report.RunID, st)
		}
		if s.lease != nil {
			if err := s.lease.Renew(ctx); err != nil {
				s.logger.Warn("run lease renew failed", "error", err)
			}
		}
	}

	s.logger.Info("update cycle finished",
		"run_id", report.RunID, "outcome", report.Outcome, "projects", len(report.Statuses))
	return report, nil
}

// updateProject syncs one project, extracts its counts and appends a sample.
func (s *Service) updateProject(ctx context.Context, p Project) ProjectStatus {
	st := ProjectStatus{
		ProjectID: p.ID,
		Name:      p.Name,
		Timestamp: time.Now().UTC(),
	}

	syncMsg, err := s.syncProject(ctx, p)
	if err != nil {
		st.Message = fmt.Sprintf("Sync failed: %v", err)
		s.logger.Warn("project sync failed", "project_id", p.ID, "error", err)
		return st
	}

	dir, ok := s.sync.LocalPath(p.ID)
	if !ok {
		st.Message = "Sync failed: clone missing after sync"
		return st
	}

	prev, err := s.store.Latest(ctx, p.ID)
	if err != nil {
		s.logger.Warn("latest sample lookup failed", "project_id", p.ID, "error", err)
	}

	res := s.extr.Extract(ctx, dir)
	st.WordCount = res.WordCount
	st.PageCount = res.PageCount
	st.Success = res.WordCount != nil || res.PageCount != nil
	st.Message = fmt.Sprintf("%s. %s", syncMsg, res.Status)

	sample := samples.Sample{
		ProjectID:  p.ID,
		Timestamp:  st.Timestamp,
		WordCount:  res.WordCount,
		PageCount:  res.PageCount,
		RevisionID: s.sync.LatestRevision(p.ID),
	}
	if err := s.store.Append(ctx, sample); err != nil {
		st.Success = false
		st.Message = fmt.Sprintf("%s. Store failed: %v", syncMsg, err)
		s.logger.Error("sample append failed", "project_id", p.ID, "error", err)
		return st
	}

	attrs := []any{"project_id", p.ID, "words", ptrVal(res.WordCount), "pages", ptrVal(res.PageCount)}
	if prev != nil && prev.WordCount != nil && res.WordCount != nil {
		attrs = append(attrs, "words_since_last", *res.WordCount-*prev.WordCount)
	}
	s.logger.Info("project updated", attrs...)
	return st
}

// syncProject clones on first contact, pulls afterwards.
func (s *Service) syncProject(ctx context.Context, p Project) (string, error) {
	if _, ok := s.sync.LocalPath(p.ID); !ok {
		if _, err := s.sync.Clone(ctx, p.ID, p.GitURL); err != nil {
			if errors.Is(err, gitsync.ErrNoCredentials) {
				return "", fmt.Errorf("%w: set OVERLEAF_TOKEN", ErrNoTokens)
			}
			return "", err
		}
		return "Cloned successfully", nil
	}
	_, msg, err := s.sync.Pull(ctx, p.ID)
	if err != nil {
		return "", err
	}
	return msg, nil
}

// DeleteProject removes a project everywhere: configuration, local clone and
// sample history.
func (s *Service) DeleteProject(ctx context.Context, id string) error {
	if err := s.cfg.RemoveProject(id); err != nil {
		return err
	}
	if err := s.sync.Remove(id); err != nil && !errors.Is(err, gitsync.ErrNotFound) {
		s.logger.Warn("clone removal failed", "project_id", id, "error", err)
	}
	n, _ := s.store.CountSamples(ctx, id)
	if err := s.store.DeleteProject(ctx, id); err != nil {
		return err
	}
	s.logger.Info("project deleted", "project_id", id, "samples_removed", n)
	return nil
}

// Status returns a snapshot for the status endpoint.
func (s *Service) Status() ServiceStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ServiceStatus{
		Running:        s.running,
		ProjectCount:   len(s.cfg.Projects()),
		UpdateInterval: s.cfg.UpdateInterval().String(),
		LastRun:        s.lastRun,
	}
}

// ProjectSummary returns the current counts and deltas for one project.
// Returns nil with no error when the project has no samples yet.
func (s *Service) ProjectSummary(ctx context.Context, id string) (*series.Summary, error) {
	if _, err := s.cfg.Project(id); err != nil {
		return nil, err
	}
	history, err := s.store.History(ctx, id, nil, nil)
	if err != nil {
		return nil, err
	}
	return series.Summarize(history, s.loc), nil
}

// SeriesMatrix pivots all projects' history onto one chart-ready grid.
func (s *Service) SeriesMatrix(ctx context.Context, metric series.Metric) (*series.Matrix, error) {
	history, err := s.store.AllHistory(ctx, nil, nil)
	if err != nil {
		return nil, err
	}
	return series.Pivot(history, s.cfg.Names(), metric, s.loc), nil
}

// DailyMatrix returns per-day deltas for all projects.
func (s *Service) DailyMatrix(ctx context.Context, metric series.Metric) (*series.DailyMatrix, error) {
	m, err := s.SeriesMatrix(ctx, metric)
	if err != nil {
		return nil, err
	}
	return series.DailyDeltas(m), nil
}

// ProductivityStats computes cross-project writing statistics from daily
// word deltas.
func (s *Service) ProductivityStats(ctx context.Context) (series.Stats, error) {
	d, err := s.DailyMatrix(ctx, series.MetricWords)
	if err != nil {
		return series.Stats{}, err
	}
	return series.Productivity(d, time.Now().In(s.loc)), nil
}

func (s *Service) setRunning(v bool) {
	s.mu.Lock()
	s.running = v
	s.mu.Unlock()
}

func (s *Service) finishRun(r *RunReport) {
	s.mu.Lock()
	s.running = false
	s.lastRun = r
	s.mu.Unlock()
}

func ptrVal(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
