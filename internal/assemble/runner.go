package assemble

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/megastudio/studio-agent/internal/studio"
)

// Runner polls for pending assemble jobs and executes them one at a time.
type Runner struct {
	assembler    *Assembler
	repo         studio.Repository
	logger       *slog.Logger
	pollInterval time.Duration
	running      atomic.Bool
	paused       atomic.Bool
}

func NewRunner(assembler *Assembler, repo studio.Repository, logger *slog.Logger) *Runner {
	return &Runner{
		assembler:    assembler,
		repo:         repo,
		logger:       logger,
		pollInterval: 5 * time.Second,
	}
}

func (r *Runner) Start(ctx context.Context) {
	if r.running.Swap(true) {
		return
	}

	r.logger.Info("assembly runner started")

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("assembly runner stopping")
			r.running.Store(false)
			return
		case <-ticker.C:
			if !r.paused.Load() {
				r.processNextJob(ctx)
			}
		}
	}
}

func (r *Runner) Pause() {
	r.paused.Store(true)
	r.logger.Info("assembly runner paused")
}

func (r *Runner) Resume() {
	r.paused.Store(false)
	r.logger.Info("assembly runner resumed")
}

func (r *Runner) IsPaused() bool {
	return r.paused.Load()
}

func (r *Runner) IsRunning() bool {
	return r.running.Load()
}

func (r *Runner) processNextJob(ctx context.Context) {
	jobs, err := r.repo.ListPendingJobs(ctx)
	if err != nil {
		r.logger.Error("failed to list pending jobs", "error", err)
		return
	}

	if len(jobs) == 0 {
		return
	}

	job := jobs[0]
	r.logger.Info("processing job", "job_id", job.ID, "type", job.Type)

	switch job.Type {
	case studio.JobTypeAssemble:
		r.processAssembleJob(ctx, job)
	default:
		r.logger.Warn("unknown job type", "type", job.Type)
		r.repo.UpdateJobStatus(ctx, job.ID, studio.JobStatusFailed, "unknown job type")
	}
}

func (r *Runner) processAssembleJob(ctx context.Context, job *studio.Job) {
	var req studio.AssemblyRequest
	if err := json.Unmarshal([]byte(job.Payload), &req); err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, studio.JobStatusFailed, "invalid job payload")
		return
	}

	r.repo.UpdateJobStatus(ctx, job.ID, studio.JobStatusRunning, "")

	progress := func(done, total int, message string) {
		pct := 0
		if total > 0 {
			pct = done * 100 / total
		}
		r.repo.UpdateJobProgress(ctx, job.ID, pct, message)
	}

	project, err := r.assembler.Assemble(ctx, req, progress)
	if err != nil {
		r.logger.Error("assembly failed", "job_id", job.ID, "error", err)
		r.repo.UpdateJobStatus(ctx, job.ID, studio.JobStatusFailed, err.Error())
		return
	}

	if err := r.repo.CreateProject(ctx, project); err != nil {
		r.logger.Error("failed to save assembled project", "job_id", job.ID, "error", err)
		r.repo.UpdateJobStatus(ctx, job.ID, studio.JobStatusFailed, err.Error())
		return
	}

	r.repo.SetJobProject(ctx, job.ID, project.ID)
	r.repo.UpdateJobProgress(ctx, job.ID, 100, "completed")
	r.repo.UpdateJobStatus(ctx, job.ID, studio.JobStatusCompleted, "")

	r.logger.Info("assembly job completed", "job_id", job.ID,
		"project_id", project.ID, "quality_score", project.QualityScore)
}

func (r *Runner) GetActiveJobCount(ctx context.Context) int {
	jobs, err := r.repo.ListJobs(ctx, 100)
	if err != nil {
		return 0
	}
	count := 0
	for _, j := range jobs {
		if j.Status == studio.JobStatusRunning {
			count++
		}
	}
	return count
}
