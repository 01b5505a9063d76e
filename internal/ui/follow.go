package ui

import (
	"context"
	"time"

	"github.com/Aman-CERP/nlpfinder/internal/index"
)

// DefaultPollInterval is how often Follow samples the job.
const DefaultPollInterval = 200 * time.Millisecond

// JobSource reports the current job. *index.Orchestrator satisfies it.
type JobSource interface {
	Progress() index.Job
}

// Follow polls src until the job reaches a terminal state, feeding each
// change to r, then reports completion. It returns the terminal job, or
// the last observed job and ctx.Err() if ctx ends first.
func Follow(ctx context.Context, r Renderer, src JobSource, interval time.Duration, model string) (index.Job, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last index.Job
	first := true
	for {
		job := src.Progress()
		if first || changed(last, job) {
			r.UpdateProgress(ProgressEvent{
				Stage:   StageOf(job.Status),
				Current: job.Current,
				Total:   job.Total,
				Message: job.Message,
			})
			first = false
		}
		last = job

		if job.Status.Terminal() {
			r.Complete(CompletionFromJob(job, model))
			return job, nil
		}

		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-ticker.C:
		}
	}
}

func changed(a, b index.Job) bool {
	return a.Status != b.Status || a.Current != b.Current || a.Total != b.Total || a.Message != b.Message
}
