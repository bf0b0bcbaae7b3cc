package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
)

// Scheduler runs registered jobs, each on its own goroutine with its own
// schedule, until the context is cancelled. Job failures are logged and
// reported, never retried: every job gets another shot at its next
// scheduled run anyway.
type Scheduler struct {
	jobs []Job
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Register adds a job to the scheduler. Must be called before Start.
func (s *Scheduler) Register(job Job) {
	s.jobs = append(s.jobs, job)
	log.Printf("[Scheduler] Registered job %q (total %d)", job.Name(), len(s.jobs))
}

// Start launches all registered jobs and returns immediately.
func (s *Scheduler) Start(ctx context.Context) {
	if len(s.jobs) == 0 {
		log.Println("[Scheduler] No jobs registered, nothing to start")
		return
	}

	log.Printf("[Scheduler] Starting %d job(s)", len(s.jobs))
	for _, job := range s.jobs {
		go s.runJob(ctx, job)
	}
}

func (s *Scheduler) runJob(ctx context.Context, job Job) {
	name := job.Name()
	for {
		now := time.Now()
		wait := job.NextRun(now).Sub(now)

		select {
		case <-ctx.Done():
			log.Printf("[Scheduler Job:%s] Stopped", name)
			return
		case <-time.After(wait):
			if err := job.Run(ctx); err != nil {
				log.Printf("[Scheduler Job:%s] Run failed: %v", name, err)
				sentry.CaptureException(fmt.Errorf("job %s: %w", name, err))
			}
		}
	}
}
