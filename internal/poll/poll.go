package poll

import (
	"context"
	"time"

	"github.com/toolpack-ai/toolpack/pkg/schema"
)

// Defaults for the poll loop. Worst-case wall clock is roughly
// MaxAttempts × Interval (5 minutes at defaults).
const (
	DefaultMaxAttempts = 60
	DefaultInterval    = 5 * time.Second
)

// Outcome classifies one poll attempt. Transient fetch errors are treated
// the same as a still-running job for budget purposes, but the distinction
// stays observable through the Observer hook.
type Outcome int

const (
	OutcomeTerminal Outcome = iota
	OutcomeInProgress
	OutcomeTransientError
)

// FetchFunc retrieves the current status of a job from its provider.
type FetchFunc func(ctx context.Context) (*schema.Job, error)

// Options configures a Wait call. Zero values take the defaults.
type Options struct {
	MaxAttempts int
	Interval    time.Duration

	// Observer, if set, is called after each attempt with its outcome.
	Observer func(attempt int, outcome Outcome, err error)
}

// Wait polls fetch until a terminal status is observed or the attempt
// budget runs out. It never returns an error: a fetch error consumes one
// attempt and is retried like an in-progress status; on exhaustion one
// final fetch is issued and its result returned verbatim, and if even
// that fails a synthetic unknown-status job is returned. Callers must
// inspect the returned status for "failed" or "unknown".
func Wait(ctx context.Context, fetch FetchFunc, opts Options) *schema.Job {
	max := opts.MaxAttempts
	if max <= 0 {
		max = DefaultMaxAttempts
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	observe := func(attempt int, outcome Outcome, err error) {
		if opts.Observer != nil {
			opts.Observer(attempt, outcome, err)
		}
	}

	var last *schema.Job
	for attempt := 1; attempt <= max; attempt++ {
		job, err := fetch(ctx)
		if err != nil {
			observe(attempt, OutcomeTransientError, err)
		} else {
			last = job
			if job.Status.Terminal() {
				observe(attempt, OutcomeTerminal, nil)
				return job
			}
			observe(attempt, OutcomeInProgress, nil)
		}

		if err := sleep(ctx, interval); err != nil {
			return unknownJob(last, "polling cancelled")
		}
	}

	// Budget exhausted: one final check, returned as observed.
	job, err := fetch(ctx)
	if err != nil {
		observe(max+1, OutcomeTransientError, err)
		return unknownJob(last, "status checks exhausted without a terminal status")
	}
	if job.Status.Terminal() {
		observe(max+1, OutcomeTerminal, nil)
	} else {
		observe(max+1, OutcomeInProgress, nil)
	}
	return job
}

// sleep waits for the interval or returns early if the context is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func unknownJob(last *schema.Job, reason string) *schema.Job {
	j := &schema.Job{Status: schema.JobUnknown, Payload: map[string]any{"reason": reason}}
	if last != nil {
		j.ID = last.ID
		j.Payload["last_status"] = string(last.Status)
	}
	return j
}
