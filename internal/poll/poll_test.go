package poll

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolpack-ai/toolpack/pkg/schema"
)

func fastOpts() Options {
	return Options{MaxAttempts: 3, Interval: time.Millisecond}
}

func TestWait_TerminalOnThirdFetch(t *testing.T) {
	calls := 0
	fetch := func(_ context.Context) (*schema.Job, error) {
		calls++
		if calls < 3 {
			return &schema.Job{ID: "job-1", Status: "running"}, nil
		}
		return &schema.Job{ID: "job-1", Status: schema.JobCompleted, Payload: map[string]any{"url": "https://cdn.test/video.mp4"}}, nil
	}

	job := Wait(context.Background(), fetch, Options{MaxAttempts: 10, Interval: time.Millisecond})
	assert.Equal(t, 3, calls)
	assert.Equal(t, schema.JobCompleted, job.Status)
	assert.Equal(t, "https://cdn.test/video.mp4", job.Payload["url"])
}

func TestWait_FailedIsTerminal(t *testing.T) {
	fetch := func(_ context.Context) (*schema.Job, error) {
		return &schema.Job{ID: "job-2", Status: schema.JobFailed}, nil
	}

	job := Wait(context.Background(), fetch, fastOpts())
	assert.Equal(t, schema.JobFailed, job.Status)
}

func TestWait_Exhaustion_FinalCheckReturned(t *testing.T) {
	calls := 0
	fetch := func(_ context.Context) (*schema.Job, error) {
		calls++
		return &schema.Job{ID: "job-3", Status: "processing"}, nil
	}

	job := Wait(context.Background(), fetch, fastOpts())

	// max attempts plus the one final check.
	assert.Equal(t, 4, calls)
	assert.Equal(t, schema.JobStatus("processing"), job.Status)
}

func TestWait_Exhaustion_FinalCheckFails_SyntheticUnknown(t *testing.T) {
	calls := 0
	fetch := func(_ context.Context) (*schema.Job, error) {
		calls++
		if calls <= 3 {
			return &schema.Job{ID: "job-4", Status: "queued"}, nil
		}
		return nil, errors.New("gateway timeout")
	}

	job := Wait(context.Background(), fetch, fastOpts())
	assert.Equal(t, 4, calls)
	assert.Equal(t, schema.JobUnknown, job.Status)
	assert.Equal(t, "job-4", job.ID)
	assert.Equal(t, "queued", job.Payload["last_status"])
}

func TestWait_TransientErrorConsumesAttempt(t *testing.T) {
	calls := 0
	fetch := func(_ context.Context) (*schema.Job, error) {
		calls++
		switch calls {
		case 1:
			return nil, errors.New("connection reset")
		default:
			return &schema.Job{ID: "job-5", Status: schema.JobCompleted}, nil
		}
	}

	var outcomes []Outcome
	opts := fastOpts()
	opts.Observer = func(_ int, outcome Outcome, _ error) {
		outcomes = append(outcomes, outcome)
	}

	job := Wait(context.Background(), fetch, opts)
	assert.Equal(t, schema.JobCompleted, job.Status)
	require.Equal(t, []Outcome{OutcomeTransientError, OutcomeTerminal}, outcomes)
}

func TestWait_ObserverSeesAttemptNumbers(t *testing.T) {
	fetch := func(_ context.Context) (*schema.Job, error) {
		return &schema.Job{Status: "running"}, nil
	}

	var attempts []int
	opts := fastOpts()
	opts.Observer = func(attempt int, _ Outcome, _ error) {
		attempts = append(attempts, attempt)
	}

	Wait(context.Background(), fetch, opts)
	assert.Equal(t, []int{1, 2, 3, 4}, attempts)
}

func TestWait_ContextCancelledDuringSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fetch := func(_ context.Context) (*schema.Job, error) {
		cancel()
		return &schema.Job{ID: "job-6", Status: "running"}, nil
	}

	job := Wait(ctx, fetch, Options{MaxAttempts: 10, Interval: time.Hour})
	assert.Equal(t, schema.JobUnknown, job.Status)
	assert.Equal(t, "job-6", job.ID)
}

func TestWait_DefaultsApplied(t *testing.T) {
	// Terminal on the first fetch, so defaults never cause a sleep.
	fetch := func(_ context.Context) (*schema.Job, error) {
		return &schema.Job{Status: schema.JobCompleted}, nil
	}
	job := Wait(context.Background(), fetch, Options{})
	assert.Equal(t, schema.JobCompleted, job.Status)
}
