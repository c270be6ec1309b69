package schema

// JobStatus is a provider-issued status for a long-running job. Providers
// report arbitrary non-terminal values ("pending", "processing", ...);
// only the values below carry meaning for the poll loop.
type JobStatus string

const (
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"

	// JobUnknown is the synthetic status returned when polling exhausts
	// its attempt budget and even the final status fetch fails.
	JobUnknown JobStatus = "unknown"
)

// Terminal reports whether no further state change can occur.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// Job is a provider-side long-running unit of work, identified by an
// opaque ID and polled for status. Payload carries whatever the provider
// returned alongside the status; it is only meaningful once terminal.
type Job struct {
	ID      string         `json:"id"`
	Status  JobStatus      `json:"status"`
	Payload map[string]any `json:"payload,omitempty"`
}
