package browseruse

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/toolpack-ai/toolpack/internal/actions"
	"github.com/toolpack-ai/toolpack/internal/config"
	"github.com/toolpack-ai/toolpack/internal/httpx"
	"github.com/toolpack-ai/toolpack/internal/poll"
	"github.com/toolpack-ai/toolpack/pkg/schema"
)

const defaultBaseURL = "https://api.browser-use.com/api/v1"

// Spec declares the Browser Use configuration surface (fail-soft).
func Spec() config.Spec {
	return config.Spec{
		Provider: "browseruse",
		Policy:   config.FailSoft,
		Fields: []config.Field{
			{Key: "api_key", EnvVar: "BROWSER_USE_API_KEY", Required: true},
			{Key: "base_url", EnvVar: "BROWSER_USE_BASE_URL", Default: defaultBaseURL},
		},
	}
}

const runTaskSchema = `{
  "type": "object",
  "properties": {
    "task": {"type": "string", "minLength": 1},
    "wait": {"type": "boolean", "default": true}
  },
  "required": ["task"]
}`

const checkTaskSchema = `{
  "type": "object",
  "properties": {
    "task_id": {"type": "string"}
  },
  "required": ["task_id"]
}`

// Provider wires the Browser Use cloud browser-automation API.
type Provider struct{}

func (Provider) Name() string { return "browseruse" }

func (Provider) Actions(store *config.Store, client *httpx.Client) []actions.Action {
	return []actions.Action{
		actions.New(actions.Descriptor{
			Name: "browseruse.run_task",
			Description: "Run a browser-automation task in natural language with Browser Use " +
				"(e.g. \"go to example.com and extract the pricing table\"). " +
				"By default this waits for the task to finish and returns its output; " +
				"set wait to false to get the task_id immediately.",
			Schema: json.RawMessage(runTaskSchema),
			Func:   runTask(store, client),
		}),
		actions.New(actions.Descriptor{
			Name:        "browseruse.check_task_status",
			Description: "Check the status of a Browser Use task by task_id. Returns the status and any output produced so far.",
			Schema:      json.RawMessage(checkTaskSchema),
			Func:        checkTaskStatus(store, client),
		}),
	}
}

func resolve(store *config.Store) (*config.Resolved, error) {
	cfg, err := store.Get(Spec(), nil)
	if err != nil {
		return nil, err
	}
	if cfg.Value("api_key") == "" {
		return nil, schema.NewConfigurationError("browseruse", "Browser Use API key", "BROWSER_USE_API_KEY")
	}
	return cfg, nil
}

func runTask(store *config.Store, client *httpx.Client) actions.InvokeFunc {
	return func(ctx context.Context, args map[string]any) (string, error) {
		cfg, err := resolve(store)
		if err != nil {
			return "", err
		}

		task := actions.StringParam(args, "task", "")
		wait := actions.BoolParam(args, "wait", true)

		var out struct {
			ID string `json:"id"`
		}
		err = client.DoJSON(ctx, httpx.Request{
			Provider:    "browseruse",
			Method:      "POST",
			URL:         cfg.Value("base_url") + "/run-task",
			Body:        map[string]any{"task": task},
			BearerToken: cfg.Value("api_key"),
		}, &out)
		if err != nil {
			return "", err
		}
		if out.ID == "" {
			return "", schema.NewError(schema.ErrCodeProvider, "response carried no task id").WithProvider("browseruse")
		}

		if !wait {
			return fmt.Sprintf("Browser task submitted. Task ID: %s\nUse browseruse.check_task_status to follow progress.", out.ID), nil
		}

		job := poll.Wait(ctx, taskFetcher(client, cfg, out.ID), poll.Options{})
		return formatJob(job), nil
	}
}

func checkTaskStatus(store *config.Store, client *httpx.Client) actions.InvokeFunc {
	return func(ctx context.Context, args map[string]any) (string, error) {
		cfg, err := resolve(store)
		if err != nil {
			return "", err
		}
		taskID := actions.StringParam(args, "task_id", "")
		job, err := taskFetcher(client, cfg, taskID)(ctx)
		if err != nil {
			return "", err
		}
		return formatJob(job), nil
	}
}

// taskFetcher maps Browser Use task statuses onto the poll loop's terminal
// set: "finished" completes, "failed"/"stopped" fail, the rest pass through.
func taskFetcher(client *httpx.Client, cfg *config.Resolved, taskID string) poll.FetchFunc {
	return func(ctx context.Context) (*schema.Job, error) {
		var out struct {
			Status string `json:"status"`
			Output string `json:"output"`
		}
		err := client.DoJSON(ctx, httpx.Request{
			Provider:    "browseruse",
			URL:         cfg.Value("base_url") + "/task/" + taskID,
			BearerToken: cfg.Value("api_key"),
		}, &out)
		if err != nil {
			return nil, err
		}

		status := schema.JobStatus(out.Status)
		switch out.Status {
		case "finished":
			status = schema.JobCompleted
		case "failed", "stopped":
			status = schema.JobFailed
		}

		job := &schema.Job{ID: taskID, Status: status, Payload: map[string]any{}}
		if out.Output != "" {
			job.Payload["output"] = out.Output
		}
		job.Payload["provider_status"] = out.Status
		return job, nil
	}
}

func formatJob(job *schema.Job) string {
	var b strings.Builder
	switch job.Status {
	case schema.JobCompleted:
		fmt.Fprintf(&b, "Browser task %s finished.", job.ID)
		if out, ok := job.Payload["output"].(string); ok && out != "" {
			fmt.Fprintf(&b, "\nOutput:\n%s", out)
		}
	case schema.JobFailed:
		fmt.Fprintf(&b, "Browser task %s failed", job.ID)
		if ps, ok := job.Payload["provider_status"].(string); ok && ps != "" {
			fmt.Fprintf(&b, " (status: %s)", ps)
		}
		b.WriteString(".")
	case schema.JobUnknown:
		fmt.Fprintf(&b, "Browser task %s did not finish before polling stopped; check back later with browseruse.check_task_status.", job.ID)
	default:
		fmt.Fprintf(&b, "Browser task %s is still running (status: %s).", job.ID, job.Status)
	}
	return b.String()
}
