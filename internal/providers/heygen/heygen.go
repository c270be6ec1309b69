package heygen

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

const defaultBaseURL = "https://api.heygen.com"

// Spec declares the HeyGen configuration surface. HeyGen is a fail-soft
// provider: resolution succeeds without a key and the actions raise the
// ConfigurationError themselves before any I/O.
func Spec() config.Spec {
	return config.Spec{
		Provider: "heygen",
		Policy:   config.FailSoft,
		Fields: []config.Field{
			{Key: "api_key", EnvVar: "HEYGEN_API_KEY", Required: true},
			{Key: "base_url", EnvVar: "HEYGEN_BASE_URL", Default: defaultBaseURL},
		},
	}
}

const generateVideoSchema = `{
  "type": "object",
  "properties": {
    "avatar_id": {"type": "string"},
    "input_text": {"type": "string", "maxLength": 1500},
    "voice_id": {"type": "string"},
    "title": {"type": "string"},
    "wait": {"type": "boolean", "default": true}
  },
  "required": ["avatar_id", "input_text", "voice_id"]
}`

const checkStatusSchema = `{
  "type": "object",
  "properties": {
    "video_id": {"type": "string"}
  },
  "required": ["video_id"]
}`

const emptySchema = `{"type": "object", "properties": {}}`

// Provider wires the HeyGen avatar-video API.
type Provider struct{}

func (Provider) Name() string { return "heygen" }

func (Provider) Actions(store *config.Store, client *httpx.Client) []actions.Action {
	return []actions.Action{
		actions.New(actions.Descriptor{
			Name: "heygen.generate_avatar_video",
			Description: "Generate a talking avatar video from text using HeyGen. " +
				"Provide an avatar_id, a voice_id, and the text the avatar should speak (max 1500 characters). " +
				"By default this waits for rendering to finish and returns the video URL; " +
				"set wait to false to get the video_id immediately and check status later.",
			Schema: json.RawMessage(generateVideoSchema),
			Func:   generateVideo(store, client),
		}),
		actions.New(actions.Descriptor{
			Name: "heygen.check_video_status",
			Description: "Check the rendering status of a HeyGen video by video_id. " +
				"Returns the current status and, when completed, the video URL.",
			Schema: json.RawMessage(checkStatusSchema),
			Func:   checkVideoStatus(store, client),
		}),
		actions.New(actions.Descriptor{
			Name:        "heygen.list_avatars",
			Description: "List the avatars available in the HeyGen account, with their IDs and names.",
			Schema:      json.RawMessage(emptySchema),
			Func:        listAvatars(store, client),
		}),
		actions.New(actions.Descriptor{
			Name:        "heygen.list_voices",
			Description: "List the voices available in the HeyGen account, with their IDs, names, and languages.",
			Schema:      json.RawMessage(emptySchema),
			Func:        listVoices(store, client),
		}),
	}
}

// resolve returns the provider config and enforces the fail-soft key check
// with one consistent message from the call site.
func resolve(store *config.Store) (*config.Resolved, error) {
	cfg, err := store.Get(Spec(), nil)
	if err != nil {
		return nil, err
	}
	if cfg.Value("api_key") == "" {
		return nil, schema.NewConfigurationError("heygen", "HeyGen API key", "HEYGEN_API_KEY")
	}
	return cfg, nil
}

func generateVideo(store *config.Store, client *httpx.Client) actions.InvokeFunc {
	return func(ctx context.Context, args map[string]any) (string, error) {
		cfg, err := resolve(store)
		if err != nil {
			return "", err
		}

		avatarID := actions.StringParam(args, "avatar_id", "")
		inputText := actions.StringParam(args, "input_text", "")
		voiceID := actions.StringParam(args, "voice_id", "")
		title := actions.StringParam(args, "title", "")
		wait := actions.BoolParam(args, "wait", true)

		body := map[string]any{
			"video_inputs": []map[string]any{{
				"character": map[string]any{"type": "avatar", "avatar_id": avatarID},
				"voice":     map[string]any{"type": "text", "input_text": inputText, "voice_id": voiceID},
			}},
		}
		if title != "" {
			body["title"] = title
		}

		var out struct {
			Data struct {
				VideoID string `json:"video_id"`
			} `json:"data"`
		}
		err = client.DoJSON(ctx, httpx.Request{
			Provider:     "heygen",
			Method:       "POST",
			URL:          cfg.Value("base_url") + "/v2/video/generate",
			Body:         body,
			APIKeyHeader: "X-Api-Key",
			APIKeyValue:  cfg.Value("api_key"),
		}, &out)
		if err != nil {
			return "", err
		}
		if out.Data.VideoID == "" {
			return "", schema.NewError(schema.ErrCodeProvider, "response carried no video_id").WithProvider("heygen")
		}

		if !wait {
			return fmt.Sprintf("Video generation started. Video ID: %s\nUse heygen.check_video_status to follow progress.", out.Data.VideoID), nil
		}

		job := poll.Wait(ctx, statusFetcher(client, cfg, out.Data.VideoID), poll.Options{})
		return formatJob(job), nil
	}
}

func checkVideoStatus(store *config.Store, client *httpx.Client) actions.InvokeFunc {
	return func(ctx context.Context, args map[string]any) (string, error) {
		cfg, err := resolve(store)
		if err != nil {
			return "", err
		}
		videoID := actions.StringParam(args, "video_id", "")
		job, err := statusFetcher(client, cfg, videoID)(ctx)
		if err != nil {
			return "", err
		}
		return formatJob(job), nil
	}
}

// statusFetcher builds the poll fetch for one video. HeyGen reports
// statuses like "pending"/"processing"/"completed"/"failed"; only the
// terminal two are mapped, the rest pass through.
func statusFetcher(client *httpx.Client, cfg *config.Resolved, videoID string) poll.FetchFunc {
	return func(ctx context.Context) (*schema.Job, error) {
		var out struct {
			Data struct {
				Status   string `json:"status"`
				VideoURL string `json:"video_url"`
				Error    any    `json:"error"`
			} `json:"data"`
		}
		err := client.DoJSON(ctx, httpx.Request{
			Provider:     "heygen",
			URL:          cfg.Value("base_url") + "/v1/video_status.get?video_id=" + videoID,
			APIKeyHeader: "X-Api-Key",
			APIKeyValue:  cfg.Value("api_key"),
		}, &out)
		if err != nil {
			return nil, err
		}

		job := &schema.Job{ID: videoID, Status: schema.JobStatus(out.Data.Status), Payload: map[string]any{}}
		if out.Data.VideoURL != "" {
			job.Payload["video_url"] = out.Data.VideoURL
		}
		if out.Data.Error != nil {
			job.Payload["error"] = fmt.Sprintf("%v", out.Data.Error)
		}
		return job, nil
	}
}

func formatJob(job *schema.Job) string {
	var b strings.Builder
	switch job.Status {
	case schema.JobCompleted:
		fmt.Fprintf(&b, "Video %s is ready.", job.ID)
		if url, ok := job.Payload["video_url"].(string); ok && url != "" {
			fmt.Fprintf(&b, "\nVideo URL: %s", url)
		}
	case schema.JobFailed:
		fmt.Fprintf(&b, "Video %s failed to render.", job.ID)
		if msg, ok := job.Payload["error"].(string); ok && msg != "" {
			fmt.Fprintf(&b, "\nError: %s", msg)
		}
	case schema.JobUnknown:
		fmt.Fprintf(&b, "Video %s did not reach a terminal status before polling stopped; check back later with heygen.check_video_status.", job.ID)
	default:
		fmt.Fprintf(&b, "Video %s is still rendering (status: %s).", job.ID, job.Status)
	}
	return b.String()
}

func listAvatars(store *config.Store, client *httpx.Client) actions.InvokeFunc {
	return func(ctx context.Context, _ map[string]any) (string, error) {
		cfg, err := resolve(store)
		if err != nil {
			return "", err
		}

		var out struct {
			Data struct {
				Avatars []struct {
					AvatarID   string `json:"avatar_id"`
					AvatarName string `json:"avatar_name"`
				} `json:"avatars"`
			} `json:"data"`
		}
		err = client.DoJSON(ctx, httpx.Request{
			Provider:     "heygen",
			URL:          cfg.Value("base_url") + "/v2/avatars",
			APIKeyHeader: "X-Api-Key",
			APIKeyValue:  cfg.Value("api_key"),
		}, &out)
		if err != nil {
			return "", err
		}

		if len(out.Data.Avatars) == 0 {
			return "No avatars found in this HeyGen account.", nil
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Available avatars (%d):\n", len(out.Data.Avatars))
		for _, a := range out.Data.Avatars {
			fmt.Fprintf(&b, "- %s (id: %s)\n", a.AvatarName, a.AvatarID)
		}
		return strings.TrimRight(b.String(), "\n"), nil
	}
}

func listVoices(store *config.Store, client *httpx.Client) actions.InvokeFunc {
	return func(ctx context.Context, _ map[string]any) (string, error) {
		cfg, err := resolve(store)
		if err != nil {
			return "", err
		}

		var out struct {
			Data struct {
				Voices []struct {
					VoiceID  string `json:"voice_id"`
					Name     string `json:"name"`
					Language string `json:"language"`
					Gender   string `json:"gender"`
				} `json:"voices"`
			} `json:"data"`
		}
		err = client.DoJSON(ctx, httpx.Request{
			Provider:     "heygen",
			URL:          cfg.Value("base_url") + "/v2/voices",
			APIKeyHeader: "X-Api-Key",
			APIKeyValue:  cfg.Value("api_key"),
		}, &out)
		if err != nil {
			return "", err
		}

		if len(out.Data.Voices) == 0 {
			return "No voices found in this HeyGen account.", nil
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Available voices (%d):\n", len(out.Data.Voices))
		for _, v := range out.Data.Voices {
			fmt.Fprintf(&b, "- %s (%s, %s, id: %s)\n", v.Name, v.Language, v.Gender, v.VoiceID)
		}
		return strings.TrimRight(b.String(), "\n"), nil
	}
}
