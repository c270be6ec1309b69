package elevenlabs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/toolpack-ai/toolpack/internal/actions"
	"github.com/toolpack-ai/toolpack/internal/config"
	"github.com/toolpack-ai/toolpack/internal/httpx"
	"github.com/toolpack-ai/toolpack/pkg/schema"
)

const (
	defaultBaseURL = "https://api.elevenlabs.io"
	defaultVoiceID = "EXAVITQu4vr4xnSDxMaL"
	defaultModelID = "eleven_multilingual_v2"
)

// Spec declares the ElevenLabs configuration surface (fail-soft).
func Spec() config.Spec {
	return config.Spec{
		Provider: "elevenlabs",
		Policy:   config.FailSoft,
		Fields: []config.Field{
			{Key: "api_key", EnvVar: "ELEVENLABS_API_KEY", Required: true},
			{Key: "base_url", EnvVar: "ELEVENLABS_BASE_URL", Default: defaultBaseURL},
		},
	}
}

const ttsSchema = `{
  "type": "object",
  "properties": {
    "text": {"type": "string", "minLength": 1, "maxLength": 5000},
    "voice_id": {"type": "string"},
    "model_id": {"type": "string"}
  },
  "required": ["text"]
}`

const emptySchema = `{"type": "object", "properties": {}}`

// Provider wires the ElevenLabs text-to-speech API.
type Provider struct{}

func (Provider) Name() string { return "elevenlabs" }

func (Provider) Actions(store *config.Store, client *httpx.Client) []actions.Action {
	return []actions.Action{
		actions.New(actions.Descriptor{
			Name: "elevenlabs.text_to_speech",
			Description: "Convert text to natural-sounding speech with ElevenLabs. " +
				"The synthesized audio is saved as an MP3 file and its path is returned. " +
				"Optionally pick a voice_id (see elevenlabs.list_voices) and a model_id.",
			Schema: json.RawMessage(ttsSchema),
			Func:   textToSpeech(store, client),
		}),
		actions.New(actions.Descriptor{
			Name:        "elevenlabs.list_voices",
			Description: "List the ElevenLabs voices available to this account, with IDs and categories.",
			Schema:      json.RawMessage(emptySchema),
			Func:        listVoices(store, client),
		}),
	}
}

func resolve(store *config.Store) (*config.Resolved, error) {
	cfg, err := store.Get(Spec(), nil)
	if err != nil {
		return nil, err
	}
	if cfg.Value("api_key") == "" {
		return nil, schema.NewConfigurationError("elevenlabs", "ElevenLabs API key", "ELEVENLABS_API_KEY")
	}
	return cfg, nil
}

func textToSpeech(store *config.Store, client *httpx.Client) actions.InvokeFunc {
	return func(ctx context.Context, args map[string]any) (string, error) {
		cfg, err := resolve(store)
		if err != nil {
			return "", err
		}

		text := actions.StringParam(args, "text", "")
		if text == "" {
			return "", schema.NewError(schema.ErrCodeValidation, "text is required").WithProvider("elevenlabs")
		}
		voiceID := actions.StringParam(args, "voice_id", defaultVoiceID)
		modelID := actions.StringParam(args, "model_id", defaultModelID)

		audio, err := client.DoBytes(ctx, httpx.Request{
			Provider:     "elevenlabs",
			Method:       "POST",
			URL:          cfg.Value("base_url") + "/v1/text-to-speech/" + voiceID,
			Body:         map[string]any{"text": text, "model_id": modelID},
			APIKeyHeader: "xi-api-key",
			APIKeyValue:  cfg.Value("api_key"),
		})
		if err != nil {
			return "", err
		}

		path := filepath.Join(os.TempDir(), fmt.Sprintf("elevenlabs-%d.mp3", time.Now().UnixNano()))
		if err := os.WriteFile(path, audio, 0o644); err != nil {
			return "", schema.NewErrorf(schema.ErrCodeProvider, "failed to write audio file: %v", err).
				WithProvider("elevenlabs").WithCause(err)
		}
		return fmt.Sprintf("Speech synthesized with voice %s (%d bytes).\nAudio saved to: %s", voiceID, len(audio), path), nil
	}
}

func listVoices(store *config.Store, client *httpx.Client) actions.InvokeFunc {
	return func(ctx context.Context, _ map[string]any) (string, error) {
		cfg, err := resolve(store)
		if err != nil {
			return "", err
		}

		var out struct {
			Voices []struct {
				VoiceID  string `json:"voice_id"`
				Name     string `json:"name"`
				Category string `json:"category"`
			} `json:"voices"`
		}
		err = client.DoJSON(ctx, httpx.Request{
			Provider:     "elevenlabs",
			URL:          cfg.Value("base_url") + "/v1/voices",
			APIKeyHeader: "xi-api-key",
			APIKeyValue:  cfg.Value("api_key"),
		}, &out)
		if err != nil {
			return "", err
		}

		if len(out.Voices) == 0 {
			return "No voices available on this ElevenLabs account.", nil
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Available voices (%d):\n", len(out.Voices))
		for _, v := range out.Voices {
			fmt.Fprintf(&b, "- %s (%s, id: %s)\n", v.Name, v.Category, v.VoiceID)
		}
		return strings.TrimRight(b.String(), "\n"), nil
	}
}
