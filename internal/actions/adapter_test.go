package actions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolpack-ai/toolpack/internal/validation"
)

// stubAction is a minimal Action for adapter tests.
type stubAction struct {
	name   string
	desc   string
	schema string
	fn     InvokeFunc
}

func (s *stubAction) Name() string        { return s.name }
func (s *stubAction) Description() string { return s.desc }
func (s *stubAction) Schema() json.RawMessage {
	if s.schema == "" {
		return nil
	}
	return json.RawMessage(s.schema)
}
func (s *stubAction) Invoke(ctx context.Context, args map[string]any) (string, error) {
	if s.fn == nil {
		return "ok", nil
	}
	return s.fn(ctx, args)
}

const stubSchema = `{
  "type": "object",
  "properties": {"text": {"type": "string"}},
  "required": ["text"]
}`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func TestAdapter_ValidInput(t *testing.T) {
	var got map[string]any
	ad := NewAdapter(&stubAction{
		name:   "stub.echo",
		schema: stubSchema,
		fn: func(_ context.Context, args map[string]any) (string, error) {
			got = args
			return "echoed: " + StringParam(args, "text", ""), nil
		},
	}, validation.NewInputValidator(), discardLogger())

	out := ad.Invoke(context.Background(), map[string]any{"text": "hello"})
	assert.Equal(t, "echoed: hello", out)
	assert.Equal(t, "hello", got["text"])
}

func TestAdapter_SchemaViolation_PassesRawThrough(t *testing.T) {
	var got map[string]any
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ad := NewAdapter(&stubAction{
		name:   "stub.echo",
		schema: stubSchema,
		fn: func(_ context.Context, args map[string]any) (string, error) {
			got = args
			return "ran anyway", nil
		},
	}, validation.NewInputValidator(), logger)

	// "text" is required and must be a string; the call still goes through.
	out := ad.Invoke(context.Background(), map[string]any{"text": 42})
	assert.Equal(t, "ran anyway", out)
	assert.Equal(t, 42, got["text"])

	// The violation is reported, not silently discarded.
	assert.Contains(t, buf.String(), "passing through raw")
}

func TestAdapter_ActionError_BecomesString(t *testing.T) {
	ad := NewAdapter(&stubAction{
		name: "stub.fail",
		fn: func(_ context.Context, _ map[string]any) (string, error) {
			return "", errors.New("provider exploded")
		},
	}, validation.NewInputValidator(), discardLogger())

	out := ad.Invoke(context.Background(), map[string]any{})
	assert.Equal(t, "Error executing stub.fail: provider exploded", out)
}

func TestAdapter_EmptyErrorMessage(t *testing.T) {
	ad := NewAdapter(&stubAction{
		name: "stub.fail",
		fn: func(_ context.Context, _ map[string]any) (string, error) {
			return "", errors.New("")
		},
	}, validation.NewInputValidator(), discardLogger())

	out := ad.Invoke(context.Background(), map[string]any{})
	assert.Equal(t, "Error executing stub.fail: Unknown error occurred", out)
}

func TestAdapter_Panic_BecomesString(t *testing.T) {
	ad := NewAdapter(&stubAction{
		name: "stub.panic",
		fn: func(_ context.Context, _ map[string]any) (string, error) {
			panic("boom")
		},
	}, validation.NewInputValidator(), discardLogger())

	out := ad.Invoke(context.Background(), map[string]any{})
	assert.Equal(t, "Error executing stub.panic: boom", out)
}

func TestAdapter_NilValidator(t *testing.T) {
	ad := NewAdapter(&stubAction{name: "stub.echo", schema: stubSchema}, nil, discardLogger())
	out := ad.Invoke(context.Background(), map[string]any{"text": 42})
	assert.Equal(t, "ok", out)
}

func TestAdapter_DescriptionTruncation(t *testing.T) {
	long := strings.Repeat("x", 5000)
	ad := NewAdapter(&stubAction{name: "stub.long", desc: long}, nil, discardLogger())

	desc := ad.Description()
	require.Len(t, desc, MaxDescriptionLength)
	assert.Equal(t, long[:MaxDescriptionLength], desc)
}

func TestAdapter_DescriptionShortUnchanged(t *testing.T) {
	ad := NewAdapter(&stubAction{name: "stub.short", desc: "short"}, nil, discardLogger())
	assert.Equal(t, "short", ad.Description())
}

func TestTruncateDescription_Boundary(t *testing.T) {
	exact := strings.Repeat("y", MaxDescriptionLength)
	assert.Equal(t, exact, TruncateDescription(exact))
	assert.Len(t, TruncateDescription(exact+"z"), MaxDescriptionLength)
	assert.Equal(t, "", TruncateDescription(""))
}
