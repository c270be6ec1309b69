package actions

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/toolpack-ai/toolpack/internal/logging"
	"github.com/toolpack-ai/toolpack/internal/validation"
)

// MaxDescriptionLength is the hard cap some host frameworks place on
// tool descriptions.
const MaxDescriptionLength = 1000

// Adapter translates an Action into the shape host agent frameworks
// expect: a bounded description and an invocation that always resolves to
// a string, never an error.
//
// Schema violations on the way in are logged and then swallowed — the raw
// arguments are passed through unchanged. LLM-generated tool calls are
// often slightly malformed, and a provider-side failure message is more
// useful to the agent than a rejected call.
type Adapter struct {
	action    Action
	validator *validation.InputValidator
	logger    *slog.Logger
}

// NewAdapter wraps an action for host-framework exposure.
func NewAdapter(action Action, validator *validation.InputValidator, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{action: action, validator: validator, logger: logger}
}

// Name returns the wrapped action's name.
func (ad *Adapter) Name() string { return ad.action.Name() }

// Description returns the action description, truncated to
// MaxDescriptionLength characters.
func (ad *Adapter) Description() string {
	return TruncateDescription(ad.action.Description())
}

// Invoke validates and invokes the wrapped action. It always returns a
// string: either the action's result or a sentence describing the failure.
func (ad *Adapter) Invoke(ctx context.Context, raw map[string]any) (result string) {
	ctx = logging.WithAction(ctx, ad.action.Name())
	ctx = logging.WithInvocationID(ctx, uuid.New().String())

	defer func() {
		if r := recover(); r != nil {
			ad.logger.ErrorContext(ctx, "action panicked", slog.Any("panic", r))
			result = fmt.Sprintf("Error executing %s: %v", ad.action.Name(), r)
		}
	}()

	args := raw
	if ad.validator != nil {
		if err := ad.validator.Validate(raw, ad.action.Schema()); err != nil {
			// Best-effort: report the violation, then pass the raw
			// arguments through to the provider function anyway.
			ad.logger.WarnContext(ctx, "input failed schema validation, passing through raw",
				slog.String("error", err.Error()),
			)
		}
	}

	out, err := ad.action.Invoke(ctx, args)
	if err != nil {
		msg := err.Error()
		if msg == "" {
			msg = "Unknown error occurred"
		}
		ad.logger.WarnContext(ctx, "action failed", slog.String("error", msg))
		return fmt.Sprintf("Error executing %s: %s", ad.action.Name(), msg)
	}
	return out
}

// TruncateDescription caps a description at MaxDescriptionLength characters.
func TruncateDescription(desc string) string {
	if len(desc) <= MaxDescriptionLength {
		return desc
	}
	return desc[:MaxDescriptionLength]
}
