package schema

import "fmt"

// Error codes for structured error reporting.
const (
	ErrCodeConfiguration = "CONFIGURATION_ERROR"
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeProvider      = "PROVIDER_ERROR"
	ErrCodeTimeout       = "TIMEOUT_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeConflict      = "CONFLICT"
)

// ToolError is the structured error type for all toolpack operations.
type ToolError struct {
	Code     string         `json:"code"`
	Message  string         `json:"message"`
	Provider string         `json:"provider,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
	Cause    error          `json:"-"`
}

func (e *ToolError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Provider, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *ToolError) Unwrap() error {
	return e.Cause
}

// NewError creates a new ToolError.
func NewError(code, message string) *ToolError {
	return &ToolError{Code: code, Message: message}
}

// NewErrorf creates a new ToolError with a formatted message.
func NewErrorf(code, format string, args ...any) *ToolError {
	return &ToolError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NewConfigurationError reports a missing credential, naming the
// environment variable that would supply it.
func NewConfigurationError(provider, credential, envVar string) *ToolError {
	return &ToolError{
		Code:     ErrCodeConfiguration,
		Provider: provider,
		Message:  fmt.Sprintf("%s not found; set %s or pass it explicitly", credential, envVar),
	}
}

// WithProvider attaches a provider name to the error.
func (e *ToolError) WithProvider(provider string) *ToolError {
	e.Provider = provider
	return e
}

// WithCause attaches an underlying cause.
func (e *ToolError) WithCause(err error) *ToolError {
	e.Cause = err
	return e
}

// WithDetails attaches key-value details.
func (e *ToolError) WithDetails(details map[string]any) *ToolError {
	e.Details = details
	return e
}
