package services

import (
	"context"
	"errors"
	"fmt"

	"sakura-backend/internal/models"
)

// ErrNotConfigured is returned when no credential is available. No network
// call is made in that case.
var ErrNotConfigured = errors.New("completion backend not configured")

// ErrMalformedResponse marks a 200 reply that lacks the expected text field.
var ErrMalformedResponse = errors.New("malformed completion response")

// ModelRef identifies a hosted model as a folder/name/version triple.
type ModelRef struct {
	FolderID string
	Name     string
	Version  string
}

// URI renders the model reference in the gpt://folder/name/version form.
func (m ModelRef) URI() string {
	return fmt.Sprintf("gpt://%s/%s/%s", m.FolderID, m.Name, m.Version)
}

type CompletionOptions struct {
	Temperature float64
	MaxTokens   int
	Model       ModelRef
}

// Completer performs a single, non-retried completion call.
type Completer interface {
	Complete(ctx context.Context, messages []models.PromptMessage, opts CompletionOptions) (string, error)
	// Name identifies the backend in logs, metrics and /health.
	Name() string
	// Ready reports whether credentials are present.
	Ready() bool
}

// UpstreamError is a non-200 reply, or a 200 reply without the expected
// payload (Err is ErrMalformedResponse then).
type UpstreamError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upstream status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("upstream status %d: %s", e.StatusCode, e.Body)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// TransportError wraps network failures and timeouts.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("completion transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
