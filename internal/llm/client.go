// Package llm abstracts the structured completion service: a prompt goes in,
// JSON conforming to the requested shape comes out. Cross-cutting concerns
// (retries, timeouts) are middleware layers over the same interface.
package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrInvalidJSON reports a model response that carried no usable JSON.
var ErrInvalidJSON = errors.New("llm: invalid JSON from model")

// Client is the structured completion service. GenerateJSON sends the prompt
// plus a JSON-encoded input payload and returns the raw JSON response.
type Client interface {
	Name() string
	GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error)
	Close() error
}

// PermanentError marks an error that will not resolve with retries.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

type taskKey struct{}

// WithTask tags the context with the logical task name of the current call.
// Clients and fakes use it for logging and scripted responses.
func WithTask(ctx context.Context, task string) context.Context {
	return context.WithValue(ctx, taskKey{}, task)
}

// TaskFrom returns the task tag, or "" when untagged.
func TaskFrom(ctx context.Context) string {
	if v, ok := ctx.Value(taskKey{}).(string); ok {
		return v
	}
	return ""
}
