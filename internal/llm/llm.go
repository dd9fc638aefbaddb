package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// Client abstracts LLM providers for conversation analysis.
type Client interface {
	AnalyzeConversation(ctx context.Context, input AnalyzeInput) (json.RawMessage, error)
}

// AnalyzeInput captures the inputs needed for one conversation analysis.
type AnalyzeInput struct {
	Transcript    string
	Goals         []string
	Leaders       []LeaderPersona
	PromptVersion string
}

// LeaderPersona describes one leader the transcript is compared against.
type LeaderPersona struct {
	Name  string
	Style string
}

type fixJSONKey struct{}

// WithFixJSON returns a context signaling a fix-JSON retry with the given raw output.
func WithFixJSON(ctx context.Context, raw string) context.Context {
	return context.WithValue(ctx, fixJSONKey{}, raw)
}

// FixJSONFromContext returns the raw JSON to repair, if any.
func FixJSONFromContext(ctx context.Context) (string, bool) {
	val := ctx.Value(fixJSONKey{})
	raw, ok := val.(string)
	return raw, ok
}

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("LLM not implemented")

// PlaceholderClient is a stub implementation until provider wiring is added.
type PlaceholderClient struct{}

// AnalyzeConversation returns ErrNotImplemented.
func (PlaceholderClient) AnalyzeConversation(ctx context.Context, input AnalyzeInput) (json.RawMessage, error) {
	_ = ctx
	_ = input
	return nil, ErrNotImplemented
}
