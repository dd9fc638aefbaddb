package transcribe

import (
	"context"
	"errors"
	"io"
)

// Client abstracts speech-to-text providers.
type Client interface {
	Transcribe(ctx context.Context, audio io.Reader, fileName string) (string, error)
}

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("transcription not implemented")

// PlaceholderClient is a stub implementation until provider wiring is added.
type PlaceholderClient struct{}

// Transcribe returns ErrNotImplemented.
func (PlaceholderClient) Transcribe(ctx context.Context, audio io.Reader, fileName string) (string, error) {
	_ = ctx
	_ = audio
	_ = fileName
	return "", ErrNotImplemented
}
