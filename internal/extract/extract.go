package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"leadertalk-backend/internal/shared/storage/object"
)

const (
	mimePDF   = "application/pdf"
	mimePlain = "text/plain"
)

// TranscriptText pulls a written transcript from a stored object. Used when a
// conversation is uploaded as a text or PDF transcript instead of audio.
func TranscriptText(ctx context.Context, store object.ObjectStore, fileKey string, mimeType string, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	body, err := store.Open(ctx, fileKey)
	if err != nil {
		return "", fmt.Errorf("extract transcript key=%s mime=%s: %w", fileKey, mimeType, err)
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("extract transcript key=%s mime=%s: read: %w", fileKey, mimeType, err)
	}

	text, err := TranscriptFromBytes(ctx, raw, mimeType, fileName)
	if err != nil {
		return "", fmt.Errorf("extract transcript key=%s mime=%s: %w", fileKey, mimeType, err)
	}
	return text, nil
}

// TranscriptFromBytes extracts transcript text from an in-memory payload.
func TranscriptFromBytes(ctx context.Context, data []byte, mimeType string, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	switch normalizeMimeType(mimeType, fileName) {
	case mimePDF:
		return extractPDF(data)
	case mimePlain:
		return strings.TrimSpace(string(data)), nil
	default:
		return "", fmt.Errorf("unsupported mime type: %s", mimeType)
	}
}

// IsTranscriptMime reports whether the payload is a written transcript rather
// than audio to be transcribed.
func IsTranscriptMime(mimeType string, fileName string) bool {
	switch normalizeMimeType(mimeType, fileName) {
	case mimePDF, mimePlain:
		return true
	default:
		return false
	}
}

func extractPDF(data []byte) (string, error) {
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

func normalizeMimeType(mimeType string, fileName string) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	switch clean {
	case mimePDF, mimePlain:
		return clean
	case "text/markdown", "application/octet-stream", "":
	default:
		return clean
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return mimePDF
	case ".txt", ".md":
		return mimePlain
	default:
		return clean
	}
}
