package recordings

import "time"

const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

const (
	SourceAudio      = "audio"
	SourceTranscript = "transcript"
)

// Recording is one uploaded conversation and its analysis lifecycle.
type Recording struct {
	ID              string         `json:"id"`
	UserID          string         `json:"userId"`
	Title           string         `json:"title"`
	Source          string         `json:"source"`
	Status          string         `json:"status"`
	ErrorCode       *string        `json:"errorCode,omitempty"`
	DurationSeconds float64        `json:"durationSeconds"`
	WordCount       int            `json:"wordCount"`
	FileName        string         `json:"fileName"`
	MimeType        string         `json:"mimeType"`
	SizeBytes       int64          `json:"sizeBytes"`
	StorageProvider string         `json:"-"`
	StorageKey      string         `json:"-"`
	Transcript      string         `json:"-"`
	Analysis        map[string]any `json:"analysis,omitempty"`
	AnalysisVersion string         `json:"analysisVersion,omitempty"`
	CompletedAt     *time.Time     `json:"completedAt,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	DeletedAt       *time.Time     `json:"-"`
}
