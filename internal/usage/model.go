package usage

import "time"

// Usage is a user's word-quota snapshot for the current billing cycle.
type Usage struct {
	Plan        string    `json:"plan"`
	WordLimit   int       `json:"wordLimit"`
	Used        int       `json:"used"`
	CycleNumber int       `json:"cycleNumber"`
	CycleStart  time.Time `json:"cycleStart"`
	CycleEnd    time.Time `json:"cycleEnd"`
	ResetsAt    time.Time `json:"resetsAt"`
}

// Remaining returns the words left in the current cycle, never negative.
func (u Usage) Remaining() int {
	left := u.WordLimit - u.Used
	if left < 0 {
		return 0
	}
	return left
}

// Entry records one analyzed recording's word charge. Entries are immutable
// once created and snapshot the billing cycle they landed in.
type Entry struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	RecordingID string    `json:"recordingId"`
	WordCount   int       `json:"wordCount"`
	CycleNumber int       `json:"cycleNumber"`
	CycleStart  time.Time `json:"cycleStart"`
	CycleEnd    time.Time `json:"cycleEnd"`
	CreatedAt   time.Time `json:"createdAt"`
}
