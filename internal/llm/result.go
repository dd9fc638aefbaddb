package llm

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrSchemaMismatch indicates the provider returned JSON that does not match
// the analysis schema.
var ErrSchemaMismatch = errors.New("analysis schema mismatch")

// AnalysisResult is the structured output of a conversation analysis.
// FillerWords, PaceWPM and Sentiment are best-effort delivery metrics the
// model may omit; validation does not require them.
type AnalysisResult struct {
	Summary      string             `json:"summary"`
	Scores       Scores             `json:"scores"`
	Strengths    []string           `json:"strengths"`
	Improvements []string           `json:"improvements"`
	Leaders      []LeaderComparison `json:"leaderComparisons"`
	FillerWords  map[string]int     `json:"fillerWords,omitempty"`
	PaceWPM      int                `json:"paceWpm,omitempty"`
	Sentiment    string             `json:"sentiment,omitempty"`
}

// Scores rates communication dimensions on a 0-100 scale.
type Scores struct {
	Overall    int `json:"overall"`
	Clarity    int `json:"clarity"`
	Confidence int `json:"confidence"`
	Empathy    int `json:"empathy"`
	Structure  int `json:"structure"`
}

// LeaderComparison contrasts the speaker with one selected leader.
type LeaderComparison struct {
	LeaderName string `json:"leaderName"`
	Similarity int    `json:"similarity"`
	WouldSay   string `json:"wouldSay"`
	Insight    string `json:"insight"`
}

// DecodeResult parses and validates raw provider output against the schema.
func DecodeResult(raw json.RawMessage) (AnalysisResult, error) {
	var result AnalysisResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return AnalysisResult{}, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	if result.Summary == "" {
		return AnalysisResult{}, fmt.Errorf("%w: missing summary", ErrSchemaMismatch)
	}
	for _, score := range []int{result.Scores.Overall, result.Scores.Clarity, result.Scores.Confidence, result.Scores.Empathy, result.Scores.Structure} {
		if score < 0 || score > 100 {
			return AnalysisResult{}, fmt.Errorf("%w: score %d out of range", ErrSchemaMismatch, score)
		}
	}
	for _, cmp := range result.Leaders {
		if cmp.LeaderName == "" {
			return AnalysisResult{}, fmt.Errorf("%w: leader comparison missing name", ErrSchemaMismatch)
		}
		if cmp.Similarity < 0 || cmp.Similarity > 100 {
			return AnalysisResult{}, fmt.Errorf("%w: similarity %d out of range", ErrSchemaMismatch, cmp.Similarity)
		}
	}
	return result, nil
}
