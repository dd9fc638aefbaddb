package recordings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"leadertalk-backend/internal/extract"
	"leadertalk-backend/internal/leaders"
	"leadertalk-backend/internal/llm"
	"leadertalk-backend/internal/queue"
	"leadertalk-backend/internal/shared/metrics"
	"leadertalk-backend/internal/shared/storage/object"
	"leadertalk-backend/internal/shared/telemetry"
	"leadertalk-backend/internal/shared/util"
	"leadertalk-backend/internal/transcribe"
	"leadertalk-backend/internal/usage"
	"leadertalk-backend/internal/users"
)

// Service contains business logic for recordings.
type Service struct {
	Repo            Repo
	Usage           *usage.Service
	Users           *users.Service
	Leaders         leaders.Repo
	Store           object.ObjectStore
	Transcriber     transcribe.Client
	LLM             llm.Client
	Queue           queue.Client
	Provider        string
	Model           string
	AnalysisVersion string
	PromptVersion   string
}

// Create stores the uploaded conversation and kicks off asynchronous analysis.
// Uploads are always accepted; the word quota is enforced when the transcript
// is counted, so a rejected recording still appears in history as failed.
func (s *Service) Create(ctx context.Context, userID, title, fileName string, r io.Reader) (Recording, error) {
	if userID == "" {
		return Recording{}, ErrInvalidInput
	}
	if fileName == "" {
		return Recording{}, ErrInvalidInput
	}

	storageKey, size, mimeType, err := s.Store.Save(ctx, userID, fileName, r)
	if err != nil {
		return Recording{}, err
	}

	source := SourceAudio
	if extract.IsTranscriptMime(mimeType, fileName) {
		source = SourceTranscript
	}

	rec := Recording{
		ID:         uuid.NewString(),
		UserID:     userID,
		Title:      normalizeTitle(title, fileName),
		Source:     source,
		Status:     StatusQueued,
		FileName:   fileName,
		MimeType:   mimeType,
		SizeBytes:  size,
		StorageKey: storageKey,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.Repo.Create(ctx, rec); err != nil {
		return Recording{}, err
	}

	s.dispatch(ctx, rec.ID)

	return rec, nil
}

// CreateFromS3 records a conversation already uploaded to object storage
// (browser direct-to-S3 path) and kicks off asynchronous analysis.
func (s *Service) CreateFromS3(ctx context.Context, userID, s3Key, fileName, contentType string, sizeBytes int64) (Recording, error) {
	if userID == "" || s3Key == "" || fileName == "" {
		return Recording{}, ErrInvalidInput
	}

	source := SourceAudio
	if extract.IsTranscriptMime(contentType, fileName) {
		source = SourceTranscript
	}

	rec := Recording{
		ID:              uuid.NewString(),
		UserID:          userID,
		Title:           normalizeTitle("", fileName),
		Source:          source,
		Status:          StatusQueued,
		FileName:        fileName,
		MimeType:        contentType,
		SizeBytes:       sizeBytes,
		StorageProvider: "s3",
		StorageKey:      s3Key,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.Repo.Create(ctx, rec); err != nil {
		return Recording{}, err
	}

	s.dispatch(ctx, rec.ID)

	return rec, nil
}

// dispatch hands the recording to the queue when configured, otherwise runs
// the pipeline in-process.
func (s *Service) dispatch(ctx context.Context, recordingID string) {
	if s.Queue != nil {
		msg := queue.Message{
			RecordingID: recordingID,
			RequestID:   requestIDFromContext(ctx),
			EnqueuedAt:  time.Now().UTC().Format(time.RFC3339),
			Version:     1,
		}
		err := s.Queue.Send(ctx, msg)
		if err == nil {
			return
		}
		telemetry.Error("recording.enqueue_failed", map[string]any{
			"recording_id": recordingID,
			"error":        err.Error(),
		})
	}
	go s.Process(backgroundWithRequestID(ctx), recordingID)
}

// Get returns a recording owned by the user.
func (s *Service) Get(ctx context.Context, userID, recordingID string) (Recording, error) {
	if userID == "" || recordingID == "" {
		return Recording{}, ErrInvalidInput
	}
	return s.Repo.GetByUser(ctx, userID, recordingID)
}

// List returns recordings for a user ordered newest-first.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Recording, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	return s.Repo.ListByUser(ctx, userID, limit, offset)
}

// Delete soft-deletes a recording. Words already consumed stay consumed.
func (s *Service) Delete(ctx context.Context, userID, recordingID string) error {
	if userID == "" || recordingID == "" {
		return ErrInvalidInput
	}
	return s.Repo.SoftDelete(ctx, userID, recordingID)
}

// ProcessRecording runs the pipeline and reports whether the recording
// completed. Failures are already persisted on the recording row; the
// returned error lets queue consumers decide on redelivery.
func (s *Service) ProcessRecording(ctx context.Context, recordingID string) error {
	s.Process(ctx, recordingID)

	rec, err := s.Repo.GetByID(context.Background(), recordingID)
	if err != nil {
		return fmt.Errorf("recording lookup after processing: %w", err)
	}
	if rec.Status != StatusCompleted {
		code := ErrorCodeInternal
		if rec.ErrorCode != nil && *rec.ErrorCode != "" {
			code = *rec.ErrorCode
		}
		return fmt.Errorf("recording %s ended %s (%s)", recordingID, rec.Status, code)
	}
	return nil
}

// Process runs the analysis pipeline for one recording: transcribe, count and
// charge words, analyze against the user's selected leaders, store the result.
func (s *Service) Process(ctx context.Context, recordingID string) {
	defer func() {
		if r := recover(); r != nil {
			s.failRecording(ctx, recordingID, "", fmt.Errorf("panic: %v", r), nil)
		}
	}()
	startedAt := time.Now().UTC()
	rec, err := s.Repo.GetByID(ctx, recordingID)
	if err != nil {
		s.failRecording(ctx, recordingID, "", fmt.Errorf("recording lookup: %w", err), &startedAt)
		return
	}
	// Queue delivery is at-least-once; a redelivered completed recording keeps
	// its stored analysis and is never re-analyzed.
	if rec.Status == StatusCompleted {
		telemetry.Info("recording.already_completed", map[string]any{
			"request_id":   requestIDFromContext(ctx),
			"user_id":      rec.UserID,
			"recording_id": rec.ID,
		})
		return
	}
	if err := s.Repo.UpdateStatus(ctx, recordingID, StatusProcessing, nil); err != nil {
		s.failRecording(ctx, recordingID, rec.UserID, fmt.Errorf("set processing failed: %w", err), &startedAt)
		return
	}
	metrics.IncRecordingStarted()
	telemetry.Info("recording.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"user_id":           rec.UserID,
		"recording_id":      rec.ID,
		"status":            StatusProcessing,
		"status_transition": "queued->processing",
	})
	if s.Store == nil {
		s.failRecording(ctx, recordingID, rec.UserID, errors.New("missing object store"), &startedAt)
		return
	}
	if s.LLM == nil {
		s.failRecording(ctx, recordingID, rec.UserID, errors.New("missing llm client"), &startedAt)
		return
	}

	transcript, err := s.transcriptFor(ctx, rec)
	if err != nil {
		s.failRecording(ctx, recordingID, rec.UserID, err, &startedAt)
		return
	}

	wordCount := util.CountWords(transcript)
	if err := s.Repo.UpdateTranscript(ctx, recordingID, transcript, wordCount); err != nil {
		s.failRecording(ctx, recordingID, rec.UserID, fmt.Errorf("set transcript failed: %w", err), &startedAt)
		return
	}

	// Quota gate sits before the LLM call: words are charged exactly once per
	// recording, and an over-limit transcript never reaches the provider.
	if s.Usage != nil {
		if _, err := s.Usage.ConsumeWords(ctx, rec.UserID, rec.ID, wordCount); err != nil {
			s.failRecording(ctx, recordingID, rec.UserID, fmt.Errorf("consume words: %w", err), &startedAt)
			return
		}
		metrics.AddWordsAnalyzed(wordCount)
	}

	input, err := s.buildAnalyzeInput(ctx, rec.UserID, transcript)
	if err != nil {
		s.failRecording(ctx, recordingID, rec.UserID, err, &startedAt)
		return
	}

	requestID := requestIDFromContext(ctx)
	llmClient := newRetryingLLM(s.LLM, rec.ID, requestID)

	raw, err := llmClient.AnalyzeConversation(ctx, input)
	if err != nil {
		s.failRecording(ctx, recordingID, rec.UserID, fmt.Errorf("llm analyze: %w", err), &startedAt)
		return
	}

	result, err := llm.DecodeResult(raw)
	if err != nil {
		rawRetry, retryErr := llmClient.AnalyzeConversation(llm.WithFixJSON(ctx, string(raw)), input)
		if retryErr != nil {
			s.failRecording(ctx, recordingID, rec.UserID, fmt.Errorf("llm analyze retry: %w", retryErr), &startedAt)
			return
		}
		result, err = llm.DecodeResult(rawRetry)
		if err != nil {
			s.failRecording(ctx, recordingID, rec.UserID, fmt.Errorf("llm output invalid: %w", err), &startedAt)
			return
		}
	}

	analysis, err := resultToMap(result)
	if err != nil {
		s.failRecording(ctx, recordingID, rec.UserID, fmt.Errorf("llm output invalid: %w", err), &startedAt)
		return
	}

	completedAt := time.Now().UTC()
	if err := s.Repo.UpdateAnalysis(ctx, recordingID, analysis, s.analysisVersion(), completedAt); err != nil {
		s.failRecording(ctx, recordingID, rec.UserID, fmt.Errorf("set analysis result failed: %w", err), &startedAt)
		return
	}
	metrics.IncRecordingCompleted()
	metrics.ObservePipelineDurationMs(durationMs(&startedAt, &completedAt))
	telemetry.Info("recording.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"user_id":           rec.UserID,
		"recording_id":      rec.ID,
		"status":            StatusCompleted,
		"status_transition": "processing->completed",
		"word_count":        wordCount,
		"duration_ms":       durationMs(&startedAt, &completedAt),
	})
}

func (s *Service) transcriptFor(ctx context.Context, rec Recording) (string, error) {
	if rec.Source == SourceTranscript {
		text, err := extract.TranscriptText(ctx, s.Store, rec.StorageKey, rec.MimeType, rec.FileName)
		if err != nil {
			return "", fmt.Errorf("transcription: %w", err)
		}
		return text, nil
	}

	if s.Transcriber == nil {
		return "", errors.New("transcription: missing transcriber")
	}
	body, err := s.Store.Open(ctx, rec.StorageKey)
	if err != nil {
		return "", fmt.Errorf("storage open key=%s: %w", rec.StorageKey, err)
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("storage read key=%s: %w", rec.StorageKey, err)
	}

	text, err := s.Transcriber.Transcribe(ctx, bytes.NewReader(raw), rec.FileName)
	if err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}
	return text, nil
}

// buildAnalyzeInput resolves the user's goals and selected leader personas.
// A user who skipped onboarding is analyzed without leader comparisons.
func (s *Service) buildAnalyzeInput(ctx context.Context, userID, transcript string) (llm.AnalyzeInput, error) {
	input := llm.AnalyzeInput{
		Transcript:    transcript,
		PromptVersion: s.promptVersion(),
	}

	if s.Users == nil {
		return input, nil
	}
	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return input, nil
		}
		return llm.AnalyzeInput{}, fmt.Errorf("user lookup: %w", err)
	}

	input.Goals = splitGoals(user.Goals)

	if s.Leaders == nil {
		return input, nil
	}
	for _, leaderID := range user.SelectedLeaders {
		leader, err := s.Leaders.GetByID(ctx, leaderID)
		if err != nil {
			if errors.Is(err, leaders.ErrNotFound) {
				continue
			}
			return llm.AnalyzeInput{}, fmt.Errorf("leader lookup id=%s: %w", leaderID, err)
		}
		input.Leaders = append(input.Leaders, llm.LeaderPersona{
			Name:  leader.Name,
			Style: leaderStyle(leader),
		})
	}
	return input, nil
}

func leaderStyle(leader leaders.Leader) string {
	parts := make([]string, 0, 3)
	if len(leader.Traits) > 0 {
		parts = append(parts, strings.Join(leader.Traits, ", "))
	}
	if leader.Bio != "" {
		parts = append(parts, leader.Bio)
	}
	if leader.SampleQuote != "" {
		parts = append(parts, fmt.Sprintf("Example: %q", leader.SampleQuote))
	}
	return strings.Join(parts, ". ")
}

func splitGoals(goals string) []string {
	if strings.TrimSpace(goals) == "" {
		return nil
	}
	lines := strings.Split(goals, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func (s *Service) failRecording(ctx context.Context, recordingID, userID string, err error, startedAt *time.Time) {
	code := classifyFailure(err)
	completedAt := time.Now().UTC()
	if updateErr := s.Repo.UpdateStatus(context.Background(), recordingID, StatusFailed, &code); updateErr != nil {
		fmt.Printf("failRecording: update failed id=%s err=%v orig=%v\n", recordingID, updateErr, err)
	}
	metrics.IncRecordingFailed()
	if startedAt != nil {
		metrics.ObservePipelineDurationMs(durationMs(startedAt, &completedAt))
	}
	telemetry.Info("recording.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"user_id":           userID,
		"recording_id":      recordingID,
		"status":            StatusFailed,
		"status_transition": "processing->failed",
		"error_code":        code,
		"error":             sanitizeError(err),
		"duration_ms":       durationMs(startedAt, &completedAt),
	})
}

func durationMs(startedAt, completedAt *time.Time) float64 {
	if startedAt == nil || completedAt == nil {
		return 0
	}
	return float64(completedAt.Sub(*startedAt).Microseconds()) / 1000.0
}

func classifyFailure(err error) string {
	if err == nil {
		return ErrorCodeInternal
	}
	if errors.Is(err, usage.ErrLimitReached) {
		return ErrorCodeLimitReached
	}
	if errors.Is(err, llm.ErrSchemaMismatch) {
		return ErrorCodeLLMSchemaMismatch
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorCodeLLMTimeout
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "openai request timeout") {
		return ErrorCodeLLMTimeout
	}
	if strings.Contains(msg, "timeout") && strings.Contains(msg, "llm") {
		return ErrorCodeLLMTimeout
	}
	if strings.Contains(msg, "schema") || strings.Contains(msg, "llm output invalid") {
		return ErrorCodeLLMSchemaMismatch
	}
	if strings.Contains(msg, "transcription") {
		return ErrorCodeTranscription
	}
	if strings.Contains(msg, "storage") || strings.Contains(msg, "set transcript") || strings.Contains(msg, "set analysis") || strings.Contains(msg, "set processing") || strings.Contains(msg, "recording lookup") {
		return ErrorCodeStorage
	}
	return ErrorCodeInternal
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}

func resultToMap(result llm.AnalysisResult) (map[string]any, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func normalizeTitle(title, fileName string) string {
	title = strings.TrimSpace(title)
	if title != "" {
		return title
	}
	base := fileName
	if idx := strings.LastIndex(base, "."); idx > 0 {
		base = base[:idx]
	}
	return base
}

func (s *Service) promptVersion() string {
	if strings.TrimSpace(s.PromptVersion) == "" {
		return "v1_1"
	}
	return s.PromptVersion
}

func (s *Service) analysisVersion() string {
	if strings.TrimSpace(s.AnalysisVersion) == "" {
		return "unknown"
	}
	return strings.TrimSpace(s.AnalysisVersion)
}
