package recordings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadertalk-backend/internal/leaders"
	"leadertalk-backend/internal/llm"
	"leadertalk-backend/internal/queue"
	"leadertalk-backend/internal/usage"
	"leadertalk-backend/internal/users"
)

type stubStore struct {
	objects map[string][]byte
}

func newStubStore() *stubStore {
	return &stubStore{objects: make(map[string][]byte)}
}

func (s *stubStore) Save(ctx context.Context, userID, fileName string, r io.Reader) (string, int64, string, error) {
	_ = ctx
	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, "", err
	}
	key := userID + "/" + fileName
	s.objects[key] = data
	mimeType := mime.TypeByExtension(filepath.Ext(fileName))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return key, int64(len(data)), mimeType, nil
}

func (s *stubStore) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	_ = ctx
	data, ok := s.objects[storageKey]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

type stubLLM struct {
	raw    json.RawMessage
	err    error
	calls  int
	inputs []llm.AnalyzeInput
}

func (s *stubLLM) AnalyzeConversation(ctx context.Context, input llm.AnalyzeInput) (json.RawMessage, error) {
	_ = ctx
	s.calls++
	s.inputs = append(s.inputs, input)
	if s.err != nil {
		return nil, s.err
	}
	return s.raw, nil
}

type stubTranscriber struct {
	text  string
	err   error
	calls int
}

func (s *stubTranscriber) Transcribe(ctx context.Context, audio io.Reader, fileName string) (string, error) {
	_ = ctx
	_ = audio
	_ = fileName
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

type stubQueue struct {
	messages []queue.Message
	err      error
}

func (s *stubQueue) Send(ctx context.Context, msg queue.Message) error {
	_ = ctx
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, msg)
	return nil
}

func validAnalysisJSON(t *testing.T) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(llm.AnalysisResult{
		Summary: "Clear opener, rushed close.",
		Scores:  llm.Scores{Overall: 72, Clarity: 80, Confidence: 65, Empathy: 70, Structure: 68},
		Strengths: []string{
			"States the main point early",
		},
		Improvements: []string{
			"Pause before responding to objections",
		},
		Leaders: []llm.LeaderComparison{
			{LeaderName: "Winston Churchill", Similarity: 54, WouldSay: "We shall press on.", Insight: "Lean on rhythm to land key points."},
		},
	})
	require.NoError(t, err)
	return raw
}

type pipelineFixture struct {
	svc   *Service
	repo  *MemoryRepo
	store *stubStore
	usage *usage.Service
	llm   *stubLLM
	users *users.Service
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	repo := NewMemoryRepo()
	store := newStubStore()
	usageSvc := usage.NewService()
	llmStub := &stubLLM{raw: validAnalysisJSON(t)}
	leadersRepo := leaders.NewMemoryRepo()
	userSvc := users.NewService(users.NewMemoryRepo(), leadersRepo)

	svc := &Service{
		Repo:            repo,
		Usage:           usageSvc,
		Users:           userSvc,
		Leaders:         leadersRepo,
		Store:           store,
		Transcriber:     &stubTranscriber{text: "hello from the transcriber"},
		LLM:             llmStub,
		AnalysisVersion: "test:v1",
	}
	return &pipelineFixture{svc: svc, repo: repo, store: store, usage: usageSvc, llm: llmStub, users: userSvc}
}

func seedTranscriptRecording(t *testing.T, f *pipelineFixture, userID, text string) Recording {
	t.Helper()
	ctx := context.Background()
	key, size, _, err := f.store.Save(ctx, userID, "standup.txt", strings.NewReader(text))
	require.NoError(t, err)

	rec := Recording{
		ID:         "rec-" + userID,
		UserID:     userID,
		Title:      "standup",
		Source:     SourceTranscript,
		Status:     StatusQueued,
		FileName:   "standup.txt",
		MimeType:   "text/plain",
		SizeBytes:  size,
		StorageKey: key,
	}
	require.NoError(t, f.repo.Create(ctx, rec))
	return rec
}

func TestProcessTranscriptCompletes(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	rec := seedTranscriptRecording(t, f, "user-1", "we agreed to ship the beta on friday")

	f.svc.Process(ctx, rec.ID)

	got, err := f.repo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Nil(t, got.ErrorCode)
	assert.Equal(t, "we agreed to ship the beta on friday", got.Transcript)
	assert.Equal(t, 8, got.WordCount)
	assert.Equal(t, "test:v1", got.AnalysisVersion)
	require.NotNil(t, got.CompletedAt)
	require.NotNil(t, got.Analysis)
	assert.Equal(t, "Clear opener, rushed close.", got.Analysis["summary"])

	u, err := f.usage.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 8, u.Used)
}

func TestProcessChargesWordsOncePerRecording(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	rec := seedTranscriptRecording(t, f, "user-1", "one two three four")

	f.svc.Process(ctx, rec.ID)
	f.svc.Process(ctx, rec.ID)

	u, err := f.usage.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 4, u.Used)
}

func TestProcessCompletedRecordingIsNoOp(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	rec := seedTranscriptRecording(t, f, "user-1", "one two three four")

	f.svc.Process(ctx, rec.ID)
	first, err := f.repo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, first.Status)
	callsAfterFirst := f.llm.calls

	// Queue redelivery of a completed recording: no second analysis, the
	// stored result and status stay untouched.
	f.svc.Process(ctx, rec.ID)

	assert.Equal(t, callsAfterFirst, f.llm.calls)
	got, err := f.repo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, first.Analysis, got.Analysis)
	assert.Equal(t, first.CompletedAt, got.CompletedAt)

	require.NoError(t, f.svc.ProcessRecording(ctx, rec.ID))
	assert.Equal(t, callsAfterFirst, f.llm.calls)
}

func TestProcessLimitReachedFailsBeforeLLM(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	_, err := f.usage.SetPlan(ctx, "user-1", "Starter", 3)
	require.NoError(t, err)
	rec := seedTranscriptRecording(t, f, "user-1", "this transcript is over the quota")

	f.svc.Process(ctx, rec.ID)

	got, err := f.repo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	require.NotNil(t, got.ErrorCode)
	assert.Equal(t, ErrorCodeLimitReached, *got.ErrorCode)
	assert.Equal(t, 0, f.llm.calls)

	// The transcript is still stored so the user can see what was rejected.
	assert.NotEmpty(t, got.Transcript)
}

func TestProcessSchemaMismatchAfterRetry(t *testing.T) {
	f := newPipelineFixture(t)
	f.llm.raw = json.RawMessage(`{"scores":{"overall":50}}`)
	ctx := context.Background()
	rec := seedTranscriptRecording(t, f, "user-1", "short chat")

	f.svc.Process(ctx, rec.ID)

	got, err := f.repo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	require.NotNil(t, got.ErrorCode)
	assert.Equal(t, ErrorCodeLLMSchemaMismatch, *got.ErrorCode)
	assert.Equal(t, 2, f.llm.calls)
}

func TestProcessAudioUsesTranscriber(t *testing.T) {
	f := newPipelineFixture(t)
	transcriber := &stubTranscriber{text: "spoken words from the call"}
	f.svc.Transcriber = transcriber
	ctx := context.Background()

	key, size, _, err := f.store.Save(ctx, "user-1", "call.mp3", strings.NewReader("fake-audio-bytes"))
	require.NoError(t, err)
	rec := Recording{
		ID:         "rec-audio",
		UserID:     "user-1",
		Source:     SourceAudio,
		Status:     StatusQueued,
		FileName:   "call.mp3",
		MimeType:   "audio/mpeg",
		SizeBytes:  size,
		StorageKey: key,
	}
	require.NoError(t, f.repo.Create(ctx, rec))

	f.svc.Process(ctx, rec.ID)

	got, err := f.repo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, "spoken words from the call", got.Transcript)
	assert.Equal(t, 1, transcriber.calls)
}

func TestProcessTranscriptionFailure(t *testing.T) {
	f := newPipelineFixture(t)
	f.svc.Transcriber = &stubTranscriber{err: errors.New("provider unavailable")}
	ctx := context.Background()

	key, _, _, err := f.store.Save(ctx, "user-1", "call.mp3", strings.NewReader("fake-audio-bytes"))
	require.NoError(t, err)
	rec := Recording{
		ID:         "rec-audio",
		UserID:     "user-1",
		Source:     SourceAudio,
		Status:     StatusQueued,
		FileName:   "call.mp3",
		MimeType:   "audio/mpeg",
		StorageKey: key,
	}
	require.NoError(t, f.repo.Create(ctx, rec))

	f.svc.Process(ctx, rec.ID)

	got, err := f.repo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	require.NotNil(t, got.ErrorCode)
	assert.Equal(t, ErrorCodeTranscription, *got.ErrorCode)
}

func TestProcessIncludesSelectedLeaderPersonas(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	require.NoError(t, f.users.UpsertFromAuth(ctx, users.User{ID: "user-1", Email: "u1@example.com"}))
	require.NoError(t, f.users.CompleteOnboarding(ctx, "user-1", "sound more confident\nfewer filler words", []string{"winston-churchill", "maya-angelou"}))

	rec := seedTranscriptRecording(t, f, "user-1", "quick sync about the launch")
	f.svc.Process(ctx, rec.ID)

	require.Len(t, f.llm.inputs, 1)
	input := f.llm.inputs[0]
	assert.Equal(t, []string{"sound more confident", "fewer filler words"}, input.Goals)
	require.Len(t, input.Leaders, 2)
	assert.Equal(t, "Winston Churchill", input.Leaders[0].Name)
	assert.Contains(t, input.Leaders[0].Style, "rhetorical cadence")
}

func TestProcessWithoutOnboardingAnalyzesWithoutLeaders(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	rec := seedTranscriptRecording(t, f, "guest:abc", "hello there")

	f.svc.Process(ctx, rec.ID)

	require.Len(t, f.llm.inputs, 1)
	assert.Empty(t, f.llm.inputs[0].Leaders)
	assert.Empty(t, f.llm.inputs[0].Goals)

	got, err := f.repo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
}

func TestProcessRecordingReturnsErrorOnFailure(t *testing.T) {
	f := newPipelineFixture(t)
	f.llm.err = errors.New("llm down")
	ctx := context.Background()
	rec := seedTranscriptRecording(t, f, "user-1", "a few words")

	err := f.svc.ProcessRecording(ctx, rec.ID)
	assert.Error(t, err)

	rec2 := seedTranscriptRecording(t, f, "user-2", "a few more words")
	f.llm.err = nil
	assert.NoError(t, f.svc.ProcessRecording(ctx, rec2.ID))
}

func TestCreateEnqueuesWhenQueueConfigured(t *testing.T) {
	f := newPipelineFixture(t)
	q := &stubQueue{}
	f.svc.Queue = q
	ctx := context.Background()

	rec, err := f.svc.Create(ctx, "user-1", "", "notes.txt", strings.NewReader("hello world"))
	require.NoError(t, err)
	assert.Equal(t, SourceTranscript, rec.Source)
	assert.Equal(t, StatusQueued, rec.Status)
	assert.Equal(t, "notes", rec.Title)

	require.Len(t, q.messages, 1)
	assert.Equal(t, rec.ID, q.messages[0].RecordingID)
	assert.Equal(t, 1, q.messages[0].Version)
}

func TestCreateFromS3RoutesAudio(t *testing.T) {
	f := newPipelineFixture(t)
	q := &stubQueue{}
	f.svc.Queue = q
	ctx := context.Background()

	rec, err := f.svc.CreateFromS3(ctx, "user-1", "uploads/user-1/call.m4a", "call.m4a", "audio/mp4", 2048)
	require.NoError(t, err)
	assert.Equal(t, SourceAudio, rec.Source)
	assert.Equal(t, "s3", rec.StorageProvider)
	require.Len(t, q.messages, 1)
}

func TestDeleteKeepsConsumedWords(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	rec := seedTranscriptRecording(t, f, "user-1", "one two three")

	f.svc.Process(ctx, rec.ID)
	require.NoError(t, f.svc.Delete(ctx, "user-1", rec.ID))

	_, err := f.svc.Get(ctx, "user-1", rec.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	u, err := f.usage.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 3, u.Used)
}

func TestDeleteOtherUsersRecordingNotFound(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	rec := seedTranscriptRecording(t, f, "user-1", "private conversation")

	err := f.svc.Delete(ctx, "user-2", rec.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClassifyFailure(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"limit", usage.ErrLimitReached, ErrorCodeLimitReached},
		{"wrapped limit", errors.Join(errors.New("consume words"), usage.ErrLimitReached), ErrorCodeLimitReached},
		{"schema", llm.ErrSchemaMismatch, ErrorCodeLLMSchemaMismatch},
		{"deadline", context.DeadlineExceeded, ErrorCodeLLMTimeout},
		{"transcription", errors.New("transcription: provider unavailable"), ErrorCodeTranscription},
		{"storage", errors.New("storage open key=k: gone"), ErrorCodeStorage},
		{"unknown", errors.New("boom"), ErrorCodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, classifyFailure(tc.err))
		})
	}
}
