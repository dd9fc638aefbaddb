package openai

import (
	"strings"
	"testing"

	"leadertalk-backend/internal/llm"
)

func TestBuildPromptIncludesPersonas(t *testing.T) {
	input := llm.AnalyzeInput{
		Transcript:    "so here is what I told the team",
		Goals:         []string{"Sound more confident"},
		Leaders:       []llm.LeaderPersona{{Name: "Winston Churchill", Style: "direct, vivid"}},
		PromptVersion: "v1",
	}

	messages := BuildPrompt(input, "gpt-4o-mini")
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(messages))
	}
	if messages[0].Role != "system" {
		t.Fatalf("first message role = %q, want system", messages[0].Role)
	}
	user := messages[2].Content
	if !strings.Contains(user, "Winston Churchill") {
		t.Fatalf("user prompt missing persona: %q", user)
	}
	if !strings.Contains(user, "Sound more confident") {
		t.Fatalf("user prompt missing goal: %q", user)
	}
	if !strings.Contains(user, input.Transcript) {
		t.Fatal("user prompt missing transcript")
	}
}

func TestBuildPromptNoGoals(t *testing.T) {
	input := llm.AnalyzeInput{Transcript: "hello", PromptVersion: "v1"}

	messages := BuildPrompt(input, "gpt-4o-mini")
	user := messages[2].Content
	if !strings.Contains(user, "Speaker goals:\nN/A") {
		t.Fatalf("expected N/A goals, got %q", user)
	}
	if !strings.Contains(messages[1].Content, "Goals provided: false") {
		t.Fatal("developer prompt should flag missing goals")
	}
}

func TestResolvePromptTemplateUnknownVersion(t *testing.T) {
	version, developer := resolvePromptTemplate("v99", nil, "gpt-4o-mini")
	if version != "v1" {
		t.Fatalf("version = %q, want v1 fallback", version)
	}
	if !strings.Contains(developer, "Prompt version: v1") {
		t.Fatal("developer prompt not resolved from v1 template")
	}
}
