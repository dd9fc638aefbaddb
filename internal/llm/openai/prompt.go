package openai

import (
	"fmt"
	"log"
	"strings"

	"leadertalk-backend/internal/llm"
)

// Message represents an OpenAI chat message.
type Message struct {
	Role    string
	Content string
}

const (
	systemPromptStrict  = "You are a communication coaching engine. Respond with JSON only. Output must match the schema exactly."
	systemPromptFixJSON = "You are a JSON repair tool. Return only valid JSON that matches the schema exactly."
)

// BuildPrompt creates the chat messages for a conversation analysis request.
func BuildPrompt(input llm.AnalyzeInput, model string) []Message {
	_, developer := resolvePromptTemplate(input.PromptVersion, input.Goals, model)
	return []Message{
		{Role: "system", Content: systemPromptStrict},
		{Role: "developer", Content: developer},
		{Role: "user", Content: buildUserPrompt(input)},
	}
}

func buildFixPrompt(input llm.AnalyzeInput, model string, raw []byte) []Message {
	_, developer := resolvePromptTemplate(input.PromptVersion, input.Goals, model)
	return []Message{
		{Role: "system", Content: systemPromptFixJSON},
		{Role: "developer", Content: developer},
		{Role: "user", Content: fixUserPrompt(raw)},
	}
}

func resolvePromptTemplate(promptVersion string, goals []string, model string) (string, string) {
	version := strings.TrimSpace(promptVersion)
	template, ok := llm.PromptTemplate(version)
	usedVersion := version
	if !ok {
		log.Printf("unknown prompt version %q, defaulting to v1", version)
		usedVersion = "v1"
		template, _ = llm.PromptTemplate(usedVersion)
	}

	goalsProvided := "true"
	if len(goals) == 0 {
		goalsProvided = "false"
	}

	replacer := strings.NewReplacer(
		"{{PROMPT_VERSION}}", usedVersion,
		"{{MODEL}}", model,
		"{{GOALS_PROVIDED}}", goalsProvided,
	)
	return usedVersion, replacer.Replace(template)
}

func buildUserPrompt(input llm.AnalyzeInput) string {
	goals := "N/A"
	if len(input.Goals) > 0 {
		goals = strings.Join(input.Goals, "\n")
	}

	var personas strings.Builder
	if len(input.Leaders) == 0 {
		personas.WriteString("N/A")
	}
	for i, leader := range input.Leaders {
		if i > 0 {
			personas.WriteString("\n")
		}
		fmt.Fprintf(&personas, "- %s: %s", leader.Name, leader.Style)
	}

	return fmt.Sprintf("Transcript:\n%s\n\nSpeaker goals:\n%s\n\nLeader personas:\n%s",
		input.Transcript, goals, personas.String())
}

func fixUserPrompt(raw []byte) string {
	return fmt.Sprintf("Fix this JSON to match the schema exactly. Output JSON only:\n%s", string(raw))
}
