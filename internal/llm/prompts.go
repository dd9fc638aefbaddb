package llm

import _ "embed"

var (
	//go:embed prompts/v1.txt
	promptV1 string
	//go:embed prompts/v1_1.txt
	promptV1_1 string
)

// PromptTemplate returns the prompt template text and whether the version was recognized.
func PromptTemplate(version string) (string, bool) {
	switch version {
	case "v1_1":
		return promptV1_1, true
	case "v1":
		return promptV1, true
	default:
		return promptV1, false
	}
}
