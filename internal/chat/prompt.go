package chat

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
)

//go:embed prompts/lead_system_prompt.txt
var defaultSystemPrompt string

// LoadSystemPrompt returns the prompt at path, or the built-in prompt when
// path is empty.
func LoadSystemPrompt(path string) (string, error) {
	if path == "" {
		return defaultSystemPrompt, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", eris.Wrapf(err, "chat: read system prompt %s", path)
	}
	return string(b), nil
}

// analysisPrompt builds the single-shot prompt of the legacy query endpoint.
func analysisPrompt(leadsContext, query string) string {
	return fmt.Sprintf(`As an AI assistant with access to leads data from a CRM system, please answer the following question
based solely on the data provided below:

--- LEADS DATA ---
%s

--- USER QUERY ---
%s

Only use the information from the provided data to answer. If the data doesn't contain information to
answer the query, say so clearly. Provide specific details when available.
`, leadsContext, query)
}
