package renderer

import (
	"encoding/json"
	"fmt"

	"github.com/dpshade/pocket-fill/internal/errors"
	"github.com/dpshade/pocket-fill/internal/models"
	"github.com/dpshade/pocket-fill/internal/placeholder"
)

// Renderer handles prompt rendering
type Renderer struct {
	prompt *models.Prompt
	strict bool
}

// NewRenderer creates a new renderer instance. A strict renderer refuses to
// produce output while any placeholder has neither a value nor a default.
func NewRenderer(prompt *models.Prompt, strict bool) *Renderer {
	return &Renderer{
		prompt: prompt,
		strict: strict,
	}
}

// RenderText renders the prompt as plain text
func (r *Renderer) RenderText(values map[string]string) (string, error) {
	content := r.prompt.Content

	if r.strict {
		if missing := placeholder.Unresolved(content, values); len(missing) > 0 {
			return "", errors.UnresolvedError(missing).
				WithContext("prompt_id", r.prompt.ID)
		}
	}

	return placeholder.Replace(content, values), nil
}

// RenderJSON renders the prompt as a JSON message array for LLM APIs
func (r *Renderer) RenderJSON(values map[string]string) (string, error) {
	text, err := r.RenderText(values)
	if err != nil {
		return "", err
	}

	messages := []Message{
		{
			Role:    "user",
			Content: text,
		},
	}

	jsonBytes, err := json.MarshalIndent(messages, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal to JSON: %w", err)
	}

	return string(jsonBytes), nil
}

// Render dispatches on format: "text" (or empty) and "json".
func (r *Renderer) Render(format string, values map[string]string) (string, error) {
	switch format {
	case "", FormatText:
		return r.RenderText(values)
	case FormatJSON:
		return r.RenderJSON(values)
	default:
		return "", errors.InvalidInputError(fmt.Sprintf("unknown output format %q", format)).
			WithDetails("use text or json")
	}
}

// Output formats accepted by Render.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Message represents a chat message for LLM APIs
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
