package storage

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dpshade/pocket-fill/internal/models"
)

const frontmatterDelim = "---"

// frontmatter is the YAML header of a prompt file. Timestamps are kept as
// strings so files written by other tools with zone-less ISO dates still load.
type frontmatter struct {
	Title     string `yaml:"title"`
	CreatedAt string `yaml:"createdAt,omitempty"`
	UpdatedAt string `yaml:"updatedAt,omitempty"`
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}

// parsePromptFile reads optional YAML frontmatter followed by the body.
// Files without frontmatter are accepted; the whole file is the body. CRLF
// line endings become LF throughout; the body is otherwise left untouched.
func parsePromptFile(content []byte) (*models.Prompt, error) {
	prompt := &models.Prompt{FolderID: models.NoFolder}

	text := strings.ReplaceAll(string(content), "\r\n", "\n")
	if !strings.HasPrefix(text, frontmatterDelim+"\n") {
		prompt.Content = text
		return prompt, nil
	}

	rest := text[len(frontmatterDelim)+1:]
	var header, body string
	switch {
	case strings.HasPrefix(rest, frontmatterDelim+"\n"):
		body = rest[len(frontmatterDelim)+1:]
	case rest == frontmatterDelim:
	default:
		end := strings.Index(rest, "\n"+frontmatterDelim+"\n")
		if end == -1 {
			if !strings.HasSuffix(rest, "\n"+frontmatterDelim) {
				return nil, fmt.Errorf("missing closing frontmatter delimiter")
			}
			header = strings.TrimSuffix(rest, "\n"+frontmatterDelim)
			break
		}
		header = rest[:end]
		body = rest[end+len(frontmatterDelim)+2:]
	}

	var fm frontmatter
	if err := yaml.Unmarshal([]byte(header), &fm); err != nil {
		return nil, fmt.Errorf("failed to parse frontmatter: %w", err)
	}
	prompt.Name = strings.TrimSpace(fm.Title)
	prompt.CreatedAt = parseTime(fm.CreatedAt)
	prompt.UpdatedAt = parseTime(fm.UpdatedAt)

	// serializePrompt separates frontmatter and body with one blank line
	prompt.Content = strings.TrimPrefix(body, "\n")
	return prompt, nil
}

func serializePrompt(prompt *models.Prompt) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(frontmatterDelim + "\n")

	fm := frontmatter{Title: prompt.Name}
	if !prompt.CreatedAt.IsZero() {
		fm.CreatedAt = prompt.CreatedAt.Format(time.RFC3339)
	}
	if !prompt.UpdatedAt.IsZero() {
		fm.UpdatedAt = prompt.UpdatedAt.Format(time.RFC3339)
	}

	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(fm); err != nil {
		return nil, fmt.Errorf("failed to encode frontmatter: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode frontmatter: %w", err)
	}

	buf.WriteString(frontmatterDelim + "\n")

	if prompt.Content != "" {
		buf.WriteString("\n")
		buf.WriteString(prompt.Content)
	}

	return buf.Bytes(), nil
}
