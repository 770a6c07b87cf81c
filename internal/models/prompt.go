package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/dpshade/pocket-fill/internal/placeholder"
)

// NoFolder is the FolderID of prompts that live at the library root.
const NoFolder = -1

// Prompt is a stored template. Content is the raw body with its
// {{placeholders}} untouched.
type Prompt struct {
	ID        int       `json:"id"`
	Name      string    `json:"title" validate:"required,max=200"`
	FolderID  int       `json:"folderId" validate:"gte=-1"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Content  string `json:"content"`
	FilePath string `json:"-"` // markdown backend only, relative to the library root
}

// IsNew reports whether the prompt has not been stored yet.
func (p *Prompt) IsNew() bool {
	return p.ID <= 0
}

// HasFolder reports whether the prompt belongs to a folder.
func (p *Prompt) HasFolder() bool {
	return p.FolderID > 0
}

// Placeholders returns the distinct placeholder names in the body.
func (p *Prompt) Placeholders() []string {
	return placeholder.Extract(p.Content)
}

// Clone returns a copy that shares nothing with p.
func (p *Prompt) Clone() *Prompt {
	c := *p
	return &c
}

// Implement list.Item interface for bubbles list component

// FilterValue returns the value used for filtering in lists
func (p Prompt) FilterValue() string {
	return cleanString(p.Name + " " + p.Content)
}

// Title satisfies the list.Item interface
func (p Prompt) Title() string {
	if p.Name != "" {
		return cleanString(p.Name)
	}
	return "Untitled"
}

// Description satisfies the list.Item interface
func (p Prompt) Description() string {
	var parts []string

	switch n := placeholder.Count(p.Content); n {
	case 0:
		parts = append(parts, "No placeholders")
	case 1:
		parts = append(parts, "1 placeholder")
	default:
		parts = append(parts, fmt.Sprintf("%d placeholders", n))
	}

	if !p.UpdatedAt.IsZero() {
		parts = append(parts, "Last edited: "+p.UpdatedAt.Format("2006-01-02 15:04"))
	}

	result := strings.Join(parts, " • ")

	// Leave space for list indicator and margins
	const maxTotalLength = 100
	if len(result) > maxTotalLength {
		result = result[:maxTotalLength-3] + "..."
	}
	return result
}

// cleanString removes characters that break single-line list rendering
func cleanString(s string) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			b.WriteRune(' ')
		case r >= 32 && r != 127:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
