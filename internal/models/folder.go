package models

import "time"

// Folder groups prompts one level deep.
type Folder struct {
	ID        int       `json:"id"`
	Name      string    `json:"name" validate:"required,max=100,foldername"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// PromptCount is filled by ListFolders only.
	PromptCount int `json:"promptCount"`
}

func (f *Folder) IsNew() bool {
	return f.ID <= 0
}

// Folder filter values understood by search.
const (
	AllFolders    = -1
	Uncategorized = 0
)

// MatchesFolder applies the folder filter: AllFolders matches everything,
// Uncategorized matches prompts without a folder, anything else matches that
// folder's ID.
func (p *Prompt) MatchesFolder(filter int) bool {
	switch {
	case filter == Uncategorized:
		return !p.HasFolder()
	case filter > 0:
		return p.FolderID == filter
	default:
		return true
	}
}
