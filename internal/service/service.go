package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/dpshade/pocket-fill/internal/errors"
	"github.com/dpshade/pocket-fill/internal/logging"
	"github.com/dpshade/pocket-fill/internal/models"
	"github.com/dpshade/pocket-fill/internal/renderer"
	"github.com/dpshade/pocket-fill/internal/storage"
	"github.com/dpshade/pocket-fill/internal/wizard"
)

// Service provides business logic for prompt management
type Service struct {
	repo storage.Repository
	log  *logging.Logger
}

// NewService creates a new service instance on top of repo.
func NewService(repo storage.Repository, log *logging.Logger) *Service {
	if log == nil {
		log = logging.Nop()
	}
	return &Service{repo: repo, log: log}
}

// Close releases the underlying repository.
func (s *Service) Close() error {
	return s.repo.Close()
}

// ListPrompts returns the prompts matching the folder filter, newest first.
func (s *Service) ListPrompts(ctx context.Context, folderID int) ([]*models.Prompt, error) {
	return s.repo.ListPromptsByFolder(ctx, folderID)
}

// SearchPrompts searches prompts by query string within the folder filter.
// An empty query returns the filtered list unchanged; otherwise results are
// ranked by fuzzy match score over title and content.
func (s *Service) SearchPrompts(ctx context.Context, query string, folderID int) ([]*models.Prompt, error) {
	prompts, err := s.ListPrompts(ctx, folderID)
	if err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return prompts, nil
	}

	results := filterPromptsByText(prompts, query)
	s.log.Debug("search", "query", query, "folder", folderID, "matches", len(results), "of", len(prompts))
	return results, nil
}

// filterPromptsByText filters prompts using fuzzy text search
func filterPromptsByText(prompts []*models.Prompt, query string) []*models.Prompt {
	searchStrings := make([]string, len(prompts))
	for i, p := range prompts {
		searchStrings[i] = p.Name + " " + p.Content
	}

	matches := fuzzy.Find(query, searchStrings)

	results := make([]*models.Prompt, 0, len(matches))
	for _, match := range matches {
		results = append(results, prompts[match.Index])
	}
	return results
}

// GetPrompt returns a prompt by ID
func (s *Service) GetPrompt(ctx context.Context, id int) (*models.Prompt, error) {
	return s.repo.GetPrompt(ctx, id)
}

// SavePrompt creates or updates a prompt.
func (s *Service) SavePrompt(ctx context.Context, p *models.Prompt) error {
	created := p.IsNew()
	if err := s.repo.SavePrompt(ctx, p); err != nil {
		return err
	}
	if created {
		s.log.Info("prompt created", "id", p.ID, "title", p.Name, "folder", p.FolderID)
	} else {
		s.log.Info("prompt updated", "id", p.ID, "title", p.Name, "folder", p.FolderID)
	}
	return nil
}

// DeletePrompt removes a prompt.
func (s *Service) DeletePrompt(ctx context.Context, id int) error {
	if err := s.repo.DeletePrompt(ctx, id); err != nil {
		return err
	}
	s.log.Info("prompt deleted", "id", id)
	return nil
}

// DuplicatePrompt copies a prompt into the same folder with a "(Copy)" title.
func (s *Service) DuplicatePrompt(ctx context.Context, id int) (*models.Prompt, error) {
	dup, err := s.repo.DuplicatePrompt(ctx, id)
	if err != nil {
		return nil, err
	}
	s.log.Info("prompt duplicated", "source", id, "id", dup.ID)
	return dup, nil
}

// ListFolders returns every folder with its prompt count.
func (s *Service) ListFolders(ctx context.Context) ([]*models.Folder, error) {
	return s.repo.ListFolders(ctx)
}

func (s *Service) GetFolder(ctx context.Context, id int) (*models.Folder, error) {
	return s.repo.GetFolder(ctx, id)
}

// CreateFolder adds a folder. Names are sanitized and must be unique,
// ignoring case.
func (s *Service) CreateFolder(ctx context.Context, name string) (*models.Folder, error) {
	f := &models.Folder{Name: name}
	if err := s.repo.SaveFolder(ctx, f); err != nil {
		return nil, err
	}
	s.log.Info("folder created", "id", f.ID, "name", f.Name)
	return f, nil
}

// RenameFolder changes a folder's name. Its prompts move with it.
func (s *Service) RenameFolder(ctx context.Context, id int, name string) (*models.Folder, error) {
	f, err := s.repo.GetFolder(ctx, id)
	if err != nil {
		return nil, err
	}
	old := f.Name
	f.Name = name
	if err := s.repo.SaveFolder(ctx, f); err != nil {
		return nil, err
	}
	s.log.Info("folder renamed", "id", id, "from", old, "to", f.Name)
	return f, nil
}

// DeleteFolder removes a folder; its prompts become uncategorized.
func (s *Service) DeleteFolder(ctx context.Context, id int) error {
	if err := s.repo.DeleteFolder(ctx, id); err != nil {
		return err
	}
	s.log.Info("folder deleted", "id", id)
	return nil
}

// FindFolder resolves a folder by ID or by case-insensitive name.
func (s *Service) FindFolder(ctx context.Context, ref string) (*models.Folder, error) {
	folders, err := s.repo.ListFolders(ctx)
	if err != nil {
		return nil, err
	}
	for _, f := range folders {
		if strings.EqualFold(f.Name, ref) {
			return f, nil
		}
	}
	for _, f := range folders {
		if ref == strconv.Itoa(f.ID) {
			return f, nil
		}
	}
	return nil, errors.NotFoundError("folder " + ref)
}

// EnsureFolder returns the folder named name, creating it when missing.
func (s *Service) EnsureFolder(ctx context.Context, name string) (*models.Folder, error) {
	folders, err := s.repo.ListFolders(ctx)
	if err != nil {
		return nil, err
	}
	for _, f := range folders {
		if strings.EqualFold(f.Name, name) {
			return f, nil
		}
	}
	return s.CreateFolder(ctx, name)
}

// NewWizard loads a prompt and returns a fill session initialised with its
// content.
func (s *Service) NewWizard(ctx context.Context, promptID int) (*wizard.Session, *models.Prompt, error) {
	p, err := s.repo.GetPrompt(ctx, promptID)
	if err != nil {
		return nil, nil, err
	}
	session := wizard.NewWithContent(p.Content)
	s.log.Debug("wizard started", "id", p.ID, "placeholders", session.Len())
	return session, p, nil
}

// Render resolves a prompt's placeholders with values. Strict rendering
// fails with an unresolved-placeholders error instead of leaving tokens in
// the output.
func (s *Service) Render(ctx context.Context, promptID int, values map[string]string, strict bool, format string) (string, error) {
	p, err := s.repo.GetPrompt(ctx, promptID)
	if err != nil {
		return "", err
	}
	out, err := renderer.NewRenderer(p, strict).Render(format, values)
	if err != nil {
		return "", err
	}
	return out, nil
}
