package storage

import (
	"context"
	"fmt"

	"github.com/dpshade/pocket-fill/internal/config"
	"github.com/dpshade/pocket-fill/internal/logging"
	"github.com/dpshade/pocket-fill/internal/models"
)

// Repository is the persistence boundary for prompts and folders. Returned
// values are copies; mutating them never changes stored state.
type Repository interface {
	// SavePrompt inserts p when p.ID is zero, otherwise updates it. ID and
	// timestamps are written back into p.
	SavePrompt(ctx context.Context, p *models.Prompt) error
	DeletePrompt(ctx context.Context, id int) error
	GetPrompt(ctx context.Context, id int) (*models.Prompt, error)
	// ListPrompts returns every prompt, most recently updated first.
	ListPrompts(ctx context.Context) ([]*models.Prompt, error)
	// ListPromptsByFolder accepts the same filter values as search:
	// models.AllFolders, models.Uncategorized or a folder ID.
	ListPromptsByFolder(ctx context.Context, folderID int) ([]*models.Prompt, error)
	// DuplicatePrompt stores a copy titled "<title> (Copy)" and returns it.
	DuplicatePrompt(ctx context.Context, id int) (*models.Prompt, error)

	SaveFolder(ctx context.Context, f *models.Folder) error
	// DeleteFolder removes the folder; its prompts become uncategorized.
	DeleteFolder(ctx context.Context, id int) error
	GetFolder(ctx context.Context, id int) (*models.Folder, error)
	// ListFolders returns folders by name with PromptCount filled in.
	ListFolders(ctx context.Context) ([]*models.Folder, error)
	// FolderNameExists compares names case-insensitively, ignoring excludeID.
	FolderNameExists(ctx context.Context, name string, excludeID int) (bool, error)

	Close() error
}

// Open returns the backend selected by cfg.Storage.Backend.
func Open(cfg *config.Config, log *logging.Logger) (Repository, error) {
	if log == nil {
		log = logging.Nop()
	}
	log = log.With("backend", cfg.Storage.Backend)

	switch cfg.Storage.Backend {
	case config.BackendMarkdown:
		return NewMarkdownRepository(cfg.Storage.Path, log)
	case config.BackendSQLite:
		return NewSQLRepository(cfg.Storage.Database, log)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// InitLibrary creates the directory structure for a prompt library.
func InitLibrary(root string) error {
	return ensureDirs(root, metaPath(root))
}

// copyTitle is the title given to duplicates.
func copyTitle(title string) string {
	return title + " (Copy)"
}
