package storage

import (
	"context"
	"strings"

	"github.com/dpshade/pocket-fill/internal/logging"
	"github.com/dpshade/pocket-fill/internal/models"
)

// MigrateStats counts what Migrate wrote.
type MigrateStats struct {
	FoldersCreated int
	FoldersReused  int
	Prompts        int
}

// Migrate copies every folder and prompt from src into dst. A folder whose
// name already exists in dst is reused. Prompts get new IDs in dst but keep
// their title, content, folder and timestamps. With dryRun nothing is
// written and the stats describe what would have been.
func Migrate(ctx context.Context, src, dst Repository, dryRun bool, log *logging.Logger) (MigrateStats, error) {
	if log == nil {
		log = logging.Nop()
	}
	var stats MigrateStats

	existing, err := dst.ListFolders(ctx)
	if err != nil {
		return stats, err
	}
	byName := make(map[string]int, len(existing))
	for _, f := range existing {
		byName[strings.ToLower(f.Name)] = f.ID
	}

	folders, err := src.ListFolders(ctx)
	if err != nil {
		return stats, err
	}
	folderIDs := make(map[int]int, len(folders))
	for _, f := range folders {
		if id, ok := byName[strings.ToLower(f.Name)]; ok {
			folderIDs[f.ID] = id
			stats.FoldersReused++
			log.Info("folder exists, reusing", "name", f.Name)
			continue
		}

		stats.FoldersCreated++
		if dryRun {
			log.Info("would create folder", "name", f.Name)
			continue
		}
		created := &models.Folder{Name: f.Name}
		if err := dst.SaveFolder(ctx, created); err != nil {
			return stats, err
		}
		folderIDs[f.ID] = created.ID
		byName[strings.ToLower(created.Name)] = created.ID
		log.Info("folder created", "name", created.Name, "id", created.ID)
	}

	prompts, err := src.ListPrompts(ctx)
	if err != nil {
		return stats, err
	}
	// oldest first so new IDs follow creation order
	for i := len(prompts) - 1; i >= 0; i-- {
		p := prompts[i].Clone()
		sourceID := p.ID

		p.ID = 0
		p.FilePath = ""
		if p.HasFolder() {
			id, ok := folderIDs[p.FolderID]
			switch {
			case ok:
				p.FolderID = id
			case dryRun:
				// the folder was only counted
			default:
				log.Warn("prompt folder missing, moving to library root", "prompt", sourceID, "folder", p.FolderID)
				p.FolderID = models.NoFolder
			}
		}

		stats.Prompts++
		if dryRun {
			log.Info("would copy prompt", "source", sourceID, "title", p.Name)
			continue
		}
		if err := dst.SavePrompt(ctx, p); err != nil {
			return stats, err
		}
		log.Info("prompt copied", "source", sourceID, "id", p.ID, "path", p.FilePath)
	}
	return stats, nil
}
