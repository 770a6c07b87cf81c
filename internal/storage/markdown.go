package storage

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dpshade/pocket-fill/internal/errors"
	"github.com/dpshade/pocket-fill/internal/logging"
	"github.com/dpshade/pocket-fill/internal/models"
	"github.com/dpshade/pocket-fill/internal/validation"
)

const promptExt = ".md"

var _ Repository = (*MarkdownRepository)(nil)

// MarkdownRepository stores one markdown file per prompt. Folders are the
// directories directly under the root; deeper nesting is ignored. File names
// are sanitized titles, so renaming a prompt renames its file.
type MarkdownRepository struct {
	root  string
	log   *logging.Logger
	index *idIndex

	mu      sync.RWMutex
	prompts map[int]*models.Prompt
	folders map[int]*models.Folder
}

// NewMarkdownRepository opens (creating if needed) the library at root.
func NewMarkdownRepository(root string, log *logging.Logger) (*MarkdownRepository, error) {
	if log == nil {
		log = logging.Nop()
	}
	if err := ensureDirs(root, metaPath(root)); err != nil {
		return nil, errors.StorageError("create library", err)
	}

	r := &MarkdownRepository{
		root:  root,
		log:   log,
		index: newIDIndex(root),
	}
	if err := r.index.load(); err != nil {
		log.Warn("failed to load id index, starting fresh", "error", err)
	}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

func ensureDirs(dirs ...string) error {
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// Reload rescans the library from disk.
func (r *MarkdownRepository) Reload() error {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		return errors.StorageError("scan library", err)
	}

	prompts := make(map[int]*models.Prompt)
	folders := make(map[int]*models.Folder)
	seenPrompts := make(map[string]bool)
	seenFolders := make(map[string]bool)

	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		if !entry.IsDir() {
			if isPromptFile(name) {
				r.scanPrompt(prompts, seenPrompts, name, models.NoFolder)
			}
			continue
		}

		folder := &models.Folder{ID: r.index.folderID(name), Name: name}
		if info, err := entry.Info(); err == nil {
			folder.CreatedAt = info.ModTime()
			folder.UpdatedAt = info.ModTime()
		}
		folders[folder.ID] = folder
		seenFolders[name] = true

		files, err := os.ReadDir(filepath.Join(r.root, name))
		if err != nil {
			r.log.Warn("failed to read folder", "folder", name, "error", err)
			continue
		}
		for _, f := range files {
			if !f.IsDir() && isPromptFile(f.Name()) {
				r.scanPrompt(prompts, seenPrompts, filepath.Join(name, f.Name()), folder.ID)
			}
		}
	}

	r.index.cleanup(seenPrompts, seenFolders)
	if err := r.index.save(); err != nil {
		r.log.Warn("failed to save id index", "error", err)
	}

	r.mu.Lock()
	r.prompts = prompts
	r.folders = folders
	r.mu.Unlock()

	r.log.Debug("library scanned", "prompts", len(prompts), "folders", len(folders))
	return nil
}

func (r *MarkdownRepository) scanPrompt(into map[int]*models.Prompt, seen map[string]bool, relPath string, folderID int) {
	p, err := r.loadPrompt(relPath)
	if err != nil {
		r.log.Warn("failed to load prompt", "path", relPath, "error", err)
		return
	}
	p.ID = r.index.promptID(relPath)
	p.FolderID = folderID
	into[p.ID] = p
	seen[relPath] = true
}

// loadPrompt reads one prompt file. Missing titles fall back to the file
// name; missing timestamps fall back to the file's modification time.
func (r *MarkdownRepository) loadPrompt(relPath string) (*models.Prompt, error) {
	fullPath := filepath.Join(r.root, relPath)

	content, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file: %w", err)
	}
	p, err := parsePromptFile(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt: %w", err)
	}

	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(relPath), promptExt)
	}
	if p.CreatedAt.IsZero() || p.UpdatedAt.IsZero() {
		if info, err := os.Stat(fullPath); err == nil {
			if p.CreatedAt.IsZero() {
				p.CreatedAt = info.ModTime()
			}
			if p.UpdatedAt.IsZero() {
				p.UpdatedAt = info.ModTime()
			}
		}
	}
	p.FilePath = relPath
	return p, nil
}

func (r *MarkdownRepository) SavePrompt(ctx context.Context, p *models.Prompt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.FolderID <= 0 {
		p.FolderID = models.NoFolder
	}
	if err := validation.Struct(p); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	dir := ""
	if p.HasFolder() {
		folder, ok := r.folders[p.FolderID]
		if !ok {
			return errors.NotFoundError(fmt.Sprintf("folder %d", p.FolderID))
		}
		dir = folder.Name
	}

	var existing *models.Prompt
	if !p.IsNew() {
		var ok bool
		if existing, ok = r.prompts[p.ID]; !ok {
			return errors.NotFoundError(fmt.Sprintf("prompt %d", p.ID))
		}
	}

	now := time.Now().Truncate(time.Second)
	ownPath := ""
	if existing != nil {
		ownPath = existing.FilePath
		p.CreatedAt = existing.CreatedAt
		p.UpdatedAt = now
	} else {
		// New prompts keep supplied timestamps.
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		if p.UpdatedAt.IsZero() {
			p.UpdatedAt = p.CreatedAt
		}
	}

	relPath := r.uniquePath(dir, fileTitle(p.Name), ownPath)
	caseOnly := ownPath != "" && ownPath != relPath && strings.EqualFold(ownPath, relPath)
	if caseOnly {
		if err := os.Rename(filepath.Join(r.root, ownPath), filepath.Join(r.root, relPath)); err != nil {
			return errors.StorageError("rename prompt file", err)
		}
	}
	if err := r.writePrompt(relPath, p); err != nil {
		return err
	}
	if ownPath != "" && ownPath != relPath && !caseOnly {
		if err := os.Remove(filepath.Join(r.root, ownPath)); err != nil && !os.IsNotExist(err) {
			r.log.Warn("failed to remove old prompt file", "path", ownPath, "error", err)
		}
	}

	if existing != nil {
		r.index.movePrompt(ownPath, relPath, p.ID)
	} else {
		p.ID = r.index.promptID(relPath)
	}
	p.FilePath = relPath
	r.prompts[p.ID] = p.Clone()

	if err := r.index.save(); err != nil {
		r.log.Warn("failed to save id index", "error", err)
	}
	r.log.Debug("prompt saved", "id", p.ID, "path", relPath)
	return nil
}

func (r *MarkdownRepository) writePrompt(relPath string, p *models.Prompt) error {
	fullPath := filepath.Join(r.root, relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return errors.StorageError("create directory", err)
	}

	content, err := serializePrompt(p)
	if err != nil {
		return errors.StorageError("serialize prompt", err)
	}
	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		return errors.StorageError("write prompt file", err)
	}
	return nil
}

// uniquePath returns dir/base.md, or dir/base N.md when that file already
// belongs to another prompt. own is the caller's current path, which never
// counts as a collision. Paths owned by other prompts are compared without
// case so a library stays valid on case-insensitive filesystems.
func (r *MarkdownRepository) uniquePath(dir, base, own string) string {
	candidate := filepath.Join(dir, base+promptExt)
	for n := 2; ; n++ {
		if candidate == own {
			return candidate
		}
		if !r.pathTaken(candidate, own) {
			if strings.EqualFold(candidate, own) {
				return candidate
			}
			if _, err := os.Stat(filepath.Join(r.root, candidate)); os.IsNotExist(err) {
				return candidate
			}
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s %d%s", base, n, promptExt))
	}
}

func (r *MarkdownRepository) pathTaken(candidate, own string) bool {
	for _, p := range r.prompts {
		if p.FilePath != own && strings.EqualFold(p.FilePath, candidate) {
			return true
		}
	}
	return false
}

func (r *MarkdownRepository) DeletePrompt(ctx context.Context, id int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.prompts[id]
	if !ok {
		return errors.NotFoundError(fmt.Sprintf("prompt %d", id))
	}
	if err := os.Remove(filepath.Join(r.root, p.FilePath)); err != nil && !os.IsNotExist(err) {
		return errors.StorageError("delete prompt file", err)
	}

	delete(r.prompts, id)
	r.index.forgetPrompt(p.FilePath)
	if err := r.index.save(); err != nil {
		r.log.Warn("failed to save id index", "error", err)
	}
	return nil
}

func (r *MarkdownRepository) GetPrompt(ctx context.Context, id int) (*models.Prompt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.prompts[id]
	if !ok {
		return nil, errors.NotFoundError(fmt.Sprintf("prompt %d", id))
	}
	return p.Clone(), nil
}

func (r *MarkdownRepository) ListPrompts(ctx context.Context) ([]*models.Prompt, error) {
	return r.ListPromptsByFolder(ctx, models.AllFolders)
}

func (r *MarkdownRepository) ListPromptsByFolder(ctx context.Context, folderID int) ([]*models.Prompt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.Prompt
	for _, p := range r.prompts {
		if p.MatchesFolder(folderID) {
			out = append(out, p.Clone())
		}
	}
	sortPrompts(out)
	return out, nil
}

// sortPrompts orders most recently updated first, then by ID.
func sortPrompts(prompts []*models.Prompt) {
	slices.SortFunc(prompts, func(a, b *models.Prompt) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

func (r *MarkdownRepository) DuplicatePrompt(ctx context.Context, id int) (*models.Prompt, error) {
	src, err := r.GetPrompt(ctx, id)
	if err != nil {
		return nil, err
	}

	dup := &models.Prompt{
		Name:     copyTitle(src.Name),
		Content:  src.Content,
		FolderID: src.FolderID,
	}
	if err := r.SavePrompt(ctx, dup); err != nil {
		return nil, err
	}
	return dup, nil
}

func (r *MarkdownRepository) SaveFolder(ctx context.Context, f *models.Folder) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.Name = validation.SanitizeName(f.Name)
	if err := validation.Struct(f); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.folderNameExists(f.Name, f.ID) {
		return errors.AlreadyExistsError(fmt.Sprintf("folder %q", f.Name))
	}

	now := time.Now().Truncate(time.Second)

	if f.IsNew() {
		if err := os.MkdirAll(filepath.Join(r.root, f.Name), 0755); err != nil {
			return errors.StorageError("create folder", err)
		}
		f.ID = r.index.folderID(f.Name)
		f.CreatedAt = now
		f.UpdatedAt = now
		f.PromptCount = 0
		stored := *f
		r.folders[f.ID] = &stored
		return r.saveIndex()
	}

	existing, ok := r.folders[f.ID]
	if !ok {
		return errors.NotFoundError(fmt.Sprintf("folder %d", f.ID))
	}
	if existing.Name != f.Name {
		if err := os.Rename(filepath.Join(r.root, existing.Name), filepath.Join(r.root, f.Name)); err != nil {
			return errors.StorageError("rename folder", err)
		}
		r.index.renameFolder(existing.Name, f.Name)
		for _, p := range r.prompts {
			if p.FolderID == f.ID {
				p.FilePath = filepath.Join(f.Name, filepath.Base(p.FilePath))
			}
		}
		existing.Name = f.Name
	}
	existing.UpdatedAt = now
	f.CreatedAt = existing.CreatedAt
	f.UpdatedAt = now
	return r.saveIndex()
}

func (r *MarkdownRepository) saveIndex() error {
	if err := r.index.save(); err != nil {
		return errors.StorageError("save id index", err)
	}
	return nil
}

// DeleteFolder moves the folder's prompts to the library root before
// removing the directory, matching the SQL backend's SET NULL behaviour.
func (r *MarkdownRepository) DeleteFolder(ctx context.Context, id int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	folder, ok := r.folders[id]
	if !ok {
		return errors.NotFoundError(fmt.Sprintf("folder %d", id))
	}

	var moving []*models.Prompt
	for _, p := range r.prompts {
		if p.FolderID == id {
			moving = append(moving, p)
		}
	}
	slices.SortFunc(moving, func(a, b *models.Prompt) int { return cmp.Compare(a.ID, b.ID) })

	for _, p := range moving {
		newPath := r.uniquePath("", fileTitle(p.Name), "")
		if err := os.Rename(filepath.Join(r.root, p.FilePath), filepath.Join(r.root, newPath)); err != nil {
			// prompts already moved keep their new paths
			if ierr := r.index.save(); ierr != nil {
				r.log.Warn("failed to save id index", "error", ierr)
			}
			return errors.StorageError("move prompt out of folder", err)
		}
		r.index.movePrompt(p.FilePath, newPath, p.ID)
		p.FilePath = newPath
		p.FolderID = models.NoFolder
	}

	if err := os.RemoveAll(filepath.Join(r.root, folder.Name)); err != nil {
		return errors.StorageError("delete folder", err)
	}
	delete(r.folders, id)
	r.index.forgetFolder(folder.Name)
	return r.saveIndex()
}

func (r *MarkdownRepository) GetFolder(ctx context.Context, id int) (*models.Folder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.folders[id]
	if !ok {
		return nil, errors.NotFoundError(fmt.Sprintf("folder %d", id))
	}
	out := *f
	out.PromptCount = r.countIn(id)
	return &out, nil
}

func (r *MarkdownRepository) ListFolders(ctx context.Context) ([]*models.Folder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Folder, 0, len(r.folders))
	for _, f := range r.folders {
		c := *f
		c.PromptCount = r.countIn(f.ID)
		out = append(out, &c)
	}
	sortFolders(out)
	return out, nil
}

func sortFolders(folders []*models.Folder) {
	slices.SortFunc(folders, func(a, b *models.Folder) int {
		return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
}

func (r *MarkdownRepository) countIn(folderID int) int {
	n := 0
	for _, p := range r.prompts {
		if p.FolderID == folderID {
			n++
		}
	}
	return n
}

func (r *MarkdownRepository) FolderNameExists(ctx context.Context, name string, excludeID int) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.folderNameExists(name, excludeID), nil
}

func (r *MarkdownRepository) folderNameExists(name string, excludeID int) bool {
	for _, f := range r.folders {
		if f.ID != excludeID && strings.EqualFold(f.Name, name) {
			return true
		}
	}
	return false
}

func (r *MarkdownRepository) Close() error {
	return r.index.save()
}

func isPromptFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), promptExt)
}

// fileTitle is the file name stem for a prompt title.
func fileTitle(title string) string {
	if s := validation.SanitizeName(title); s != "" {
		return s
	}
	return "Untitled"
}
