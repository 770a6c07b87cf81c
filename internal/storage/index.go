package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dpshade/pocket-fill/internal/config"
)

// idIndex keeps markdown prompt and folder IDs stable across runs by
// remembering which relative path and folder directory each ID belongs to.
type idIndex struct {
	file string

	mu           sync.RWMutex
	NextPromptID int            `json:"nextPromptId"`
	NextFolderID int            `json:"nextFolderId"`
	Prompts      map[string]int `json:"prompts"`
	Folders      map[string]int `json:"folders"`
	dirty        bool
}

func metaPath(root string) string {
	return filepath.Join(root, config.MetaDir)
}

func newIDIndex(root string) *idIndex {
	return &idIndex{
		file:         filepath.Join(metaPath(root), "index.json"),
		NextPromptID: 1,
		NextFolderID: 1,
		Prompts:      make(map[string]int),
		Folders:      make(map[string]int),
	}
}

// load reads the index from disk. A missing or corrupted file starts fresh.
func (x *idIndex) load() error {
	data, err := os.ReadFile(x.file)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read index file: %w", err)
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	fresh := newIDIndex("")
	if err := json.Unmarshal(data, fresh); err != nil {
		x.dirty = true
		return nil
	}
	if fresh.Prompts == nil {
		fresh.Prompts = make(map[string]int)
	}
	if fresh.Folders == nil {
		fresh.Folders = make(map[string]int)
	}
	x.NextPromptID = max(fresh.NextPromptID, 1)
	x.NextFolderID = max(fresh.NextFolderID, 1)
	x.Prompts = fresh.Prompts
	x.Folders = fresh.Folders
	return nil
}

func (x *idIndex) save() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if !x.dirty {
		return nil
	}

	data, err := json.MarshalIndent(x, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(x.file), 0755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}
	if err := os.WriteFile(x.file, data, 0644); err != nil {
		return fmt.Errorf("failed to write index file: %w", err)
	}
	x.dirty = false
	return nil
}

// promptID returns the ID recorded for relPath, assigning the next one when
// the file has not been seen before.
func (x *idIndex) promptID(relPath string) int {
	x.mu.Lock()
	defer x.mu.Unlock()
	if id, ok := x.Prompts[relPath]; ok {
		x.bumpPrompt(id)
		return id
	}
	id := x.NextPromptID
	x.NextPromptID++
	x.Prompts[relPath] = id
	x.dirty = true
	return id
}

func (x *idIndex) folderID(name string) int {
	x.mu.Lock()
	defer x.mu.Unlock()
	if id, ok := x.Folders[name]; ok {
		if id >= x.NextFolderID {
			x.NextFolderID = id + 1
			x.dirty = true
		}
		return id
	}
	id := x.NextFolderID
	x.NextFolderID++
	x.Folders[name] = id
	x.dirty = true
	return id
}

func (x *idIndex) bumpPrompt(id int) {
	if id >= x.NextPromptID {
		x.NextPromptID = id + 1
		x.dirty = true
	}
}

// movePrompt records that the prompt with id now lives at newPath.
func (x *idIndex) movePrompt(oldPath, newPath string, id int) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if oldPath != "" {
		delete(x.Prompts, oldPath)
	}
	x.Prompts[newPath] = id
	x.bumpPrompt(id)
	x.dirty = true
}

func (x *idIndex) forgetPrompt(relPath string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if _, ok := x.Prompts[relPath]; ok {
		delete(x.Prompts, relPath)
		x.dirty = true
	}
}

// renameFolder moves the folder ID and every prompt path under it.
func (x *idIndex) renameFolder(oldName, newName string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if id, ok := x.Folders[oldName]; ok {
		delete(x.Folders, oldName)
		x.Folders[newName] = id
	}
	oldPrefix := oldName + string(filepath.Separator)
	for path, id := range x.Prompts {
		if strings.HasPrefix(path, oldPrefix) {
			delete(x.Prompts, path)
			x.Prompts[newName+string(filepath.Separator)+strings.TrimPrefix(path, oldPrefix)] = id
		}
	}
	x.dirty = true
}

func (x *idIndex) forgetFolder(name string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.Folders, name)
	x.dirty = true
}

// cleanup drops entries for files and folders that no longer exist.
func (x *idIndex) cleanup(prompts, folders map[string]bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	for path := range x.Prompts {
		if !prompts[path] {
			delete(x.Prompts, path)
			x.dirty = true
		}
	}
	for name := range x.Folders {
		if !folders[name] {
			delete(x.Folders, name)
			x.dirty = true
		}
	}
}
