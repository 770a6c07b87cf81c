package storage

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dpshade/pocket-fill/internal/errors"
	"github.com/dpshade/pocket-fill/internal/logging"
	"github.com/dpshade/pocket-fill/internal/models"
	"github.com/dpshade/pocket-fill/internal/validation"
)

// folderRow and promptRow mirror the on-disk schema: timestamps are unix
// milliseconds and a prompt without a folder has a NULL folder_id.
type folderRow struct {
	ID        int    `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"not null;uniqueIndex"`
	CreatedAt int64  `gorm:"not null;autoCreateTime:milli"`
	UpdatedAt int64  `gorm:"not null;autoUpdateTime:milli"`
}

func (folderRow) TableName() string { return "folders" }

type promptRow struct {
	ID        int        `gorm:"primaryKey;autoIncrement"`
	Title     string     `gorm:"not null;index:idx_prompts_search,priority:1"`
	Content   string     `gorm:"not null;index:idx_prompts_search,priority:2"`
	FolderID  *int       `gorm:"index"`
	Folder    *folderRow `gorm:"constraint:OnDelete:SET NULL"`
	CreatedAt int64      `gorm:"not null;autoCreateTime:milli"`
	UpdatedAt int64      `gorm:"not null;index;autoUpdateTime:milli"`
}

func (promptRow) TableName() string { return "prompts" }

var _ Repository = (*SQLRepository)(nil)

// SQLRepository stores prompts and folders in SQLite through gorm.
type SQLRepository struct {
	db  *gorm.DB
	log *logging.Logger
}

// NewSQLRepository opens the database at dbPath and migrates the schema.
func NewSQLRepository(dbPath string, log *logging.Logger) (*SQLRepository, error) {
	if log == nil {
		log = logging.Nop()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, errors.StorageError("create database directory", err)
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.StorageError("connect to database", err)
	}
	return newSQLRepository(db, log)
}

func newSQLRepository(db *gorm.DB, log *logging.Logger) (*SQLRepository, error) {
	if err := db.AutoMigrate(&folderRow{}, &promptRow{}); err != nil {
		return nil, errors.StorageError("run migrations", err)
	}
	return &SQLRepository{db: db, log: log}, nil
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

func (row *promptRow) toModel() *models.Prompt {
	p := &models.Prompt{
		ID:        row.ID,
		Name:      row.Title,
		Content:   row.Content,
		FolderID:  models.NoFolder,
		CreatedAt: fromMillis(row.CreatedAt),
		UpdatedAt: fromMillis(row.UpdatedAt),
	}
	if row.FolderID != nil && *row.FolderID > 0 {
		p.FolderID = *row.FolderID
	}
	return p
}

func (row *folderRow) toModel() *models.Folder {
	return &models.Folder{
		ID:        row.ID,
		Name:      row.Name,
		CreatedAt: fromMillis(row.CreatedAt),
		UpdatedAt: fromMillis(row.UpdatedAt),
	}
}

func notFound(err error, what string) error {
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return errors.NotFoundError(what)
	}
	return errors.StorageError("load "+what, err)
}

func (r *SQLRepository) SavePrompt(ctx context.Context, p *models.Prompt) error {
	if p.FolderID <= 0 {
		p.FolderID = models.NoFolder
	}
	if err := validation.Struct(p); err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := promptRow{Title: p.Name, Content: p.Content}
		if p.HasFolder() {
			var folder folderRow
			if err := tx.First(&folder, p.FolderID).Error; err != nil {
				return notFound(err, fmt.Sprintf("folder %d", p.FolderID))
			}
			id := p.FolderID
			row.FolderID = &id
		}

		now := time.Now()
		if p.IsNew() {
			if p.CreatedAt.IsZero() {
				p.CreatedAt = now
			}
			if p.UpdatedAt.IsZero() {
				p.UpdatedAt = p.CreatedAt
			}
			row.CreatedAt = toMillis(p.CreatedAt)
			row.UpdatedAt = toMillis(p.UpdatedAt)
			if err := tx.Create(&row).Error; err != nil {
				return errors.StorageError("insert prompt", err)
			}
			p.ID = row.ID
			p.CreatedAt = fromMillis(row.CreatedAt)
			p.UpdatedAt = fromMillis(row.UpdatedAt)
			return nil
		}

		var existing promptRow
		if err := tx.First(&existing, p.ID).Error; err != nil {
			return notFound(err, fmt.Sprintf("prompt %d", p.ID))
		}
		existing.Title = row.Title
		existing.Content = row.Content
		existing.FolderID = row.FolderID
		existing.UpdatedAt = toMillis(now)
		if err := tx.Omit("Folder").Save(&existing).Error; err != nil {
			return errors.StorageError("update prompt", err)
		}
		p.CreatedAt = fromMillis(existing.CreatedAt)
		p.UpdatedAt = fromMillis(existing.UpdatedAt)
		return nil
	})
}

func (r *SQLRepository) DeletePrompt(ctx context.Context, id int) error {
	res := r.db.WithContext(ctx).Delete(&promptRow{}, id)
	if res.Error != nil {
		return errors.StorageError("delete prompt", res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.NotFoundError(fmt.Sprintf("prompt %d", id))
	}
	return nil
}

func (r *SQLRepository) GetPrompt(ctx context.Context, id int) (*models.Prompt, error) {
	var row promptRow
	if err := r.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return nil, notFound(err, fmt.Sprintf("prompt %d", id))
	}
	return row.toModel(), nil
}

func (r *SQLRepository) ListPrompts(ctx context.Context) ([]*models.Prompt, error) {
	return r.ListPromptsByFolder(ctx, models.AllFolders)
}

func (r *SQLRepository) ListPromptsByFolder(ctx context.Context, folderID int) ([]*models.Prompt, error) {
	q := r.db.WithContext(ctx).Order("updated_at DESC").Order("id ASC")
	switch {
	case folderID == models.Uncategorized:
		q = q.Where("folder_id IS NULL")
	case folderID > 0:
		q = q.Where("folder_id = ?", folderID)
	}

	var rows []promptRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, errors.StorageError("list prompts", err)
	}
	out := make([]*models.Prompt, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toModel())
	}
	return out, nil
}

func (r *SQLRepository) DuplicatePrompt(ctx context.Context, id int) (*models.Prompt, error) {
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

func (r *SQLRepository) SaveFolder(ctx context.Context, f *models.Folder) error {
	f.Name = validation.SanitizeName(f.Name)
	if err := validation.Struct(f); err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := folderNameTaken(tx, f.Name, f.ID)
		if err != nil {
			return err
		}
		if exists {
			return errors.AlreadyExistsError(fmt.Sprintf("folder %q", f.Name))
		}

		if f.IsNew() {
			row := folderRow{Name: f.Name}
			if err := tx.Create(&row).Error; err != nil {
				return errors.StorageError("insert folder", err)
			}
			f.ID = row.ID
			f.CreatedAt = fromMillis(row.CreatedAt)
			f.UpdatedAt = fromMillis(row.UpdatedAt)
			return nil
		}

		var row folderRow
		if err := tx.First(&row, f.ID).Error; err != nil {
			return notFound(err, fmt.Sprintf("folder %d", f.ID))
		}
		row.Name = f.Name
		if err := tx.Save(&row).Error; err != nil {
			return errors.StorageError("update folder", err)
		}
		f.CreatedAt = fromMillis(row.CreatedAt)
		f.UpdatedAt = fromMillis(row.UpdatedAt)
		return nil
	})
}

// DeleteFolder clears folder_id explicitly as well, so databases created
// without the foreign key behave the same.
func (r *SQLRepository) DeleteFolder(ctx context.Context, id int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&promptRow{}).Where("folder_id = ?", id).Update("folder_id", nil).Error; err != nil {
			return errors.StorageError("detach prompts", err)
		}
		res := tx.Delete(&folderRow{}, id)
		if res.Error != nil {
			return errors.StorageError("delete folder", res.Error)
		}
		if res.RowsAffected == 0 {
			return errors.NotFoundError(fmt.Sprintf("folder %d", id))
		}
		return nil
	})
}

type folderWithCount struct {
	folderRow
	PromptCount int
}

func (r *SQLRepository) GetFolder(ctx context.Context, id int) (*models.Folder, error) {
	var row folderWithCount
	err := r.foldersWithCounts(ctx).Where("folders.id = ?", id).Take(&row).Error
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("folder %d", id))
	}
	f := row.toModel()
	f.PromptCount = row.PromptCount
	return f, nil
}

func (r *SQLRepository) ListFolders(ctx context.Context) ([]*models.Folder, error) {
	var rows []folderWithCount
	if err := r.foldersWithCounts(ctx).Order("folders.name COLLATE NOCASE ASC").Find(&rows).Error; err != nil {
		return nil, errors.StorageError("list folders", err)
	}
	out := make([]*models.Folder, 0, len(rows))
	for i := range rows {
		f := rows[i].toModel()
		f.PromptCount = rows[i].PromptCount
		out = append(out, f)
	}
	return out, nil
}

func (r *SQLRepository) foldersWithCounts(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("folders").
		Select("folders.*, COUNT(prompts.id) AS prompt_count").
		Joins("LEFT JOIN prompts ON prompts.folder_id = folders.id").
		Group("folders.id")
}

func (r *SQLRepository) FolderNameExists(ctx context.Context, name string, excludeID int) (bool, error) {
	return folderNameTaken(r.db.WithContext(ctx), name, excludeID)
}

func folderNameTaken(db *gorm.DB, name string, excludeID int) (bool, error) {
	var count int64
	err := db.Model(&folderRow{}).
		Where("LOWER(name) = ? AND id != ?", strings.ToLower(name), excludeID).
		Count(&count).Error
	if err != nil {
		return false, errors.StorageError("check folder name", err)
	}
	return count > 0, nil
}

func (r *SQLRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
