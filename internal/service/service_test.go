package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpshade/pocket-fill/internal/errors"
	"github.com/dpshade/pocket-fill/internal/models"
	"github.com/dpshade/pocket-fill/internal/storage"
)

type fixture struct {
	svc    *Service
	folder *models.Folder
	review *models.Prompt
	email  *models.Prompt
	loose  *models.Prompt
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	repo, err := storage.NewMarkdownRepository(t.TempDir(), nil)
	require.NoError(t, err)
	svc := NewService(repo, nil)
	t.Cleanup(func() { svc.Close() })

	f := &fixture{svc: svc}
	f.folder, err = svc.CreateFolder(ctx, "Work")
	require.NoError(t, err)

	f.review = &models.Prompt{Name: "Code Review", Content: "Review this {{lang|Go}} code:\n{{code}}", FolderID: f.folder.ID}
	f.email = &models.Prompt{Name: "Email Draft", Content: "Write an email to {{person}}", FolderID: f.folder.ID}
	f.loose = &models.Prompt{Name: "Haiku", Content: "A haiku about {{topic}}"}
	for _, p := range []*models.Prompt{f.review, f.email, f.loose} {
		require.NoError(t, svc.SavePrompt(ctx, p))
	}
	return f
}

func names(prompts []*models.Prompt) []string {
	out := make([]string, len(prompts))
	for i, p := range prompts {
		out[i] = p.Name
	}
	return out
}

func TestSearchPrompts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		query  string
		folder int
		want   []string
	}{
		{"empty query lists everything", "", models.AllFolders, []string{"Code Review", "Email Draft", "Haiku"}},
		{"blank query behaves like empty", "   ", models.Uncategorized, []string{"Haiku"}},
		{"fuzzy title match", "email", models.AllFolders, []string{"Email Draft"}},
		{"content is searched", "haiku about", models.AllFolders, []string{"Haiku"}},
		{"folder filter applies first", "haiku", f.folder.ID, []string{}},
		{"no matches", "zzzz", models.AllFolders, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.svc.SearchPrompts(ctx, tt.query, tt.folder)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, names(got))
		})
	}
}

func TestNewWizard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, p, err := f.svc.NewWizard(ctx, f.review.ID)
	require.NoError(t, err)
	assert.Equal(t, "Code Review", p.Name)
	assert.Equal(t, []string{"lang", "code"}, session.Placeholders())
	assert.Equal(t, 0, session.CurrentIndex())
	assert.False(t, session.IsComplete())

	_, _, err = f.svc.NewWizard(ctx, 999)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
}

func TestRender(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.svc.Render(ctx, f.review.ID, map[string]string{"code": "x := 1"}, false, "text")
	require.NoError(t, err)
	assert.Equal(t, "Review this Go code:\nx := 1", out)

	out, err = f.svc.Render(ctx, f.email.ID, nil, false, "")
	require.NoError(t, err)
	assert.Equal(t, "Write an email to {{person}}", out, "lenient rendering keeps unresolved tokens")

	_, err = f.svc.Render(ctx, f.email.ID, nil, true, "text")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeUnresolved))
}

func TestFolderOperations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	found, err := f.svc.FindFolder(ctx, "work")
	require.NoError(t, err)
	assert.Equal(t, f.folder.ID, found.ID)

	renamed, err := f.svc.RenameFolder(ctx, f.folder.ID, "Office")
	require.NoError(t, err)
	assert.Equal(t, "Office", renamed.Name)

	inOffice, err := f.svc.ListPrompts(ctx, f.folder.ID)
	require.NoError(t, err)
	assert.Len(t, inOffice, 2)

	_, err = f.svc.FindFolder(ctx, "work")
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))

	same, err := f.svc.EnsureFolder(ctx, "office")
	require.NoError(t, err)
	assert.Equal(t, f.folder.ID, same.ID)
	fresh, err := f.svc.EnsureFolder(ctx, "Archive")
	require.NoError(t, err)
	assert.NotEqual(t, f.folder.ID, fresh.ID)

	require.NoError(t, f.svc.DeleteFolder(ctx, f.folder.ID))
	loose, err := f.svc.ListPrompts(ctx, models.Uncategorized)
	require.NoError(t, err)
	assert.Len(t, loose, 3)
}

func TestDuplicateAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dup, err := f.svc.DuplicatePrompt(ctx, f.loose.ID)
	require.NoError(t, err)
	assert.Equal(t, "Haiku (Copy)", dup.Name)

	require.NoError(t, f.svc.DeletePrompt(ctx, dup.ID))
	_, err = f.svc.GetPrompt(ctx, dup.ID)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
}
