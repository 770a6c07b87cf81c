package ui

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpshade/pocket-fill/internal/errors"
	"github.com/dpshade/pocket-fill/internal/models"
	"github.com/dpshade/pocket-fill/internal/service"
	"github.com/dpshade/pocket-fill/internal/storage"
)

type copyRecorder struct {
	texts []string
	err   error
}

func (c *copyRecorder) copy(text string) (string, error) {
	c.texts = append(c.texts, text)
	if c.err != nil {
		return "", c.err
	}
	return "Copied to clipboard!", nil
}

type harness struct {
	t      *testing.T
	ctx    context.Context
	svc    *service.Service
	clip   *copyRecorder
	folder *models.Folder
	letter *models.Prompt
	plain  *models.Prompt
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()

	repo, err := storage.NewMarkdownRepository(t.TempDir(), nil)
	require.NoError(t, err)
	svc := service.NewService(repo, nil)
	t.Cleanup(func() { svc.Close() })

	h := &harness{t: t, ctx: ctx, svc: svc, clip: &copyRecorder{}}
	h.folder, err = svc.CreateFolder(ctx, "Mail")
	require.NoError(t, err)
	h.letter = &models.Prompt{Name: "Letter", Content: "Dear {{name}}, regards {{sender|Sam}}", FolderID: h.folder.ID}
	h.plain = &models.Prompt{Name: "Plain", Content: "No tokens here"}
	require.NoError(t, svc.SavePrompt(ctx, h.letter))
	require.NoError(t, svc.SavePrompt(ctx, h.plain))
	return h
}

func (h *harness) model(opts Options) Model {
	h.t.Helper()
	opts.GlamourStyle = "notty"
	opts.Copy = h.clip.copy
	m, err := NewModel(h.ctx, h.svc, opts)
	require.NoError(h.t, err)
	return *m
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	for _, r := range s {
		m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func (h *harness) openFill(m Model, p *models.Prompt) Model {
	h.t.Helper()
	m, _ = update(h.t, m, startFill(h.ctx, h.svc, p.ID))
	require.Equal(h.t, ViewFill, m.viewMode)
	return m
}

func TestLibraryLoadsAndFiltersByFolder(t *testing.T) {
	h := newHarness(t)
	m := h.model(Options{})

	m, _ = update(t, m, loadPrompts(h.ctx, h.svc, "", models.AllFolders))
	assert.False(t, m.loading)
	assert.Len(t, m.prompts, 2)
	assert.Equal(t, []string{"All", "Uncategorized", "Mail (1)"}, m.folderLabels())

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, models.Uncategorized, m.folderFilter())
	m, _ = update(t, m, loadPrompts(h.ctx, h.svc, "", models.Uncategorized))
	require.Len(t, m.prompts, 1)
	assert.Equal(t, "Plain", m.prompts[0].Name)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, h.folder.ID, m.folderFilter())

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, models.AllFolders, m.folderFilter())
}

func TestLibraryIgnoresStaleResults(t *testing.T) {
	h := newHarness(t)
	m := h.model(Options{})
	m, _ = update(t, m, loadPrompts(h.ctx, h.svc, "", models.AllFolders))

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'/'}})
	require.True(t, m.searching)
	m = typeText(t, m, "let")
	assert.Equal(t, "let", m.search.Value())

	// A response for an earlier keystroke must not replace newer results.
	m, _ = update(t, m, loadPrompts(h.ctx, h.svc, "le", models.AllFolders))
	assert.Len(t, m.prompts, 2)

	m, _ = update(t, m, loadPrompts(h.ctx, h.svc, "let", models.AllFolders))
	require.Len(t, m.prompts, 1)
	assert.Equal(t, "Letter", m.prompts[0].Name)
}

func TestFillFlowCopiesResult(t *testing.T) {
	h := newHarness(t)
	m := h.openFill(h.model(Options{}), h.letter)

	assert.Contains(t, m.View(), "Placeholder 1 of 2")
	m = typeText(t, m, "Ada")
	assert.Equal(t, "Ada", m.fill.session.CurrentValue())
	assert.Contains(t, m.renderedContent, "Dear Ada")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, 1, m.fill.session.CurrentIndex())
	assert.Contains(t, m.statusMsg, "All placeholders filled", "the default completes the session")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Len(t, h.clip.texts, 1)
	assert.Equal(t, "Dear Ada, regards Sam", h.clip.texts[0])
	require.NotNil(t, m.Outcome())
	assert.True(t, m.Outcome().Copied)
	assert.Equal(t, ViewLibrary, m.viewMode, "the library stays open unless asked to exit")
	assert.Nil(t, m.fill)
}

func TestFillAnnouncesDefaultsCoverEverything(t *testing.T) {
	h := newHarness(t)
	greet := &models.Prompt{Name: "Greet", Content: "Hello {{who|world}}"}
	require.NoError(t, h.svc.SavePrompt(h.ctx, greet))

	m := h.openFill(h.model(Options{}), greet)
	assert.Contains(t, m.statusMsg, "Defaults cover every placeholder")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Equal(t, []string{"Hello world"}, h.clip.texts)
}

func TestFillRefusesToFinishWhileMissing(t *testing.T) {
	h := newHarness(t)
	m := h.openFill(h.model(Options{}), h.letter)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, 1, m.fill.session.CurrentIndex())

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Empty(t, h.clip.texts)
	assert.Contains(t, m.statusMsg, "Still missing: name")
	assert.Equal(t, 0, m.fill.session.CurrentIndex(), "jumps back to the missing placeholder")
}

func TestFillNavigationRestoresInput(t *testing.T) {
	h := newHarness(t)
	m := h.openFill(h.model(Options{}), h.letter)

	m = typeText(t, m, "Bo")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "", m.fill.input.Value())
	assert.Equal(t, "Sam", m.fill.input.Placeholder, "the default is shown as a hint")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, "Bo", m.fill.input.Value())

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.Equal(t, "", m.fill.input.Value())
	assert.Empty(t, m.fill.session.Values())
}

func TestFillWithoutPlaceholders(t *testing.T) {
	h := newHarness(t)
	m := h.openFill(h.model(Options{ExitAfterFill: true}), h.plain)

	assert.Contains(t, m.View(), "no placeholders")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, []string{"No tokens here"}, h.clip.texts)
	assert.Equal(t, "No tokens here", m.Outcome().Text)
}

func TestFillCopyFailureKeepsText(t *testing.T) {
	h := newHarness(t)
	h.clip.err = errors.Wrap(stderrors.New("no xclip"), errors.ErrCodeClipboardUnavailable, "Clipboard unavailable")
	m := h.openFill(h.model(Options{ExitAfterFill: true}), h.plain)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	out := m.Outcome()
	require.NotNil(t, out)
	assert.False(t, out.Copied)
	assert.True(t, errors.HasCode(out.CopyErr, errors.ErrCodeClipboardUnavailable))
	assert.Equal(t, "No tokens here", out.Text)
}

func TestDirectOpenOfMissingPromptQuits(t *testing.T) {
	h := newHarness(t)
	m := h.model(Options{PromptID: 404, ExitAfterFill: true})

	m, cmd := update(t, m, startFill(h.ctx, h.svc, 404))
	require.NotNil(t, cmd)
	assert.True(t, errors.HasCode(m.Err(), errors.ErrCodeNotFound))
	assert.True(t, strings.Contains(m.View(), "Error:"))
}
