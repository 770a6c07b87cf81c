package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/dpshade/pocket-fill/internal/clipboard"
	"github.com/dpshade/pocket-fill/internal/errors"
	"github.com/dpshade/pocket-fill/internal/logging"
	"github.com/dpshade/pocket-fill/internal/models"
	"github.com/dpshade/pocket-fill/internal/service"
)

// ViewMode represents the current view in the TUI
type ViewMode int

const (
	ViewLibrary ViewMode = iota
	ViewFill
)

// Options configures a Model.
type Options struct {
	// GlamourStyle and WordWrap come from the ui section of the config.
	GlamourStyle string
	WordWrap     int

	// PromptID opens the fill screen for that prompt straight away.
	PromptID int

	// ExitAfterFill quits the program once a result has been copied
	// instead of returning to the library.
	ExitAfterFill bool

	// Copy defaults to clipboard.CopyWithFallback.
	Copy func(text string) (string, error)

	Logger *logging.Logger
}

// Outcome describes the last completed fill.
type Outcome struct {
	PromptID int
	Title    string
	Text     string
	Copied   bool
	CopyErr  error
}

// Messages for async operations
type loadCompleteMsg struct {
	query    string
	folderID int
	prompts  []*models.Prompt
	folders  []*models.Folder
	err      error
}

type fillReadyMsg struct {
	fill *fillState
	err  error
}

// tickMsg is sent to clear the status message
type tickMsg time.Time

// loadPrompts fetches folders and the prompts matching query in folderID.
func loadPrompts(ctx context.Context, svc *service.Service, query string, folderID int) tea.Msg {
	msg := loadCompleteMsg{query: query, folderID: folderID}
	msg.folders, msg.err = svc.ListFolders(ctx)
	if msg.err != nil {
		return msg
	}
	msg.prompts, msg.err = svc.SearchPrompts(ctx, query, folderID)
	return msg
}

func loadPromptsCmd(ctx context.Context, svc *service.Service, query string, folderID int) tea.Cmd {
	return func() tea.Msg {
		return loadPrompts(ctx, svc, query, folderID)
	}
}

// startFill loads a prompt into a new fill session.
func startFill(ctx context.Context, svc *service.Service, promptID int) tea.Msg {
	session, prompt, err := svc.NewWizard(ctx, promptID)
	if err != nil {
		return fillReadyMsg{err: err}
	}
	return fillReadyMsg{fill: newFillState(session, prompt)}
}

func startFillCmd(ctx context.Context, svc *service.Service, promptID int) tea.Cmd {
	return func() tea.Msg {
		return startFill(ctx, svc, promptID)
	}
}

// clearStatusCmd returns a command that clears the status message after a delay
func clearStatusCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Model represents the TUI application state
type Model struct {
	ctx      context.Context
	service  *service.Service
	opts     Options
	log      *logging.Logger
	viewMode ViewMode

	// UI components
	promptList list.Model
	search     textinput.Model
	searching  bool
	viewport   viewport.Model
	keys       KeyMap

	// Data
	prompts   []*models.Prompt
	folders   []*models.Folder
	folderTab int // 0 all, 1 uncategorized, then folders in list order
	loading   bool

	fill            *fillState
	glamourRenderer *glamour.TermRenderer
	renderedVersion uint64
	renderedContent string

	// Window dimensions
	width  int
	height int

	// Status messages
	statusMsg     string
	statusKind    statusKind
	statusTimeout int

	showExpandedHelp bool
	errHandler       *errors.TUIErrorHandler
	outcome          *Outcome

	// Error state
	err error
}

// NewModel creates a new TUI model
func NewModel(ctx context.Context, svc *service.Service, opts Options) (*Model, error) {
	initializeColors(opts.GlamourStyle)

	if opts.Copy == nil {
		opts.Copy = clipboard.CopyWithFallback
	}
	if opts.WordWrap <= 0 {
		opts.WordWrap = 80
	}
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}

	l := list.New(nil, list.NewDefaultDelegate(), 80, 20)
	l.Title = ""
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false) // search goes through the service
	l.SetShowHelp(false)
	l.SetShowTitle(false)

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search prompts"
	search.CharLimit = 200

	vp := viewport.New(80, 20)
	vp.Style = lipgloss.NewStyle()

	renderer, err := createGlamourRenderer(opts.GlamourStyle, min(opts.WordWrap, 60))
	if err != nil {
		return nil, fmt.Errorf("failed to create glamour renderer: %w", err)
	}

	return &Model{
		ctx:             ctx,
		service:         svc,
		opts:            opts,
		log:             log,
		viewMode:        ViewLibrary,
		promptList:      l,
		search:          search,
		viewport:        vp,
		keys:            keys,
		loading:         true,
		glamourRenderer: renderer,
		errHandler:      errors.NewTUIErrorHandler(log, true),
	}, nil
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	if m.opts.PromptID > 0 {
		return startFillCmd(m.ctx, m.service, m.opts.PromptID)
	}
	return loadPromptsCmd(m.ctx, m.service, "", models.AllFolders)
}

// Outcome returns the last completed fill, or nil when nothing was filled.
func (m Model) Outcome() *Outcome {
	return m.outcome
}

// Err returns the error that ended the program, if any.
func (m Model) Err() error {
	return m.err
}

// folderFilter maps the active tab to a folder filter value.
func (m Model) folderFilter() int {
	switch {
	case m.folderTab == 0:
		return models.AllFolders
	case m.folderTab == 1:
		return models.Uncategorized
	case m.folderTab-2 < len(m.folders):
		return m.folders[m.folderTab-2].ID
	default:
		return models.AllFolders
	}
}

func (m Model) folderLabels() []string {
	labels := []string{"All", "Uncategorized"}
	for _, f := range m.folders {
		labels = append(labels, fmt.Sprintf("%s (%d)", f.Name, f.PromptCount))
	}
	return labels
}

func (m *Model) reload() tea.Cmd {
	return loadPromptsCmd(m.ctx, m.service, m.search.Value(), m.folderFilter())
}

func (m *Model) setStatus(text string, kind statusKind) tea.Cmd {
	m.statusMsg = text
	m.statusKind = kind
	m.statusTimeout = 4
	return clearStatusCmd()
}

func (m *Model) setError(err error) tea.Cmd {
	if err == nil {
		return nil
	}
	appErr := errors.GetAppError(m.errHandler.HandleError(err))
	kind := statusError
	if appErr.Severity == errors.SeverityWarning || appErr.Severity == errors.SeverityInfo {
		kind = statusWarning
	}
	icon, _ := m.errHandler.GetErrorStyle(appErr)
	return m.setStatus(icon+" "+m.errHandler.FormatError(appErr), kind)
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if m.statusTimeout > 0 {
			m.statusTimeout--
			if m.statusTimeout == 0 {
				m.statusMsg = ""
			} else {
				return m, clearStatusCmd()
			}
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case loadCompleteMsg:
		// Results for a query or folder the user has since left are stale.
		if msg.query != m.search.Value() || msg.folderID != m.folderFilter() {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			return m, m.setError(msg.err)
		}
		m.folders = msg.folders
		if m.folderTab-2 >= len(m.folders) {
			m.folderTab = 0
		}
		m.prompts = msg.prompts
		items := make([]list.Item, len(m.prompts))
		for i, p := range m.prompts {
			items[i] = p
		}
		cmd := m.promptList.SetItems(items)
		return m, cmd

	case fillReadyMsg:
		if msg.err != nil {
			// Opened directly on a prompt that could not be loaded.
			if m.opts.PromptID > 0 && m.loading {
				m.err = msg.err
				return m, tea.Quit
			}
			return m, m.setError(msg.err)
		}
		cmd := m.enterFill(msg.fill)
		return m, cmd

	case tea.KeyMsg:
		if m.viewMode == ViewFill {
			return m.updateFill(msg)
		}
		return m.updateLibrary(msg)
	}

	if m.viewMode == ViewLibrary {
		var cmd tea.Cmd
		m.promptList, cmd = m.promptList.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	// title, folder tabs, search, help and status
	const reserved = 8
	available := max(height-reserved, 5)
	m.promptList.SetSize(width, available)
	m.search.Width = max(width-8, 10)

	// the fill screen also shows the progress line and the input box
	viewportWidth := max(width-8, 40)
	m.viewport.Width = viewportWidth
	m.viewport.Height = max(available-5, 3)

	wrap := min(m.opts.WordWrap, viewportWidth-4)
	if r, err := createGlamourRenderer(m.opts.GlamourStyle, wrap); err == nil {
		m.glamourRenderer = r
		m.renderedVersion = 0
		m.renderPreview()
	}
}

func (m Model) updateLibrary(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		switch msg.String() {
		case "esc":
			m.searching = false
			m.search.Blur()
			if m.search.Value() == "" {
				return m, nil
			}
			m.search.SetValue("")
			return m, m.reload()
		case "enter":
			m.searching = false
			m.search.Blur()
			return m, nil
		case "ctrl+c":
			return m, tea.Quit
		}
		before := m.search.Value()
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		if m.search.Value() != before {
			return m, tea.Batch(cmd, m.reload())
		}
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.ExpandHelp):
		m.showExpandedHelp = !m.showExpandedHelp
		return m, nil
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		return m, m.search.Focus()
	case key.Matches(msg, m.keys.NextFolder):
		m.folderTab = (m.folderTab + 1) % (len(m.folders) + 2)
		return m, m.reload()
	case key.Matches(msg, m.keys.PrevFolder):
		n := len(m.folders) + 2
		m.folderTab = (m.folderTab + n - 1) % n
		return m, m.reload()
	case key.Matches(msg, m.keys.Reload):
		return m, m.reload()
	case key.Matches(msg, m.keys.Back):
		if m.search.Value() != "" {
			m.search.SetValue("")
			return m, m.reload()
		}
		return m, nil
	case key.Matches(msg, m.keys.Enter):
		if p, ok := m.promptList.SelectedItem().(*models.Prompt); ok {
			return m, startFillCmd(m.ctx, m.service, p.ID)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.promptList, cmd = m.promptList.Update(msg)
	return m, cmd
}

// View renders the current screen
func (m Model) View() string {
	if m.err != nil {
		return fmt.Sprintf("\n  Error: %v\n", m.err)
	}

	var mainView string
	switch m.viewMode {
	case ViewFill:
		mainView = m.renderFillView()
	default:
		mainView = m.renderLibraryView()
	}

	if m.statusMsg != "" {
		return AddMainPadding(lipgloss.JoinVertical(lipgloss.Left, mainView, CreateStatus(m.statusMsg, m.statusKind)))
	}
	return AddMainPadding(mainView)
}

// renderLibraryView renders the prompt picker
func (m Model) renderLibraryView() string {
	elements := []string{
		CreateMainHeader("Pocket Fill"),
		CreateFolderTabs(m.folderLabels(), m.folderTab),
	}

	if m.searching || m.search.Value() != "" {
		elements = append(elements, m.search.View())
	}

	switch {
	case m.loading:
		elements = append(elements, StyleInfo.Render("Loading prompts..."))
	case len(m.prompts) == 0 && m.search.Value() != "":
		elements = append(elements, StyleTextMuted.Render("No prompts match "+fmt.Sprintf("%q", m.search.Value())))
	case len(m.prompts) == 0:
		elements = append(elements, StyleTextMuted.Render("No prompts in this folder"))
	default:
		elements = append(elements, m.promptList.View())
	}

	var help string
	if m.searching {
		help = CreateContextualHelp([]string{"type to search • enter keep • esc clear"}, nil, false, m.width)
	} else {
		essential := []string{"enter fill • / search • tab folder"}
		additional := []string{"shift+tab previous folder • r reload • esc clear search", "q quit"}
		help = CreateContextualHelp(essential, additional, m.showExpandedHelp, m.width)
	}
	elements = append(elements, help)

	return lipgloss.JoinVertical(lipgloss.Left, elements...)
}
