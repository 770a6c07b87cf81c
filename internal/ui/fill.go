package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dpshade/pocket-fill/internal/models"
	"github.com/dpshade/pocket-fill/internal/wizard"
)

// fillState is the fill screen for one prompt. It is shared by pointer so
// the session listener and copies of the Model see the same state.
type fillState struct {
	session *wizard.Session
	prompt  *models.Prompt
	input   textinput.Model

	unsubscribe  func()
	allCompleted bool
}

func newFillState(session *wizard.Session, prompt *models.Prompt) *fillState {
	input := textinput.New()
	input.Prompt = "› "
	input.CharLimit = 0

	f := &fillState{session: session, prompt: prompt, input: input}
	f.unsubscribe = session.Subscribe(func(ev wizard.Event) {
		if ev.Kind == wizard.EventAllCompleted {
			f.allCompleted = true
		}
	})
	f.syncInput()
	return f
}

// syncInput loads the session's current placeholder into the text input.
func (f *fillState) syncInput() {
	name := f.session.CurrentPlaceholder()
	f.input.SetValue(f.session.CurrentValue())
	f.input.CursorEnd()
	if def := f.session.DefaultValue(name); def != "" {
		f.input.Placeholder = def
	} else {
		f.input.Placeholder = ""
	}
}

func (f *fillState) close() {
	if f.unsubscribe != nil {
		f.unsubscribe()
		f.unsubscribe = nil
	}
}

// filled reports whether the placeholder at i already has a committed value.
func (f *fillState) filled(i int) bool {
	names := f.session.Placeholders()
	if i < 0 || i >= len(names) {
		return false
	}
	return f.session.Values()[names[i]] != ""
}

func (m *Model) enterFill(f *fillState) tea.Cmd {
	if m.fill != nil {
		m.fill.close()
	}
	m.fill = f
	m.viewMode = ViewFill
	m.renderedVersion = 0
	m.renderPreview()
	m.viewport.GotoTop()
	if f.session.Len() > 0 && f.session.IsComplete() {
		return tea.Batch(f.input.Focus(), m.setStatus("Defaults cover every placeholder. Press ctrl+s to copy.", statusInfo))
	}
	return f.input.Focus()
}

func (m *Model) leaveFill() tea.Cmd {
	if m.fill != nil {
		m.fill.close()
		m.fill = nil
	}
	m.viewMode = ViewLibrary
	return m.reload()
}

func (m Model) updateFill(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.fill
	s := f.session
	var cmds []tea.Cmd

	switch {
	case key.Matches(msg, m.keys.ForceQuit):
		f.close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Back):
		if m.opts.PromptID > 0 && m.prompts == nil {
			f.close()
			return m, tea.Quit
		}
		return m, m.leaveFill()

	case key.Matches(msg, m.keys.ExpandHelp):
		m.showExpandedHelp = !m.showExpandedHelp

	case key.Matches(msg, m.keys.Finish):
		s.SaveCurrentValue()
		if s.IsComplete() {
			return m.finish()
		}
		cmds = append(cmds, m.setStatus(fmt.Sprintf("Still missing: %s", strings.Join(s.Missing(), ", ")), statusWarning))
		m.jumpToMissing()

	case key.Matches(msg, m.keys.Enter):
		s.SaveCurrentValue()
		switch {
		case s.CanGoNext():
			s.GoNext()
			f.syncInput()
		case s.IsComplete():
			return m.finish()
		default:
			m.jumpToMissing()
		}

	case key.Matches(msg, m.keys.Next):
		if s.GoNext() {
			f.syncInput()
		}

	case key.Matches(msg, m.keys.Previous):
		if s.GoPrevious() {
			f.syncInput()
		}

	case key.Matches(msg, m.keys.Reset):
		s.Reset()
		f.syncInput()
		cmds = append(cmds, m.setStatus("Values cleared", statusInfo))

	case key.Matches(msg, m.keys.ScrollUp):
		m.viewport.HalfViewUp()

	case key.Matches(msg, m.keys.ScrollDown):
		m.viewport.HalfViewDown()

	default:
		var cmd tea.Cmd
		f.input, cmd = f.input.Update(msg)
		s.SetCurrentValue(f.input.Value())
		cmds = append(cmds, cmd)
	}

	if f.allCompleted {
		f.allCompleted = false
		cmds = append(cmds, m.setStatus("All placeholders filled. Press ctrl+s to copy.", statusSuccess))
	}
	m.renderPreview()
	return m, tea.Batch(cmds...)
}

// jumpToMissing moves to the first placeholder that still blocks completion.
func (m *Model) jumpToMissing() {
	s := m.fill.session
	missing := s.Missing()
	if len(missing) == 0 {
		return
	}
	for i, name := range s.Placeholders() {
		if name == missing[0] {
			if s.SetCurrentIndex(i) {
				m.fill.syncInput()
			}
			return
		}
	}
}

// finish copies the resolved text and either quits or returns to the library.
func (m Model) finish() (tea.Model, tea.Cmd) {
	f := m.fill
	text := f.session.Result()
	out := &Outcome{PromptID: f.prompt.ID, Title: f.prompt.Title(), Text: text}

	status, err := m.opts.Copy(text)
	if err != nil {
		out.CopyErr = err
		m.log.Warn("copy failed", "prompt", f.prompt.ID, "error", err)
	} else {
		out.Copied = true
		m.log.Info("prompt filled", "prompt", f.prompt.ID, "placeholders", f.session.Len())
	}
	m.outcome = out

	if m.opts.ExitAfterFill {
		f.close()
		return m, tea.Quit
	}

	var cmd tea.Cmd
	if err != nil {
		cmd = m.setError(err)
	} else {
		cmd = m.setStatus(status, statusSuccess)
	}
	return m, tea.Batch(cmd, m.leaveFill())
}

// renderPreview re-renders the processed content when the session changed
// since the last render.
func (m *Model) renderPreview() {
	if m.fill == nil {
		return
	}
	s := m.fill.session
	if m.renderedVersion != 0 && m.renderedVersion == s.Version() {
		return
	}
	m.renderedVersion = s.Version()

	content := s.ProcessedContent()
	formatted, err := m.glamourRenderer.Render(content)
	if err != nil {
		formatted = content
	}
	m.renderedContent = content
	m.viewport.SetContent(formatted)
}

// renderFillView renders the fill screen for the active prompt
func (m Model) renderFillView() string {
	f := m.fill
	if f == nil {
		return "No prompt selected"
	}
	s := f.session

	elements := []string{
		CreateMainHeader(f.prompt.Title()),
		CreateProgress(s.CurrentIndex(), s.Len(), f.filled),
	}

	if name := s.CurrentPlaceholder(); name != "" {
		label := StyleCode.Render(name)
		if def := s.DefaultValue(name); def != "" {
			label = lipgloss.JoinHorizontal(lipgloss.Left, label, CreateMetadata("default: "+def))
		}
		elements = append(elements, label, StyleInputBox.Render(f.input.View()))
	} else {
		elements = append(elements, StyleTextMuted.Render("This prompt has no placeholders. Press enter to copy it."))
	}

	top, bottom := CreateScrollIndicators(!m.viewport.AtTop(), !m.viewport.AtBottom())
	preview := StyleContentContainer.Render(lipgloss.JoinVertical(lipgloss.Left, top, m.viewport.View(), bottom))
	elements = append(elements, preview)

	essential := []string{"enter next • ctrl+s copy • esc back"}
	additional := []string{"tab/shift+tab move • ctrl+r clear values", "pgup/pgdown scroll preview • ctrl+c quit"}
	elements = append(elements, CreateContextualHelp(essential, additional, m.showExpandedHelp, m.width))

	return lipgloss.JoinVertical(lipgloss.Left, elements...)
}
