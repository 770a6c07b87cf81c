package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Design System Colors - Adaptive based on terminal background
var (
	ColorPrimary   lipgloss.Color
	ColorSecondary lipgloss.Color
	ColorAccent    lipgloss.Color

	ColorSuccess lipgloss.Color
	ColorWarning lipgloss.Color
	ColorError   lipgloss.Color
	ColorInfo    lipgloss.Color

	ColorText      lipgloss.Color
	ColorTextMuted lipgloss.Color
	ColorTextDim   lipgloss.Color
	ColorBorder    lipgloss.Color
	ColorSurface   lipgloss.Color
)

// Component styles. They depend on the palette, so applyTheme rebuilds them.
var (
	StyleTitle            lipgloss.Style
	StyleSubtitle         lipgloss.Style
	StyleText             lipgloss.Style
	StyleTextMuted        lipgloss.Style
	StyleTextDim          lipgloss.Style
	StyleSuccess          lipgloss.Style
	StyleWarning          lipgloss.Style
	StyleError            lipgloss.Style
	StyleInfo             lipgloss.Style
	StyleMetadata         lipgloss.Style
	StyleCode             lipgloss.Style
	StyleFolderTab        lipgloss.Style
	StyleFolderTabActive  lipgloss.Style
	StyleContentContainer lipgloss.Style
	StyleInputBox         lipgloss.Style
	StyleScrollIndicator  lipgloss.Style
	StyleScrollActive     lipgloss.Style
)

func init() {
	applyTheme(true)
}

// initializeColors picks the palette from the configured glamour style,
// falling back to terminal background detection.
func initializeColors(glamourStyle string) {
	switch glamourStyle {
	case "light":
		applyTheme(false)
	case "dark", "dracula", "tokyo-night", "pink", "notty", "ascii":
		applyTheme(true)
	default:
		applyTheme(lipgloss.HasDarkBackground())
	}
}

func applyTheme(dark bool) {
	if dark {
		ColorPrimary = lipgloss.Color("205")
		ColorSecondary = lipgloss.Color("33")
		ColorAccent = lipgloss.Color("214")
		ColorSuccess = lipgloss.Color("10")
		ColorWarning = lipgloss.Color("11")
		ColorError = lipgloss.Color("9")
		ColorInfo = lipgloss.Color("12")
		ColorText = lipgloss.Color("252")
		ColorTextMuted = lipgloss.Color("244")
		ColorTextDim = lipgloss.Color("240")
		ColorBorder = lipgloss.Color("238")
		ColorSurface = lipgloss.Color("236")
	} else {
		ColorPrimary = lipgloss.Color("125")
		ColorSecondary = lipgloss.Color("24")
		ColorAccent = lipgloss.Color("130")
		ColorSuccess = lipgloss.Color("22")
		ColorWarning = lipgloss.Color("136")
		ColorError = lipgloss.Color("160")
		ColorInfo = lipgloss.Color("24")
		ColorText = lipgloss.Color("232")
		ColorTextMuted = lipgloss.Color("240")
		ColorTextDim = lipgloss.Color("244")
		ColorBorder = lipgloss.Color("248")
		ColorSurface = lipgloss.Color("254")
	}

	StyleTitle = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true).Padding(0, 1)
	StyleSubtitle = lipgloss.NewStyle().Foreground(ColorSecondary).Bold(true).Padding(0, 1)
	StyleText = lipgloss.NewStyle().Foreground(ColorText)
	StyleTextMuted = lipgloss.NewStyle().Foreground(ColorTextMuted)
	StyleTextDim = lipgloss.NewStyle().Foreground(ColorTextDim)

	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true).Padding(0, 1)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning).Bold(true).Padding(0, 1)
	StyleError = lipgloss.NewStyle().Foreground(ColorError).Bold(true).Padding(0, 1)
	StyleInfo = lipgloss.NewStyle().Foreground(ColorInfo).Bold(true).Padding(0, 1)

	StyleMetadata = lipgloss.NewStyle().Foreground(ColorTextDim).Padding(0, 1)
	StyleCode = lipgloss.NewStyle().Foreground(ColorAccent).Padding(0, 1)

	StyleFolderTab = lipgloss.NewStyle().Foreground(ColorTextMuted).Padding(0, 1)
	StyleFolderTabActive = lipgloss.NewStyle().
		Foreground(lipgloss.Color("15")).
		Background(ColorSecondary).
		Bold(true).
		Padding(0, 1)

	StyleContentContainer = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Padding(0, 1).
		MarginTop(1)

	StyleInputBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorPrimary).
		Padding(0, 1)

	StyleScrollIndicator = lipgloss.NewStyle().Foreground(ColorTextDim).Align(lipgloss.Center)
	StyleScrollActive = lipgloss.NewStyle().Foreground(ColorSecondary).Bold(true).Align(lipgloss.Center)
}

// CreateMainHeader renders a page title.
func CreateMainHeader(titleText string) string {
	return StyleTitle.Render(titleText)
}

func CreateMetadata(text string) string {
	return StyleMetadata.Render(text)
}

// CreateContextualHelp renders the essential keybinds on one row and, when
// expanded, each additional row below it.
func CreateContextualHelp(essential []string, additional []string, showExpanded bool, width int) string {
	firstRowParts := essential
	if len(additional) > 0 && !showExpanded {
		firstRowParts = append(append([]string{}, essential...), "ctrl+g more")
	}

	lines := []string{truncate(strings.Join(firstRowParts, " • "), width-4)}
	if showExpanded {
		for _, row := range additional {
			lines = append(lines, truncate(row, width-4))
		}
	}
	return StyleTextDim.Render(strings.Join(lines, "\n"))
}

func truncate(s string, width int) string {
	if width <= 3 || len(s) <= width {
		return s
	}
	return s[:width-3] + "..."
}

// statusKind selects the style for a status line.
type statusKind int

const (
	statusSuccess statusKind = iota
	statusInfo
	statusWarning
	statusError
)

func CreateStatus(text string, kind statusKind) string {
	switch kind {
	case statusWarning:
		return StyleWarning.Render(text)
	case statusError:
		return StyleError.Render(text)
	case statusInfo:
		return StyleInfo.Render(text)
	default:
		return StyleSuccess.Render(text)
	}
}

// CreateFolderTabs renders the folder filter strip with the active entry highlighted.
func CreateFolderTabs(labels []string, active int) string {
	tabs := make([]string, len(labels))
	for i, label := range labels {
		if i == active {
			tabs[i] = StyleFolderTabActive.Render(label)
		} else {
			tabs[i] = StyleFolderTab.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Left, tabs...)
}

// CreateProgress renders "Placeholder i of N" followed by a dot per placeholder.
func CreateProgress(index, total int, filled func(i int) bool) string {
	if total == 0 {
		return StyleTextMuted.Render("No placeholders")
	}
	var dots strings.Builder
	for i := 0; i < total; i++ {
		switch {
		case i == index:
			dots.WriteString(lipgloss.NewStyle().Foreground(ColorPrimary).Render("●"))
		case filled(i):
			dots.WriteString(lipgloss.NewStyle().Foreground(ColorSuccess).Render("●"))
		default:
			dots.WriteString(StyleTextDim.Render("○"))
		}
	}
	label := StyleSubtitle.Render(fmt.Sprintf("Placeholder %d of %d", index+1, total))
	return lipgloss.JoinHorizontal(lipgloss.Left, label, " ", dots.String())
}

// AddMainPadding adds the left gutter used by every page.
func AddMainPadding(content string) string {
	return lipgloss.NewStyle().PaddingLeft(2).Render(content)
}

// CreateScrollIndicators returns the top and bottom rules around a viewport.
func CreateScrollIndicators(canScrollUp, canScrollDown bool) (string, string) {
	indicator := func(active bool) string {
		if active {
			return StyleScrollActive.Render("...")
		}
		return StyleScrollIndicator.Render("─────────")
	}
	return indicator(canScrollUp), indicator(canScrollDown)
}
