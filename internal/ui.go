package internal

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"filefinder/internal/disks"
	"filefinder/internal/screens"
	"filefinder/internal/session"
)

// Styles
var (
	// Tokyo Night inspired palette
	primaryColor    = lipgloss.Color("#7aa2f7") // blue
	secondaryColor  = lipgloss.Color("#9ece6a") // green
	warningColor    = lipgloss.Color("#e0af68") // yellow
	errorColor      = lipgloss.Color("#f7768e") // red
	successColor    = lipgloss.Color("#9ece6a") // green
	textColor       = lipgloss.Color("#c0caf5") // foreground
	dimColor        = lipgloss.Color("#565f89") // comment
	backgroundColor = lipgloss.Color("#1a1b26") // background
	borderColor     = lipgloss.Color("#414868") // border

	titleStyle = lipgloss.NewStyle().
			Foreground(secondaryColor).
			Bold(true).
			Align(lipgloss.Center)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(textColor).
			Align(lipgloss.Center)

	labelStyle = lipgloss.NewStyle().
			Foreground(dimColor).
			Width(11)

	focusedLabelStyle = labelStyle.Copy().
				Foreground(primaryColor).
				Bold(true)

	menuItemStyle = lipgloss.NewStyle().
			PaddingLeft(2).
			PaddingRight(2).
			Foreground(textColor)

	// Single-line highlight; the bordered variant is too tall for lists
	selectedItemStyle = lipgloss.NewStyle().
				PaddingLeft(2).
				PaddingRight(2).
				Background(primaryColor).
				Foreground(backgroundColor).
				Bold(true)

	buttonStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(textColor).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor)

	focusedButtonStyle = buttonStyle.Copy().
				Background(primaryColor).
				Foreground(backgroundColor).
				Bold(true).
				BorderForeground(primaryColor)

	borderStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(1, 3).
			Margin(1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(0, 1)

	warningStyle = lipgloss.NewStyle().
			Foreground(backgroundColor).
			Background(warningColor).
			Bold(true).
			Padding(0, 2)

	errorStyle = lipgloss.NewStyle().
			Foreground(backgroundColor).
			Background(errorColor).
			Bold(true).
			Padding(0, 2)

	successStyle = lipgloss.NewStyle().
			Foreground(backgroundColor).
			Background(successColor).
			Bold(true).
			Padding(0, 2)

	dimStyle = lipgloss.NewStyle().
			Foreground(dimColor)

	helpStyle = lipgloss.NewStyle().
			Foreground(dimColor).
			Italic(true).
			MarginTop(1)

	infoBoxStyle = lipgloss.NewStyle().
			Background(borderColor).
			Foreground(textColor).
			Padding(0, 1)
)

// allDisksLabel is shown in the disk selector when no disk filter is set
const allDisksLabel = "All disks"

// maxHistoryRows caps the visible history panel
const maxHistoryRows = 8

// Render the query form: inputs, filters, disk usage and history
func (m Model) renderQueryForm() string {
	var s strings.Builder

	s.WriteString(m.renderHeader() + "\n\n")

	s.WriteString(m.renderField(screens.FieldQuery, "Name", m.query.View()) + "\n")
	s.WriteString(m.renderField(screens.FieldExtension, "Extension", m.extension.View()) + "\n")

	box := CurrentSymbols.Unchecked
	if m.snap.Criteria.IncludeFolders {
		box = CurrentSymbols.Checked
	}
	s.WriteString(m.renderField(screens.FieldFolders, "Folders", box+" Include folders") + "\n")

	disk := m.snap.Criteria.Disk
	if disk == "" {
		disk = allDisksLabel
	}
	s.WriteString(m.renderField(screens.FieldDisk, "Disk",
		CurrentSymbols.Left+" "+disk+" "+CurrentSymbols.Right) + "\n\n")

	s.WriteString(m.renderSearchButton() + "\n")

	if err := m.snap.LastError; err != nil {
		s.WriteString("\n" + errorStyle.Render(FormatError("Search failed: "+err.Error())) + "\n")
	} else if m.snap.State == session.Idle && len(m.snap.Results) > 0 {
		s.WriteString("\n" + dimStyle.Render(fmt.Sprintf("Last search: %d results in %s",
			len(m.snap.Results), m.snap.DurationLabel)) + "\n")
	}

	panels := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderDiskPanel(),
		"  ",
		m.renderHistoryPanel(),
	)
	s.WriteString("\n" + panels + "\n")

	s.WriteString(m.renderFlash())
	s.WriteString(helpStyle.Render(m.formHelp()))

	return m.frame(s.String())
}

// Render the results list with a header and a scroll window
func (m Model) renderResults() string {
	var s strings.Builder

	results := m.snap.Results
	s.WriteString(titleStyle.Render(fmt.Sprintf("%s %d results in %s",
		CurrentSymbols.Search, len(results), m.snap.DurationLabel)) + "\n")
	s.WriteString(subtitleStyle.Render(m.criteriaSummary()) + "\n\n")

	if len(results) == 0 {
		s.WriteString(infoBoxStyle.Render("No files matched your search.") + "\n")
	} else {
		end := m.resultOffset + m.resultRows()
		if end > len(results) {
			end = len(results)
		}

		nameWidth, sizeWidth := 30, 12
		pathWidth := m.contentWidth() - nameWidth - sizeWidth - 16
		if pathWidth < 10 {
			pathWidth = 10
		}

		for i := m.resultOffset; i < end; i++ {
			r := results[i]
			line := fmt.Sprintf("%s  %s  %s",
				padRight(truncate(CurrentSymbols.File+" "+r.Name, nameWidth), nameWidth),
				padRight(truncateLeft(r.Path, pathWidth), pathWidth),
				padLeft(disks.FormatBytes(r.Size), sizeWidth))
			if i == m.resultCursor {
				s.WriteString(selectedItemStyle.Render(line) + "\n")
			} else {
				s.WriteString(menuItemStyle.Render(line) + "\n")
			}
		}

		if len(results) > m.resultRows() {
			s.WriteString(dimStyle.Render(fmt.Sprintf("  %d-%d of %d", m.resultOffset+1, end, len(results))) + "\n")
		}
	}

	s.WriteString(m.renderFlash())
	s.WriteString(helpStyle.Render("↑/↓: navigate • enter: show in file manager • esc/b: back • q: quit"))

	return m.frame(s.String())
}

// Render header with title and version
func (m Model) renderHeader() string {
	title := titleStyle.Render(CurrentSymbols.Search + " " + AppName)
	subtitle := subtitleStyle.Render(GetSubtitle())
	return lipgloss.JoinVertical(lipgloss.Center, title, subtitle)
}

// renderField draws one labelled form row, highlighting the focused one.
func (m Model) renderField(f screens.Field, label, body string) string {
	style := labelStyle
	marker := "  "
	if m.focus == f {
		style = focusedLabelStyle
		marker = CurrentSymbols.Arrow + " "
	}
	return marker + style.Render(label) + body
}

func (m Model) renderSearchButton() string {
	style := buttonStyle
	if m.focus == screens.FieldSearch {
		style = focusedButtonStyle
	}
	if m.snap.State == session.Searching {
		return style.Render(m.spinner.View() + " Searching...")
	}
	return style.Render(CurrentSymbols.Search + " Search")
}

// renderDiskPanel shows usage for every disk, or why there are none.
func (m Model) renderDiskPanel() string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("Disks") + "\n")

	switch {
	case m.snap.DiskError != nil:
		s.WriteString(warningStyle.Render(FormatWarning("Could not load disks")) + "\n")
		s.WriteString(dimStyle.Render("ctrl+r to retry") + "\n")
	case len(m.snap.Disks) == 0:
		s.WriteString(dimStyle.Render("No disks found") + "\n")
	default:
		for _, d := range m.snap.Disks {
			s.WriteString(renderDiskUsage(d, m.usageBarView(d)) + "\n")
		}
	}
	return panelStyle.Render(strings.TrimRight(s.String(), "\n"))
}

// usageBarView renders the bar for one disk.
func (m Model) usageBarView(d disks.Summary) string {
	return m.usageBar.ViewAs(d.Usage() / 100)
}

// newUsageBar returns the bar used to draw disk usage. It is only used as a
// static renderer through ViewAs, so it never animates.
func newUsageBar() progress.Model {
	return progress.New(
		progress.WithSolidFill(string(primaryColor)),
		progress.WithWidth(30),
		progress.WithoutPercentage(),
	)
}

// RenderDiskSummary renders one disk for non-interactive output.
func RenderDiskSummary(d disks.Summary) string {
	bar := newUsageBar()
	return renderDiskUsage(d, bar.ViewAs(d.Usage()/100))
}

// renderDiskUsage is the disk usage presenter: label, bar and caption.
func renderDiskUsage(d disks.Summary, bar string) string {
	return FormatDrive(d.Label()) + "\n" +
		bar + " " + dimStyle.Render(fmt.Sprintf("%.0f%%", d.Usage())) + "\n" +
		dimStyle.Render(d.Caption())
}

// renderHistoryPanel lists past queries, newest first.
func (m Model) renderHistoryPanel() string {
	var s strings.Builder
	s.WriteString(titleStyle.Render(CurrentSymbols.History+" History") + "\n")

	if len(m.snap.History) == 0 {
		s.WriteString(dimStyle.Render("No searches yet"))
		return panelStyle.Render(s.String())
	}

	start := 0
	if m.historyCursor >= maxHistoryRows {
		start = m.historyCursor - maxHistoryRows + 1
	}
	end := start + maxHistoryRows
	if end > len(m.snap.History) {
		end = len(m.snap.History)
	}

	for i := start; i < end; i++ {
		e := m.snap.History[i]
		query := e.Query
		if query == "" {
			query = "(any name)"
		}
		line := fmt.Sprintf("%s  %s", truncate(query, 24), dimStyle.Render(humanize.Time(e.Time())))
		if m.focus == screens.FieldHistory && i == m.historyCursor {
			s.WriteString(selectedItemStyle.Render(CurrentSymbols.Arrow+" "+line) + "\n")
		} else {
			s.WriteString(menuItemStyle.Render(line) + "\n")
		}
	}
	return panelStyle.Render(strings.TrimRight(s.String(), "\n"))
}

func (m Model) renderFlash() string {
	if m.flash == "" {
		return ""
	}
	style := successStyle
	if m.flashIsErr {
		style = errorStyle
	}
	return "\n" + style.Render(m.flash) + "\n"
}

func (m Model) formHelp() string {
	switch m.focus {
	case screens.FieldFolders:
		return "space: toggle • tab: next • enter: search • ctrl+r: refresh disks • q: quit"
	case screens.FieldDisk:
		return "←/→: change disk • tab: next • enter: search • ctrl+r: refresh disks • q: quit"
	case screens.FieldHistory:
		return "↑/↓: select • enter: search again • tab: next • q: quit"
	default:
		return "tab: next field • enter: search • ctrl+r: refresh disks • ctrl+c: quit"
	}
}

// criteriaSummary describes the filters the shown results were found with.
func (m Model) criteriaSummary() string {
	c := m.snap.ResultsFor
	parts := []string{fmt.Sprintf("%q", c.Query)}
	if c.Extension != "" {
		parts = append(parts, "ext "+c.Extension)
	}
	if c.Disk != "" {
		parts = append(parts, "on "+c.Disk)
	} else {
		parts = append(parts, "on all disks")
	}
	if c.IncludeFolders {
		parts = append(parts, "with folders")
	}
	return strings.Join(parts, " "+CurrentSymbols.Bullet+" ")
}

func (m Model) contentWidth() int {
	w := m.width - 8
	if w < 40 {
		w = 40
	}
	return w
}

// frame centers the content in a bordered box
func (m Model) frame(body string) string {
	content := borderStyle.Width(m.contentWidth()).Render(body)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

// truncateLeft keeps the end of a path, which is the informative part
func truncateLeft(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[len(r)-max:])
	}
	return "..." + string(r[len(r)-max+3:])
}

func padRight(s string, width int) string {
	if n := lipgloss.Width(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

func padLeft(s string, width int) string {
	if n := lipgloss.Width(s); n < width {
		return strings.Repeat(" ", width-n) + s
	}
	return s
}
