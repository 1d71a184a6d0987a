package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"archivist/internal/domain"
)

var (
	// Colors
	colorPrimary   = lipgloss.Color("#7C3AED") // Purple
	colorSecondary = lipgloss.Color("#10B981") // Green
	colorMuted     = lipgloss.Color("#6B7280") // Gray
	colorWarning   = lipgloss.Color("#F59E0B") // Amber
	colorError     = lipgloss.Color("#EF4444") // Red
	colorInfo      = lipgloss.Color("#60A5FA") // Blue

	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	styleID = lipgloss.NewStyle().
		Foreground(colorMuted)

	styleDone = lipgloss.NewStyle().
			Foreground(colorMuted).
			Strikethrough(true)

	stylePointer = lipgloss.NewStyle().
			Foreground(colorInfo)

	styleContext = lipgloss.NewStyle().
			Foreground(colorMuted).
			Italic(true)

	styleSuccess = lipgloss.NewStyle().
			Foreground(colorSecondary)

	styleError = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	styleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorSecondary)
)

// statusStyles color triage statuses by urgency
var statusStyles = map[domain.TriageStatus]lipgloss.Style{
	domain.StatusNeedsResponse: lipgloss.NewStyle().Foreground(colorError).Bold(true),
	domain.StatusWaiting:       lipgloss.NewStyle().Foreground(colorWarning),
	domain.StatusSnoozed:       lipgloss.NewStyle().Foreground(colorWarning),
	domain.StatusToRead:        lipgloss.NewStyle().Foreground(colorInfo),
	domain.StatusReplied:       lipgloss.NewStyle().Foreground(colorSecondary),
	domain.StatusRead:          lipgloss.NewStyle().Foreground(colorMuted),
	domain.StatusArchived:      lipgloss.NewStyle().Foreground(colorMuted),
}

func renderStatus(st domain.TriageStatus) string {
	style, ok := statusStyles[st]
	if !ok {
		style = lipgloss.NewStyle()
	}
	return style.Render(fmt.Sprintf("%-14s", st))
}

// renderAction formats one queue entry; pos is its 1-based place in the queue
func renderAction(pos int, a domain.Action, withContext bool) string {
	var sb strings.Builder

	text := a.Text
	box := "[ ]"
	if !a.IsOpen() {
		box = "[x]"
		text = styleDone.Render(text)
	}
	fmt.Fprintf(&sb, "%3d. %s %s  %s", pos, box, styleID.Render(a.ID), text)
	if a.Kind == domain.KindPointer {
		sb.WriteString("  " + stylePointer.Render("-> "+a.TargetString()))
	}
	if withContext && a.Context != "" {
		sb.WriteString("\n       " + styleContext.Render(a.Context))
	}
	return sb.String()
}
