package helpers

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/doeshing/shellgate/internal/domain"
)

var (
	okStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	warnStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
)

// Header renders a section title.
func Header(text string) string {
	return headerStyle.Render(text)
}

// Muted renders secondary text.
func Muted(text string) string {
	return mutedStyle.Render(text)
}

// HealthLabel renders a doctor status as "[OK]", "[WARN]" or "[ERROR]".
func HealthLabel(status domain.HealthStatus) string {
	label := "[" + strings.ToUpper(string(status)) + "]"
	switch status {
	case domain.HealthOK:
		return okStyle.Render(label)
	case domain.HealthWarn:
		return warnStyle.Render(label)
	default:
		return errorStyle.Render(label)
	}
}

// StateLabel renders a conversion state.
func StateLabel(state domain.ConversionState) string {
	label := string(state)
	switch state {
	case domain.StateCompleted:
		return okStyle.Render(label)
	case domain.StateFailed:
		return errorStyle.Render(label)
	default:
		return pendingStyle.Render(label)
	}
}

// ExitLabel renders the synthetic exit code of an intercepted command.
func ExitLabel(code int) string {
	if code == 0 {
		return okStyle.Render("converted")
	}
	return errorStyle.Render(fmt.Sprintf("blocked (exit %d)", code))
}

// Percent formats a percentage with one decimal.
func Percent(value float64) string {
	return fmt.Sprintf("%.1f%%", value)
}
