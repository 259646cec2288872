package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aeternum/aeternum/pkg/domain"
)

// Shimmer animation for the AETERNUM logo.
type shimmerTickMsg time.Time

func shimmerTickCmd() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return shimmerTickMsg(t)
	})
}

// renderShimmerLogo renders "A E T E R N U M" as a slow wave of candlelight.
// Deep bronze (#3a2a12) -> parchment gold (#e8c36a).
func renderShimmerLogo(frame int) string {
	const text = "AETERNUM"
	n := len(text)

	var out string
	t := float64(frame)

	for i := 0; i < n; i++ {
		x := float64(i) / float64(n-1)

		phase := t*0.08 - x*3.0
		phase += math.Sin(t*0.019) * 1.5

		b := math.Sin(phase)*0.5 + 0.5
		b = math.Pow(b, 1.4)

		tide := math.Sin(t*0.03) * 0.1
		b = b*0.75 + tide + 0.2

		if b > 1.0 {
			b = 1.0
		} else if b < 0.05 {
			b = 0.05
		}

		r := clampByte(58 + b*(232-58))
		g := clampByte(42 + b*(195-42))
		bl := clampByte(18 + b*(106-18))

		color := fmt.Sprintf("#%02X%02X%02X", r, g, bl)
		out += lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(color)).Render(string(text[i]))

		if i < n-1 {
			out += "  "
		}
	}
	return out
}

func clampByte(v float64) int {
	if v > 255 {
		return 255
	}
	if v < 0 {
		return 0
	}
	return int(v)
}

var (
	// Base styles
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f1ead8")).
			Bold(true)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#c8c0ae"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5c5648"))

	// Help bar
	helpKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	helpLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5c5648"))

	// Search / accent
	searchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e8c36a")).
			Bold(true)

	accentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d4a844"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#7cc48a"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d06a5a"))

	pendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0")).
			Italic(true)

	sectionHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#a89a7c")).
				Bold(true)

	inputPromptStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#d4a844")).
				Bold(true)

	inputPlaceholderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#3e3a30"))

	toastStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e8c36a"))

	// Selected row background
	selectedRowBg = lipgloss.NewStyle().Background(lipgloss.Color("#2a251c"))

	barStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#d4a844"))

	// Loan state colors
	estadoColors = map[string]lipgloss.Color{
		domain.LoanPending:    lipgloss.Color("#e8c36a"),
		domain.LoanActive:     lipgloss.Color("#60a0e0"),
		domain.LoanOverdue:    lipgloss.Color("#d05050"),
		domain.LoanReturned:   lipgloss.Color("#7cc48a"),
		domain.LoanCancelled:  lipgloss.Color("#606878"),
		domain.StatusActive:   lipgloss.Color("#7cc48a"),
		domain.StatusDisabled: lipgloss.Color("#d05050"),
	}
)

// estadoStyle returns a style colored for a loan, user or book state.
func estadoStyle(estado string) lipgloss.Style {
	if c, ok := estadoColors[estado]; ok {
		return lipgloss.NewStyle().Foreground(c)
	}
	return dimStyle
}

// helpEntry renders a single "key label" pair for help bars.
func helpEntry(key, label string) string {
	return helpKeyStyle.Render(key) + " " + helpLabelStyle.Render(label)
}

// helpBar joins key/label pairs into a help line.
func helpBar(pairs ...string) string {
	entries := make([]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		entries = append(entries, helpEntry(pairs[i], pairs[i+1]))
	}
	return " " + strings.Join(entries, "  ")
}

// helpItem is a selectable link in the help overlay.
type helpItem struct {
	label string
	desc  string
	url   string
}

// helpView renders the interactive help overlay with a cursor.
func helpView(items []helpItem, cursor int) string {
	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#e8c36a")).
		Bold(true).
		Render("A E T E R N U M")

	quote := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Italic(true).
		Render("Biblioteca digital")

	cmdStyle := lipgloss.NewStyle().Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	sectionStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)
	selStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#e8c36a"))
	linkDescStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)

	commands := []struct{ cmd, desc string }{
		{"aeternum", "Open the library (interactive TUI)"},
		{"aeternum login", "Sign in with your email"},
		{"aeternum logout", "Clear your session"},
		{"aeternum reset", "Recover or reset your password"},
		{"aeternum version", "Show version"},
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n  %s\n  %s\n\n", title, quote)

	fmt.Fprintf(&b, "  %s\n", sectionStyle.Render("Commands"))
	for _, c := range commands {
		fmt.Fprintf(&b, "    %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-20s", c.cmd)), descStyle.Render(c.desc))
	}

	fmt.Fprintf(&b, "\n  %s\n", sectionStyle.Render("Links (enter to open)"))
	for i, item := range items {
		label := cmdStyle.Render(fmt.Sprintf("%-20s", item.label))
		prefix := "    "
		if i == cursor {
			label = selStyle.Render(fmt.Sprintf("%-20s", item.label))
			prefix = "  > "
		}
		fmt.Fprintf(&b, "%s%s  %s\n", prefix, label, linkDescStyle.Render(item.desc))
	}
	return b.String()
}
