package main

import (
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/charmbracelet/lipgloss"

	"github.com/aeternum/aeternum/internal/session"
)

var readingQuotes = [...]string{
	"A reader lives a thousand lives before he dies.",
	"The shelves missed you. The dust less so.",
	"Today's pick is already pending approval. Probably.",
	"Every overdue book has a story. Most of them are excuses.",
	"The catalog grew while you were away. Go find out how.",
	"One more chapter is a promise nobody keeps.",
	"Books return. Eventually. The librarian keeps count.",
	"Your wishlist is not going to read itself.",
}

func printHelp(w io.Writer) {
	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#e8c36a")).
		Bold(true).
		Render("A E T E R N U M")

	quote := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Italic(true).
		Render("Biblioteca digital from your terminal")

	cmdStyle := lipgloss.NewStyle().Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	commands := []struct{ cmd, desc string }{
		{"aeternum", "Open the library (interactive TUI)"},
		{"aeternum login <email>", "Sign in; the password is read from stdin"},
		{"aeternum logout", "Clear your session"},
		{"aeternum reset request <email>", "Email me a password reset link"},
		{"aeternum reset confirm <token>", "Choose a new password"},
		{"aeternum verify <email>", "Send the account verification email again"},
		{"aeternum terms", "Terms of service"},
		{"aeternum privacy", "Privacy policy"},
		{"aeternum --version", "Show version"},
		{"aeternum help", "You are here"},
	}

	fmt.Fprintf(w, "\n  %s\n  %s\n\n  Commands:\n", title, quote)
	for _, c := range commands {
		fmt.Fprintf(w, "    %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-32s", c.cmd)), descStyle.Render(c.desc))
	}
	fmt.Fprintln(w)
}

func printWelcome(w io.Writer, name string, role session.Role) {
	msg := readingQuotes[rand.IntN(len(readingQuotes))]

	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#e8c36a")).
		Bold(true).
		Render("AETERNUM")

	who := lipgloss.NewStyle().Bold(true).Render(name)
	area := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#d4a844")).
		Render(role.String())

	quote := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Italic(true).
		Render(msg)

	fmt.Fprintf(w, "\n%s\n\nSigned in as %s (%s)\n%s\n\n", title, who, area, quote)
}
