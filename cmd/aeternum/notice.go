package main

import (
	"fmt"
	"io"
)

// ANSI color constants for command output (no lipgloss, runs outside TUI).
const (
	ansiReset     = "\033[0m"
	ansiBold      = "\033[1m"
	ansiItalic    = "\033[3m"
	ansiGold      = "\033[38;2;212;168;68m"  // #d4a844
	ansiGoldLight = "\033[38;2;232;195;106m" // #e8c36a
	ansiSlate     = "\033[38;2;136;144;160m" // #8890a0
)

// printLogo prints the spaced AETERNUM wordmark in alternating gold.
func printLogo(w io.Writer) {
	letters := "AETERNUM"
	colors := [2]string{ansiGold, ansiGoldLight}
	fmt.Fprint(w, "\n  ")
	for i, ch := range letters {
		fmt.Fprintf(w, "%s%s%c%s", colors[i%2], ansiBold, ch, ansiReset)
		if i < len(letters)-1 {
			fmt.Fprint(w, "  ")
		}
	}
	fmt.Fprintln(w)
}

// printNotice prints a titled message under the wordmark.
func printNotice(w io.Writer, title, msg string) {
	printLogo(w)
	fmt.Fprintf(w, "\n  %s│%s %s%s%s%s\n", ansiGold, ansiReset, ansiGold, ansiBold, title, ansiReset)
	fmt.Fprintf(w, "  %s│%s %s%s%s%s\n\n", ansiGold, ansiReset, ansiSlate, ansiItalic, msg, ansiReset)
}
