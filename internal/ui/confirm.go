package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Confirm prints a warning box and reads one line from in. It returns true
// only when the answer is "y" or "yes".
func (p *Printer) Confirm(in io.Reader, title string, warnings ...string) bool {
	lines := []string{"", WarningTitleStyle.Render("   " + WarningMarker + "  WARNING  ─  " + title), ""}
	for _, w := range warnings {
		lines = append(lines, ResultValueStyle.Render("   • "+w))
	}
	lines = append(lines, "")

	p.Println(boxStyle(WarningColor, clampWidth(p.width)).Render(strings.Join(lines, "\n")))
	_, _ = fmt.Fprint(p.out, lipgloss.NewStyle().Foreground(WarningColor).Bold(true).Render("Continue? [y/N]: "))

	// A read error leaves answer empty, which declines
	answer, _ := bufio.NewReader(in).ReadString('\n')
	p.Newline()

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	p.Println(HintItemStyle.Render("  Operation cancelled."))
	return false
}
