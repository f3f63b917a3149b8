// Package console renders the launcher's user-facing output.
package console

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// bannerStyle for the startup banner
	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("25")).
			Padding(0, 2)

	// dimStyle for progress lines
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	// hintBoxStyle frames a command the operator can copy
	hintBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("81")).
			Padding(0, 1)
)

// Printer writes localized, styled status lines and handles the exit pause
type Printer struct {
	out     io.Writer
	in      io.Reader
	catalog Catalog
	pause   bool
}

// NewPrinter creates a Printer. When pause is false, Pause returns immediately.
func NewPrinter(out io.Writer, in io.Reader, lang string, pause bool) *Printer {
	return &Printer{
		out:     out,
		in:      in,
		catalog: CatalogFor(lang),
		pause:   pause,
	}
}

// Banner renders the startup banner
func (p *Printer) Banner() {
	fmt.Fprintln(p.out, bannerStyle.Render(" "+p.catalog.Format(MsgBanner)+" "))
	fmt.Fprintln(p.out)
}

// Info writes a progress line
func (p *Printer) Info(id Msg, args ...any) {
	fmt.Fprintln(p.out, dimStyle.Render(p.catalog.Format(id, args...)))
}

// OK writes a success line
func (p *Printer) OK(id Msg, args ...any) {
	fmt.Fprintf(p.out, "%s %s\n", successStyle.Render("✓"), p.catalog.Format(id, args...))
}

// Warn writes a warning line
func (p *Printer) Warn(id Msg, args ...any) {
	fmt.Fprintf(p.out, "%s %s\n", warnStyle.Render("⚠"), warnStyle.Render(p.catalog.Format(id, args...)))
}

// Fail writes an error line
func (p *Printer) Fail(id Msg, args ...any) {
	fmt.Fprintf(p.out, "%s %s\n", errorStyle.Render("✗"), errorStyle.Render(p.catalog.Format(id, args...)))
}

// Hint writes the fallback hint followed by command, unstyled inside a box
// so it can be copied verbatim.
func (p *Printer) Hint(command string) {
	fmt.Fprintln(p.out, p.catalog.Format(MsgFallbackHint))
	fmt.Fprintln(p.out, hintBoxStyle.Render(command))
}

// Pause blocks until the operator presses Enter
func (p *Printer) Pause() {
	if !p.pause || p.in == nil {
		return
	}
	fmt.Fprintln(p.out)
	fmt.Fprint(p.out, p.catalog.Format(MsgPressEnter))
	line, _ := bufio.NewReader(p.in).ReadString('\n')
	if !strings.HasSuffix(line, "\n") {
		fmt.Fprintln(p.out)
	}
}
