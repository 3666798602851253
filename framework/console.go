package framework

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

const (
	colorPrimary = lipgloss.Color("39")
	colorSuccess = lipgloss.Color("42")
	colorWarning = lipgloss.Color("220")
	colorError   = lipgloss.Color("196")
	colorDim     = lipgloss.Color("241")
)

// Console writes progress and confirmation lines for humans. Everything goes
// to the writer it was built with (stderr in production) so stdout stays
// reserved for help text and machine readable output.
type Console struct {
	w     io.Writer
	quiet bool

	stepStyle    lipgloss.Style
	successStyle lipgloss.Style
	warnStyle    lipgloss.Style
	errorStyle   lipgloss.Style
	hintStyle    lipgloss.Style
	headerStyle  lipgloss.Style
}

// NewConsole binds styles to w. Colour is only emitted when w is a terminal.
func NewConsole(w io.Writer, quiet bool) *Console {
	if w == nil {
		w = io.Discard
	}
	r := lipgloss.NewRenderer(w)
	return &Console{
		w:            w,
		quiet:        quiet,
		stepStyle:    r.NewStyle().Bold(true).Foreground(colorPrimary),
		successStyle: r.NewStyle().Foreground(colorSuccess),
		warnStyle:    r.NewStyle().Foreground(colorWarning),
		errorStyle:   r.NewStyle().Bold(true).Foreground(colorError),
		hintStyle:    r.NewStyle().Foreground(colorDim).Italic(true),
		headerStyle:  r.NewStyle().Bold(true).Underline(true),
	}
}

// Step announces a unit of work that is about to start.
func (c *Console) Step(format string, args ...any) {
	c.line(c.stepStyle, "==>", format, args...)
}

// Success confirms a finished unit of work.
func (c *Console) Success(format string, args ...any) {
	c.line(c.successStyle, "✔", format, args...)
}

// Warn reports a degraded but non-fatal path. Warnings survive --quiet.
func (c *Console) Warn(format string, args ...any) {
	fmt.Fprintln(c.w, c.warnStyle.Render("⚠ "+fmt.Sprintf(format, args...)))
}

// Failure reports an error line. It is used by the dispatcher only.
func (c *Console) Failure(msg string) {
	fmt.Fprintln(c.w, c.errorStyle.Render("Error: ")+msg)
}

// Hint prints a suggestion for a follow-up command.
func (c *Console) Hint(format string, args ...any) {
	c.line(c.hintStyle, "→", format, args...)
}

// Header prints a section title.
func (c *Console) Header(format string, args ...any) {
	if c.quiet {
		return
	}
	fmt.Fprintln(c.w, c.headerStyle.Render(fmt.Sprintf(format, args...)))
}

// Println prints an unstyled line.
func (c *Console) Println(format string, args ...any) {
	if c.quiet {
		return
	}
	fmt.Fprintln(c.w, fmt.Sprintf(format, args...))
}

// Check renders a coloured yes/no marker for status tables.
func (c *Console) Check(ok bool) string {
	if ok {
		return c.successStyle.Render("yes")
	}
	return c.errorStyle.Render("no")
}

func (c *Console) line(style lipgloss.Style, prefix, format string, args ...any) {
	if c.quiet {
		return
	}
	fmt.Fprintln(c.w, style.Render(prefix)+" "+fmt.Sprintf(format, args...))
}
