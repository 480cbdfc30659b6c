// Package render prints transcription results, as styled markdown on a
// terminal and as plain text everywhere else.
package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

const defaultWrap = 100

// Options control how a result is printed.
type Options struct {
	// Raw disables markdown rendering even on a terminal.
	Raw bool

	// Model and RequestID are shown in the footer of styled output.
	Model     string
	RequestID string
}

var footerStyle = lipgloss.NewStyle().Faint(true)

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Result writes text to w. Non-terminal writers and Raw always receive the text
// verbatim followed by a newline.
func Result(w io.Writer, text string, opts Options) error {
	if opts.Raw || !IsTerminal(w) {
		_, err := fmt.Fprintln(w, text)
		return err
	}

	styled, err := Markdown(text, wrapWidth(w))
	if err != nil {
		// Fall back to the plain answer rather than losing it.
		_, err = fmt.Fprintln(w, text)
		return err
	}

	if _, err := io.WriteString(w, styled); err != nil {
		return err
	}

	if footer := footerText(opts); footer != "" {
		_, err = fmt.Fprintln(w, footerStyle.Render(footer))
	}
	return err
}

// Markdown renders text with a glamour style matching the terminal background.
func Markdown(text string, width int) (string, error) {
	style := "light"
	if termenv.HasDarkBackground() {
		style = "dark"
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("create renderer: %w", err)
	}

	return r.Render(text)
}

func footerText(opts Options) string {
	var parts []string
	if opts.Model != "" {
		parts = append(parts, opts.Model)
	}
	if opts.RequestID != "" {
		parts = append(parts, "request "+opts.RequestID)
	}
	return strings.Join(parts, " · ")
}

func wrapWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return defaultWrap
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 || width > defaultWrap {
		return defaultWrap
	}
	return width
}
