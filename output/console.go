package output

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ConsoleWriter pretty-prints every page under a banner.
type ConsoleWriter struct {
	out    io.Writer
	banner lipgloss.Style
	meta   lipgloss.Style
	warn   lipgloss.Style
}

// NewConsoleWriter creates a ConsoleWriter writing to out (stdout if nil).
func NewConsoleWriter(out io.Writer) *ConsoleWriter {
	if out == nil {
		out = os.Stdout
	}

	return &ConsoleWriter{
		out: out,
		banner: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF")).
			Border(lipgloss.NormalBorder(), true, false).
			BorderForeground(lipgloss.Color("#444444")).
			Width(50),
		meta: lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
		warn: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")),
	}
}

// Write implements Writer.
func (w *ConsoleWriter) Write(_ context.Context, runID string, a Artifacts) error {
	if a.Empty() {
		return ErrNoArtifacts
	}

	var b strings.Builder

	b.WriteString(w.meta.Render(fmt.Sprintf("run %s, %d refinement iteration(s)", runID, a.Iterations)))
	b.WriteString("\n")

	if len(a.Missing) > 0 {
		b.WriteString(w.warn.Render("missing: " + strings.Join(a.Missing, ", ")))
		b.WriteString("\n")
	}

	for _, p := range a.pages() {
		data, err := marshalIndent(p.Doc)
		if err != nil {
			return fmt.Errorf("render %s: %w", p.File, err)
		}

		b.WriteString("\n")
		b.WriteString(w.banner.Render(p.Title))
		b.WriteString("\n")
		b.Write(data)
		b.WriteString("\n")
	}

	if _, err := io.WriteString(w.out, b.String()); err != nil {
		return fmt.Errorf("write console: %w", err)
	}

	return nil
}
