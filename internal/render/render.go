package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
)

// Renderer turns markdown into terminal output. A plain Renderer returns the
// markdown unchanged, for pipes and tests.
type Renderer struct {
	Money
	term *glamour.TermRenderer
}

// New returns a Renderer for currency. width <= 0 disables word wrap.
func New(currency string, width int, plain bool) (*Renderer, error) {
	m, err := NewMoney(currency)
	if err != nil {
		return nil, err
	}
	r := &Renderer{Money: m}
	if plain {
		return r, nil
	}

	opts := []glamour.TermRendererOption{glamour.WithStandardStyle("notty")}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r.term, err = glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, fmt.Errorf("render: creating terminal renderer: %w", err)
	}
	return r, nil
}

// Render draws md for the terminal.
func (r *Renderer) Render(md string) (string, error) {
	if r.term == nil {
		return md, nil
	}
	out, err := r.term.Render(md)
	if err != nil {
		return "", fmt.Errorf("render: %w", err)
	}
	return out, nil
}

// table writes a markdown table. Cells are escaped so a "|" in a name does
// not split the row.
func table(b *strings.Builder, header []string, rows [][]string) {
	writeRow(b, header)
	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	writeRow(b, sep)
	for _, row := range rows {
		writeRow(b, row)
	}
	b.WriteString("\n")
}

func writeRow(b *strings.Builder, cells []string) {
	b.WriteString("|")
	for _, c := range cells {
		b.WriteString(" ")
		b.WriteString(strings.ReplaceAll(c, "|", `\|`))
		b.WriteString(" |")
	}
	b.WriteString("\n")
}
