// Package render converts raw assistant text into its presentable form.
// Rendering happens once per received message; the result is cached on the
// message itself.
package render

import "github.com/charmbracelet/glamour"

// Renderer turns raw model output into display text.
type Renderer interface {
	Render(text string) (string, error)
}

// Markdown renders assistant markdown to ANSI-styled terminal output.
type Markdown struct {
	renderer *glamour.TermRenderer
}

func NewMarkdown(wordWrap int) (*Markdown, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wordWrap),
	)
	if err != nil {
		return nil, err
	}
	return &Markdown{renderer: renderer}, nil
}

func (m *Markdown) Render(text string) (string, error) {
	return m.renderer.Render(text)
}

// Plain passes text through untouched. Used in tests and when stdout is not
// a terminal.
type Plain struct{}

func (Plain) Render(text string) (string, error) {
	return text, nil
}
