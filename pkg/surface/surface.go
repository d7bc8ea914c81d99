// Package surface renders recommendation sets for people and machines:
// terminal cards, JSON, and a Markdown summary. Renderers present the
// engine's numbers as given and never re-derive a score.
package surface

import (
	"io"

	"github.com/rotisserie/eris"

	"github.com/cropscope/cropscope/pkg/scoring"
)

// Renderer produces formatted output from a RecommendationSet.
type Renderer interface {
	// Render writes the formatted recommendation set to the writer.
	Render(w io.Writer, set *scoring.RecommendationSet) error
}

// Output formats.
const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// New returns the renderer for an output format.
func New(format string) (Renderer, error) {
	switch format {
	case "", FormatText:
		return &TerminalRenderer{}, nil
	case FormatJSON:
		return &JSONRenderer{}, nil
	case FormatMarkdown, "md":
		return &MarkdownRenderer{}, nil
	default:
		return nil, eris.Errorf("unknown output format %q (want text, json or markdown)", format)
	}
}
