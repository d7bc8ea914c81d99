package surface

import (
	"encoding/json"
	"io"

	"github.com/cropscope/cropscope/pkg/scoring"
)

// JSONRenderer marshals a RecommendationSet to indented JSON.
type JSONRenderer struct{}

func (r *JSONRenderer) Render(w io.Writer, set *scoring.RecommendationSet) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(set)
}
