package render

import (
	"fmt"
	"strings"

	"github.com/joseph-ayodele/docgate/internal/extract"
)

// Text renders every page behind a "--- Page N ---" marker.
func Text(doc *extract.Document) string {
	parts := make([]string, 0, len(doc.Pages))
	for _, p := range doc.Pages {
		parts = append(parts, fmt.Sprintf("--- Page %d ---\n%s", p.Number, strings.TrimRight(p.Text, "\n")))
	}
	return strings.Join(parts, "\n\n") + "\n"
}
