// Package render turns an extracted document and its field records into the
// text, markdown or json output of a conversion.
package render

import (
	"github.com/joseph-ayodele/docgate/constants"
	"github.com/joseph-ayodele/docgate/internal/common"
	"github.com/joseph-ayodele/docgate/internal/extract"
	"github.com/joseph-ayodele/docgate/internal/fields"
)

// Render produces the output for format. It only fails for an unknown format.
func Render(doc *extract.Document, records []fields.Record, format constants.OutputFormat) (string, error) {
	if doc == nil {
		doc = &extract.Document{}
	}
	switch format {
	case constants.FormatText:
		return Text(doc), nil
	case constants.FormatMarkdown:
		return Markdown(doc, records), nil
	case constants.FormatJSON:
		return JSON(doc, records)
	default:
		return "", &common.UnsupportedFormatError{
			Value:     string(format),
			What:      "output format",
			Supported: constants.FormatNames(),
		}
	}
}
