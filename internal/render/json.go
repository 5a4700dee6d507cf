package render

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/joseph-ayodele/docgate/internal/extract"
	"github.com/joseph-ayodele/docgate/internal/fields"
)

type jsonOutput struct {
	Pages []jsonPage      `json:"pages"`
	Items []fields.Record `json:"items"`
}

type jsonPage struct {
	Page   int         `json:"page"`
	Text   string      `json:"text"`
	MD     string      `json:"md,omitempty"`
	Images []jsonImage `json:"images,omitempty"`
}

type jsonImage struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// JSON renders the document with two-space indentation. Output is a pure
// function of its input, so identical documents give identical bytes.
func JSON(doc *extract.Document, records []fields.Record) (string, error) {
	out := jsonOutput{
		Pages: make([]jsonPage, 0, len(doc.Pages)),
		Items: make([]fields.Record, 0, len(records)),
	}
	for _, p := range doc.Pages {
		jp := jsonPage{Page: p.Number, Text: p.Text, MD: tableMarkdown(p.Tables)}
		for _, img := range p.Images {
			jp.Images = append(jp.Images, jsonImage{Name: img.Name, Width: img.Width, Height: img.Height})
		}
		out.Pages = append(out.Pages, jp)
	}
	out.Items = append(out.Items, records...)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return "", fmt.Errorf("encode json output: %w", err)
	}
	return buf.String(), nil
}
