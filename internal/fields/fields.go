// Package fields pulls structured facts out of extracted document text: scalar
// key/value fields and itemised rows. Parsing is line oriented, pure and never
// fails; text that matches no rule simply yields no records.
package fields

import (
	"strings"
	"unicode"

	"github.com/joseph-ayodele/docgate/constants"
	"github.com/joseph-ayodele/docgate/internal/extract"
)

// Kind tells scalar fields and line items apart.
type Kind string

const (
	KindField    Kind = "field"
	KindLineItem Kind = "line_item"
)

// Record is one field or line item, in reading order. Keys may repeat.
type Record struct {
	Type        Kind   `json:"type"`
	Key         string `json:"key,omitempty"`
	Value       string `json:"value,omitempty"`
	Description string `json:"description,omitempty"`
	Quantity    string `json:"quantity,omitempty"`
	Price       string `json:"price,omitempty"`
	Amount      string `json:"amount,omitempty"`
	Page        int    `json:"-"`
}

// KeyDocumentType is the key of the title field.
const KeyDocumentType = "Document Type"

const (
	maxTitleLen = 60
	maxLabelLen = 40
)

// Parse runs the rule set over every page of doc.
func Parse(doc *extract.Document) []Record {
	if doc == nil {
		return nil
	}
	var out []Record
	titleChecked := false
	for _, p := range doc.Pages {
		lines := strings.Split(p.Text, "\n")
		if !titleChecked {
			if i := firstNonEmpty(lines); i >= 0 {
				titleChecked = true
				if title, rest, ok := splitTitle(lines[i]); ok {
					out = append(out, Record{Type: KindField, Key: KeyDocumentType, Value: title, Page: p.Number})
					lines[i] = rest
				}
			}
		}
		out = append(out, parsePage(lines, p.Number)...)
	}
	return out
}

// ParseText parses a single page of text.
func ParseText(text string) []Record {
	return Parse(&extract.Document{Pages: []extract.Page{{Number: 1, Text: text}}})
}

// Title returns the document type value, or "".
func Title(records []Record) string {
	for _, r := range records {
		if r.Type == KindField && r.Key == KeyDocumentType {
			return r.Value
		}
	}
	return ""
}

func firstNonEmpty(lines []string) int {
	for i, l := range lines {
		if strings.TrimSpace(l) != "" {
			return i
		}
	}
	return -1
}

// splitTitle takes the leading run of upper-case words off line when that run
// names a document type ("RESIT RASMI     No. Resit : 123" -> "RESIT RASMI").
func splitTitle(line string) (title, rest string, ok bool) {
	words := strings.Fields(line)
	n := 0
	for n < len(words) && isTitleWord(words[n]) {
		n++
	}
	if n == 0 {
		return "", line, false
	}
	title = strings.Join(words[:n], " ")
	if len(title) > maxTitleLen || !hasLetter(title) || !constants.HasDocumentKeyword(title) {
		return "", line, false
	}
	return title, strings.Join(words[n:], " "), true
}

func isTitleWord(w string) bool {
	if strings.Contains(w, ":") {
		return false
	}
	for _, r := range w {
		if unicode.IsLower(r) {
			return false
		}
	}
	return true
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
