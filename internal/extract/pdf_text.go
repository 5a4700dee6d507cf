package extract

import (
	"fmt"

	"github.com/ledongthuc/pdf"
)

// readPlainText decodes the text of every page with the font encodings and
// ToUnicode maps applied. Pages without content come back empty.
func readPlainText(path string) (pages []string, err error) {
	// the reader panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("pdf reader: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pdf reader: %w", err)
	}
	defer f.Close()

	pages = make([]string, r.NumPage())
	for i := range pages {
		p := r.Page(i + 1)
		if p.V.IsNull() {
			continue
		}
		txt, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("pdf reader: page %d: %w", i+1, err)
		}
		pages[i] = txt
	}
	return pages, nil
}
