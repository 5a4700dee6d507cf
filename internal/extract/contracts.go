package extract

import (
	"context"
	"strings"
	"time"

	"github.com/joseph-ayodele/docgate/constants"
)

// Backend turns one file into an ExtractedDocument. Implementations hold no
// per-request state and are safe for concurrent use.
type Backend interface {
	Name() string
	Kinds() []constants.SourceKind
	Extract(ctx context.Context, path string) (*Document, error)
}

// Document is the immutable output of a backend.
type Document struct {
	Path       string
	Kind       constants.SourceKind
	Method     string // "pdf-text" | "pdf-reader" | "pdf-ocr" | "image-ocr" | "plain-text"
	Pages      []Page
	Warnings   []string
	Confidence float32
	Duration   time.Duration
}

// Page is one page of a document, numbered from 1.
type Page struct {
	Number int
	Text   string
	Tables []Table
	Images []ImageInfo
}

// Table is a detected tabular region: rows of cells.
type Table [][]string

// ImageInfo describes an embedded image (or the page image for image inputs).
type ImageInfo struct {
	Name   string
	Width  int
	Height int
}

// Text joins the page texts with blank lines.
func (d *Document) Text() string {
	parts := make([]string, 0, len(d.Pages))
	for _, p := range d.Pages {
		parts = append(parts, p.Text)
	}
	return strings.Join(parts, "\n\n")
}

// Empty reports whether no page carries any text.
func (d *Document) Empty() bool {
	for _, p := range d.Pages {
		if strings.TrimSpace(p.Text) != "" {
			return false
		}
	}
	return true
}
