package extract

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joseph-ayodele/docgate/constants"
	"github.com/joseph-ayodele/docgate/internal/common"
	"github.com/joseph-ayodele/docgate/internal/ocr"
)

// TextBackend reads plain text files. A form feed starts a new page.
type TextBackend struct {
	opts   Options
	logger *slog.Logger
}

func NewTextBackend(opts Options, logger *slog.Logger) *TextBackend {
	if logger == nil {
		logger = slog.Default()
	}
	return &TextBackend{opts: opts, logger: logger}
}

func (b *TextBackend) Name() string                  { return "text" }
func (b *TextBackend) Kinds() []constants.SourceKind { return []constants.SourceKind{constants.TEXT} }

func (b *TextBackend) Extract(ctx context.Context, path string) (*Document, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := statInput(path, b.Name(), b.opts.MaxFileSize); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &common.ExtractionError{Path: path, Backend: b.Name(), Cause: err}
	}

	doc := &Document{Path: path, Kind: constants.TEXT, Method: "plain-text"}
	s := string(raw)
	if !utf8.ValidString(s) {
		doc.Warnings = append(doc.Warnings, "invalid UTF-8 replaced")
		s = strings.ToValidUTF8(s, "\ufffd")
	}
	s = strings.TrimPrefix(s, "\ufeff")
	chunks := strings.Split(s, "\f")
	if len(chunks) > 1 && strings.TrimSpace(chunks[len(chunks)-1]) == "" {
		chunks = chunks[:len(chunks)-1]
	}
	for i, chunk := range chunks {
		doc.Pages = append(doc.Pages, Page{Number: i + 1, Text: ocr.NormalizeLayout(chunk)})
	}
	doc.Confidence = ocr.HeuristicConfidence(doc.Text())
	doc.Duration = time.Since(start)
	b.logger.Debug("text extracted", "path", path, "pages", len(doc.Pages), "duration_ms", doc.Duration.Milliseconds())
	return doc, nil
}
