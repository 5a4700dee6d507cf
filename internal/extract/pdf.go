package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/joseph-ayodele/docgate/constants"
	"github.com/joseph-ayodele/docgate/internal/common"
	"github.com/joseph-ayodele/docgate/internal/ocr"
)

var disablePDFConfigDir sync.Once

// PDFBackend extracts per-page text, tables and image descriptors.
//
// The page structure comes from pdfcpu and the text from pdftotext -layout.
// Either one may fail alone: without pdftotext the text is decoded by the
// ledongthuc/pdf reader, and a file pdfcpu rejects is still accepted when its
// text can be read. Both failing is an ExtractionError.
type PDFBackend struct {
	engine *ocr.Engine
	opts   Options
	logger *slog.Logger
}

func NewPDFBackend(engine *ocr.Engine, opts Options, logger *slog.Logger) *PDFBackend {
	if logger == nil {
		logger = slog.Default()
	}
	disablePDFConfigDir.Do(api.DisableConfigDir)
	return &PDFBackend{engine: engine, opts: opts, logger: logger}
}

func (b *PDFBackend) Name() string                  { return "pdf" }
func (b *PDFBackend) Kinds() []constants.SourceKind { return []constants.SourceKind{constants.PDF} }

func (b *PDFBackend) Extract(ctx context.Context, path string) (*Document, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := statInput(path, b.Name(), b.opts.MaxFileSize); err != nil {
		return nil, err
	}
	doc := &Document{Path: path, Kind: constants.PDF, Method: "pdf-text"}

	st, structErr := readPDFStructure(path)
	texts, warns, textErr := b.engine.PdfToText(ctx, path)
	doc.Warnings = append(doc.Warnings, warns...)
	if textErr != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if textErr != nil {
		b.logger.Warn("pdftotext failed, reading text with the pdf reader", "path", path, "error", textErr)
		doc.Warnings = append(doc.Warnings, fmt.Sprintf("pdftotext unavailable: %v", textErr))
		plain, readErr := readPlainText(path)
		if readErr == nil {
			texts, textErr = plain, nil
			doc.Method = "pdf-reader"
		} else {
			textErr = errors.Join(textErr, readErr)
		}
	}

	switch {
	case structErr != nil && textErr != nil:
		b.logger.Error("pdf unreadable", "path", path, "structure_error", structErr, "text_error", textErr)
		return nil, &common.ExtractionError{Path: path, Backend: b.Name(), Cause: errors.Join(structErr, textErr)}
	case textErr != nil:
		b.logger.Warn("pdf text unreadable", "path", path, "error", textErr)
		doc.Warnings = append(doc.Warnings, fmt.Sprintf("pdf text unreadable: %v", textErr))
	case structErr != nil:
		b.logger.Warn("pdf structure unreadable", "path", path, "error", structErr)
		doc.Warnings = append(doc.Warnings, fmt.Sprintf("pdf structure unreadable: %v", structErr))
	}

	n := len(texts)
	if st != nil {
		n = st.pageCount
	}
	for i := 0; i < n; i++ {
		p := Page{Number: i + 1}
		if i < len(texts) {
			p.Text = ocr.NormalizeLayout(texts[i])
			p.Tables = detectTables(p.Text)
		}
		if st != nil {
			p.Images = st.images[i+1]
		}
		doc.Pages = append(doc.Pages, p)
	}
	if len(texts) > n {
		doc.Warnings = append(doc.Warnings, fmt.Sprintf("text for %d pages, structure has %d", len(texts), n))
	}

	if b.opts.PDFOCRFallback {
		if err := b.ocrEmptyPages(ctx, doc); err != nil {
			return nil, err
		}
	}

	doc.Confidence = ocr.HeuristicConfidence(doc.Text())
	doc.Duration = time.Since(start)
	b.logger.Debug("pdf extracted", "path", path, "pages", len(doc.Pages), "method", doc.Method,
		"duration_ms", doc.Duration.Milliseconds())
	return doc, nil
}

// ocrEmptyPages rasterizes and OCRs pages without a text layer.
func (b *PDFBackend) ocrEmptyPages(ctx context.Context, doc *Document) error {
	for i := range doc.Pages {
		if doc.Pages[i].Text != "" {
			continue
		}
		txt, warns, err := b.engine.OCRPDFPage(ctx, doc.Path, doc.Pages[i].Number)
		doc.Warnings = append(doc.Warnings, warns...)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			doc.Warnings = append(doc.Warnings, fmt.Sprintf("ocr page %d: %v", doc.Pages[i].Number, err))
			continue
		}
		if txt != "" {
			doc.Pages[i].Text = txt
			doc.Method = "pdf-ocr"
		}
	}
	return nil
}

type pdfStructure struct {
	pageCount int
	images    map[int][]ImageInfo
}

func readPDFStructure(path string) (*pdfStructure, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	pctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}
	st := &pdfStructure{pageCount: pctx.PageCount, images: make(map[int][]ImageInfo)}
	for pageNr := 1; pageNr <= pctx.PageCount; pageNr++ {
		for _, objNr := range pdfcpu.ImageObjNrs(pctx, pageNr) {
			st.images[pageNr] = append(st.images[pageNr], imageInfo(pctx, pageNr, objNr))
		}
	}
	return st, nil
}

func imageInfo(pctx *model.Context, pageNr, objNr int) ImageInfo {
	info := ImageInfo{Name: fmt.Sprintf("page%d-img%d", pageNr, objNr)}
	entry, ok := pctx.Table[objNr]
	if !ok || entry == nil {
		return info
	}
	sd, ok := entry.Object.(types.StreamDict)
	if !ok {
		return info
	}
	info.Width = intEntry(sd, "Width")
	info.Height = intEntry(sd, "Height")
	return info
}

func intEntry(sd types.StreamDict, key string) int {
	o, found := sd.Find(key)
	if !found {
		return 0
	}
	switch v := o.(type) {
	case types.Integer:
		return int(v)
	case types.Float:
		return int(v)
	}
	return 0
}
