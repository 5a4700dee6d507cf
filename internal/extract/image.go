package extract

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/joseph-ayodele/docgate/constants"
	"github.com/joseph-ayodele/docgate/internal/common"
	"github.com/joseph-ayodele/docgate/internal/ocr"
)

// ImageBackend OCRs a single image. Decode and OCR failures degrade to one
// empty page plus a warning; only an unreadable file is an error.
type ImageBackend struct {
	engine *ocr.Engine
	opts   Options
	logger *slog.Logger
}

func NewImageBackend(engine *ocr.Engine, opts Options, logger *slog.Logger) *ImageBackend {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImageBackend{engine: engine, opts: opts, logger: logger}
}

func (b *ImageBackend) Name() string                  { return "image" }
func (b *ImageBackend) Kinds() []constants.SourceKind { return []constants.SourceKind{constants.IMAGE} }

func (b *ImageBackend) Extract(ctx context.Context, path string) (*Document, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := statInput(path, b.Name(), b.opts.MaxFileSize); err != nil {
		return nil, err
	}
	doc := &Document{Path: path, Kind: constants.IMAGE, Method: "image-ocr"}
	page := Page{Number: 1}
	defer func() { doc.Duration = time.Since(start) }()

	src := path
	if constants.IsHEICExt(filepath.Ext(path)) {
		out, warns, cleanup, err := b.engine.ConvertHEIC(ctx, path)
		defer cleanup()
		doc.Warnings = append(doc.Warnings, warns...)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			b.logger.Warn("heic conversion failed", "path", path, "error", err)
			doc.Warnings = append(doc.Warnings, err.Error())
			doc.Pages = []Page{page}
			return doc, nil
		}
		src = out
	}

	img, err := decodeImage(src)
	if err != nil {
		if os.IsNotExist(err) || os.IsPermission(err) {
			return nil, &common.ExtractionError{Path: path, Backend: b.Name(), Cause: err}
		}
		b.logger.Warn("image decode failed", "path", path, "error", err)
		doc.Warnings = append(doc.Warnings, fmt.Sprintf("decode image: %v", err))
		doc.Pages = []Page{page}
		return doc, nil
	}
	bounds := img.Bounds()
	page.Images = []ImageInfo{{Name: filepath.Base(path), Width: bounds.Dx(), Height: bounds.Dy()}}

	gray := ocr.Preprocess(img)
	if b.opts.Binarize {
		ocr.Binarize(gray)
	}
	tmp, err := writeTempPNG(gray)
	if err != nil {
		return nil, &common.ExtractionError{Path: path, Backend: b.Name(), Cause: err}
	}
	defer os.Remove(tmp)

	txt, warns, err := b.engine.Tesseract(ctx, tmp)
	doc.Warnings = append(doc.Warnings, warns...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		b.logger.Warn("ocr failed", "path", path, "error", err)
		doc.Warnings = append(doc.Warnings, err.Error())
		doc.Pages = []Page{page}
		return doc, nil
	}
	page.Text = ocr.Normalize(txt)
	doc.Pages = []Page{page}

	var engineConf float32
	if b.opts.TSVConfidence {
		c, w, err := b.engine.TSVConfidence(ctx, tmp)
		doc.Warnings = append(doc.Warnings, w...)
		if err == nil {
			engineConf = c
		}
	}
	doc.Confidence = ocr.BlendConfidence(engineConf, ocr.HeuristicConfidence(page.Text))
	b.logger.Debug("image ocr done", "path", path, "chars", len(page.Text), "confidence", doc.Confidence)
	return doc, nil
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}

func writeTempPNG(img image.Image) (string, error) {
	f, err := os.CreateTemp("", "docgate-ocr-*.png")
	if err != nil {
		return "", err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}
