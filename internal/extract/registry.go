package extract

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/docgate/constants"
	"github.com/joseph-ayodele/docgate/internal/common"
	"github.com/joseph-ayodele/docgate/internal/ocr"
)

// Options tune every backend built by NewDefaultRegistry.
type Options struct {
	MaxFileSize    int64 // 0 = unlimited
	PDFOCRFallback bool  // OCR PDF pages that carry no text layer
	TSVConfidence  bool  // second tesseract pass for word confidences
	Binarize       bool  // Otsu threshold before OCR
}

// Registry selects a backend by file extension.
type Registry struct {
	byKind map[constants.SourceKind]Backend
}

func NewRegistry(backends ...Backend) *Registry {
	r := &Registry{byKind: make(map[constants.SourceKind]Backend)}
	for _, b := range backends {
		for _, k := range b.Kinds() {
			r.byKind[k] = b
		}
	}
	return r
}

// NewDefaultRegistry wires the PDF, image and plain text backends onto engine.
func NewDefaultRegistry(engine *ocr.Engine, opts Options, logger *slog.Logger) *Registry {
	return NewRegistry(
		NewPDFBackend(engine, opts, logger),
		NewImageBackend(engine, opts, logger),
		NewTextBackend(opts, logger),
	)
}

// Select picks the backend for path from its extension alone; nothing is read.
func (r *Registry) Select(path string) (Backend, error) {
	ext := constants.NormalizeExt(filepath.Ext(path))
	if b, ok := r.byKind[constants.MapExtToKind(ext)]; ok {
		return b, nil
	}
	return nil, &common.UnsupportedFormatError{Value: strings.ToLower(filepath.Ext(path)), What: "extension", Supported: r.Supported()}
}

// Supported lists the extensions some registered backend accepts, with their dot.
func (r *Registry) Supported() []string {
	var out []string
	for _, ext := range constants.SupportedExtensions() {
		if _, ok := r.byKind[constants.MapExtToKind(ext)]; ok {
			out = append(out, "."+ext)
		}
	}
	return out
}

// Supports reports whether path has an accepted extension.
func (r *Registry) Supports(path string) bool {
	_, err := r.Select(path)
	return err == nil
}

// statInput checks that path is a regular file within the size limit.
func statInput(path, backend string, max int64) (os.FileInfo, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, &common.ExtractionError{Path: path, Backend: backend, Cause: err}
	}
	if !st.Mode().IsRegular() {
		return nil, &common.ExtractionError{Path: path, Backend: backend, Cause: errors.New("not a regular file")}
	}
	if max > 0 && st.Size() > max {
		return nil, &common.ExtractionError{Path: path, Backend: backend,
			Cause: fmt.Errorf("file is %d bytes, limit is %d", st.Size(), max)}
	}
	return st, nil
}
