package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// PdfToText returns the layout-preserving text of every page, split on the
// form feed pdftotext emits between pages.
func (e *Engine) PdfToText(ctx context.Context, path string) ([]string, []string, error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, e.logger, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return nil, nonEmpty(string(errb)), fmt.Errorf("pdftotext: %w", err)
	}
	pages := strings.Split(string(out), "\f")
	// pdftotext terminates the last page with a form feed as well
	if len(pages) > 1 && strings.TrimSpace(pages[len(pages)-1]) == "" {
		pages = pages[:len(pages)-1]
	}
	return pages, nil, nil
}

// RasterizePDF renders pages [first, last] (1-based, 0 = open end) to PNG files
// inside dir and returns them in page order.
func (e *Engine) RasterizePDF(ctx context.Context, path, dir string, first, last int) ([]string, []string, error) {
	prefix := filepath.Join(dir, "page")
	args := []string{"-r", strconv.Itoa(e.cfg.DPI), "-png"}
	if first > 0 {
		args = append(args, "-f", strconv.Itoa(first))
	}
	if last > 0 {
		args = append(args, "-l", strconv.Itoa(last))
	}
	// pdftoppm -r 300 -png [-f n -l m] <in.pdf> <dir/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, e.logger, append(args, path, prefix)...)
	if err != nil {
		return nil, nonEmpty(string(errb)), fmt.Errorf("pdftoppm: %w", err)
	}

	// collect generated pngs (page-1.png, page-2.png, ... zero padded on big docs)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Slice(matches, func(i, j int) bool { return pageNumber(matches[i]) < pageNumber(matches[j]) })
	if len(matches) == 0 {
		return nil, []string{"pdftoppm produced no images"}, fmt.Errorf("no pages rendered")
	}
	return matches, nil, nil
}

// OCRPDFPage rasterizes a single page and OCRs it. Pages past MaxPages are
// skipped with a warning.
func (e *Engine) OCRPDFPage(ctx context.Context, path string, page int) (string, []string, error) {
	if e.cfg.MaxPages > 0 && page > e.cfg.MaxPages {
		return "", []string{fmt.Sprintf("page %d not OCRed (max_pages %d)", page, e.cfg.MaxPages)}, nil
	}
	tmpDir, err := os.MkdirTemp("", "docgate-pp-*")
	if err != nil {
		return "", nil, err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			e.logger.Warn("failed to remove temp dir", "dir", tmpDir, "error", err)
		}
	}()

	imgs, warns, err := e.RasterizePDF(ctx, path, tmpDir, page, page)
	if err != nil {
		return "", warns, err
	}
	txt, w, err := e.Tesseract(ctx, imgs[0])
	warns = append(warns, w...)
	if err != nil {
		return "", warns, err
	}
	return Normalize(txt), warns, nil
}

func pageNumber(png string) int {
	base := strings.TrimSuffix(filepath.Base(png), ".png")
	i := strings.LastIndex(base, "-")
	n, _ := strconv.Atoi(base[i+1:])
	return n
}
