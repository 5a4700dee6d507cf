package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// ConvertHEIC converts a HEIC/HEIF file to a temporary PNG using the configured
// converter (heif-convert | magick | sips).
//
// Returns (outPath, warnings, cleanup, err). cleanup is never nil.
func (e *Engine) ConvertHEIC(ctx context.Context, in string) (string, []string, func(), error) {
	tmpDir, err := os.MkdirTemp("", "docgate-heic-*")
	if err != nil {
		return "", nil, func() {}, err
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }
	out := filepath.Join(tmpDir, "page.png")

	var errb []byte
	switch e.cfg.HeicConverter {
	case "heif-convert":
		_, errb, err = e.runner.Run(ctx, "heif-convert", e.logger, in, out)
	case "magick":
		_, errb, err = e.runner.Run(ctx, "magick", e.logger, in, out)
	case "sips":
		_, errb, err = e.runner.Run(ctx, "sips", e.logger, "-s", "format", "png", in, "--out", out)
	default:
		return "", nil, cleanup, fmt.Errorf("HEIC not supported: set ocr.heic_converter to one of: heif-convert | magick | sips")
	}
	if err != nil {
		return "", nonEmpty(string(errb)), cleanup, fmt.Errorf("%s convert failed: %w", e.cfg.HeicConverter, err)
	}

	if _, statErr := os.Stat(out); statErr != nil {
		return "", nil, cleanup, fmt.Errorf("HEIC conversion produced no output: %v", statErr)
	}
	e.logger.Debug("converted heic to png", "in", in, "out", out)
	return out, nil, cleanup, nil
}
