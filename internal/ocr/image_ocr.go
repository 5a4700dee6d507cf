package ocr

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Tesseract runs OCR on an image file and returns the raw recognised text.
func (e *Engine) Tesseract(ctx context.Context, path string) (string, []string, error) {
	// tesseract <file> stdout -l <lang> --oem 3 --psm 6
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, e.logger, e.tesseractArgs(path)...)
	if err != nil {
		return "", nonEmpty(string(errb)), fmt.Errorf("tesseract: %w", err)
	}
	return string(out), nil, nil
}

// TSVConfidence runs tesseract in TSV mode and returns mean word conf in 0..1.
func (e *Engine) TSVConfidence(ctx context.Context, path string) (float32, []string, error) {
	args := append(e.tesseractArgs(path), "tsv")
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, e.logger, args...)
	if err != nil {
		return 0, nonEmpty(string(errb)), fmt.Errorf("tesseract TSV: %w", err)
	}
	return meanTSVConfidence(string(out)), nil, nil
}

func (e *Engine) tesseractArgs(path string) []string {
	args := []string{path, "stdout", "-l", e.cfg.TesseractLang,
		"--oem", strconv.Itoa(e.cfg.OEM),
		"--psm", strconv.Itoa(e.cfg.PSM),
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	return args
}

// meanTSVConfidence averages the conf column of tesseract TSV output,
// skipping the header and non-word rows (-1).
func meanTSVConfidence(tsv string) float32 {
	var sum, n float64
	for i, ln := range strings.Split(tsv, "\n") {
		if i == 0 || len(ln) == 0 {
			continue
		}
		cols := strings.Split(ln, "\t")
		if len(cols) < 12 {
			continue
		}
		confStr := cols[10] // level page block par line word left top width height conf text
		if confStr == "" || confStr == "-1" {
			continue
		}
		if v, err := strconv.ParseFloat(confStr, 64); err == nil && v >= 0 {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float32(sum / n / 100.0)
}

func nonEmpty(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return []string{truncate(s, 1<<10)}
}
