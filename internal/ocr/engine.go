package ocr

import (
	"log/slog"
)

// Config names the external tools and their tuning.
type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	DPI           int    // rasterization DPI for scanned PDFs, default 300
	MaxPages      int    // OCR at most this many leading PDF pages, 0 = no limit

	TessdataDir   string
	HeicConverter string // heif-convert | magick | sips

	PSM int // page segmentation mode, default 6 (uniform block of text)
	OEM int // engine mode, default 3 (whatever is available)
}

// Engine drives the command line OCR and PDF tools through a Runner.
type Engine struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

// NewEngine applies defaults to cfg. A nil runner means ExecRunner.
func NewEngine(cfg Config, runner Runner, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.PSM <= 0 {
		cfg.PSM = 6
	}
	if cfg.OEM <= 0 {
		cfg.OEM = 3
	}
	if cfg.HeicConverter == "" {
		cfg.HeicConverter = "magick"
	}
	return &Engine{cfg: cfg, runner: runner, logger: logger}
}
