// Package app wires configuration into the gate, the pipeline and the
// optional audit log. Both binaries start from here.
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/docgate/internal/async"
	"github.com/joseph-ayodele/docgate/internal/common"
	"github.com/joseph-ayodele/docgate/internal/export"
	"github.com/joseph-ayodele/docgate/internal/extract"
	"github.com/joseph-ayodele/docgate/internal/ocr"
	"github.com/joseph-ayodele/docgate/internal/pipeline"
	"github.com/joseph-ayodele/docgate/internal/repository"
	"github.com/joseph-ayodele/docgate/internal/roots"
)

type App struct {
	Config   *common.Config
	Policy   *roots.Store
	Pipeline *pipeline.Pipeline
	Export   *export.Service
	Audit    repository.GateEventRepository // nil when audit.dsn is empty

	db     *repository.DB
	logger *slog.Logger
}

// Option overrides a collaborator, mostly for tests.
type Option func(*options)

type options struct {
	runner ocr.Runner
}

// WithRunner replaces the exec runner used for tesseract and poppler.
func WithRunner(r ocr.Runner) Option {
	return func(o *options) { o.runner = r }
}

// New validates cfg, builds the root policy and wires the pipeline. When no
// roots are configured the platform defaults are used.
func New(ctx context.Context, cfg *common.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var o options
	for _, fn := range opts {
		fn(&o)
	}

	candidates := cfg.Roots
	if len(candidates) == 0 {
		candidates = roots.DefaultRoots()
		logger.Info("no roots configured, using defaults", "roots", candidates)
	}
	policy, err := roots.NewPolicy(candidates, logger)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Policy: roots.NewStore(policy), logger: logger}

	popts := []pipeline.Option{pipeline.WithTimeout(cfg.Pipeline.Timeout)}
	if cfg.Audit.DSN != "" {
		if err := a.openAudit(ctx); err != nil {
			return nil, err
		}
		popts = append(popts, pipeline.WithRecorder(a.Audit))
	}

	engine := ocr.NewEngine(ocr.Config{
		Pdftotext:     cfg.OCR.Pdftotext,
		Pdftoppm:      cfg.OCR.Pdftoppm,
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.Lang,
		DPI:           cfg.OCR.DPI,
		MaxPages:      cfg.OCR.MaxPages,
		TessdataDir:   cfg.OCR.TessdataDir,
		HeicConverter: cfg.OCR.HeicConverter,
		PSM:           cfg.OCR.PSM,
		OEM:           cfg.OCR.OEM,
	}, o.runner, logger)
	registry := extract.NewDefaultRegistry(engine, extract.Options{
		MaxFileSize:    cfg.Pipeline.MaxFileSize,
		PDFOCRFallback: cfg.OCR.PDFOCRFallback,
		TSVConfidence:  cfg.OCR.TSVConfidence,
		Binarize:       cfg.OCR.Binarize,
	}, logger)

	a.Pipeline = pipeline.New(registry, logger, popts...)
	a.Export = export.NewService(a.Pipeline, cfg.Batch.Workers, logger)
	return a, nil
}

func (a *App) openAudit(ctx context.Context) error {
	db, err := repository.Open(ctx, repository.Config{
		DSN:             a.Config.Audit.DSN,
		MaxConns:        10,
		MaxConnLifetime: 30 * time.Minute,
		DialTimeout:     3 * time.Second,
	}, a.logger)
	if err != nil {
		a.logger.Error("failed to open audit database", "error", err)
		return err
	}
	if err := repository.HealthCheck(ctx, db, 5*time.Second, a.logger); err != nil {
		a.logger.Error("failed to ping audit database", "error", err)
		db.Close(a.logger)
		return err
	}
	a.db = db
	a.Audit = repository.NewGateEventRepository(db, a.logger)
	return nil
}

// Queue starts a conversion worker pool sized from the batch config.
func (a *App) Queue() *async.ConversionQueue {
	return async.NewConversionQueue(a.Pipeline, a.logger,
		async.WithWorkers(a.Config.Batch.Workers),
		async.WithQueueSize(a.Config.Batch.QueueSize),
		async.WithProcessTimeout(a.Config.Batch.Timeout),
	)
}

func (a *App) Close() {
	if a.db != nil {
		a.db.Close(a.logger)
	}
}
