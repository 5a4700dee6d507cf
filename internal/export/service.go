package export

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/docgate/constants"
	"github.com/joseph-ayodele/docgate/internal/common"
	"github.com/joseph-ayodele/docgate/internal/fields"
	"github.com/joseph-ayodele/docgate/internal/pipeline"
	"github.com/joseph-ayodele/docgate/internal/roots"
)

const (
	sheetFields    = "Fields"
	sheetLineItems = "Line Items"
	sheetErrors    = "Errors"
)

// Converter is the part of *pipeline.Pipeline the export needs.
type Converter interface {
	Convert(ctx context.Context, policy *roots.Policy, req pipeline.Request) (*pipeline.Result, error)
}

// Summary counts what went into a workbook.
type Summary struct {
	Documents int
	Fields    int
	LineItems int
	Failures  int
	SavedTo   string
}

// Service converts a batch of documents and tabulates their field records in
// an XLSX workbook.
type Service struct {
	conv    Converter
	workers int
	logger  *slog.Logger
}

func NewService(conv Converter, workers int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if workers <= 0 {
		workers = 4
	}
	return &Service{conv: conv, workers: workers, logger: logger}
}

type outcome struct {
	path string
	res  *pipeline.Result
	err  error
}

// Export writes the workbook for paths to dest, which must be an .xlsx path
// inside the policy's roots. Documents that fail to convert are listed on the
// Errors sheet and do not fail the export.
func (s *Service) Export(ctx context.Context, policy *roots.Policy, paths []string, dest string) (*Summary, error) {
	if ext := strings.ToLower(filepath.Ext(dest)); ext != ".xlsx" {
		return nil, &common.UnsupportedFormatError{Value: ext, What: "export format", Supported: []string{".xlsx"}}
	}
	if policy == nil {
		return nil, common.ErrNoRoots
	}
	resolved, err := policy.Authorize(dest)
	if err != nil {
		return nil, err
	}
	if err := roots.RequireWritable(dest, resolved); err != nil {
		return nil, err
	}

	data, sum, err := s.Workbook(ctx, policy, paths)
	if err != nil {
		return nil, err
	}
	if err := pipeline.WriteAtomic(resolved, data); err != nil {
		return nil, &common.WriteError{Path: resolved, Cause: err}
	}
	sum.SavedTo = resolved
	return sum, nil
}

// Workbook converts paths with bounded concurrency and returns the XLSX bytes.
func (s *Service) Workbook(ctx context.Context, policy *roots.Policy, paths []string) ([]byte, *Summary, error) {
	start := time.Now()
	results := make([]outcome, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, p := range paths {
		g.Go(func() error {
			res, err := s.conv.Convert(gctx, policy, pipeline.Request{Path: p, Format: string(constants.FormatJSON)})
			results[i] = outcome{path: p, res: res, err: err}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	data, sum, err := buildWorkbook(results)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info("export.xlsx.ok",
		"documents", sum.Documents,
		"fields", sum.Fields,
		"line_items", sum.LineItems,
		"failures", sum.Failures,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return data, sum, nil
}

func buildWorkbook(results []outcome) ([]byte, *Summary, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetFields); err != nil {
		return nil, nil, err
	}
	for _, name := range []string{sheetLineItems, sheetErrors} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, nil, err
		}
	}
	idx, _ := f.GetSheetIndex(sheetFields)
	f.SetActiveSheet(idx)

	rows := map[string]int{sheetFields: 1, sheetLineItems: 1, sheetErrors: 1}
	write := func(sheet string, values ...any) error {
		cell, err := excelize.CoordinatesToCellName(1, rows[sheet])
		if err != nil {
			return err
		}
		rows[sheet]++
		return f.SetSheetRow(sheet, cell, &values)
	}

	if err := write(sheetFields, "Source", "Field", "Value"); err != nil {
		return nil, nil, err
	}
	if err := write(sheetLineItems, "Source", "Description", "Quantity", "Unit Price", "Amount"); err != nil {
		return nil, nil, err
	}
	if err := write(sheetErrors, "Source", "Error"); err != nil {
		return nil, nil, err
	}

	sum := &Summary{}
	for _, o := range results {
		if o.err != nil {
			sum.Failures++
			if err := write(sheetErrors, o.path, o.err.Error()); err != nil {
				return nil, nil, err
			}
			continue
		}
		sum.Documents++
		source := o.path
		if o.res.Document != nil && o.res.Document.Path != "" {
			source = o.res.Document.Path
		}
		for _, r := range o.res.Fields {
			var err error
			if r.Type == fields.KindLineItem {
				sum.LineItems++
				err = write(sheetLineItems, source, r.Description, r.Quantity, r.Price, r.Amount)
			} else {
				sum.Fields++
				err = write(sheetFields, source, r.Key, r.Value)
			}
			if err != nil {
				return nil, nil, err
			}
		}
	}

	_ = f.SetColWidth(sheetFields, "A", "A", 60)
	_ = f.SetColWidth(sheetFields, "B", "B", 24)
	_ = f.SetColWidth(sheetFields, "C", "C", 40)
	_ = f.SetColWidth(sheetLineItems, "A", "A", 60)
	_ = f.SetColWidth(sheetLineItems, "B", "B", 40)
	_ = f.SetColWidth(sheetLineItems, "C", "E", 14)
	_ = f.SetColWidth(sheetErrors, "A", "A", 60)
	_ = f.SetColWidth(sheetErrors, "B", "B", 80)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), sum, nil
}
