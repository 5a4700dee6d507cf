package server

import (
	"context"
	"strings"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/docgate/internal/common"
)

// Export takes {"paths": [...] | "pattern", "destination"} and writes an XLSX
// workbook of the documents' fields inside the roots.
func (s *GateService) Export(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	policy, err := policyOf(ctx)
	if err != nil {
		return nil, err
	}
	if s.export == nil {
		return nil, common.InternalError("export is not configured")
	}
	dest := strings.TrimSpace(stringField(req, "destination"))
	if dest == "" {
		return nil, common.InvalidArgumentError("destination is required")
	}

	paths := stringList(req, "paths")
	if len(paths) == 0 {
		pattern := strings.TrimSpace(stringField(req, "pattern"))
		if pattern == "" {
			return nil, common.InvalidArgumentError("paths or pattern is required")
		}
		if paths, err = s.pipe.FindDocuments(ctx, policy, pattern); err != nil {
			return nil, common.ToStatus(err)
		}
	}

	sum, err := s.export.Export(ctx, policy, paths, dest)
	if err != nil {
		s.logger.Error("export.xlsx.failed", "destination", dest, "err", err)
		return nil, common.ToStatus(err)
	}
	return structpb.NewStruct(map[string]any{
		"saved_to":   sum.SavedTo,
		"documents":  sum.Documents,
		"fields":     sum.Fields,
		"line_items": sum.LineItems,
		"failures":   sum.Failures,
	})
}
