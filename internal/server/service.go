// Package server exposes the document gate over gRPC. Messages are
// google.protobuf.Struct values so the service needs no generated stubs.
package server

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/docgate/internal/common"
	"github.com/joseph-ayodele/docgate/internal/export"
	"github.com/joseph-ayodele/docgate/internal/pipeline"
	"github.com/joseph-ayodele/docgate/internal/roots"
)

const ServiceName = "docgate.v1.DocumentGate"

// DocumentGateServer is the server API of docgate.v1.DocumentGate.
type DocumentGateServer interface {
	ListRoots(context.Context, *structpb.Struct) (*structpb.Struct, error)
	FindDocuments(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Convert(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Export(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// DocumentGateServiceDesc describes docgate.v1.DocumentGate for grpc.Server.
var DocumentGateServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DocumentGateServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListRoots", Handler: unaryHandler("ListRoots", DocumentGateServer.ListRoots)},
		{MethodName: "FindDocuments", Handler: unaryHandler("FindDocuments", DocumentGateServer.FindDocuments)},
		{MethodName: "Convert", Handler: unaryHandler("Convert", DocumentGateServer.Convert)},
		{MethodName: "Export", Handler: unaryHandler("Export", DocumentGateServer.Export)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "docgate/v1/gate.proto",
}

func RegisterDocumentGateServer(s grpc.ServiceRegistrar, srv DocumentGateServer) {
	s.RegisterService(&DocumentGateServiceDesc, srv)
}

type unaryMethod func(DocumentGateServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(DocumentGateServer), ctx, req.(*structpb.Struct))
		}
		if interceptor == nil {
			return handler(ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + method}
		return interceptor(ctx, in, info, handler)
	}
}

// GateService implements DocumentGateServer on top of the pipeline. The
// policy comes from the request context (see PolicyInterceptor).
type GateService struct {
	pipe   *pipeline.Pipeline
	export *export.Service
	logger *slog.Logger
}

func NewGateService(pipe *pipeline.Pipeline, exp *export.Service, logger *slog.Logger) *GateService {
	if logger == nil {
		logger = slog.Default()
	}
	return &GateService{pipe: pipe, export: exp, logger: logger}
}

func policyOf(ctx context.Context) (*roots.Policy, error) {
	p := roots.PolicyFromContext(ctx)
	if p == nil {
		return nil, status.Error(codes.FailedPrecondition, common.ErrNoRoots.Error())
	}
	return p, nil
}

// ListRoots returns {"roots": [...]}.
func (s *GateService) ListRoots(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	policy, err := policyOf(ctx)
	if err != nil {
		return nil, err
	}
	return structpb.NewStruct(map[string]any{"roots": toList(s.pipe.ListRoots(policy))})
}

// FindDocuments takes {"pattern"} and returns {"paths": [...]}.
func (s *GateService) FindDocuments(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	policy, err := policyOf(ctx)
	if err != nil {
		return nil, err
	}
	paths, err := s.pipe.FindDocuments(ctx, policy, stringField(req, "pattern"))
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return structpb.NewStruct(map[string]any{"paths": toList(paths)})
}

// Convert takes {"path", "format", "destination"?}. The response carries the
// rendered output, the final stage and, when saved, the destination.
func (s *GateService) Convert(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	policy, err := policyOf(ctx)
	if err != nil {
		return nil, err
	}
	path := strings.TrimSpace(stringField(req, "path"))
	if path == "" {
		return nil, common.InvalidArgumentError("path is required")
	}
	format := stringField(req, "format")
	if format == "" {
		format = "markdown"
	}
	res, err := s.pipe.Convert(ctx, policy, pipeline.Request{
		Path:        path,
		Format:      format,
		Destination: strings.TrimSpace(stringField(req, "destination")),
	})
	if err != nil {
		s.logger.Warn("convert failed", "request_id", common.RequestIDFromContext(ctx), "path", path, "error", err)
		if res != nil && errors.Is(err, common.ErrWrite) {
			return nil, withResult(common.ToStatus(err), res)
		}
		return nil, common.ToStatus(err)
	}
	return convertResponse(res)
}

// withResult attaches the converted document to a status error, so a caller
// whose save failed still gets the output.
func withResult(err error, res *pipeline.Result) error {
	resp, perr := convertResponse(res)
	if perr != nil {
		return err
	}
	st, serr := status.Convert(err).WithDetails(resp)
	if serr != nil {
		return err
	}
	return st.Err()
}

func convertResponse(res *pipeline.Result) (*structpb.Struct, error) {
	out := map[string]any{
		"request_id": res.RequestID,
		"format":     string(res.Format),
		"stage":      string(res.Stage),
		"output":     res.Output,
		"records":    len(res.Fields),
	}
	if res.Document != nil {
		out["source"] = res.Document.Path
		out["pages"] = len(res.Document.Pages)
	}
	if res.SavedTo != "" {
		out["saved_to"] = res.SavedTo
	}
	return structpb.NewStruct(out)
}

func stringField(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

func stringList(s *structpb.Struct, key string) []string {
	vals := s.GetFields()[key].GetListValue().GetValues()
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if str := strings.TrimSpace(v.GetStringValue()); str != "" {
			out = append(out, str)
		}
	}
	return out
}

func toList(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
