package server

import (
	"context"
	"log/slog"
	"path"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/docgate/internal/common"
	"github.com/joseph-ayodele/docgate/internal/roots"
)

// RequestIDHeader lets a caller pick the request id used in logs and audit events.
const RequestIDHeader = "x-request-id"

// PolicyInterceptor attaches the store's current policy, a request id and the
// operation name to every call, and maps returned errors onto gRPC codes.
func PolicyInterceptor(store *roots.Store, logger *slog.Logger) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if ids := md.Get(RequestIDHeader); len(ids) > 0 && ids[0] != "" {
				ctx = common.WithRequestID(ctx, ids[0])
			}
		}
		ctx, reqID := common.EnsureRequestID(ctx)
		ctx = common.WithOperation(ctx, operationName(info.FullMethod))
		ctx = roots.WithPolicy(ctx, store.Load())

		start := time.Now()
		resp, err := handler(ctx, req)
		if err != nil {
			logger.Warn("rpc failed", "method", info.FullMethod, "request_id", reqID, "error", err)
			return nil, common.ToStatus(err)
		}
		logger.Debug("rpc ok", "method", info.FullMethod, "request_id", reqID, "elapsed_ms", time.Since(start).Milliseconds())
		return resp, nil
	}
}

// operationName turns "/docgate.v1.DocumentGate/FindDocuments" into "find_documents".
func operationName(fullMethod string) string {
	m := path.Base(fullMethod)
	out := make([]byte, 0, len(m)+4)
	for i := 0; i < len(m); i++ {
		c := m[i]
		if c >= 'A' && c <= 'Z' {
			if i > 0 {
				out = append(out, '_')
			}
			c += 'a' - 'A'
		}
		out = append(out, c)
	}
	return string(out)
}

// NewGRPCServer registers the gate, the health service and reflection. The
// health status starts as SERVING.
func NewGRPCServer(svc DocumentGateServer, store *roots.Store, logger *slog.Logger, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	opts = append(opts, grpc.ChainUnaryInterceptor(PolicyInterceptor(store, logger)))
	gs := grpc.NewServer(opts...)
	RegisterDocumentGateServer(gs, svc)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	reflection.Register(gs)
	return gs, hs
}
