// Command docgated serves the document gate over gRPC.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joseph-ayodele/docgate/internal/app"
	"github.com/joseph-ayodele/docgate/internal/common"
	"github.com/joseph-ayodele/docgate/internal/roots"
	"github.com/joseph-ayodele/docgate/internal/server"
)

func main() {
	cfgFile := flag.String("config", "", "config file")
	flag.Parse()
	_ = godotenv.Load()

	v, err := common.NewViper(*cfgFile)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(2)
	}
	cfg := common.LoadConfig(v)
	logger := common.NewLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}

	svc := server.NewGateService(a.Pipeline, a.Export, logger)
	grpcServer, hs := server.NewGRPCServer(svc, a.Policy, logger)

	// SIGHUP re-reads the config and swaps in the new root set
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for range hup {
			reloadRoots(*cfgFile, a.Policy, logger)
		}
	}()

	logger.Info("docgated listening", "addr", cfg.Server.GRPCAddr, "roots", a.Policy.Load().Roots())
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC serve error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	grpcServer.GracefulStop()
}

func reloadRoots(cfgFile string, store *roots.Store, logger *slog.Logger) {
	v, err := common.NewViper(cfgFile)
	if err != nil {
		logger.Error("reload: failed to read config", "error", err)
		return
	}
	candidates := common.LoadConfig(v).Roots
	if len(candidates) == 0 {
		candidates = roots.DefaultRoots()
	}
	p, err := roots.NewPolicy(candidates, logger)
	if err != nil {
		logger.Error("reload: keeping current roots", "error", err)
		return
	}
	store.Replace(p)
	logger.Info("roots reloaded", "roots", p.Roots())
}
