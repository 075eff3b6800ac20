package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"

	"xdao.co/jcommit/cidutil"
	"xdao.co/jcommit/commitsvc"
	"xdao.co/jcommit/config"
	"xdao.co/jcommit/pipeline"

	_ "xdao.co/jcommit/suite/bn254"
	_ "xdao.co/jcommit/suite/p256"
	_ "xdao.co/jcommit/suite/ristretto255"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, errOut io.Writer) int {
	fs := flag.NewFlagSet("jcommitd", flag.ContinueOnError)
	fs.SetOutput(errOut)
	configPath := fs.String("config", "", "Config file (JSON or YAML)")
	listen := fs.String("listen", "", "gRPC listen address (overrides config)")
	metricsListen := fs.String("metrics-listen", "", "Prometheus /metrics address (overrides config, \"off\" disables)")
	storeDir := fs.String("store-dir", "", "localfs record store directory (added to configured backends)")
	format := fs.String("format", "json", "Document format accepted by Commit: json or yaml")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadFile(*configPath); err != nil {
			fmt.Fprintln(errOut, err)
			return 2
		}
	}
	if *listen != "" {
		cfg.Server.Listen = *listen
	}
	if *metricsListen != "" {
		cfg.Server.MetricsListen = *metricsListen
	}
	if *storeDir != "" {
		cfg.Store.Backends = append(cfg.Store.Backends, config.BackendConfig{Name: config.BackendLocalFS, Dir: *storeDir})
	}
	cfg.KeepTable = true
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	docFormat, err := pipeline.ParseFormat(*format)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}

	logger := cfg.NewLogger(errOut)
	slog.SetDefault(logger)

	p, err := newPipeline(cfg, logger)
	if err != nil {
		logger.Error("setup failed", "err", err)
		return 1
	}

	lis, err := net.Listen("tcp", cfg.Server.Listen)
	if err != nil {
		logger.Error("listen failed", "addr", cfg.Server.Listen, "err", err)
		return 1
	}
	defer lis.Close()

	var serverOpts []grpc.ServerOption
	if cfg.Server.MaxDocBytes > 0 {
		serverOpts = append(serverOpts, grpc.MaxRecvMsgSize(cfg.Server.MaxDocBytes+1024))
	}
	gs := grpc.NewServer(serverOpts...)
	commitsvc.RegisterCommitmentsServer(gs, &commitsvc.Server{
		Pipeline:    p,
		Format:      docFormat,
		MaxDocBytes: cfg.Server.MaxDocBytes,
		Logger:      logger,
	})

	var metrics *http.Server
	if cfg.Server.MetricsListen != "" && cfg.Server.MetricsListen != "off" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metrics = &http.Server{Addr: cfg.Server.MetricsListen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "err", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		gs.GracefulStop()
		if metrics != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metrics.Shutdown(shutdownCtx)
		}
	}()

	logger.Info("jcommitd listening",
		"addr", lis.Addr().String(),
		"suite", p.Committer.Suite().Name(),
		"store", p.Store != nil,
		"metrics", cfg.Server.MetricsListen,
	)
	if err := gs.Serve(lis); err != nil {
		logger.Error("serve failed", "err", err)
		return 1
	}
	return 0
}

func newPipeline(cfg config.Config, logger *slog.Logger) (*pipeline.Pipeline, error) {
	committer, err := cfg.Committer(logger)
	if err != nil {
		return nil, err
	}
	h, err := cidutil.ParseHash(cfg.Store.Hash)
	if err != nil {
		return nil, err
	}
	p := &pipeline.Pipeline{Committer: committer, Hash: h, Logger: logger}
	store, ok, err := cfg.OpenStore()
	if err != nil {
		return nil, err
	}
	if ok {
		p.Store = &store
	}
	return p, nil
}
