package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/net/netutil"

	httpadapter "github.com/souviksenapati/TejastraX/internal/adapters/http"
	"github.com/souviksenapati/TejastraX/internal/bootstrap"
	"github.com/souviksenapati/TejastraX/internal/config"
	"github.com/souviksenapati/TejastraX/internal/observability/logging"
	"github.com/souviksenapati/TejastraX/internal/observability/metrics"
)

const serviceName = "api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_load_failed", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.NewJSONLogger(serviceName, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, serviceName)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	var records httpadapter.RecordReader
	if app.Registry != nil {
		records = app.Registry
	}
	router, err := httpadapter.NewRouter(cfg, app.Documents, records, app.HTTPMetrics)
	if err != nil {
		slog.Error("router_init_failed", "error", err)
		os.Exit(1)
	}

	if app.Bus != nil {
		var registerer prometheus.Registerer = prometheus.NewRegistry()
		if app.HTTPMetrics != nil {
			registerer = app.HTTPMetrics.Registry()
		}
		prefetchMetrics := metrics.NewPrefetchMetrics(registerer, serviceName)
		go func() {
			err := app.Bus.SubscribePrefetch(ctx, func(ctx context.Context, documentURL string) error {
				started := time.Now()
				prefetchMetrics.Start()
				err := app.Documents.Prefetch(ctx, documentURL)
				prefetchMetrics.Finish(time.Since(started), err)
				return err
			})
			if err != nil {
				slog.Error("prefetch_subscription_failed", "error", err)
			}
		}()
	}

	requestTimeout := time.Duration(cfg.APIRequestTimeoutS) * time.Second
	server := &http.Server{
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      requestTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	listener, err := net.Listen("tcp", ":"+cfg.APIPort)
	if err != nil {
		slog.Error("api_listen_failed", "port", cfg.APIPort, "error", err)
		os.Exit(1)
	}
	if cfg.APIMaxConnections > 0 {
		listener = netutil.LimitListener(listener, cfg.APIMaxConnections)
	}

	go func() {
		slog.Info("api_listening", "port", cfg.APIPort, "max_connections", cfg.APIMaxConnections)
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("api_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("api_shutdown_failed", "error", err)
	}
}
