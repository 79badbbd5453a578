package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/souviksenapati/TejastraX/internal/bootstrap"
	"github.com/souviksenapati/TejastraX/internal/cli"
	"github.com/souviksenapati/TejastraX/internal/config"
	"github.com/souviksenapati/TejastraX/internal/core/ports"
	"github.com/souviksenapati/TejastraX/internal/observability/logging"
)

const serviceName = "policyqa"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(logging.NewJSONLoggerTo(os.Stderr, serviceName, cfg.LogLevel))
	cfg.MetricsEnabled = false

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var app *bootstrap.App
	defer func() {
		if app != nil {
			app.Close()
		}
	}()

	offline := bootstrap.NewOffline(cfg)
	root := cli.NewRootCommand(cli.Deps{
		Answerer: func(ctx context.Context) (ports.DocumentQuestionAnswerer, error) {
			built, err := bootstrap.New(ctx, cfg, serviceName)
			if err != nil {
				return nil, err
			}
			app = built
			return built.Documents, nil
		},
		Extractor: offline.Extractor,
		Chunker:   offline.Chunker,
	})
	return root.ExecuteContext(ctx)
}
