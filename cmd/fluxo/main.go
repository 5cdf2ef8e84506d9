package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fluxo/internal/cli"
	apphttp "fluxo/internal/http"
	"fluxo/internal/log"
	"fluxo/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg)

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("Invalid timezone", log.FieldError, err)
		os.Exit(1)
	}

	be := cli.InitBackend(context.Background(), logger, cfg)

	opts := services.DashboardOptions{
		WindowDays:     cfg.DashboardWindowDays,
		TopN:           cfg.TopCategories,
		DefaultLimit:   cfg.DefaultPageSize,
		FullFetchLimit: cfg.FullFetchLimit,
		Location:       loc,
	}
	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Dashboard: services.NewDashboardService(be.Source, opts, logger),
		Reports:   services.NewReportService(be.Source, opts, logger),
		Writer:    be.Writer,
		Ready:     be.Ready,
		Location:  loc,
	}, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := be.Close(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	logger.Info("Starting fluxo server",
		"port", cfg.Port,
		log.FieldBackend, cfg.DataBackend,
		"read_only", be.Writer == nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
