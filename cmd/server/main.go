// Package main is the entry point for the madfolio server: a MAD
// (mean absolute deviation) portfolio optimization service that derives
// asset statistics from historical returns, sweeps the efficient frontier
// with a linear-programming solver, and serves the results over HTTP.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"madfolio/internal/config"
	"madfolio/internal/database"
	"madfolio/internal/modules/datasource"
	"madfolio/internal/modules/frontier"
	"madfolio/internal/modules/runs"
	"madfolio/internal/scheduler"
	"madfolio/internal/server"
	"madfolio/internal/services"
	"madfolio/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})

	log.Info().Msg("Starting madfolio")

	db, err := database.New(database.Config{
		Path: cfg.DatabasePath(),
		Name: "results",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open results database")
	}
	defer db.Close()

	repo, err := runs.NewRepository(db, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize runs repository")
	}

	// Without a CSV path the server runs on generated data, so it is usable
	// out of the box.
	var source datasource.Source
	if cfg.DataPath != "" {
		source = &datasource.CSVSource{Path: cfg.DataPath, LabelColumn: cfg.LabelColumn}
		log.Info().Str("path", cfg.DataPath).Msg("Using CSV returns source")
	} else {
		source = &datasource.SyntheticSource{Seed: 42, Periods: 24}
		log.Warn().Msg("MADFOLIO_DATA_PATH not set, using synthetic returns")
	}

	svc := services.NewFrontierService(source, repo, services.Config{
		Spec: frontier.SweepSpec{
			Min:     cfg.MuMin,
			Max:     cfg.MuMax,
			Points:  cfg.MuPoints,
			Spacing: frontier.Spacing(cfg.MuSpacing),
		},
		Workers:      cfg.Workers,
		SnapshotPath: cfg.SnapshotPath(),
		KeepRuns:     100,
	}, log)

	srv := server.New(server.Config{
		Port:    cfg.Port,
		Log:     log,
		Service: svc,
		Runs:    repo,
		DevMode: cfg.DevMode,
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	sched := scheduler.New(log)
	if cfg.RefreshSchedule != "" {
		job := scheduler.NewRefreshJob(svc, 10*time.Minute, log)
		if err := sched.AddJob(cfg.RefreshSchedule, job); err != nil {
			log.Fatal().Err(err).Str("schedule", cfg.RefreshSchedule).Msg("Invalid refresh schedule")
		}
		sched.Start()
		defer sched.Stop()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
