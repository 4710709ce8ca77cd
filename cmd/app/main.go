package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/local/pagebinder/internal/assemble"
	"github.com/local/pagebinder/internal/collection"
	cfgpkg "github.com/local/pagebinder/internal/config"
	logpkg "github.com/local/pagebinder/internal/logger"
	"github.com/local/pagebinder/internal/metrics"
	"github.com/local/pagebinder/internal/pagefit"
	"github.com/local/pagebinder/internal/server"
	"github.com/local/pagebinder/internal/session"
	"github.com/local/pagebinder/internal/statuscheck"
	"github.com/local/pagebinder/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg := cfgpkg.FromEnv()

	_ = logpkg.Init(logpkg.Options{
		Level:        cfg.Logging.Level,
		Pretty:       cfg.Logging.Pretty,
		File:         cfg.Logging.File,
		MaxSizeMB:    cfg.Logging.MaxSizeMB,
		MaxBackups:   cfg.Logging.MaxBackups,
		MaxAgeDays:   cfg.Logging.MaxAgeDays,
		Compress:     cfg.Logging.Compress,
		SendToAxiom:  cfg.Axiom.Send && cfg.Axiom.APIKey != "",
		AxiomAPIKey:  cfg.Axiom.APIKey,
		AxiomOrgID:   cfg.Axiom.OrgID,
		AxiomDataset: cfg.Axiom.Dataset,
		AxiomFlush:   cfg.Axiom.FlushInterval,
	})
	defer logpkg.Close()

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	geom, err := pagefit.NewGeometry(cfg.Page.WidthInches, cfg.Page.HeightInches, cfg.Page.MarginInches, cfg.Page.DPI)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid page geometry")
	}
	mode, err := pagefit.ParseMode(cfg.Export.FitMode)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid fit mode")
	}
	asm, err := assemble.New(assemble.Config{
		Geometry: geom,
		Mode:     mode,
		Options: pagefit.Options{
			PreserveAspect: cfg.Export.PreserveAspect,
			AllowUpscale:   cfg.Export.AllowUpscale,
		},
		JPEGQuality: cfg.Export.JPEGQuality,
		WorkDir:     cfg.Export.WorkDir,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("invalid export configuration")
	}

	// Status store: Redis when configured, in-memory otherwise.
	var status store.StatusStore
	var pinger statuscheck.RedisPinger
	if cfg.Store.RedisURL != "" {
		rs, err := store.NewRedisStatus(cfg.Store.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to init redis status store")
		}
		defer rs.Close()
		status = rs
		pinger = rs
	} else {
		status = store.NewMemoryStatus()
	}

	onDone := func(jobID string, result assemble.Result, err error) {
		if err != nil {
			log.Error().Str("job_id", jobID).Err(err).Msg("export finished with failure")
			return
		}
		log.Info().Str("job_id", jobID).Str("dest", result.Destination).
			Int("pages", result.Pages).Msg("export finished")
	}

	sess := session.New(collection.MultiSelect, asm, status, onDone)

	ready := statuscheck.New(statuscheck.Options{
		Redis:    pinger,
		S3Bucket: cfg.Export.S3Bucket,
		WorkDir:  cfg.Export.WorkDir,
	})

	mux := http.NewServeMux()
	api := server.New(server.Config{
		Username:             cfg.Server.Username,
		PasswordHash:         cfg.Server.PasswordHash,
		ThumbnailMaxEdge:     cfg.Server.ThumbnailMaxEdge,
		ThumbnailConcurrency: cfg.Server.ThumbnailConcurrency,
	}, sess, status, ready)
	api.RegisterRoutes(mux)
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{Addr: ":" + cfg.Server.Port, Handler: mux}

	go func() {
		log.Info().Msgf("HTTP server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
}
