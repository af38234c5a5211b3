package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"changeflow/api/internal/app"
	"changeflow/api/internal/assistant"
	"changeflow/api/internal/config"
	"changeflow/api/internal/sentiment"
	"changeflow/api/internal/session"
	"changeflow/api/internal/store"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "changeflow-api").Logger()

	var dataStore app.DataStore
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		db, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("database connection failed")
		}
		defer db.Close()

		if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
			log.Fatal().Err(err).Msg("migrations failed")
		}
		log.Info().Msg("using PostgreSQL storage")
		dataStore = store.NewPostgresStore(db)
	} else {
		log.Info().Str("path", cfg.DataFile).Msg("using JSON file storage")
		dataStore = store.NewFileStore(cfg.DataFile)
	}

	analyzerCfg := sentiment.DefaultConfig()
	analyzerCfg.Delay = cfg.AnalysisDelay
	analyzerCfg.FailureRate = cfg.AnalysisFailureRate
	analyzer := sentiment.NewAnalyzer(analyzerCfg)

	service := app.NewService(cfg, dataStore, analyzer, assistant.NewScripted(), log)

	if strings.TrimSpace(cfg.RedisURL) != "" {
		redisStore, err := session.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("redis connection failed")
		}
		defer redisStore.Close()
		log.Info().Msg("using Redis for token revocation")
		service.SetRevocationStore(redisStore)
	}

	if err := service.Bootstrap(ctx); err != nil {
		log.Warn().Err(err).Msg("bootstrap seeding failed, will retry on next restart")
	}

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin, log)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("ChangeFlow API listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
}
