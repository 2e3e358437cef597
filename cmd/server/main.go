package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/crewworks/backend/internal/clock"
	"github.com/crewworks/backend/internal/config"
	"github.com/crewworks/backend/internal/db"
	httpapi "github.com/crewworks/backend/internal/http"
	"github.com/crewworks/backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "crewworks-backend").Logger()

	bounds, err := dayBounds(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid work-day bounds")
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Fatal().Err(err).Str("timezone", cfg.Timezone).Msg("invalid timezone")
	}

	ctx := context.Background()
	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect db")
	}
	defer store.Close()

	sessions := service.NewSessionService(store, bounds, loc, time.Now, logger)
	reports := &service.ReportService{Store: store, Loc: loc, Logger: logger}

	router := httpapi.Router(cfg, store, sessions, reports, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}

func dayBounds(cfg config.Config) (clock.DayBounds, error) {
	start, err := clock.Parse(cfg.WorkdayStart)
	if err != nil {
		return clock.DayBounds{}, err
	}
	end, err := clock.Parse(cfg.WorkdayEnd)
	if err != nil {
		return clock.DayBounds{}, err
	}
	return clock.DayBounds{Start: start, End: end}, nil
}
