package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/AngelCh415/wbdash/internal/charts"
	"github.com/AngelCh415/wbdash/internal/config"
	"github.com/AngelCh415/wbdash/internal/httpx"
	"github.com/AngelCh415/wbdash/internal/ingest"
	"github.com/AngelCh415/wbdash/internal/live"
	"github.com/AngelCh415/wbdash/internal/logging"
	"github.com/AngelCh415/wbdash/internal/metrics"
	"github.com/AngelCh415/wbdash/internal/snapshot"
	"github.com/AngelCh415/wbdash/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logging.New(logging.Config{})
		boot.Fatal().Err(err).Msg("config")
	}

	logger := logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	cache, err := snapshot.Open(cfg.Cache)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Cache.Driver).Msg("open snapshot cache")
	}
	defer func() {
		if err := cache.Close(); err != nil {
			logger.Warn().Err(err).Msg("close snapshot cache")
		}
	}()

	cl := ingest.NewHTTPClient(cfg.Sheets.HTTPTimeout)
	var fetcher ingest.TableFetcher = ingest.NewFetcher(cl, cfg.Sheets.BaseURL, cache, logger)
	if cfg.Breaker.Enabled {
		fetcher = ingest.NewBreakerFetcher(fetcher, cfg.Breaker, logger)
	}

	st := store.NewMemoryStore()
	mSvc := metrics.NewService(st, charts.NewRegistry(charts.NewPNGRenderer()), cfg.Locale, logger)
	etl := ingest.NewETL(fetcher, cache, mSvc, logger, cfg.Sheets)

	hub := live.NewHub(cfg.API.CORSAllowedOrigins, logger)
	etl.SetNotifier(hub)
	mSvc.SetNotifier(hub)

	r := httpx.NewRouter(logger, cfg.API, etl, mSvc, hub.ServeWS)
	srv := httpx.NewServer(":"+cfg.Server.Port, r, cfg.Server.ReadHeaderTimeout, cfg.Server.ShutdownTimeout, logger)

	sup := suture.New("wbdash", suture.Spec{
		EventHook:      eventHook(logger),
		FailureBackoff: 15 * time.Second,
		Timeout:        cfg.Server.ShutdownTimeout,
	})
	sup.Add(hub)
	sup.Add(srv)
	sup.Add(ingest.NewRefresher(etl, cfg.Sheets.RefreshInterval, logger))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := sup.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("supervisor stopped")
		cache.Close()
		os.Exit(1)
	}
	logger.Info().Msg("shutdown complete")
}

func eventHook(log zerolog.Logger) suture.EventHook {
	return func(e suture.Event) {
		ev := log.Warn()
		if e.Type() == suture.EventTypeResume {
			ev = log.Info()
		}
		ev.Fields(e.Map()).Msg(e.String())
	}
}
