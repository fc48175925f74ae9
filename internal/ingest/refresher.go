package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"
)

// Refresher loads the configured sheet once at startup and then every
// interval. With a zero interval it stops after the first load.
type Refresher struct {
	etl   *ETL
	every time.Duration
	log   zerolog.Logger
}

func NewRefresher(etl *ETL, every time.Duration, log zerolog.Logger) *Refresher {
	return &Refresher{etl: etl, every: every, log: log}
}

// Serve implements suture.Service.
func (r *Refresher) Serve(ctx context.Context) error {
	r.load(ctx)
	if r.every <= 0 {
		return suture.ErrDoNotRestart
	}

	t := time.NewTicker(r.every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			r.load(ctx)
		}
	}
}

func (r *Refresher) String() string { return "refresher" }

func (r *Refresher) load(ctx context.Context) {
	_, err := r.etl.Run(ctx, "", "")
	switch {
	case err == nil:
	case errors.Is(err, ErrNoSheetID):
		r.log.Info().Msg("no default sheet configured, waiting for an explicit load")
	case errors.Is(err, ErrLoadInProgress):
		r.log.Debug().Msg("load already running, skipping tick")
	default:
		r.log.Warn().Err(err).Msg("scheduled load failed")
	}
}
