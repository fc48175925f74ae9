package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/AngelCh415/wbdash/internal/config"
	"github.com/AngelCh415/wbdash/internal/models"
	"github.com/AngelCh415/wbdash/internal/normalize"
	"github.com/AngelCh415/wbdash/internal/snapshot"
	"github.com/AngelCh415/wbdash/internal/telemetry"
)

// Sink receives every freshly loaded record set.
type Sink interface {
	Replace(recs []models.Record, src models.Source)
}

// Notifier is told about completed loads; live clients hang off it.
type Notifier interface {
	Notify(kind string, data any)
}

// ETL runs a load: fetch the sheet, fall back to the snapshot when the fetch
// fails, normalize, and hand the records to the sink. Only one load runs at a
// time.
type ETL struct {
	f      TableFetcher
	cache  snapshot.Store
	sink   Sink
	log    zerolog.Logger
	cfg    config.SheetsConfig
	notify Notifier

	mu sync.Mutex
}

func NewETL(f TableFetcher, cache snapshot.Store, sink Sink, log zerolog.Logger, cfg config.SheetsConfig) *ETL {
	return &ETL{f: f, cache: cache, sink: sink, log: log, cfg: cfg}
}

// SetNotifier must be called before the first Run.
func (e *ETL) SetNotifier(n Notifier) { e.notify = n }

// Run loads sheetName of sheetID. Blank arguments fall back to the configured
// defaults. On success the returned source says whether the data came from
// the snapshot cache. On failure the sink is left untouched.
func (e *ETL) Run(ctx context.Context, sheetID, sheetName string) (models.Source, error) {
	sheetID = coalesce(sheetID, e.cfg.SheetID)
	if sheetID == "" {
		return models.Source{}, ErrNoSheetID
	}
	sheetName = coalesce(sheetName, coalesce(e.cfg.SheetName, config.DefaultSheetName))

	if !e.mu.TryLock() {
		return models.Source{}, ErrLoadInProgress
	}
	defer e.mu.Unlock()

	log := e.log.With().Str("sheet_id", sheetID).Str("sheet_name", sheetName).Logger()

	start := time.Now()
	t, err := e.f.FetchTable(ctx, sheetID, sheetName)
	telemetry.FetchDuration.Observe(time.Since(start).Seconds())

	src := models.Source{SheetID: sheetID, SheetName: sheetName, FetchedAt: time.Now().UTC()}
	if err != nil {
		telemetry.FetchErrors.WithLabelValues(errorKind(err)).Inc()
		snap, ok := e.cache.Get(ctx)
		if !ok {
			telemetry.Loads.WithLabelValues("failed").Inc()
			log.Error().Err(err).Msg("fetch failed and no snapshot to fall back to")
			return models.Source{}, errors.Join(ErrCacheMiss, err)
		}
		log.Warn().Err(err).Time("snapshot_ts", snap.CapturedAt()).Msg("fetch failed, using cached snapshot")
		t = snap.Table()
		src = models.Source{
			SheetID:   snap.SheetID,
			SheetName: snap.SheetName,
			FromCache: true,
			FetchedAt: snap.CapturedAt(),
		}
	}

	recs, err := normalize.Records(t)
	if err != nil {
		telemetry.Loads.WithLabelValues("failed").Inc()
		log.Error().Err(err).Bool("from_cache", src.FromCache).Msg("normalize failed")
		return models.Source{}, fmt.Errorf("normalize: %w", err)
	}
	src.Records = len(recs)
	e.sink.Replace(recs, src)

	outcome := "network"
	if src.FromCache {
		outcome = "cache"
	}
	telemetry.Loads.WithLabelValues(outcome).Inc()
	log.Info().Int("records", len(recs)).Bool("from_cache", src.FromCache).Msg("load complete")

	if e.notify != nil {
		e.notify.Notify(models.EventDatasetLoaded, src)
	}
	return src, nil
}

func coalesce(s, def string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return strings.TrimSpace(def)
	}
	return s
}
