package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/AngelCh415/wbdash/internal/config"
	"github.com/AngelCh415/wbdash/internal/models"
	"github.com/AngelCh415/wbdash/internal/telemetry"
)

// ErrBreakerOpen wraps ErrTransport so rejected calls take the snapshot path.
var ErrBreakerOpen = fmt.Errorf("%w: circuit open", ErrTransport)

// BreakerFetcher stops hitting the sheet endpoint after repeated failures
// and lets it recover after cfg.OpenTimeout.
type BreakerFetcher struct {
	next TableFetcher
	cb   *gobreaker.CircuitBreaker[models.RawTable]
}

func NewBreakerFetcher(next TableFetcher, cfg config.BreakerConfig, log zerolog.Logger) *BreakerFetcher {
	const name = "gviz"
	telemetry.BreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[models.RawTable](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		// una cancelación del llamador no dice nada de la salud del endpoint
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			telemetry.BreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})
	return &BreakerFetcher{next: next, cb: cb}
}

func (b *BreakerFetcher) FetchTable(ctx context.Context, sheetID, sheetName string) (models.RawTable, error) {
	t, err := b.cb.Execute(func() (models.RawTable, error) {
		return b.next.FetchTable(ctx, sheetID, sheetName)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return models.RawTable{}, fmt.Errorf("%w: %w", ErrBreakerOpen, err)
	}
	return t, err
}

func (b *BreakerFetcher) State() gobreaker.State { return b.cb.State() }

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
