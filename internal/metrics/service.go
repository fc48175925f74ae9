package metrics

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/AngelCh415/wbdash/internal/charts"
	"github.com/AngelCh415/wbdash/internal/models"
	"github.com/AngelCh415/wbdash/internal/store"
	"github.com/AngelCh415/wbdash/internal/telemetry"
)

// Notifier is told when the filtered view changes.
type Notifier interface {
	Notify(kind string, data any)
}

// Service owns the dashboard state and keeps the charts in step with it.
type Service struct {
	st     *store.MemoryStore
	charts *charts.Registry
	locale string
	log    zerolog.Logger
	notify Notifier
}

func NewService(st *store.MemoryStore, reg *charts.Registry, locale string, log zerolog.Logger) *Service {
	return &Service{st: st, charts: reg, locale: locale, log: log}
}

func (s *Service) SetNotifier(n Notifier) { s.notify = n }

// Replace installs a freshly loaded record set with default criteria.
func (s *Service) Replace(recs []models.Record, src models.Source) {
	s.st.Replace(recs, src)
	filtered := s.st.Filtered()
	telemetry.Records.WithLabelValues("all").Set(float64(len(recs)))
	s.redraw(filtered)
}

// ApplyFilter replaces the criteria and returns the resulting dashboard. When
// a reload wins the race the filter is dropped and nothing is redrawn.
func (s *Service) ApplyFilter(c models.Criteria) models.Dashboard {
	filtered, ok := s.st.SetCriteria(c)
	if !ok {
		// la recarga ya redibujó con sus propios criterios
		return s.Dashboard()
	}
	s.redraw(filtered)
	d := s.Dashboard()
	if s.notify != nil {
		s.notify.Notify(models.EventFilterApplied, d.Criteria)
	}
	return d
}

func (s *Service) Dashboard() models.Dashboard {
	filtered := s.st.Filtered()
	sum := Summarize(filtered)
	return models.Dashboard{
		Criteria:  s.st.Criteria(),
		Selectors: s.st.Selectors(),
		Summary:   sum,
		KPIs:      charts.FormatSummary(sum, s.locale),
		Series:    Daily(filtered),
		Source:    s.st.Source(),
		Filtered:  len(filtered),
	}
}

func (s *Service) Selectors() models.Selectors { return s.st.Selectors() }

func (s *Service) Source() models.Source { return s.st.Source() }

func (s *Service) Loaded() bool { return s.st.Loaded() }

// Records pages through the filtered set. Out-of-range limit and offset are
// clamped, and the page reports the clamped values.
func (s *Service) Records(limit, offset int) models.RecordsPage {
	all := s.st.Filtered()
	limit, offset = clampLimitOffset(limit, offset, len(all))
	return models.RecordsPage{
		Total:  len(all),
		Limit:  limit,
		Offset: offset,
		Items:  paginate(all, limit, offset),
	}
}

func (s *Service) Chart(kind charts.Kind) (charts.Rendering, bool) {
	return s.charts.Get(kind)
}

func (s *Service) redraw(filtered []models.Record) {
	telemetry.Records.WithLabelValues("filtered").Set(float64(len(filtered)))
	if err := s.charts.ReplaceAll(Daily(filtered)); err != nil && !errors.Is(err, charts.ErrNoData) {
		s.log.Error().Err(err).Msg("chart redraw failed")
	}
}

func paginate[T any](rows []T, limit, offset int) []T {
	if offset >= len(rows) {
		return []T{}
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}

func clampLimitOffset(limit, offset, n int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = n
	}
	if limit > 1000 {
		limit = 1000
	} // tope sano
	if offset > n {
		offset = n
	}
	return limit, offset
}
