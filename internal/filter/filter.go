package filter

import (
	"github.com/samber/lo"

	"github.com/AngelCh415/wbdash/internal/models"
)

// Apply returns the records matching c, in input order. Empty criteria match
// everything. While a date bound is set, records without a readable date are
// dropped regardless of which bound is open.
func Apply(recs []models.Record, c models.Criteria) []models.Record {
	out := make([]models.Record, 0, len(recs))
	for _, r := range recs {
		if Match(r, c) {
			out = append(out, r)
		}
	}
	return out
}

func Match(r models.Record, c models.Criteria) bool {
	if c.ProductID != "" && r.ProductID != c.ProductID {
		return false
	}
	if c.TrafficSource != "" && r.TrafficSource != c.TrafficSource {
		return false
	}
	if c.From == "" && c.To == "" {
		return true
	}
	if r.Date == "" {
		return false
	}
	// ISO con ceros a la izquierda: orden lexicográfico == cronológico
	if c.From != "" && r.Date < c.From {
		return false
	}
	if c.To != "" && r.Date > c.To {
		return false
	}
	return true
}

// Selectors collects the distinct product ids and traffic sources in order of
// first appearance, plus the date range covered by recs.
func Selectors(recs []models.Record) models.Selectors {
	products := lo.Uniq(lo.FilterMap(recs, func(r models.Record, _ int) (string, bool) {
		return r.ProductID, r.ProductID != ""
	}))
	sources := lo.Uniq(lo.FilterMap(recs, func(r models.Record, _ int) (string, bool) {
		return r.TrafficSource, r.TrafficSource != ""
	}))

	sel := models.Selectors{ProductIDs: products, TrafficSources: sources}
	for _, r := range recs {
		if r.Date == "" {
			continue
		}
		if sel.MinDate == "" || r.Date < sel.MinDate {
			sel.MinDate = r.Date
		}
		if r.Date > sel.MaxDate {
			sel.MaxDate = r.Date
		}
	}
	return sel
}

// DefaultCriteria is what the dashboard shows right after a load: every
// product and source over the whole date range.
func DefaultCriteria(sel models.Selectors) models.Criteria {
	return models.Criteria{From: sel.MinDate, To: sel.MaxDate}
}
