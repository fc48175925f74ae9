package metrics

import (
	"math"
	"sort"

	"github.com/AngelCh415/wbdash/internal/models"
)

type dayBucket struct {
	spend, revenue, impressions, clicks float64
}

// Summarize computes the dashboard KPIs over recs.
func Summarize(recs []models.Record) models.Summary {
	var s models.Summary
	for _, r := range recs {
		s.Spend += r.Spend
		s.Revenue += r.OrderedRevenue
		s.Impressions += r.Impressions
		s.Clicks += r.Clicks
	}
	s.CTR = round2(safeDivF(s.Clicks*100, s.Impressions))
	s.ROAS = round2(safeDivF(s.Revenue, s.Spend))
	return s
}

// Daily buckets recs by calendar day. Days come out sorted ascending; spend
// and revenue are rounded to cents, clicks and impressions are raw sums.
func Daily(recs []models.Record) models.DailySeries {
	byDay := make(map[string]*dayBucket)
	for _, r := range recs {
		b, ok := byDay[r.Date]
		if !ok {
			b = &dayBucket{}
			byDay[r.Date] = b
		}
		b.spend += r.Spend
		b.revenue += r.OrderedRevenue
		b.impressions += r.Impressions
		b.clicks += r.Clicks
	}

	labels := make([]string, 0, len(byDay))
	for d := range byDay {
		labels = append(labels, d)
	}
	sort.Strings(labels)

	out := models.DailySeries{
		Labels:      labels,
		Spend:       make([]float64, len(labels)),
		Revenue:     make([]float64, len(labels)),
		Clicks:      make([]float64, len(labels)),
		Impressions: make([]float64, len(labels)),
		Points:      make([]models.Point, len(labels)),
	}
	for i, d := range labels {
		b := byDay[d]
		out.Spend[i] = round2(b.spend)
		out.Revenue[i] = round2(b.revenue)
		out.Clicks[i] = b.clicks
		out.Impressions[i] = b.impressions
		out.Points[i] = models.Point{X: out.Spend[i], Y: out.Revenue[i], Label: d}
	}
	return out
}

func safeDivF(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// round2 rounds half up to two decimals, matching the dashboard's Math.round.
func round2(f float64) float64 { return math.Floor(f*100+0.5) / 100 }
