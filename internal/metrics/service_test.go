package metrics

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/AngelCh415/wbdash/internal/charts"
	"github.com/AngelCh415/wbdash/internal/models"
	"github.com/AngelCh415/wbdash/internal/store"
)

type notes struct{ kinds []string }

func (n *notes) Notify(kind string, _ any) { n.kinds = append(n.kinds, kind) }

func newService() (*Service, *notes) {
	svc := NewService(store.NewMemoryStore(), charts.NewRegistry(charts.NewPNGRenderer()), "en-US", zerolog.Nop())
	n := &notes{}
	svc.SetNotifier(n)
	return svc, n
}

func mixed() []models.Record {
	return []models.Record{
		{ProductID: "1", TrafficSource: "search", Date: "2024-01-01", Spend: 100, OrderedRevenue: 200, Impressions: 1000, Clicks: 50},
		{ProductID: "1", TrafficSource: "catalog", Date: "2024-01-02", Spend: 50, OrderedRevenue: 50, Impressions: 500, Clicks: 10},
		{ProductID: "2", TrafficSource: "search", Date: "2024-01-03", Spend: 1000, OrderedRevenue: 4000, Impressions: 9000, Clicks: 300},
	}
}

func TestServiceReplaceDrawsDefaultView(t *testing.T) {
	svc, _ := newService()
	if svc.Loaded() {
		t.Fatal("fresh service must not be loaded")
	}
	svc.Replace(mixed(), models.Source{SheetID: "abc"})

	d := svc.Dashboard()
	if d.Filtered != 3 || d.Criteria.From != "2024-01-01" || d.Criteria.To != "2024-01-03" {
		t.Fatalf("default view: %+v", d.Criteria)
	}
	if d.Summary.Spend != 1150 || d.KPIs.Spend != "1,150" {
		t.Fatalf("summary %+v kpis %+v", d.Summary, d.KPIs)
	}
	if d.Source.Records != 3 || d.Source.SheetID != "abc" {
		t.Fatalf("source: %+v", d.Source)
	}
	for _, k := range charts.Kinds {
		if _, ok := svc.Chart(k); !ok {
			t.Fatalf("chart %s not drawn", k)
		}
	}
}

func TestServiceApplyFilter(t *testing.T) {
	svc, n := newService()
	svc.Replace(mixed(), models.Source{})

	d := svc.ApplyFilter(models.Criteria{ProductID: "1", From: "2024-01-01", To: "2024-01-02"})
	if d.Filtered != 2 || d.Summary.CTR != 4.0 || d.Summary.ROAS != 1.67 {
		t.Fatalf("filtered dashboard: %+v", d.Summary)
	}
	if d.KPIs.CTR != "4.00" || d.KPIs.ROAS != "1.67" {
		t.Fatalf("kpis: %+v", d.KPIs)
	}
	if len(d.Series.Labels) != 2 {
		t.Fatalf("series: %+v", d.Series)
	}
	if len(n.kinds) != 1 || n.kinds[0] != models.EventFilterApplied {
		t.Fatalf("notifications: %v", n.kinds)
	}

	// nothing matches: charts are cleared, dashboard is zeroed
	d = svc.ApplyFilter(models.Criteria{ProductID: "nope"})
	if d.Filtered != 0 || d.Summary.CTR != 0 || d.Summary.ROAS != 0 {
		t.Fatalf("empty view: %+v", d)
	}
	if _, ok := svc.Chart(charts.SpendRevenue); ok {
		t.Fatal("chart should be cleared for an empty view")
	}

	// a reload resets the criteria
	svc.Replace(mixed(), models.Source{})
	if c := svc.Dashboard().Criteria; c.ProductID != "" {
		t.Fatalf("criteria not reset: %+v", c)
	}
}

func TestServiceChartsSingleDay(t *testing.T) {
	svc, _ := newService()
	svc.Replace(mixed(), models.Source{})

	d := svc.ApplyFilter(models.Criteria{From: "2024-01-02", To: "2024-01-02"})
	if d.Filtered != 1 || len(d.Series.Labels) != 1 {
		t.Fatalf("single day view: %+v", d.Series.Labels)
	}
	for _, k := range charts.Kinds {
		if _, ok := svc.Chart(k); !ok {
			t.Fatalf("chart %s missing for a single day", k)
		}
	}
}

func TestServiceRecordsPaging(t *testing.T) {
	svc, _ := newService()
	svc.Replace(mixed(), models.Source{})

	p := svc.Records(2, 0)
	if p.Total != 3 || len(p.Items) != 2 {
		t.Fatalf("page 1: %d of %d", len(p.Items), p.Total)
	}
	p = svc.Records(2, 2)
	if len(p.Items) != 1 || p.Items[0].ProductID != "2" {
		t.Fatalf("page 2: %+v", p.Items)
	}
	p = svc.Records(0, 10)
	if len(p.Items) != 0 || p.Offset != 3 {
		t.Fatalf("past the end: %+v", p)
	}
	p = svc.Records(-1, -1)
	if len(p.Items) != 3 || p.Limit != 3 || p.Offset != 0 {
		t.Fatalf("defaults: %+v", p)
	}
	p = svc.Records(5000, 0)
	if p.Limit != 1000 {
		t.Fatalf("limit not clamped: %d", p.Limit)
	}
}

func TestClampLimitOffset(t *testing.T) {
	cases := []struct{ limit, offset, n, wantL, wantO int }{
		{0, 0, 10, 10, 0},
		{5000, 0, 10, 1000, 0},
		{5, -3, 10, 5, 0},
		{5, 20, 10, 5, 10},
	}
	for _, c := range cases {
		l, o := clampLimitOffset(c.limit, c.offset, c.n)
		if l != c.wantL || o != c.wantO {
			t.Errorf("clamp(%d,%d,%d) = %d,%d want %d,%d", c.limit, c.offset, c.n, l, o, c.wantL, c.wantO)
		}
	}
}
