package charts

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/AngelCh415/wbdash/internal/models"
)

// PNGRenderer draws charts with go-chart.
type PNGRenderer struct {
	Width  int
	Height int
}

func NewPNGRenderer() *PNGRenderer { return &PNGRenderer{Width: 960, Height: 420} }

func (p *PNGRenderer) Render(kind Kind, s models.DailySeries) (Rendering, error) {
	if len(s.Labels) == 0 {
		return Rendering{}, ErrNoData
	}

	var ch chart.Chart
	switch kind {
	case SpendRevenue:
		ch = p.spendRevenue(s)
	case ClicksImpressions:
		ch = p.clicksImpressions(s)
	case Correlation:
		ch = p.correlation(s)
	default:
		return Rendering{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	ch.Width, ch.Height = p.Width, p.Height
	ch.Background = chart.Style{Padding: chart.Box{Top: 24, Left: 16, Right: 16, Bottom: 16}}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return Rendering{}, err
	}
	return Rendering{Kind: kind, PNG: buf.Bytes(), Points: len(s.Labels)}, nil
}

func (p *PNGRenderer) spendRevenue(s models.DailySeries) chart.Chart {
	return chart.Chart{
		Title: "Затраты и выручка по дням",
		XAxis: dayAxis(s.Labels),
		YAxis: chart.YAxis{Name: "₽", Range: upTo(s.Spend, s.Revenue)},
		Series: []chart.Series{
			daySeries("Затраты, ₽", s.Spend, chart.ColorRed, chart.YAxisPrimary),
			daySeries("Выручка, ₽", s.Revenue, chart.ColorGreen, chart.YAxisPrimary),
		},
	}
}

// clicksImpressions puts clicks on the left axis and impressions on the
// right one; they differ by orders of magnitude. go-chart bar charts have a
// single axis, so both are drawn as lines.
func (p *PNGRenderer) clicksImpressions(s models.DailySeries) chart.Chart {
	return chart.Chart{
		Title:          "Клики и показы",
		XAxis:          dayAxis(s.Labels),
		YAxis:          chart.YAxis{Name: "Клики", Range: upTo(s.Clicks)},
		YAxisSecondary: chart.YAxis{Name: "Показы", Range: upTo(s.Impressions)},
		Series: []chart.Series{
			daySeries("Клики", s.Clicks, chart.ColorBlue, chart.YAxisPrimary),
			daySeries("Показы", s.Impressions, chart.ColorOrange, chart.YAxisSecondary),
		},
	}
}

func (p *PNGRenderer) correlation(s models.DailySeries) chart.Chart {
	xs := make([]float64, len(s.Points))
	ys := make([]float64, len(s.Points))
	for i, pt := range s.Points {
		xs[i], ys[i] = pt.X, pt.Y
	}
	return chart.Chart{
		Title: "Затраты vs выручка",
		XAxis: chart.XAxis{Name: "Затраты, ₽", Range: upTo(xs)},
		YAxis: chart.YAxis{Name: "Выручка, ₽", Range: upTo(ys)},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Дни",
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeWidth: chart.Disabled,
					DotWidth:    5,
					DotColor:    chart.ColorBlue,
				},
			},
		},
	}
}

// daySeries plots ys over the day indexes. go-chart needs two values per
// series, so a single day is drawn as a short flat segment around its tick.
func daySeries(name string, ys []float64, c drawing.Color, axis chart.YAxisType) chart.ContinuousSeries {
	xs := make([]float64, len(ys))
	for i := range xs {
		xs[i] = float64(i)
	}
	st := chart.Style{StrokeColor: c, StrokeWidth: 2}
	if len(ys) == 1 {
		xs = []float64{-0.01, 0.01}
		ys = []float64{ys[0], ys[0]}
		st.DotWidth, st.DotColor = 4, c
	}
	return chart.ContinuousSeries{Name: name, XValues: xs, YValues: ys, YAxis: axis, Style: st}
}

// dayAxis labels the index positions with their day. go-chart takes the x
// range from the tick values when ticks are set, so blank ticks at both edges
// keep the range non-empty for a single day.
func dayAxis(labels []string) chart.XAxis {
	n := float64(len(labels))
	ticks := make([]chart.Tick, 0, len(labels)+2)
	ticks = append(ticks, chart.Tick{Value: -0.5})
	for i, l := range labels {
		if l == "" {
			l = "без даты"
		}
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: l})
	}
	ticks = append(ticks, chart.Tick{Value: n - 0.5})
	return chart.XAxis{
		Range: &chart.ContinuousRange{Min: -0.5, Max: n - 0.5},
		Ticks: ticks,
	}
}

// upTo returns a range from zero (or the smallest negative value) to a bit
// above the largest value in vals.
func upTo(vals ...[]float64) *chart.ContinuousRange {
	lo, hi := 0.0, 0.0
	for _, vs := range vals {
		for _, v := range vs {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	if hi == lo {
		hi = lo + 1
	}
	return &chart.ContinuousRange{Min: lo, Max: hi + (hi-lo)*0.1}
}
