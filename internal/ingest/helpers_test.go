package ingest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/goccy/go-json"

	"github.com/AngelCh415/wbdash/internal/models"
	"github.com/AngelCh415/wbdash/internal/snapshot"
)

// gvizBody builds a response the way the published-sheet endpoint wraps it.
func gvizBody(cols []string, rows [][]any) string {
	type cell struct {
		V any `json:"v"`
	}
	type row struct {
		C []*cell `json:"c"`
	}
	type col struct {
		ID    string `json:"id"`
		Label string `json:"label"`
		Type  string `json:"type"`
	}
	payload := struct {
		Version string `json:"version"`
		Status  string `json:"status"`
		Table   struct {
			Cols []col `json:"cols"`
			Rows []row `json:"rows"`
		} `json:"table"`
	}{Version: "0.6", Status: "ok"}

	for i, c := range cols {
		payload.Table.Cols = append(payload.Table.Cols, col{ID: string(rune('A' + i)), Label: c, Type: "string"})
	}
	for _, r := range rows {
		var rr row
		for _, v := range r {
			if v == nil {
				rr.C = append(rr.C, nil)
				continue
			}
			rr.C = append(rr.C, &cell{V: v})
		}
		payload.Table.Rows = append(payload.Table.Rows, rr)
	}
	b, _ := json.Marshal(payload)
	return "/*O_o*/\ngoogle.visualization.Query.setResponse(" + string(b) + ");"
}

func headerRow() []any {
	out := make([]any, len(models.RequiredColumns))
	for i, c := range models.RequiredColumns {
		out[i] = c
	}
	return out
}

func dataRow(day string, spend, revenue, impressions, clicks float64) []any {
	return []any{"C-1", "search", float64(111), "Кружка", day, impressions, clicks, "5", spend, float64(1), float64(1), revenue}
}

func validBody() string {
	return gvizBody(models.RequiredColumns, [][]any{
		headerRow(),
		dataRow("2024-01-01", 100, 200, 1000, 50),
		dataRow("2024-01-02", 50, 50, 500, 10),
	})
}

func without(cols []string, drop string) []string {
	var out []string
	for _, c := range cols {
		if c != drop {
			out = append(out, c)
		}
	}
	return out
}

func memCache() snapshot.Store {
	s, err := snapshot.OpenBadgerInMemory()
	if err != nil {
		panic(fmt.Sprintf("open cache: %v", err))
	}
	return s
}

type stubFetcher struct {
	mu    sync.Mutex
	calls int
	table models.RawTable
	err   error
	block chan struct{}
}

func (s *stubFetcher) FetchTable(ctx context.Context, sheetID, sheetName string) (models.RawTable, error) {
	s.mu.Lock()
	s.calls++
	block := s.block
	s.mu.Unlock()
	if block != nil {
		<-block
	}
	return s.table, s.err
}

type captureSink struct {
	mu   sync.Mutex
	recs []models.Record
	src  models.Source
	n    int
}

func (c *captureSink) Replace(recs []models.Record, src models.Source) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recs, c.src = recs, src
	c.n++
}

type captureNotifier struct {
	kinds []string
}

func (c *captureNotifier) Notify(kind string, _ any) { c.kinds = append(c.kinds, kind) }

func contains(s, sub string) bool { return strings.Contains(s, sub) }
