package ingest

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/AngelCh415/wbdash/internal/models"
	"github.com/AngelCh415/wbdash/internal/normalize"
	"github.com/AngelCh415/wbdash/internal/snapshot"
	"github.com/AngelCh415/wbdash/internal/telemetry"
)

type TableFetcher interface {
	FetchTable(ctx context.Context, sheetID, sheetName string) (models.RawTable, error)
}

// Fetcher reads a published Google Sheets tab through the GViz query endpoint.
type Fetcher struct {
	c       HTTPClient
	baseURL string
	cache   snapshot.Store
	log     zerolog.Logger
	now     func() time.Time
}

func NewFetcher(c HTTPClient, baseURL string, cache snapshot.Store, log zerolog.Logger) *Fetcher {
	return &Fetcher{
		c:       c,
		baseURL: strings.TrimRight(baseURL, "/"),
		cache:   cache,
		log:     log,
		now:     time.Now,
	}
}

type gvizResponse struct {
	Status string      `json:"status"`
	Errors []gvizError `json:"errors"`
	Table  *gvizTable  `json:"table"`
}

type gvizError struct {
	Reason          string `json:"reason"`
	Message         string `json:"message"`
	DetailedMessage string `json:"detailed_message"`
}

type gvizTable struct {
	Cols []struct {
		ID    string `json:"id"`
		Label string `json:"label"`
		Type  string `json:"type"`
	} `json:"cols"`
	Rows []struct {
		C []*struct {
			V any `json:"v"`
		} `json:"c"`
	} `json:"rows"`
}

func (f *Fetcher) URL(sheetID, sheetName string) string {
	return fmt.Sprintf("%s/%s/gviz/tq?sheet=%s&tqx=out:json",
		f.baseURL, url.PathEscape(sheetID), url.QueryEscape(sheetName))
}

// FetchTable makes one request, no retries. A valid table is written to the
// snapshot cache before it is returned.
func (f *Fetcher) FetchTable(ctx context.Context, sheetID, sheetName string) (models.RawTable, error) {
	body, err := getBody(ctx, f.c, f.URL(sheetID, sheetName))
	if err != nil {
		return models.RawTable{}, err
	}

	t, err := parseGViz(body)
	if err != nil {
		return models.RawTable{}, err
	}
	if err := normalize.Validate(t); err != nil {
		return models.RawTable{}, err
	}

	snap := models.Snapshot{
		TS:        f.now().UnixMilli(),
		Rows:      t.Rows,
		Cols:      t.Cols,
		SheetID:   sheetID,
		SheetName: sheetName,
	}
	if err := f.cache.Put(ctx, snap); err != nil {
		telemetry.SnapshotWrites.WithLabelValues("error").Inc()
		f.log.Warn().Err(err).Str("sheet_id", sheetID).Msg("snapshot write failed")
	} else {
		telemetry.SnapshotWrites.WithLabelValues("ok").Inc()
	}
	return t, nil
}

// parseGViz decodes the JSON object embedded in a GViz response body.
func parseGViz(body []byte) (models.RawTable, error) {
	raw, err := extractJSON(body)
	if err != nil {
		return models.RawTable{}, err
	}

	var resp gvizResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return models.RawTable{}, fmt.Errorf("%w: decode: %v snippet=%q", ErrParse, err, snippet(raw))
	}
	if len(resp.Errors) > 0 {
		e := resp.Errors[0]
		msg := e.Message
		if msg == "" {
			msg = e.Reason
		}
		return models.RawTable{}, &RemoteError{Message: msg, Detailed: e.DetailedMessage}
	}
	if resp.Status == "error" {
		return models.RawTable{}, &RemoteError{Message: "status error"}
	}
	if resp.Table == nil {
		return models.RawTable{}, fmt.Errorf("%w: response has no table", ErrParse)
	}

	cols := make([]string, len(resp.Table.Cols))
	for i, c := range resp.Table.Cols {
		cols[i] = c.Label
		if cols[i] == "" {
			cols[i] = c.ID
		}
	}

	rows := make([][]any, len(resp.Table.Rows))
	for i, r := range resp.Table.Rows {
		row := make([]any, len(cols))
		for j := range cols {
			row[j] = ""
			if j < len(r.C) && r.C[j] != nil && r.C[j].V != nil {
				row[j] = r.C[j].V
			}
		}
		rows[i] = row
	}
	return models.RawTable{Cols: cols, Rows: rows}, nil
}

// extractJSON returns the span from the first '{' to the last '}'. GViz wraps
// its payload in a JS callback, e.g.
//
//	/*O_o*/
//	google.visualization.Query.setResponse({...});
func extractJSON(body []byte) ([]byte, error) {
	start := bytes.IndexByte(body, '{')
	end := bytes.LastIndexByte(body, '}')
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: no JSON object in response snippet=%q", ErrParse, snippet(body))
	}
	return body[start : end+1], nil
}

func snippet(b []byte) string {
	if len(b) > 256 {
		return string(b[:256])
	}
	return string(b)
}
