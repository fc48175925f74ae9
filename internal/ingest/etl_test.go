package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/AngelCh415/wbdash/internal/config"
	"github.com/AngelCh415/wbdash/internal/models"
)

func sheetsCfg(id string) config.SheetsConfig {
	return config.SheetsConfig{SheetID: id, SheetName: config.DefaultSheetName}
}

func TestRunLoadsFromNetwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(validBody()))
	}))
	defer srv.Close()

	cache := memCache()
	defer cache.Close()
	sink := &captureSink{}
	note := &captureNotifier{}
	f := NewFetcher(NewHTTPClient(2*time.Second), srv.URL, cache, zerolog.Nop())
	etl := NewETL(f, cache, sink, zerolog.Nop(), sheetsCfg("abc"))
	etl.SetNotifier(note)

	src, err := etl.Run(context.Background(), "", "")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if src.FromCache || src.SheetID != "abc" || src.SheetName != config.DefaultSheetName || src.Records != 2 {
		t.Fatalf("source: %+v", src)
	}
	if len(sink.recs) != 2 || sink.recs[0].Date != "2024-01-01" || sink.recs[0].ProductID != "111" {
		t.Fatalf("records: %+v", sink.recs)
	}
	if !reflect.DeepEqual(note.kinds, []string{models.EventDatasetLoaded}) {
		t.Fatalf("notifications: %v", note.kinds)
	}
}

func TestRunFallsBackToSnapshot(t *testing.T) {
	var down atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if down.Load() {
			http.Error(w, "down", http.StatusBadGateway)
			return
		}
		w.Write([]byte(validBody()))
	}))
	defer srv.Close()

	cache := memCache()
	defer cache.Close()
	sink := &captureSink{}
	f := NewFetcher(NewHTTPClient(2*time.Second), srv.URL, cache, zerolog.Nop())
	etl := NewETL(f, cache, sink, zerolog.Nop(), sheetsCfg("abc"))

	first, err := etl.Run(context.Background(), "", "")
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	snap, _ := cache.Get(context.Background())

	down.Store(true)
	second, err := etl.Run(context.Background(), "", "")
	if err != nil {
		t.Fatalf("second run should fall back: %v", err)
	}
	if !second.FromCache || second.Records != first.Records {
		t.Fatalf("source: %+v", second)
	}
	if !second.FetchedAt.Equal(snap.CapturedAt()) {
		t.Fatalf("fetched_at %v, want snapshot time %v", second.FetchedAt, snap.CapturedAt())
	}

	// la caída no reescribe el snapshot
	after, _ := cache.Get(context.Background())
	if !reflect.DeepEqual(after, snap) {
		t.Fatalf("snapshot changed on failed fetch")
	}
	if sink.n != 2 || len(sink.recs) != 2 {
		t.Fatalf("sink saw %d loads, %d records", sink.n, len(sink.recs))
	}
}

func TestRunCacheMiss(t *testing.T) {
	cache := memCache()
	defer cache.Close()
	sink := &captureSink{}
	f := &stubFetcher{err: ErrTransport}
	etl := NewETL(f, cache, sink, zerolog.Nop(), sheetsCfg("abc"))

	_, err := etl.Run(context.Background(), "", "")
	if !errors.Is(err, ErrCacheMiss) || !errors.Is(err, ErrTransport) {
		t.Fatalf("expected cache miss wrapping the fetch error, got %v", err)
	}
	if sink.n != 0 {
		t.Fatal("sink must not be touched on failure")
	}
}

func TestRunRequiresSheetID(t *testing.T) {
	cache := memCache()
	defer cache.Close()
	f := &stubFetcher{}
	etl := NewETL(f, cache, &captureSink{}, zerolog.Nop(), sheetsCfg(""))

	if _, err := etl.Run(context.Background(), "  ", ""); !errors.Is(err, ErrNoSheetID) {
		t.Fatalf("expected ErrNoSheetID, got %v", err)
	}
	if f.calls != 0 {
		t.Fatal("fetcher must not be called without a sheet id")
	}
}

func TestRunExplicitArgumentsWin(t *testing.T) {
	var gotPath, gotSheet string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotSheet = r.URL.Path, r.URL.Query().Get("sheet")
		w.Write([]byte(validBody()))
	}))
	defer srv.Close()

	cache := memCache()
	defer cache.Close()
	f := NewFetcher(NewHTTPClient(2*time.Second), srv.URL, cache, zerolog.Nop())
	etl := NewETL(f, cache, &captureSink{}, zerolog.Nop(), sheetsCfg("default"))

	src, err := etl.Run(context.Background(), "other", "Tab 2")
	if err != nil {
		t.Fatal(err)
	}
	if gotPath != "/other/gviz/tq" || gotSheet != "Tab 2" || src.SheetID != "other" {
		t.Fatalf("path=%s sheet=%s src=%+v", gotPath, gotSheet, src)
	}
}

func TestRunRejectsConcurrentLoad(t *testing.T) {
	cache := memCache()
	defer cache.Close()
	tb := models.RawTable{Cols: models.RequiredColumns, Rows: [][]any{headerRow(), dataRow("2024-01-01", 1, 1, 1, 1)}}
	f := &stubFetcher{table: tb, block: make(chan struct{})}
	etl := NewETL(f, cache, &captureSink{}, zerolog.Nop(), sheetsCfg("abc"))

	done := make(chan error, 1)
	go func() {
		_, err := etl.Run(context.Background(), "", "")
		done <- err
	}()

	deadline := time.Now().Add(2 * time.Second)
	for {
		f.mu.Lock()
		n := f.calls
		f.mu.Unlock()
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("first load never reached the fetcher")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if _, err := etl.Run(context.Background(), "", ""); !errors.Is(err, ErrLoadInProgress) {
		t.Fatalf("expected ErrLoadInProgress, got %v", err)
	}
	close(f.block)
	if err := <-done; err != nil {
		t.Fatalf("first load: %v", err)
	}
}

func TestRefresherStopsWithoutInterval(t *testing.T) {
	cache := memCache()
	defer cache.Close()
	tb := models.RawTable{Cols: models.RequiredColumns, Rows: [][]any{headerRow(), dataRow("2024-01-01", 1, 1, 1, 1)}}
	sink := &captureSink{}
	etl := NewETL(&stubFetcher{table: tb}, cache, sink, zerolog.Nop(), sheetsCfg("abc"))

	r := NewRefresher(etl, 0, zerolog.Nop())
	if err := r.Serve(context.Background()); !errors.Is(err, suture.ErrDoNotRestart) {
		t.Fatalf("expected ErrDoNotRestart, got %v", err)
	}
	if sink.n != 1 {
		t.Fatalf("expected one load, got %d", sink.n)
	}
}

func TestRefresherReloadsOnTick(t *testing.T) {
	cache := memCache()
	defer cache.Close()
	tb := models.RawTable{Cols: models.RequiredColumns, Rows: [][]any{headerRow(), dataRow("2024-01-01", 1, 1, 1, 1)}}
	f := &stubFetcher{table: tb}
	etl := NewETL(f, cache, &captureSink{}, zerolog.Nop(), sheetsCfg("abc"))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	r := NewRefresher(etl, 20*time.Millisecond, zerolog.Nop())
	if err := r.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline, got %v", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls < 3 {
		t.Fatalf("expected several loads, got %d", f.calls)
	}
}
