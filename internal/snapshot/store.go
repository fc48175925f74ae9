// Package snapshot keeps the last successfully fetched sheet so the dashboard
// can still show data when the remote endpoint is unreachable. There is a
// single slot: every Put overwrites it.
package snapshot

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/AngelCh415/wbdash/internal/config"
	"github.com/AngelCh415/wbdash/internal/models"
)

// Key is the slot every backend stores the snapshot under.
const Key = "wb_cache"

type Store interface {
	Put(ctx context.Context, s models.Snapshot) error
	// Get returns false when nothing usable is stored. Unreadable data counts
	// as nothing stored.
	Get(ctx context.Context) (models.Snapshot, bool)
	Close() error
}

// Open returns the backend selected by cfg.Driver.
func Open(cfg config.CacheConfig) (Store, error) {
	switch cfg.Driver {
	case "badger", "":
		return OpenBadger(cfg.Path)
	case "memory":
		return OpenBadgerInMemory()
	case "sqlite":
		return OpenSQLite(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}

func encode(s models.Snapshot) ([]byte, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return b, nil
}

func decode(b []byte) (models.Snapshot, bool) {
	var s models.Snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return models.Snapshot{}, false
	}
	if s.Rows == nil || s.Cols == nil {
		return models.Snapshot{}, false
	}
	return s, true
}
