package snapshot

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/AngelCh415/wbdash/internal/models"
)

type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens (or creates) an on-disk badger database at dir.
func OpenBadger(dir string) (*BadgerStore, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open badger %s: %w", dir, err)
	}
	return &BadgerStore{db: db}, nil
}

// OpenBadgerInMemory keeps the snapshot for the life of the process only.
func OpenBadgerInMemory() (*BadgerStore, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open in-memory badger: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Put(ctx context.Context, snap models.Snapshot) error {
	data, err := encode(snap)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(Key), data); err != nil {
			return fmt.Errorf("set snapshot: %w", err)
		}
		return nil
	})
}

func (s *BadgerStore) Get(ctx context.Context) (models.Snapshot, bool) {
	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(Key))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return models.Snapshot{}, false
	}
	return decode(raw)
}

func (s *BadgerStore) Close() error { return s.db.Close() }
