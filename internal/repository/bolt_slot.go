package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

var boltBucket = []byte("catalog")

// BoltSlot keeps catalog slots in a local bbolt file, the on-disk analogue of
// a browser's per-origin storage.
type BoltSlot struct {
	db *bbolt.DB
}

func NewBoltSlot(path string) (*BoltSlot, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create bolt directory: %w", err)
		}
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt file %s: %w", path, err)
	}
	return &BoltSlot{db: db}, nil
}

func (s *BoltSlot) Get(_ context.Context, key string) ([]byte, bool, error) {
	var out []byte
	found := false
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(boltBucket)
		if b == nil {
			return nil
		}
		v := b.Get([]byte(key))
		if v == nil {
			return nil
		}
		// v is only valid inside the transaction.
		out = append([]byte(nil), v...)
		found = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, found, nil
}

func (s *BoltSlot) Put(_ context.Context, key string, value []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(boltBucket)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), value)
	})
}

func (s *BoltSlot) Delete(_ context.Context, key string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(boltBucket)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
}

func (s *BoltSlot) Ping(_ context.Context) error {
	return s.db.View(func(*bbolt.Tx) error { return nil })
}

func (s *BoltSlot) Backend() string { return "bolt" }

func (s *BoltSlot) Close() error { return s.db.Close() }
