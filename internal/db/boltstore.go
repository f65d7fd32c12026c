package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.etcd.io/bbolt"
)

var credentialsBucket = []byte("credentials")

// BoltStore is the single-file store used when no Postgres is configured.
type BoltStore struct {
	db *bbolt.DB
}

func OpenBolt(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	bdb, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", path, err)
	}
	err = bdb.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(credentialsBucket)
		return err
	})
	if err != nil {
		_ = bdb.Close()
		return nil, err
	}
	return &BoltStore{db: bdb}, nil
}

func boltKey(chatID int64, key string) []byte {
	return []byte(strconv.FormatInt(chatID, 10) + "/" + key)
}

func (s *BoltStore) Get(ctx context.Context, chatID int64, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	var (
		v  string
		ok bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(credentialsBucket)
		if b == nil {
			return fmt.Errorf("credentials bucket not found")
		}
		if raw := b.Get(boltKey(chatID, key)); raw != nil {
			v, ok = string(raw), true
		}
		return nil
	})
	return v, ok, err
}

func (s *BoltStore) Put(ctx context.Context, chatID int64, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(credentialsBucket)
		if b == nil {
			return fmt.Errorf("credentials bucket not found")
		}
		return b.Put(boltKey(chatID, key), []byte(value))
	})
}

func (s *BoltStore) Delete(ctx context.Context, chatID int64, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(credentialsBucket)
		if b == nil {
			return fmt.Errorf("credentials bucket not found")
		}
		return b.Delete(boltKey(chatID, key))
	})
}

func (s *BoltStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(credentialsBucket) == nil {
			return fmt.Errorf("credentials bucket not found")
		}
		return nil
	})
}

func (s *BoltStore) Close() error { return s.db.Close() }
