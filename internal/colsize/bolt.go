package colsize

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.etcd.io/bbolt"
)

const bucketName = "column_sizes"

// BoltStore implements Store using BoltDB
type BoltStore struct {
	db *bbolt.DB
}

// NewBoltStore opens (or creates) the store at dbPath
func NewBoltStore(dbPath string) (*BoltStore, error) {
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb (file may be locked by another process): %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	log.Debug().Str("db_path", dbPath).Msg("Column size store initialized")

	return &BoltStore{db: db}, nil
}

// SetTable implements Store. Columns of the table that are not in widths are removed.
func (s *BoltStore) SetTable(ctx context.Context, table string, widths map[string]int) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))

		prefix := makeKey(table, "")
		var stale [][]byte
		c := b.Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			stale = append(stale, append([]byte(nil), k...))
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}

		for column, width := range widths {
			if err := b.Put(makeKey(table, column), encodeWidth(width)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store column sizes of %s: %w", table, err)
	}

	log.Debug().
		Str("table", table).
		Int("columns", len(widths)).
		Msg("Column sizes stored")

	return nil
}

// Table implements Store
func (s *BoltStore) Table(ctx context.Context, table string) (map[string]int, error) {
	result := make(map[string]int)
	prefix := makeKey(table, "")

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(bucketName)).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			if len(v) >= 8 {
				result[string(k[len(prefix):])] = int(binary.BigEndian.Uint64(v))
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list column sizes: %w", err)
	}

	return result, nil
}

// Close closes the BoltDB database
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func makeKey(table, column string) []byte {
	return []byte(table + ":" + column)
}

func encodeWidth(width int) []byte {
	val := make([]byte, 8)
	binary.BigEndian.PutUint64(val, uint64(width))
	return val
}
