package store

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kilupskalvis/cfgmerge/internal/models"
	bolt "go.etcd.io/bbolt"
)

// Bucket names used by the bbolt store.
var (
	bucketMerges     = []byte("merges")      // id -> JSON record
	bucketMergeIndex = []byte("merge_index") // big-endian unix nanos + id -> id
	bucketKV         = []byte("kv")
)

var keySchemaVersion = []byte("schema_version")

const boltSchemaVersion = "1"

// BoltStore is a Store backed by a single bbolt database file.
type BoltStore struct {
	db *bolt.DB
}

// NewBolt opens or creates a bbolt database at the given path.
func NewBolt(dbPath string) (*BoltStore, error) {
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close closes the database.
func (s *BoltStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Initialize creates all required buckets.
func (s *BoltStore) Initialize() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketMerges, bucketMergeIndex, bucketKV} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return tx.Bucket(bucketKV).Put(keySchemaVersion, []byte(boltSchemaVersion))
	})
}

func indexKey(rec *models.MergeRecord) []byte {
	key := make([]byte, 8, 8+len(rec.ID))
	binary.BigEndian.PutUint64(key, uint64(rec.Timestamp.UnixNano()))
	return append(key, rec.ID...)
}

// SaveMerge stores a new record. Records are immutable once saved.
func (s *BoltStore) SaveMerge(rec *models.MergeRecord) error {
	if err := validateRecord(rec); err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		merges := tx.Bucket(bucketMerges)
		index := tx.Bucket(bucketMergeIndex)
		if merges == nil || index == nil {
			return fmt.Errorf("merges bucket not found")
		}

		if merges.Get([]byte(rec.ID)) != nil {
			return fmt.Errorf("%w: %s", ErrExists, rec.ShortID())
		}

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal merge record: %w", err)
		}
		if err := merges.Put([]byte(rec.ID), data); err != nil {
			return err
		}
		return index.Put(indexKey(rec), []byte(rec.ID))
	})
}

// GetMerge retrieves a record by ID or unique ID prefix.
func (s *BoltStore) GetMerge(idOrPrefix string) (*models.MergeRecord, error) {
	if !validPrefix(idOrPrefix) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, idOrPrefix)
	}

	var rec *models.MergeRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketMerges)
		if bucket == nil {
			return ErrNotFound
		}

		prefix := []byte(idOrPrefix)
		c := bucket.Cursor()
		k, v := c.Seek(prefix)
		if k == nil || !bytes.HasPrefix(k, prefix) {
			return fmt.Errorf("%w: %s", ErrNotFound, idOrPrefix)
		}
		if next, _ := c.Next(); next != nil && bytes.HasPrefix(next, prefix) {
			return fmt.Errorf("%w: %s", ErrAmbiguous, idOrPrefix)
		}

		rec = &models.MergeRecord{}
		if err := json.Unmarshal(v, rec); err != nil {
			return fmt.Errorf("unmarshal merge record: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListMerges returns records newest first.
func (s *BoltStore) ListMerges(limit int) ([]*models.MergeRecord, error) {
	var records []*models.MergeRecord

	err := s.db.View(func(tx *bolt.Tx) error {
		index := tx.Bucket(bucketMergeIndex)
		merges := tx.Bucket(bucketMerges)
		if index == nil || merges == nil {
			return nil
		}

		c := index.Cursor()
		for k, id := c.Last(); k != nil; k, id = c.Prev() {
			if limit > 0 && len(records) >= limit {
				break
			}
			data := merges.Get(id)
			if data == nil {
				continue
			}
			var rec models.MergeRecord
			if err := json.Unmarshal(data, &rec); err != nil {
				return fmt.Errorf("unmarshal merge record: %w", err)
			}
			records = append(records, &rec)
		}
		return nil
	})

	return records, err
}
