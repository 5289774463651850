// Package store persists merge history. Two backends implement Store: an
// embedded bbolt database (the default) and SQLite.
package store

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/kilupskalvis/cfgmerge/internal/models"
)

var (
	ErrNotFound  = errors.New("merge record not found")
	ErrAmbiguous = errors.New("ambiguous merge record prefix")
	ErrExists    = errors.New("merge record already exists")
)

// Store is merge history storage
type Store interface {
	// Initialize prepares the storage layout. It is safe to call repeatedly.
	Initialize() error
	SaveMerge(rec *models.MergeRecord) error
	// GetMerge looks a record up by full ID or unique ID prefix
	GetMerge(idOrPrefix string) (*models.MergeRecord, error)
	// ListMerges returns up to limit records, newest first. limit <= 0 means all.
	ListMerges(limit int) ([]*models.MergeRecord, error)
	Close() error
}

// Backend names accepted by Open
const (
	BackendBolt   = "bbolt"
	BackendSQLite = "sqlite"
)

// Open opens and initializes a store of the given backend at path
func Open(backend, path string) (Store, error) {
	var (
		st  Store
		err error
	)
	switch backend {
	case BackendBolt, "":
		st, err = NewBolt(path)
	case BackendSQLite:
		st, err = NewSQLite(path)
	default:
		return nil, fmt.Errorf("unknown history backend %q", backend)
	}
	if err != nil {
		return nil, err
	}

	if err := st.Initialize(); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

// NewRecordID derives a content-addressed record ID from the raw merge
// inputs and the time of the merge
func NewRecordID(base, local, remote []byte, ts time.Time) string {
	h := sha256.New()
	for _, part := range [][]byte{base, local, remote} {
		var n [8]byte
		binary.BigEndian.PutUint64(n[:], uint64(len(part)))
		h.Write(n[:])
		h.Write(part)
	}
	var t [8]byte
	binary.BigEndian.PutUint64(t[:], uint64(ts.UnixNano()))
	h.Write(t[:])
	return hex.EncodeToString(h.Sum(nil))
}

// validPrefix reports whether s can be part of a record ID
func validPrefix(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}

func validateRecord(rec *models.MergeRecord) error {
	if rec == nil {
		return fmt.Errorf("nil merge record")
	}
	if len(rec.ID) != sha256.Size*2 || !validPrefix(rec.ID) {
		return fmt.Errorf("invalid merge record id %q", rec.ID)
	}
	if rec.Timestamp.IsZero() {
		return fmt.Errorf("merge record %s has no timestamp", rec.ShortID())
	}
	return nil
}
