package store

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/kilupskalvis/cfgmerge/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStores opens one store per backend in a temp directory.
func newTestStores(t *testing.T) map[string]Store {
	t.Helper()
	stores := make(map[string]Store)
	for _, backend := range []string{BackendBolt, BackendSQLite} {
		st, err := Open(backend, filepath.Join(t.TempDir(), "history.db"))
		require.NoError(t, err)
		t.Cleanup(func() { st.Close() })
		stores[backend] = st
	}
	return stores
}

func testRecord(id string, ts time.Time) *models.MergeRecord {
	return &models.MergeRecord{
		ID:        id,
		Timestamp: ts,
		Base:      "git:HEAD~1:app.yaml",
		Local:     "app.yaml",
		Remote:    "git:main:app.yaml",
		Strategy:  models.ConflictAbort,
		Stats:     models.MergeStats{LocalChanges: 2, RemoteChanges: 1, AutoMerged: 2, Conflicts: 1},
		Conflicts: []*models.MergeConflict{{
			Path:     models.Path{"server", "port"},
			Type:     models.ConflictModifyModify,
			Severity: models.SeverityHigh,
			Base:     80.0, Local: 8080.0, Remote: 9090.0,
			HasBase: true, HasLocal: true, HasRemote: true,
		}},
	}
}

func fakeID(suffix string) string {
	return strings.Repeat("a", 64-len(suffix)) + suffix
}

func TestNewRecordID(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	id := NewRecordID([]byte("a"), []byte("b"), []byte("c"), ts)
	assert.Len(t, id, 64)
	assert.Equal(t, id, NewRecordID([]byte("a"), []byte("b"), []byte("c"), ts))
	assert.NotEqual(t, id, NewRecordID([]byte("a"), []byte("b"), []byte("c"), ts.Add(time.Nanosecond)))
	// Input boundaries are part of the hash
	assert.NotEqual(t, id, NewRecordID([]byte("ab"), nil, []byte("c"), ts))
}

func TestStore_SaveAndGet(t *testing.T) {
	for name, st := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
			rec := testRecord(NewRecordID([]byte("base"), []byte("local"), []byte("remote"), ts), ts)
			require.NoError(t, st.SaveMerge(rec))

			got, err := st.GetMerge(rec.ID)
			require.NoError(t, err)
			assert.Equal(t, rec.ID, got.ID)
			assert.True(t, rec.Timestamp.Equal(got.Timestamp))
			assert.Equal(t, rec.Stats, got.Stats)
			if diff := cmp.Diff(rec.Conflicts, got.Conflicts); diff != "" {
				t.Errorf("conflicts mismatch (-want +got):\n%s", diff)
			}

			got, err = st.GetMerge(rec.ShortID())
			require.NoError(t, err)
			assert.Equal(t, rec.ID, got.ID)

			assert.ErrorIs(t, st.SaveMerge(rec), ErrExists)
		})
	}
}

func TestStore_GetErrors(t *testing.T) {
	for name, st := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			ts := time.Now()
			require.NoError(t, st.SaveMerge(testRecord(fakeID("01"), ts)))
			require.NoError(t, st.SaveMerge(testRecord(fakeID("02"), ts.Add(time.Second))))

			_, err := st.GetMerge("aaaa")
			assert.ErrorIs(t, err, ErrAmbiguous)

			_, err = st.GetMerge("ffff")
			assert.ErrorIs(t, err, ErrNotFound)

			_, err = st.GetMerge("not-hex%")
			assert.ErrorIs(t, err, ErrNotFound)

			_, err = st.GetMerge("")
			assert.ErrorIs(t, err, ErrNotFound)

			got, err := st.GetMerge(fakeID("02"))
			require.NoError(t, err)
			assert.Equal(t, fakeID("02"), got.ID)
		})
	}
}

func TestStore_ListNewestFirst(t *testing.T) {
	for name, st := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
			// Save out of order
			for _, i := range []int{3, 1, 4, 2} {
				id := fakeID(strings.Repeat("b", i))
				require.NoError(t, st.SaveMerge(testRecord(id, start.Add(time.Duration(i)*time.Minute))))
			}

			all, err := st.ListMerges(0)
			require.NoError(t, err)
			require.Len(t, all, 4)
			for i, rec := range all {
				assert.Equal(t, fakeID(strings.Repeat("b", 4-i)), rec.ID)
			}

			limited, err := st.ListMerges(2)
			require.NoError(t, err)
			require.Len(t, limited, 2)
			assert.Equal(t, all[:2][1].ID, limited[1].ID)
		})
	}
}

func TestStore_RejectsInvalidRecords(t *testing.T) {
	for name, st := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, st.SaveMerge(nil))
			assert.Error(t, st.SaveMerge(testRecord("abc", time.Now())))
			assert.Error(t, st.SaveMerge(testRecord(fakeID("1"), time.Time{})))
		})
	}
}

func TestStore_EmptyList(t *testing.T) {
	for name, st := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			records, err := st.ListMerges(10)
			require.NoError(t, err)
			assert.Empty(t, records)
		})
	}
}

func TestOpen_Reopen(t *testing.T) {
	for _, backend := range []string{BackendBolt, BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", "history.db")
			st, err := Open(backend, path)
			require.NoError(t, err)
			require.NoError(t, st.SaveMerge(testRecord(fakeID("cafe"), time.Now())))
			require.NoError(t, st.Close())

			st, err = Open(backend, path)
			require.NoError(t, err)
			defer st.Close()

			records, err := st.ListMerges(0)
			require.NoError(t, err)
			assert.Len(t, records, 1)
		})
	}

	_, err := Open("redis", filepath.Join(t.TempDir(), "x"))
	assert.Error(t, err)
}
