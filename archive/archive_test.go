package archive

import (
	"testing"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
)

func testDB(t *testing.T) *DB {
	db, err := OpenDB(t.TempDir())
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestStoreAndGetBatch(t *testing.T) {
	db := testDB(t)
	payload := []byte(`[{"torque_nm": 42}]`)
	assert.NoError(t, db.StoreBatch("batch1", payload, time.Now()))
	fetched, err := db.GetBatch("batch1")
	assert.NoError(t, err)
	assert.Equal(t, payload, fetched)
}

func TestGetBatchNotFound(t *testing.T) {
	db := testDB(t)
	_, err := db.GetBatch("nothing")
	assert.ErrorIs(t, err, badger.ErrKeyNotFound)
}

func TestListBatches(t *testing.T) {
	db := testDB(t)
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	assert.NoError(t, db.StoreBatch("b1", []byte("x"), created))
	assert.NoError(t, db.StoreBatch("b2", []byte("y"), created.Add(time.Hour)))
	entries, err := db.ListBatches(10)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(entries))
	ids := []string{entries[0].ID, entries[1].ID}
	assert.Contains(t, ids, "b1")
	assert.Contains(t, ids, "b2")
	for _, e := range entries {
		if e.ID == "b1" {
			assert.Equal(t, created.Unix(), e.Created.Unix())
		}
	}
}

func TestListBatchesLimit(t *testing.T) {
	db := testDB(t)
	for _, id := range []string{"a", "b", "c"} {
		assert.NoError(t, db.StoreBatch(id, []byte(id), time.Now()))
	}
	entries, err := db.ListBatches(2)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(entries))
}

func TestTimeEncodingRoundtrip(t *testing.T) {
	orig := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	decoded, err := decodeTime(encodeTime(orig))
	assert.NoError(t, err)
	assert.Equal(t, orig.Unix(), decoded.Unix())
}
