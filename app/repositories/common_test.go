package repositories

import (
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *badger.DB {
	t.Helper()
	opts := badger.DefaultOptions(t.TempDir())
	opts.Logger = nil
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestEncodeDecodeID(t *testing.T) {
	for _, id := range []int{1, 255, 256, 70000, 1 << 24} {
		require.Equal(t, id, decodeID(encodeID(id)), "id %d", id)
	}
}

func TestSequenceKeys(t *testing.T) {
	db := newTestDB(t)
	for want := 1; want <= 3; want++ {
		err := db.Update(func(txn *badger.Txn) error {
			id, err := getNextID(txn, PostSeqKey)
			require.NoError(t, err)
			require.Equal(t, want, id)
			return nil
		})
		require.NoError(t, err)
	}

	// Sequences are independent per entity type.
	err := db.Update(func(txn *badger.Txn) error {
		id, err := getNextID(txn, CommentSeqKey)
		require.NoError(t, err)
		require.Equal(t, 1, id)
		return nil
	})
	require.NoError(t, err)
}
