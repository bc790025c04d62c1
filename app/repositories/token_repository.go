package repositories

import (
	"time"

	"github.com/dgraph-io/badger/v4"
)

// BadgerTokenRepository tracks revoked refresh token IDs in BadgerDB.
// Entries carry a TTL matching the token's remaining lifetime, so the
// blacklist cleans itself up.
type BadgerTokenRepository struct {
	db *badger.DB
}

// NewBadgerTokenRepository creates a new BadgerTokenRepository
func NewBadgerTokenRepository(db *badger.DB) *BadgerTokenRepository {
	return &BadgerTokenRepository{db: db}
}

func deniedKey(jti string) []byte {
	return []byte(DeniedTokenPrefix + jti)
}

// Deny blacklists a token ID until ttl elapses
func (r *BadgerTokenRepository) Deny(jti string, ttl time.Duration) error {
	if ttl <= 0 {
		// Already expired; nothing to track.
		return nil
	}
	return r.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(deniedKey(jti), []byte{1}).WithTTL(ttl)
		return txn.SetEntry(entry)
	})
}

// IsDenied reports whether a token ID has been blacklisted
func (r *BadgerTokenRepository) IsDenied(jti string) (bool, error) {
	var denied bool
	err := r.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(deniedKey(jti))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		denied = true
		return nil
	})
	return denied, err
}
