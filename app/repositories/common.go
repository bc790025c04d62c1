package repositories

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

const (
	// Key prefixes for different entity types
	PostKeyPrefix     = "post:"
	CommentKeyPrefix  = "comment:"
	CategoryKeyPrefix = "category:"
	UserKeyPrefix     = "user:"

	// Secondary index prefixes. Index keys map a unique attribute to the
	// owning entity ID; inserting them inside the same transaction as the
	// entity is what enforces uniqueness.
	PostSlugIndexPrefix     = "idx:post:slug:"
	CategorySlugIndexPrefix = "idx:category:slug:"
	UsernameIndexPrefix     = "idx:user:username:"
	UserEmailIndexPrefix    = "idx:user:email:"

	// Blacklisted refresh token IDs, stored with a TTL.
	DeniedTokenPrefix = "denied:jti:"

	// Sequence keys for auto-incrementing IDs
	PostSeqKey     = "seq:post"
	CommentSeqKey  = "seq:comment"
	CategorySeqKey = "seq:category"
	UserSeqKey     = "seq:user"
)

// txnRetryLimit bounds retries of a transaction that lost a commit race
// on a key other than the one enforcing uniqueness, such as the shared
// sequence counter.
const txnRetryLimit = 10

var (
	ErrNotFound = errors.New("record not found")
	// ErrSlugTaken is returned when an insert or update would violate
	// the slug uniqueness constraint.
	ErrSlugTaken = errors.New("slug already taken")
	// ErrDuplicate is returned when a unique attribute (username, email)
	// is already claimed by another record.
	ErrDuplicate = errors.New("duplicate record")
)

// getNextID gets the next available ID for a given sequence key
func getNextID(txn *badger.Txn, seqKey string) (int, error) {
	var id int
	item, err := txn.Get([]byte(seqKey))
	if err == badger.ErrKeyNotFound {
		id = 1
	} else if err != nil {
		return 0, err
	} else {
		err = item.Value(func(val []byte) error {
			id = decodeID(val)
			return nil
		})
		if err != nil {
			return 0, err
		}
		id++
	}

	if err := txn.Set([]byte(seqKey), encodeID(id)); err != nil {
		return 0, err
	}

	return id, nil
}

// encodeID encodes an ID as big-endian bytes
func encodeID(id int) []byte {
	return []byte{byte(id >> 24), byte(id >> 16), byte(id >> 8), byte(id)}
}

// decodeID decodes an ID from big-endian bytes
func decodeID(val []byte) int {
	return int(val[0])<<24 | int(val[1])<<16 | int(val[2])<<8 | int(val[3])
}

// marshalEntity marshals an entity to JSON
func marshalEntity(entity interface{}) ([]byte, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entity: %v", err)
	}
	return data, nil
}

// unmarshalEntity unmarshals JSON data into an entity
func unmarshalEntity(data []byte, entity interface{}) error {
	if err := json.Unmarshal(data, entity); err != nil {
		return fmt.Errorf("failed to unmarshal entity: %v", err)
	}
	return nil
}

// claimIndexKey inserts a secondary index key pointing at id, failing
// with conflictErr when the key is already held by a different ID.
func claimIndexKey(txn *badger.Txn, key string, id int, conflictErr error) error {
	item, err := txn.Get([]byte(key))
	if err == nil {
		var holder int
		if verr := item.Value(func(val []byte) error {
			holder = decodeID(val)
			return nil
		}); verr != nil {
			return verr
		}
		if holder != id {
			return conflictErr
		}
		return nil
	}
	if err != badger.ErrKeyNotFound {
		return err
	}
	return txn.Set([]byte(key), encodeID(id))
}

// indexLookup resolves a secondary index key to the entity ID it points at.
func indexLookup(txn *badger.Txn, key string) (int, error) {
	item, err := txn.Get([]byte(key))
	if err == badger.ErrKeyNotFound {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	var id int
	err = item.Value(func(val []byte) error {
		id = decodeID(val)
		return nil
	})
	return id, err
}
