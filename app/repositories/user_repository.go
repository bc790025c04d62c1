package repositories

import (
	"fmt"
	"strings"

	"inkwell/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerUserRepository implements UserRepository using BadgerDB
type BadgerUserRepository struct {
	db *badger.DB
}

// NewBadgerUserRepository creates a new BadgerUserRepository
func NewBadgerUserRepository(db *badger.DB) *BadgerUserRepository {
	return &BadgerUserRepository{db: db}
}

func userKey(id int) []byte {
	return []byte(fmt.Sprintf("%s%d", UserKeyPrefix, id))
}

func usernameKey(username string) string {
	return UsernameIndexPrefix + strings.ToLower(username)
}

func userEmailKey(email string) string {
	return UserEmailIndexPrefix + strings.ToLower(email)
}

// Create creates a new user, claiming username and email atomically
func (r *BadgerUserRepository) Create(user *models.User) error {
	for attempt := 0; attempt < txnRetryLimit; attempt++ {
		err := r.db.Update(func(txn *badger.Txn) error {
			id, err := getNextID(txn, UserSeqKey)
			if err != nil {
				return err
			}
			user.ID = id

			if err := claimIndexKey(txn, usernameKey(user.Username), user.ID, ErrDuplicate); err != nil {
				return err
			}
			if err := claimIndexKey(txn, userEmailKey(user.Email), user.ID, ErrDuplicate); err != nil {
				return err
			}

			data, err := marshalEntity(user)
			if err != nil {
				return err
			}
			return txn.Set(userKey(user.ID), data)
		})
		if err != badger.ErrConflict {
			return err
		}
		// A concurrent registration may have claimed the same username or
		// email between our read and commit.
		if _, err := r.GetByUsername(user.Username); err == nil {
			return ErrDuplicate
		}
		if _, err := r.GetByEmail(user.Email); err == nil {
			return ErrDuplicate
		}
	}
	return badger.ErrConflict
}

// GetByID retrieves a user by ID
func (r *BadgerUserRepository) GetByID(id int) (*models.User, error) {
	var user models.User

	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(id))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return unmarshalEntity(val, &user)
		})
	})

	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByUsername retrieves a user through the username index
func (r *BadgerUserRepository) GetByUsername(username string) (*models.User, error) {
	return r.getByIndex(usernameKey(username))
}

// GetByEmail retrieves a user through the email index
func (r *BadgerUserRepository) GetByEmail(email string) (*models.User, error) {
	return r.getByIndex(userEmailKey(email))
}

func (r *BadgerUserRepository) getByIndex(key string) (*models.User, error) {
	var user models.User

	err := r.db.View(func(txn *badger.Txn) error {
		id, err := indexLookup(txn, key)
		if err != nil {
			return err
		}
		item, err := txn.Get(userKey(id))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return unmarshalEntity(val, &user)
		})
	})

	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update updates an existing user. Username and email are immutable
// once claimed, so the index keys never move.
func (r *BadgerUserRepository) Update(user *models.User) error {
	return r.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(userKey(user.ID))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		data, err := marshalEntity(user)
		if err != nil {
			return err
		}
		return txn.Set(userKey(user.ID), data)
	})
}
