package repositories

import (
	"fmt"
	"sort"

	"inkwell/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerPostRepository implements PostRepository using BadgerDB
type BadgerPostRepository struct {
	db *badger.DB
}

// NewBadgerPostRepository creates a new BadgerPostRepository
func NewBadgerPostRepository(db *badger.DB) *BadgerPostRepository {
	return &BadgerPostRepository{db: db}
}

func postKey(id int) []byte {
	return []byte(fmt.Sprintf("%s%d", PostKeyPrefix, id))
}

func postSlugKey(slug string) string {
	return PostSlugIndexPrefix + slug
}

// Create creates a new post. The slug index key is claimed in the same
// transaction, so two concurrent creates with the same slug cannot both
// commit: the loser gets ErrSlugTaken and the caller re-derives the slug.
// A commit race on an unrelated key, typically the shared sequence
// counter, is retried here instead of being reported as a collision.
func (r *BadgerPostRepository) Create(post *models.Post) error {
	for attempt := 0; attempt < txnRetryLimit; attempt++ {
		err := r.db.Update(func(txn *badger.Txn) error {
			id, err := getNextID(txn, PostSeqKey)
			if err != nil {
				return err
			}
			post.ID = id

			if err := claimIndexKey(txn, postSlugKey(post.Slug), post.ID, ErrSlugTaken); err != nil {
				return err
			}

			data, err := marshalEntity(post)
			if err != nil {
				return err
			}
			return txn.Set(postKey(post.ID), data)
		})
		if err != badger.ErrConflict {
			return err
		}
		taken, err := r.SlugExists(post.Slug, 0)
		if err != nil {
			return err
		}
		if taken {
			return ErrSlugTaken
		}
	}
	return badger.ErrConflict
}

// GetByID retrieves a post by ID
func (r *BadgerPostRepository) GetByID(id int) (*models.Post, error) {
	var post models.Post

	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(postKey(id))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return unmarshalEntity(val, &post)
		})
	})

	if err != nil {
		return nil, err
	}
	return &post, nil
}

// GetBySlug retrieves a post through the slug index
func (r *BadgerPostRepository) GetBySlug(slug string) (*models.Post, error) {
	var post models.Post

	err := r.db.View(func(txn *badger.Txn) error {
		id, err := indexLookup(txn, postSlugKey(slug))
		if err != nil {
			return err
		}
		item, err := txn.Get(postKey(id))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return unmarshalEntity(val, &post)
		})
	})

	if err != nil {
		return nil, err
	}
	return &post, nil
}

// SlugExists reports whether slug is held by a post other than excludeID
func (r *BadgerPostRepository) SlugExists(slug string, excludeID int) (bool, error) {
	var exists bool
	err := r.db.View(func(txn *badger.Txn) error {
		id, err := indexLookup(txn, postSlugKey(slug))
		if err == ErrNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		exists = id != excludeID
		return nil
	})
	return exists, err
}

// List retrieves posts matching filter, newest first, with the total
// match count for pagination
func (r *BadgerPostRepository) List(filter PostFilter, limit, offset int) ([]*models.Post, int, error) {
	var matched []*models.Post
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(PostKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var post models.Post
			err := item.Value(func(val []byte) error {
				return unmarshalEntity(val, &post)
			})
			if err != nil {
				return fmt.Errorf("failed to unmarshal post: %v", err)
			}
			if filter.Status != "" && post.Status != filter.Status {
				continue
			}
			if filter.AuthorID != 0 && post.AuthorID != filter.AuthorID {
				continue
			}
			if filter.CategoryID != 0 && post.CategoryID != filter.CategoryID {
				continue
			}
			matched = append(matched, &post)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	if offset >= total {
		return []*models.Post{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

// Update updates an existing post, moving the slug index when the slug
// changed
func (r *BadgerPostRepository) Update(post *models.Post) error {
	for attempt := 0; attempt < txnRetryLimit; attempt++ {
		err := r.db.Update(func(txn *badger.Txn) error {
			item, err := txn.Get(postKey(post.ID))
			if err == badger.ErrKeyNotFound {
				return ErrNotFound
			}
			if err != nil {
				return err
			}

			var prev models.Post
			if err := item.Value(func(val []byte) error {
				return unmarshalEntity(val, &prev)
			}); err != nil {
				return err
			}

			if prev.Slug != post.Slug {
				if err := claimIndexKey(txn, postSlugKey(post.Slug), post.ID, ErrSlugTaken); err != nil {
					return err
				}
				if err := txn.Delete([]byte(postSlugKey(prev.Slug))); err != nil {
					return err
				}
			}

			data, err := marshalEntity(post)
			if err != nil {
				return err
			}
			return txn.Set(postKey(post.ID), data)
		})
		if err != badger.ErrConflict {
			return err
		}
		taken, err := r.SlugExists(post.Slug, post.ID)
		if err != nil {
			return err
		}
		if taken {
			return ErrSlugTaken
		}
	}
	return badger.ErrConflict
}

// Delete deletes a post by ID along with its slug index entry
func (r *BadgerPostRepository) Delete(id int) error {
	return r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(postKey(id))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		var post models.Post
		if err := item.Value(func(val []byte) error {
			return unmarshalEntity(val, &post)
		}); err != nil {
			return err
		}

		if err := txn.Delete([]byte(postSlugKey(post.Slug))); err != nil {
			return err
		}
		return txn.Delete(postKey(id))
	})
}
