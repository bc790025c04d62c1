package repositories

import (
	"fmt"
	"sort"

	"inkwell/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerCategoryRepository implements CategoryRepository using BadgerDB
type BadgerCategoryRepository struct {
	db *badger.DB
}

// NewBadgerCategoryRepository creates a new BadgerCategoryRepository
func NewBadgerCategoryRepository(db *badger.DB) *BadgerCategoryRepository {
	return &BadgerCategoryRepository{db: db}
}

func categoryKey(id int) []byte {
	return []byte(fmt.Sprintf("%s%d", CategoryKeyPrefix, id))
}

func categorySlugKey(slug string) string {
	return CategorySlugIndexPrefix + slug
}

// Create creates a new category, claiming its slug atomically. Commit
// races on the shared sequence counter are retried; only a real slug
// collision surfaces as ErrSlugTaken.
func (r *BadgerCategoryRepository) Create(category *models.Category) error {
	for attempt := 0; attempt < txnRetryLimit; attempt++ {
		err := r.db.Update(func(txn *badger.Txn) error {
			id, err := getNextID(txn, CategorySeqKey)
			if err != nil {
				return err
			}
			category.ID = id

			if err := claimIndexKey(txn, categorySlugKey(category.Slug), category.ID, ErrSlugTaken); err != nil {
				return err
			}

			data, err := marshalEntity(category)
			if err != nil {
				return err
			}
			return txn.Set(categoryKey(category.ID), data)
		})
		if err != badger.ErrConflict {
			return err
		}
		taken, err := r.SlugExists(category.Slug, 0)
		if err != nil {
			return err
		}
		if taken {
			return ErrSlugTaken
		}
	}
	return badger.ErrConflict
}

// GetByID retrieves a category by ID
func (r *BadgerCategoryRepository) GetByID(id int) (*models.Category, error) {
	var category models.Category

	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(categoryKey(id))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return unmarshalEntity(val, &category)
		})
	})

	if err != nil {
		return nil, err
	}
	return &category, nil
}

// GetBySlug retrieves a category through the slug index
func (r *BadgerCategoryRepository) GetBySlug(slug string) (*models.Category, error) {
	var category models.Category

	err := r.db.View(func(txn *badger.Txn) error {
		id, err := indexLookup(txn, categorySlugKey(slug))
		if err != nil {
			return err
		}
		item, err := txn.Get(categoryKey(id))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return unmarshalEntity(val, &category)
		})
	})

	if err != nil {
		return nil, err
	}
	return &category, nil
}

// GetByName retrieves a category by exact name (scan; categories are few)
func (r *BadgerCategoryRepository) GetByName(name string) (*models.Category, error) {
	categories, err := r.List()
	if err != nil {
		return nil, err
	}
	for _, c := range categories {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, ErrNotFound
}

// SlugExists reports whether slug is held by a category other than excludeID
func (r *BadgerCategoryRepository) SlugExists(slug string, excludeID int) (bool, error) {
	var exists bool
	err := r.db.View(func(txn *badger.Txn) error {
		id, err := indexLookup(txn, categorySlugKey(slug))
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

// List retrieves all categories ordered by name
func (r *BadgerCategoryRepository) List() ([]*models.Category, error) {
	var categories []*models.Category

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(CategoryKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var category models.Category
			err := item.Value(func(val []byte) error {
				return unmarshalEntity(val, &category)
			})
			if err != nil {
				return fmt.Errorf("failed to unmarshal category: %v", err)
			}
			categories = append(categories, &category)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Name < categories[j].Name
	})

	return categories, nil
}

// Update updates an existing category. Renames keep the slug, so the
// index is only moved when the slug itself changed.
func (r *BadgerCategoryRepository) Update(category *models.Category) error {
	return r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(categoryKey(category.ID))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		var prev models.Category
		if err := item.Value(func(val []byte) error {
			return unmarshalEntity(val, &prev)
		}); err != nil {
			return err
		}

		if prev.Slug != category.Slug {
			if err := claimIndexKey(txn, categorySlugKey(category.Slug), category.ID, ErrSlugTaken); err != nil {
				return err
			}
			if err := txn.Delete([]byte(categorySlugKey(prev.Slug))); err != nil {
				return err
			}
		}

		data, err := marshalEntity(category)
		if err != nil {
			return err
		}
		return txn.Set(categoryKey(category.ID), data)
	})
}

// Delete deletes a category by ID along with its slug index entry
func (r *BadgerCategoryRepository) Delete(id int) error {
	return r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(categoryKey(id))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		var category models.Category
		if err := item.Value(func(val []byte) error {
			return unmarshalEntity(val, &category)
		}); err != nil {
			return err
		}

		if err := txn.Delete([]byte(categorySlugKey(category.Slug))); err != nil {
			return err
		}
		return txn.Delete(categoryKey(id))
	})
}
