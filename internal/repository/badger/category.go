package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/msomdec/clip/internal/domain"
	"github.com/msomdec/clip/internal/id"
)

const (
	categoryPrefix        = "category:"
	categoriesByUserIndex = "idx:categories:user:"
)

type categoryDoc struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	Seq       uint64    `json:"seq"`
}

func (d *categoryDoc) toDomain() domain.Category {
	return domain.Category{ID: d.ID, UserID: d.UserID, Name: d.Name, CreatedAt: d.CreatedAt}
}

func (d *categoryDoc) indexKey() string {
	return categoriesByUserIndex + d.UserID + ":" + seqKey(d.Seq)
}

type categoryRepo struct {
	store *Store
}

func (r *categoryRepo) Create(ctx context.Context, category *domain.Category) error {
	return r.CreateMany(ctx, []*domain.Category{category})
}

func (r *categoryRepo) CreateMany(ctx context.Context, categories []*domain.Category) error {
	now := time.Now().UTC()
	docs := make([]categoryDoc, len(categories))
	for i, c := range categories {
		categoryID, err := id.Generate(id.PrefixCategory)
		if err != nil {
			return err
		}
		seq, err := r.store.nextSeq()
		if err != nil {
			return err
		}
		docs[i] = categoryDoc{ID: categoryID, UserID: c.UserID, Name: c.Name, CreatedAt: now, Seq: seq}
	}

	err := r.store.db.Update(func(txn *badger.Txn) error {
		for i := range docs {
			if err := setJSON(txn, categoryPrefix+docs[i].ID, docs[i]); err != nil {
				return err
			}
			if err := txn.Set([]byte(docs[i].indexKey()), []byte(docs[i].ID)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("insert categories: %w", err)
	}

	for i, c := range categories {
		c.ID = docs[i].ID
		c.CreatedAt = now
	}
	return nil
}

func (r *categoryRepo) GetByID(ctx context.Context, userID, categoryID string) (*domain.Category, error) {
	var doc categoryDoc
	err := r.store.db.View(func(txn *badger.Txn) error {
		return getOwnedCategory(txn, userID, categoryID, &doc)
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	c := doc.toDomain()
	return &c, nil
}

func (r *categoryRepo) ListByUser(ctx context.Context, userID string) ([]domain.Category, error) {
	categories := []domain.Category{}
	err := r.store.db.View(func(txn *badger.Txn) error {
		ids, err := indexValues(txn, categoriesByUserIndex+userID+":", false)
		if err != nil {
			return err
		}
		for _, categoryID := range ids {
			var doc categoryDoc
			if err := getJSON(txn, categoryPrefix+categoryID, &doc); err != nil {
				return fmt.Errorf("load category %s: %w", categoryID, err)
			}
			categories = append(categories, doc.toDomain())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (r *categoryRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.store.db.View(func(txn *badger.Txn) error {
		count = countPrefix(txn, categoriesByUserIndex+userID+":")
		return nil
	})
	return count, err
}

func (r *categoryRepo) DeleteWithReassignment(ctx context.Context, userID, categoryID, targetID string) (int, error) {
	if categoryID == targetID {
		return 0, fmt.Errorf("%w: cannot move scraps into the category being deleted", domain.ErrPrecondition)
	}

	moved := 0
	err := r.store.db.Update(func(txn *badger.Txn) error {
		if countPrefix(txn, categoriesByUserIndex+userID+":") <= 1 {
			return fmt.Errorf("%w: another category must exist to receive scraps", domain.ErrPrecondition)
		}

		var source, target categoryDoc
		if err := getOwnedCategory(txn, userID, categoryID, &source); err != nil {
			return err
		}
		if err := getOwnedCategory(txn, userID, targetID, &target); err != nil {
			return err
		}

		// Collect first; the loop below rewrites keys under the iterated prefix.
		scrapIDs, err := indexValues(txn, scrapIndexPrefix(userID, categoryID), false)
		if err != nil {
			return err
		}
		for _, scrapID := range scrapIDs {
			var doc scrapDoc
			if err := getJSON(txn, scrapPrefix+scrapID, &doc); err != nil {
				return fmt.Errorf("load scrap %s: %w", scrapID, err)
			}
			if err := txn.Delete([]byte(doc.indexKey())); err != nil {
				return err
			}
			doc.CategoryID = targetID
			if err := setJSON(txn, scrapPrefix+doc.ID, doc); err != nil {
				return err
			}
			if err := txn.Set([]byte(doc.indexKey()), []byte(doc.ID)); err != nil {
				return err
			}
			moved++
		}

		if err := txn.Delete([]byte(source.indexKey())); err != nil {
			return err
		}
		return txn.Delete([]byte(categoryPrefix + categoryID))
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrPrecondition) {
			return 0, err
		}
		return 0, fmt.Errorf("delete category with reassignment: %w", err)
	}
	return moved, nil
}

// getOwnedCategory loads a category and hides it unless userID owns it.
func getOwnedCategory(txn *badger.Txn, userID, categoryID string, doc *categoryDoc) error {
	if err := getJSON(txn, categoryPrefix+categoryID, doc); err != nil {
		return err
	}
	if doc.UserID != userID {
		return domain.ErrNotFound
	}
	return nil
}
