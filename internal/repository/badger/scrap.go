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
	scrapPrefix           = "scrap:"
	scrapsByCategoryIndex = "idx:scraps:category:"
)

type scrapDoc struct {
	ID         string           `json:"id"`
	UserID     string           `json:"userId"`
	CategoryID string           `json:"categoryId"`
	Type       domain.ScrapType `json:"type"`
	Data       scrapDataDoc     `json:"data"`
	CreatedAt  time.Time        `json:"createdAt"`
	Seq        uint64           `json:"seq"`
}

type scrapDataDoc struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Memo  string `json:"memo"`
}

func (d *scrapDoc) toDomain() domain.Scrap {
	return domain.Scrap{
		ID:         d.ID,
		UserID:     d.UserID,
		CategoryID: d.CategoryID,
		Type:       d.Type,
		Data:       domain.ScrapData{URL: d.Data.URL, Title: d.Data.Title, Memo: d.Data.Memo},
		CreatedAt:  d.CreatedAt,
	}
}

func (d *scrapDoc) indexKey() string {
	return scrapIndexPrefix(d.UserID, d.CategoryID) + seqKey(d.Seq)
}

// scrapIndexPrefix scopes the scrap index by owner before category.
func scrapIndexPrefix(userID, categoryID string) string {
	return scrapsByCategoryIndex + userID + ":" + categoryID + ":"
}

type scrapRepo struct {
	store *Store
}

func (r *scrapRepo) Create(ctx context.Context, scrap *domain.Scrap) error {
	scrapID, err := id.Generate(id.PrefixScrap)
	if err != nil {
		return err
	}
	seq, err := r.store.nextSeq()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	doc := scrapDoc{
		ID:         scrapID,
		UserID:     scrap.UserID,
		CategoryID: scrap.CategoryID,
		Type:       scrap.Type,
		Data:       scrapDataDoc{URL: scrap.Data.URL, Title: scrap.Data.Title, Memo: scrap.Data.Memo},
		CreatedAt:  now,
		Seq:        seq,
	}

	err = r.store.db.Update(func(txn *badger.Txn) error {
		if err := setJSON(txn, scrapPrefix+doc.ID, doc); err != nil {
			return err
		}
		return txn.Set([]byte(doc.indexKey()), []byte(doc.ID))
	})
	if err != nil {
		return fmt.Errorf("insert scrap: %w", err)
	}

	scrap.ID = scrapID
	scrap.CreatedAt = now
	return nil
}

func (r *scrapRepo) GetByID(ctx context.Context, userID, scrapID string) (*domain.Scrap, error) {
	var doc scrapDoc
	err := r.store.db.View(func(txn *badger.Txn) error {
		return getOwnedScrap(txn, userID, scrapID, &doc)
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get scrap: %w", err)
	}
	s := doc.toDomain()
	return &s, nil
}

func (r *scrapRepo) ListByCategory(ctx context.Context, userID, categoryID string) ([]domain.Scrap, error) {
	scraps := []domain.Scrap{}
	err := r.store.db.View(func(txn *badger.Txn) error {
		ids, err := indexValues(txn, scrapIndexPrefix(userID, categoryID), true)
		if err != nil {
			return err
		}
		for _, scrapID := range ids {
			var doc scrapDoc
			if err := getJSON(txn, scrapPrefix+scrapID, &doc); err != nil {
				return fmt.Errorf("load scrap %s: %w", scrapID, err)
			}
			scraps = append(scraps, doc.toDomain())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list scraps: %w", err)
	}
	return scraps, nil
}

func (r *scrapRepo) CountByCategory(ctx context.Context, userID, categoryID string) (int, error) {
	var count int
	err := r.store.db.View(func(txn *badger.Txn) error {
		count = countPrefix(txn, scrapIndexPrefix(userID, categoryID))
		return nil
	})
	return count, err
}

func (r *scrapRepo) Delete(ctx context.Context, userID, scrapID string) error {
	err := r.store.db.Update(func(txn *badger.Txn) error {
		var doc scrapDoc
		if err := getOwnedScrap(txn, userID, scrapID, &doc); err != nil {
			return err
		}
		if err := txn.Delete([]byte(doc.indexKey())); err != nil {
			return err
		}
		return txn.Delete([]byte(scrapPrefix + scrapID))
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete scrap: %w", err)
	}
	return nil
}

func getOwnedScrap(txn *badger.Txn, userID, scrapID string, doc *scrapDoc) error {
	if err := getJSON(txn, scrapPrefix+scrapID, doc); err != nil {
		return err
	}
	if doc.UserID != userID {
		return domain.ErrNotFound
	}
	return nil
}
