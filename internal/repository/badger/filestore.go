package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/msomdec/clip/internal/domain"
)

const blobPrefix = "blob:"

type blobDoc struct {
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"`
}

// fileStore implements domain.FileStore with one value per blob.
type fileStore struct {
	store *Store
}

func (s *fileStore) Save(ctx context.Context, key, contentType string, data []byte) error {
	err := s.store.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, blobPrefix+key, blobDoc{ContentType: contentType, Data: data})
	})
	if err != nil {
		return fmt.Errorf("save file blob: %w", err)
	}
	return nil
}

func (s *fileStore) Get(ctx context.Context, key string) ([]byte, string, error) {
	var doc blobDoc
	err := s.store.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, blobPrefix+key, &doc)
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", err
		}
		return nil, "", fmt.Errorf("get file blob: %w", err)
	}
	return doc.Data, doc.ContentType, nil
}

func (s *fileStore) Delete(ctx context.Context, key string) error {
	err := s.store.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(blobPrefix + key))
	})
	if err != nil {
		return fmt.Errorf("delete file blob: %w", err)
	}
	return nil
}
