package domain

import "context"

// FileStore abstracts raw file byte storage.
// The SQLite backend stores BLOBs in a table and the Badger backend stores
// them as values; this interface allows swapping to filesystem, S3, or
// another backend later.
type FileStore interface {
	Save(ctx context.Context, key string, contentType string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, string, error)
	Delete(ctx context.Context, key string) error
}
