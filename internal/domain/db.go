package domain

import "context"

// Database defines lifecycle operations for the underlying database.
// Each implementation (SQLite, Badger, etc.) owns its own migration
// strategy, ensuring the entire backend is swappable.
type Database interface {
	Migrate(ctx context.Context) error
	Close() error
}

// Store is the full persistence backend the services depend on.
type Store interface {
	Database
	Users() UserRepository
	Categories() CategoryRepository
	Scraps() ScrapRepository
	FileStore() FileStore
}
