// Package badger implements domain.Store as a document store on BadgerDB.
// Records are JSON documents keyed by "<kind>:<id>"; ownership queries go
// through secondary index keys so every lookup is scoped by user first.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/msomdec/clip/internal/domain"
)

const (
	schemaVersionKey = "meta:schema_version"
	schemaVersion    = "1"
	sequenceKey      = "meta:seq"
)

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	seq    *badger.Sequence
	logger *slog.Logger
}

var _ domain.Store = (*Store)(nil)

// Open opens (or creates) a Badger database in dir.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup
	return open(opts, logger)
}

// OpenInMemory opens a non-persistent Badger database, used by tests.
func OpenInMemory(logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts, logger)
}

func open(opts badger.Options, logger *slog.Logger) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	// The sequence orders records by insertion; it doubles as the
	// tie-breaker for records sharing a creation timestamp.
	seq, err := db.GetSequence([]byte(sequenceKey), 100)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("get sequence: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("badger database opened", "path", opts.Dir, "in_memory", opts.InMemory)

	return &Store{db: db, seq: seq, logger: logger}, nil
}

// Migrate records the schema version. Documents are schemaless, so there is
// nothing else to apply yet.
func (s *Store) Migrate(ctx context.Context) error {
	return s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(schemaVersionKey))
		if err == nil {
			return item.Value(func(val []byte) error {
				if string(val) != schemaVersion {
					return fmt.Errorf("unsupported schema version %q", val)
				}
				return nil
			})
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("read schema version: %w", err)
		}
		s.logger.Info("badger schema initialized", "version", schemaVersion)
		return txn.Set([]byte(schemaVersionKey), []byte(schemaVersion))
	})
}

// Close releases the sequence lease and closes the database.
func (s *Store) Close() error {
	if err := s.seq.Release(); err != nil {
		s.logger.Warn("release badger sequence", "error", err)
	}
	return s.db.Close()
}

func (s *Store) Users() domain.UserRepository {
	return &userRepo{store: s}
}

func (s *Store) Categories() domain.CategoryRepository {
	return &categoryRepo{store: s}
}

func (s *Store) Scraps() domain.ScrapRepository {
	return &scrapRepo{store: s}
}

func (s *Store) FileStore() domain.FileStore {
	return &fileStore{store: s}
}

func (s *Store) nextSeq() (uint64, error) {
	n, err := s.seq.Next()
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return n, nil
}

// getJSON loads the document at key into dest, mapping a missing key to
// domain.ErrNotFound.
func getJSON(txn *badger.Txn, key string, dest any) error {
	item, err := txn.Get([]byte(key))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return domain.ErrNotFound
		}
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, dest)
	})
}

func setJSON(txn *badger.Txn, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return txn.Set([]byte(key), data)
}

// indexValues returns the values stored under every key with prefix, in key
// order (or reverse key order).
func indexValues(txn *badger.Txn, prefix string, reverse bool) ([]string, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	opts.Reverse = reverse
	it := txn.NewIterator(opts)
	defer it.Close()

	seek := []byte(prefix)
	if reverse {
		seek = append(seek, 0xFF)
	}

	var values []string
	for it.Seek(seek); it.ValidForPrefix([]byte(prefix)); it.Next() {
		err := it.Item().Value(func(val []byte) error {
			values = append(values, string(val))
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return values, nil
}

// countPrefix counts keys under prefix without reading values.
func countPrefix(txn *badger.Txn, prefix string) int {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	n := 0
	for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
		n++
	}
	return n
}

func seqKey(seq uint64) string {
	return fmt.Sprintf("%020d", seq)
}
