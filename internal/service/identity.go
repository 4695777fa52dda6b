package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/msomdec/clip/internal/domain"
)

// SessionKey is the SessionStore key holding the anonymous session id.
const SessionKey = "clip_session_id"

// SessionStore is a small per-client key-value store, such as a cookie jar
// or local storage.
type SessionStore interface {
	// Get returns the stored value and whether it was present.
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// MemorySessionStore is an in-process SessionStore.
type MemorySessionStore struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemorySessionStore returns an empty MemorySessionStore.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{values: make(map[string]string)}
}

func (m *MemorySessionStore) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemorySessionStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// IdentityResolver decides which owner id a request acts as.
type IdentityResolver struct {
	logger *slog.Logger
}

// NewIdentityResolver creates an IdentityResolver.
func NewIdentityResolver(logger *slog.Logger) *IdentityResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &IdentityResolver{logger: logger}
}

// Resolve returns the authenticated user's identity when there is one.
// Otherwise it reads the anonymous session id from store, creating and
// persisting one on first use. Storage failures are logged and a fresh id is
// returned, so the caller only loses continuity across sessions.
func (r *IdentityResolver) Resolve(ctx context.Context, authenticated *domain.User, store SessionStore) (domain.Identity, error) {
	if authenticated != nil && authenticated.ID != "" {
		return domain.Identity{UserID: authenticated.ID}, nil
	}

	if store != nil {
		existing, ok, err := store.Get(SessionKey)
		switch {
		case err != nil:
			r.logger.WarnContext(ctx, "read anonymous session", "error", err)
		case ok:
			if _, perr := uuid.Parse(existing); perr == nil {
				return domain.Identity{UserID: existing, Anonymous: true}, nil
			}
			r.logger.WarnContext(ctx, "discarding malformed anonymous session id")
		}
	}

	sessionID, err := uuid.NewRandom()
	if err != nil {
		return domain.Identity{}, fmt.Errorf("generate session id: %w", err)
	}

	if store != nil {
		if err := store.Set(SessionKey, sessionID.String()); err != nil {
			r.logger.WarnContext(ctx, "persist anonymous session", "error", err)
		}
	}

	return domain.Identity{UserID: sessionID.String(), Anonymous: true}, nil
}
