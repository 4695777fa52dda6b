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
	userPrefix        = "user:"
	userByEmailPrefix = "idx:users:email:"
)

type userDoc struct {
	ID                     string    `json:"id"`
	Email                  string    `json:"email"`
	PasswordHash           string    `json:"passwordHash"`
	HasCompletedOnboarding bool      `json:"hasCompletedOnboarding"`
	CreatedAt              time.Time `json:"createdAt"`
	UpdatedAt              time.Time `json:"updatedAt"`
}

func (d *userDoc) toDomain() *domain.User {
	return &domain.User{
		ID:                     d.ID,
		Email:                  d.Email,
		PasswordHash:           d.PasswordHash,
		HasCompletedOnboarding: d.HasCompletedOnboarding,
		CreatedAt:              d.CreatedAt,
		UpdatedAt:              d.UpdatedAt,
	}
}

type userRepo struct {
	store *Store
}

func (r *userRepo) Create(ctx context.Context, user *domain.User) error {
	userID := user.ID
	if userID == "" {
		generated, err := id.Generate(id.PrefixUser)
		if err != nil {
			return err
		}
		userID = generated
	}

	now := time.Now().UTC()
	doc := userDoc{
		ID:                     userID,
		Email:                  user.Email,
		PasswordHash:           user.PasswordHash,
		HasCompletedOnboarding: user.HasCompletedOnboarding,
		CreatedAt:              now,
		UpdatedAt:              now,
	}

	err := r.store.db.Update(func(txn *badger.Txn) error {
		emailKey := []byte(userByEmailPrefix + user.Email)
		if _, err := txn.Get(emailKey); err == nil {
			return domain.ErrDuplicateEmail
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		if err := setJSON(txn, userPrefix+userID, doc); err != nil {
			return err
		}
		return txn.Set(emailKey, []byte(userID))
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return err
		}
		return fmt.Errorf("insert user: %w", err)
	}

	user.ID = userID
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, userID string) (*domain.User, error) {
	var doc userDoc
	err := r.store.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, userPrefix+userID, &doc)
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var doc userDoc
	err := r.store.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(userByEmailPrefix + email))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		userID, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return getJSON(txn, userPrefix+string(userID), &doc)
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *userRepo) CompleteOnboarding(ctx context.Context, userID string) (bool, error) {
	flipped := false
	err := r.store.db.Update(func(txn *badger.Txn) error {
		var doc userDoc
		if err := getJSON(txn, userPrefix+userID, &doc); err != nil {
			return err
		}
		if doc.HasCompletedOnboarding {
			return nil
		}
		doc.HasCompletedOnboarding = true
		doc.UpdatedAt = time.Now().UTC()
		flipped = true
		return setJSON(txn, userPrefix+userID, doc)
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, err
		}
		return false, fmt.Errorf("complete onboarding: %w", err)
	}
	return flipped, nil
}
