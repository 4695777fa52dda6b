package domain

import (
	"context"
	"time"
)

// User represents a registered user of the application.
type User struct {
	ID                     string
	Email                  string
	PasswordHash           string
	HasCompletedOnboarding bool
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// CompleteOnboarding sets the onboarding flag. It reports false when the
	// flag was already set.
	CompleteOnboarding(ctx context.Context, id string) (bool, error)
}

// Identity is the owner every category and scrap operation is scoped to.
// It is either a registered user or an anonymous browser session.
type Identity struct {
	UserID    string
	Anonymous bool
}

// IsZero reports whether the identity carries no user ID.
func (i Identity) IsZero() bool {
	return i.UserID == ""
}
