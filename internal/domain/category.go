package domain

import (
	"context"
	"time"
)

// Category is a user-defined grouping bucket for scraps. Names are not
// unique; two categories of the same user may share a name.
type Category struct {
	ID        string
	UserID    string
	Name      string
	CreatedAt time.Time
}

// CategoryRepository defines persistence operations for categories.
type CategoryRepository interface {
	Create(ctx context.Context, category *Category) error
	// CreateMany inserts all categories in one transaction with a shared
	// creation timestamp. Either every category is written or none is.
	CreateMany(ctx context.Context, categories []*Category) error
	GetByID(ctx context.Context, userID, id string) (*Category, error)
	// ListByUser returns the user's categories, oldest first.
	ListByUser(ctx context.Context, userID string) ([]Category, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	// DeleteWithReassignment moves every scrap of the deleted category to
	// targetID and removes the category, atomically. It returns the number
	// of scraps moved.
	DeleteWithReassignment(ctx context.Context, userID, id, targetID string) (int, error)
}
