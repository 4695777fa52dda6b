package domain

import (
	"context"
	"time"
)

// ScrapType tags what kind of item a scrap holds.
type ScrapType string

const (
	ScrapTypeLink    ScrapType = "link"
	ScrapTypeImage   ScrapType = "image"
	ScrapTypeText    ScrapType = "text"
	ScrapTypeVideo   ScrapType = "video"
	ScrapTypeSNS     ScrapType = "sns"
	ScrapTypeDefault ScrapType = "default"
)

// Valid reports whether t is one of the types a scrap can be saved with.
// ScrapTypeDefault is only a grouping bucket and is not valid for writes.
func (t ScrapType) Valid() bool {
	switch t {
	case ScrapTypeLink, ScrapTypeImage, ScrapTypeText, ScrapTypeVideo, ScrapTypeSNS:
		return true
	}
	return false
}

// ScrapData is the payload of a scrap.
type ScrapData struct {
	URL   string
	Title string
	Memo  string
}

// Scrap is a single saved item, owned by a user and assigned to exactly one
// category at a time.
type Scrap struct {
	ID         string
	UserID     string
	CategoryID string
	Type       ScrapType
	Data       ScrapData
	CreatedAt  time.Time
}

// ScrapRepository defines persistence operations for scraps.
type ScrapRepository interface {
	Create(ctx context.Context, scrap *Scrap) error
	GetByID(ctx context.Context, userID, id string) (*Scrap, error)
	// ListByCategory returns scraps matching both userID and categoryID,
	// newest first.
	ListByCategory(ctx context.Context, userID, categoryID string) ([]Scrap, error)
	CountByCategory(ctx context.Context, userID, categoryID string) (int, error)
	// Delete removes a scrap only if it is owned by userID.
	Delete(ctx context.Context, userID, id string) error
}
