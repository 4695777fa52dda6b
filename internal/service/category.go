package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/msomdec/clip/internal/domain"
	"github.com/msomdec/clip/internal/validation"
)

// DefaultCategoryNames are offered during onboarding.
var DefaultCategoryNames = []string{"대외활동", "장학금", "여행", "알바", "주식", "채용공고"}

// CategoryService handles the business logic for user categories.
type CategoryService struct {
	categories domain.CategoryRepository
	users      domain.UserRepository
	broker     *Broker
	validate   *validation.Validator
}

// NewCategoryService creates a new CategoryService. broker may be nil.
func NewCategoryService(categories domain.CategoryRepository, users domain.UserRepository, broker *Broker) *CategoryService {
	return &CategoryService{
		categories: categories,
		users:      users,
		broker:     broker,
		validate:   validation.New(),
	}
}

type categoryInput struct {
	Name string `json:"name" validate:"required,max=50"`
}

type initialCategoriesInput struct {
	Names []string `json:"names" validate:"required,min=1,max=20,dive,required,max=50"`
}

// List returns the identity's categories, oldest first.
func (s *CategoryService) List(ctx context.Context, ident domain.Identity) ([]domain.Category, error) {
	if ident.IsZero() {
		return nil, domain.ErrUnauthorized
	}
	return s.categories.ListByUser(ctx, ident.UserID)
}

// Get returns one category owned by the identity.
func (s *CategoryService) Get(ctx context.Context, ident domain.Identity, categoryID string) (*domain.Category, error) {
	if ident.IsZero() {
		return nil, domain.ErrUnauthorized
	}
	return s.categories.GetByID(ctx, ident.UserID, categoryID)
}

// Create appends a category. Duplicate names are allowed.
func (s *CategoryService) Create(ctx context.Context, ident domain.Identity, name string) (*domain.Category, error) {
	if ident.IsZero() {
		return nil, domain.ErrUnauthorized
	}

	name = strings.TrimSpace(name)
	if err := s.validate.Validate(categoryInput{Name: name}); err != nil {
		return nil, err
	}

	category := &domain.Category{UserID: ident.UserID, Name: name}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}

	s.broker.Publish(ChangeEvent{UserID: ident.UserID, Kind: ChangeCategories})
	return category, nil
}

// CreateInitial writes a batch of categories atomically with one shared
// timestamp. Blank entries are rejected and repeated names are collapsed to
// their first occurrence. A registered user's onboarding is marked complete
// once the batch is stored.
func (s *CategoryService) CreateInitial(ctx context.Context, ident domain.Identity, names []string) ([]domain.Category, error) {
	if ident.IsZero() {
		return nil, domain.ErrUnauthorized
	}

	cleaned := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n != "" && slices.Contains(cleaned, n) {
			continue
		}
		cleaned = append(cleaned, n)
	}
	if err := s.validate.Validate(initialCategoriesInput{Names: cleaned}); err != nil {
		return nil, err
	}

	batch := make([]*domain.Category, len(cleaned))
	for i, n := range cleaned {
		batch[i] = &domain.Category{UserID: ident.UserID, Name: n}
	}
	if err := s.categories.CreateMany(ctx, batch); err != nil {
		return nil, fmt.Errorf("create initial categories: %w", err)
	}
	s.broker.Publish(ChangeEvent{UserID: ident.UserID, Kind: ChangeCategories})

	if !ident.Anonymous {
		flipped, err := s.users.CompleteOnboarding(ctx, ident.UserID)
		if err != nil {
			return nil, fmt.Errorf("complete onboarding: %w", err)
		}
		if flipped {
			s.broker.Publish(ChangeEvent{UserID: ident.UserID, Kind: ChangeUser})
		}
	}

	created := make([]domain.Category, len(batch))
	for i, c := range batch {
		created[i] = *c
	}
	return created, nil
}

// DeleteWithReassignment moves every scrap of categoryID into targetID and
// deletes categoryID in one transaction. It returns how many scraps moved.
func (s *CategoryService) DeleteWithReassignment(ctx context.Context, ident domain.Identity, categoryID, targetID string) (int, error) {
	if ident.IsZero() {
		return 0, domain.ErrUnauthorized
	}
	if categoryID == "" || targetID == "" {
		return 0, fmt.Errorf("%w: category and move target are required", domain.ErrInvalidInput)
	}

	moved, err := s.categories.DeleteWithReassignment(ctx, ident.UserID, categoryID, targetID)
	if err != nil {
		return 0, err
	}

	s.broker.Publish(ChangeEvent{UserID: ident.UserID, Kind: ChangeCategories})
	if moved > 0 {
		s.broker.Publish(ChangeEvent{UserID: ident.UserID, Kind: ChangeScraps, CategoryID: targetID})
	}
	return moved, nil
}

// AvailableDefaults returns the suggested names the identity does not have yet.
func (s *CategoryService) AvailableDefaults(ctx context.Context, ident domain.Identity) ([]string, error) {
	existing, err := s.List(ctx, ident)
	if err != nil {
		return nil, err
	}

	taken := make(map[string]bool, len(existing))
	for _, c := range existing {
		taken[c.Name] = true
	}

	available := []string{}
	for _, n := range DefaultCategoryNames {
		if !taken[n] {
			available = append(available, n)
		}
	}
	return available, nil
}
