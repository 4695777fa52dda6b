package service

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/msomdec/clip/internal/domain"
	"github.com/msomdec/clip/internal/validation"
)

const (
	maxImageSize    = 10 * 1024 * 1024 // 10MB
	maxFilenameLen  = 100
	imageKeyPrefix  = "scrap_images/"
	filesPathPrefix = "/files/"
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// ScrapInput is the caller-supplied part of a new scrap.
type ScrapInput struct {
	Type  domain.ScrapType `json:"type"`
	URL   string           `json:"url" validate:"max=2048"`
	Title string           `json:"title" validate:"max=200"`
	Memo  string           `json:"memo" validate:"max=2000"`
}

// ScrapService handles the business logic for scraps and their images.
type ScrapService struct {
	scraps     domain.ScrapRepository
	categories domain.CategoryRepository
	files      domain.FileStore
	broker     *Broker
	validate   *validation.Validator
	now        func() time.Time
}

// NewScrapService creates a new ScrapService. broker may be nil.
func NewScrapService(scraps domain.ScrapRepository, categories domain.CategoryRepository, files domain.FileStore, broker *Broker) *ScrapService {
	return &ScrapService{
		scraps:     scraps,
		categories: categories,
		files:      files,
		broker:     broker,
		validate:   validation.New(),
		now:        time.Now,
	}
}

// Add stores a new scrap in a category owned by the identity. An omitted type
// means link and an omitted title falls back to the URL.
func (s *ScrapService) Add(ctx context.Context, ident domain.Identity, categoryID string, in ScrapInput) (*domain.Scrap, error) {
	if ident.IsZero() {
		return nil, domain.ErrUnauthorized
	}

	in.URL = strings.TrimSpace(in.URL)
	in.Title = strings.TrimSpace(in.Title)
	in.Memo = strings.TrimSpace(in.Memo)
	if in.Type == "" {
		in.Type = domain.ScrapTypeLink
	}
	if err := s.validateInput(in); err != nil {
		return nil, err
	}
	if in.Title == "" {
		in.Title = in.URL
	}

	if _, err := s.categories.GetByID(ctx, ident.UserID, categoryID); err != nil {
		return nil, err
	}

	scrap := &domain.Scrap{
		UserID:     ident.UserID,
		CategoryID: categoryID,
		Type:       in.Type,
		Data:       domain.ScrapData{URL: in.URL, Title: in.Title, Memo: in.Memo},
	}
	if err := s.scraps.Create(ctx, scrap); err != nil {
		return nil, fmt.Errorf("create scrap: %w", err)
	}

	s.broker.Publish(ChangeEvent{UserID: ident.UserID, Kind: ChangeScraps, CategoryID: categoryID})
	return scrap, nil
}

func (s *ScrapService) validateInput(in ScrapInput) error {
	if !in.Type.Valid() {
		return fmt.Errorf("%w: unknown scrap type %q", domain.ErrInvalidInput, in.Type)
	}
	if err := s.validate.Validate(in); err != nil {
		return err
	}

	if in.Type == domain.ScrapTypeText {
		if in.Memo == "" {
			return fmt.Errorf("%w: memo is required for text scraps", domain.ErrInvalidInput)
		}
		return nil
	}

	if in.URL == "" {
		return fmt.Errorf("%w: url is required", domain.ErrInvalidInput)
	}
	if in.Type == domain.ScrapTypeImage && strings.HasPrefix(in.URL, filesPathPrefix) {
		return nil
	}
	u, err := url.Parse(in.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: url must be an absolute http(s) URL", domain.ErrInvalidInput)
	}
	return nil
}

// ListByCategory returns the identity's scraps in categoryID, newest first.
func (s *ScrapService) ListByCategory(ctx context.Context, ident domain.Identity, categoryID string) ([]domain.Scrap, error) {
	if ident.IsZero() {
		return nil, domain.ErrUnauthorized
	}
	return s.scraps.ListByCategory(ctx, ident.UserID, categoryID)
}

// Delete removes a scrap owned by the identity. Scraps of other owners are
// reported as not found.
func (s *ScrapService) Delete(ctx context.Context, ident domain.Identity, scrapID string) error {
	if ident.IsZero() {
		return domain.ErrUnauthorized
	}
	scrap, err := s.scraps.GetByID(ctx, ident.UserID, scrapID)
	if err != nil {
		return err
	}
	if err := s.scraps.Delete(ctx, ident.UserID, scrapID); err != nil {
		return err
	}

	s.broker.Publish(ChangeEvent{UserID: ident.UserID, Kind: ChangeScraps, CategoryID: scrap.CategoryID})
	return nil
}

// UploadImage stores an image for the identity and returns the path it is
// served from.
func (s *ScrapService) UploadImage(ctx context.Context, ident domain.Identity, filename, contentType string, data []byte) (string, error) {
	if ident.IsZero() {
		return "", domain.ErrUnauthorized
	}
	if !allowedImageTypes[contentType] {
		return "", fmt.Errorf("%w: only JPEG, PNG, GIF and WebP images are accepted", domain.ErrInvalidInput)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: image is empty", domain.ErrInvalidInput)
	}
	if len(data) > maxImageSize {
		return "", fmt.Errorf("%w: image exceeds 10MB limit", domain.ErrInvalidInput)
	}

	key := imageKeyPrefix + ident.UserID + "/" +
		strconv.FormatInt(s.now().UnixMilli(), 10) + "_" + sanitizeFilename(filename)
	if err := s.files.Save(ctx, key, contentType, data); err != nil {
		return "", fmt.Errorf("save file: %w", err)
	}

	return filesPathPrefix + key, nil
}

// OpenImage returns a stored image if its key belongs to the identity.
func (s *ScrapService) OpenImage(ctx context.Context, ident domain.Identity, key string) ([]byte, string, error) {
	if ident.IsZero() {
		return nil, "", domain.ErrUnauthorized
	}
	rest, ok := strings.CutPrefix(key, imageKeyPrefix)
	if !ok {
		return nil, "", domain.ErrNotFound
	}
	owner, _, ok := strings.Cut(rest, "/")
	if !ok || owner != ident.UserID {
		return nil, "", domain.ErrNotFound
	}

	data, contentType, err := s.files.Get(ctx, key)
	if err != nil {
		return nil, "", fmt.Errorf("get file: %w", err)
	}
	return data, contentType, nil
}

// sanitizeFilename keeps ASCII letters, digits, dot, dash and underscore.
func sanitizeFilename(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
	clean = strings.TrimLeft(clean, ".")
	if len(clean) > maxFilenameLen {
		clean = clean[len(clean)-maxFilenameLen:]
	}
	if clean == "" {
		return "image"
	}
	return clean
}
