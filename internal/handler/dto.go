package handler

import (
	"time"

	"github.com/msomdec/clip/internal/domain"
	"github.com/msomdec/clip/internal/service"
)

// UserDTO is the JSON representation of a user.
type UserDTO struct {
	ID                     string `json:"id"`
	Email                  string `json:"email"`
	HasCompletedOnboarding bool   `json:"hasCompletedOnboarding"`
	CreatedAt              string `json:"createdAt"`
	UpdatedAt              string `json:"updatedAt"`
}

func toUserDTO(u *domain.User) UserDTO {
	return UserDTO{
		ID:                     u.ID,
		Email:                  u.Email,
		HasCompletedOnboarding: u.HasCompletedOnboarding,
		CreatedAt:              u.CreatedAt.Format(time.RFC3339),
		UpdatedAt:              u.UpdatedAt.Format(time.RFC3339),
	}
}

// IdentityDTO describes who a request acts as.
type IdentityDTO struct {
	UserID    string `json:"userId"`
	Anonymous bool   `json:"anonymous"`
}

// CategoryDTO is the JSON representation of a category.
type CategoryDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
}

func toCategoryDTO(c domain.Category) CategoryDTO {
	return CategoryDTO{
		ID:        c.ID,
		Name:      c.Name,
		CreatedAt: c.CreatedAt.Format(time.RFC3339Nano),
	}
}

func toCategoryDTOs(categories []domain.Category) []CategoryDTO {
	dtos := make([]CategoryDTO, len(categories))
	for i, c := range categories {
		dtos[i] = toCategoryDTO(c)
	}
	return dtos
}

// ScrapDataDTO is the payload of a scrap.
type ScrapDataDTO struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Memo  string `json:"memo"`
}

// ScrapDTO is the JSON representation of a scrap.
type ScrapDTO struct {
	ID         string       `json:"id"`
	CategoryID string       `json:"categoryId"`
	Type       string       `json:"type"`
	Data       ScrapDataDTO `json:"data"`
	CreatedAt  string       `json:"createdAt"`
}

func toScrapDTO(s domain.Scrap) ScrapDTO {
	return ScrapDTO{
		ID:         s.ID,
		CategoryID: s.CategoryID,
		Type:       string(s.Type),
		Data:       ScrapDataDTO{URL: s.Data.URL, Title: s.Data.Title, Memo: s.Data.Memo},
		CreatedAt:  s.CreatedAt.Format(time.RFC3339Nano),
	}
}

func toScrapDTOs(scraps []domain.Scrap) []ScrapDTO {
	dtos := make([]ScrapDTO, len(scraps))
	for i, s := range scraps {
		dtos[i] = toScrapDTO(s)
	}
	return dtos
}

// ScrapGroupDTO is one type bucket of a grouped listing.
type ScrapGroupDTO struct {
	Type   string     `json:"type"`
	Scraps []ScrapDTO `json:"scraps"`
}

func toScrapGroupDTOs(groups []service.ScrapGroup) []ScrapGroupDTO {
	dtos := make([]ScrapGroupDTO, len(groups))
	for i, g := range groups {
		dtos[i] = ScrapGroupDTO{Type: string(g.Type), Scraps: toScrapDTOs(g.Scraps)}
	}
	return dtos
}
