package validation_test

import (
	"errors"
	"testing"

	"github.com/msomdec/clip/internal/domain"
	"github.com/msomdec/clip/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required,max=10"`
	Kind  string `json:"kind" validate:"omitempty,oneof=link text"`
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	err := v.Validate(testRequest{Email: "a@example.com", Name: "ok", Kind: "link"})
	assert.NoError(t, err)
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		req       testRequest
		wantField string
		wantMsg   string
	}{
		{
			name:      "missing name",
			req:       testRequest{Email: "a@example.com"},
			wantField: "name",
			wantMsg:   "is required",
		},
		{
			name:      "invalid email",
			req:       testRequest{Email: "nope", Name: "x"},
			wantField: "email",
			wantMsg:   "must be a valid email address",
		},
		{
			name:      "name too long",
			req:       testRequest{Email: "a@example.com", Name: "abcdefghijk"},
			wantField: "name",
			wantMsg:   "must not exceed 10 characters",
		},
		{
			name:      "unknown kind",
			req:       testRequest{Email: "a@example.com", Name: "x", Kind: "video"},
			wantField: "kind",
			wantMsg:   "must be one of: link text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidInput))

			var verr *validation.Error
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.wantMsg, verr.Fields[tt.wantField])
			assert.Contains(t, err.Error(), tt.wantField)
		})
	}
}
