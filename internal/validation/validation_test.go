package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/culinary-compass/internal/apperror"
)

type registerRequest struct {
	Username string `json:"username" validate:"required,min=2,max=20"`
	Email    string `json:"email"    validate:"required,email"`
	Diet     string `json:"diet"     validate:"omitempty,oneof=vegan vegetarian neither"`
}

type nested struct {
	Places struct {
		APIKey string `koanf:"api_key" validate:"required"`
	} `koanf:"places"`
}

func TestStruct_Valid(t *testing.T) {
	err := Struct(registerRequest{Username: "al", Email: "al@example.com"})
	assert.NoError(t, err)
}

func TestStruct_Messages(t *testing.T) {
	tests := []struct {
		name      string
		req       registerRequest
		wantField string
		wantMsg   string
	}{
		{
			name:      "missing username",
			req:       registerRequest{Email: "a@b.co"},
			wantField: "username",
			wantMsg:   "username is required",
		},
		{
			name:      "short username",
			req:       registerRequest{Username: "a", Email: "a@b.co"},
			wantField: "username",
			wantMsg:   "username must be at least 2 characters",
		},
		{
			name:      "bad email",
			req:       registerRequest{Username: "alice", Email: "nope"},
			wantField: "email",
			wantMsg:   "email must be a valid email address",
		},
		{
			name:      "bad enum",
			req:       registerRequest{Username: "alice", Email: "a@b.co", Diet: "paleo"},
			wantField: "diet",
			wantMsg:   "diet must be one of: vegan vegetarian neither",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperror.ErrValidation))

			var appErr *apperror.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tt.wantField, appErr.Field)
			assert.Equal(t, tt.wantMsg, appErr.Message)
		})
	}
}

func TestFields_Multiple(t *testing.T) {
	fields, err := Fields(registerRequest{})
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, "username", fields[0].Field)
	assert.Equal(t, "email", fields[1].Field)
}

func TestFields_NestedKoanfNames(t *testing.T) {
	fields, err := Fields(nested{})
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, "places.api_key", fields[0].Field)
}

func TestGet_Singleton(t *testing.T) {
	assert.Same(t, Get(), Get())
}
