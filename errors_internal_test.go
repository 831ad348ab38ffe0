package auth

import (
	"errors"
	"fmt"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithCause(t *testing.T) {
	cause := errors.New("disk on fire")

	err := withCause(ErrAccountConflict, cause)
	assert.NotSame(t, ErrAccountConflict, err)
	assert.Nil(t, ErrAccountConflict.Source, "sentinel must not be mutated")
	assert.Equal(t, ErrAccountConflict.Message, err.Message)
	assert.Equal(t, ErrAccountConflict.TextCode, err.TextCode)

	wrapped := fmt.Errorf("handler: %w", err)
	assert.ErrorIs(t, wrapped, ErrAccountConflict)
	assert.ErrorIs(t, wrapped, cause)
	assert.NotErrorIs(t, wrapped, ErrAccountNotFound)

	bare := withCause(ErrTokenExpired, nil)
	assert.ErrorIs(t, bare, ErrTokenExpired)
}

func TestWithValidation(t *testing.T) {
	cause := errors.New("ozzo")
	fields := map[string]string{"username": "Username must be at least 3 characters"}

	err := withValidation(ErrValidation, fields, cause)
	assert.Equal(t, fields, err.ValidationMap())
	assert.Empty(t, ErrValidation.ValidationErrors)
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, cause)
}

func TestInternalError(t *testing.T) {
	cause := errors.New("disk on fire")

	err := internalError(cause, "failed to load account")
	require.NotNil(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, goerrors.CategoryInternal, err.Category)
	assert.Equal(t, TextCodeInternal, err.TextCode)
	assert.Equal(t, goerrors.CodeInternal, err.Code)
	assert.Equal(t, "failed to load account", err.Message)

	noCause := internalError(nil, "identity is required")
	require.NotNil(t, noCause)
	assert.Equal(t, goerrors.CategoryInternal, noCause.Category)
	assert.Equal(t, TextCodeInternal, noCause.TextCode)
}

func TestCategoryStatus(t *testing.T) {
	tests := []struct {
		category goerrors.Category
		want     int
	}{
		{goerrors.CategoryValidation, goerrors.CodeBadRequest},
		{goerrors.CategoryBadInput, goerrors.CodeBadRequest},
		{goerrors.CategoryAuth, goerrors.CodeUnauthorized},
		{goerrors.CategoryAuthz, goerrors.CodeForbidden},
		{goerrors.CategoryNotFound, goerrors.CodeNotFound},
		{goerrors.CategoryConflict, goerrors.CodeConflict},
		{goerrors.CategoryRateLimit, goerrors.CodeTooManyRequests},
		{goerrors.CategoryExternal, goerrors.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.category.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, categoryStatus(tt.category))
		})
	}
}
