package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError(t *testing.T) {
	t.Run("matches sentinels by code", func(t *testing.T) {
		err := ErrNotFound.WithMessage("order 42 not found")

		assert.Equal(t, "order 42 not found", err.Error())
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NotErrorIs(t, err, ErrInvalidInput)
		assert.Equal(t, "Resource not found", ErrNotFound.Message)
	})

	t.Run("matches through wrapping", func(t *testing.T) {
		err := fmt.Errorf("failed to load order: %w", ErrNotFound)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("does not match plain errors", func(t *testing.T) {
		assert.False(t, ErrNotFound.Is(errors.New("NOT_FOUND")))
	})
}

func TestAsDomainError(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", NewDomainError("TAX_STATUS_MISMATCH", "tax status differs"))

	domainErr, ok := AsDomainError(wrapped)
	require.True(t, ok)
	assert.Equal(t, "TAX_STATUS_MISMATCH", domainErr.Code)

	_, ok = AsDomainError(errors.New("plain"))
	assert.False(t, ok)
}
