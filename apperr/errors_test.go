package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("familyName", "is required")
	assert.Equal(t, "familyName: is required", err.Error())
	assert.True(t, IsValidationError(fmt.Errorf("create family: %w", err)))

	assert.Equal(t, "Invalid request", NewValidationError("", "Invalid request").Error())
	assert.False(t, IsValidationError(ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))
}
