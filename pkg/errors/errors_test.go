package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneMatchesByCode(t *testing.T) {
	err := Clonef(ErrPreconditionFailed, "no subjects defined for %s semester %d", "CSE", 3)
	assert.Equal(t, "no subjects defined for CSE semester 3", err.Message)
	assert.Equal(t, "precondition failed", ErrPreconditionFailed.Message)
	assert.ErrorIs(t, err, ErrPreconditionFailed)
	assert.NotErrorIs(t, err, ErrConflict)

	wrapped := fmt.Errorf("save: %w", err)
	assert.ErrorIs(t, wrapped, ErrPreconditionFailed)
	assert.Nil(t, Clone(nil, "x"))
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("deadline exceeded")
	err := Wrap(cause, ErrInternal.Code, ErrInternal.Status, "generation failed")

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrInternal)
	assert.Equal(t, "generation failed: deadline exceeded", err.Error())
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	known := FromError(fmt.Errorf("wrap: %w", Clone(ErrConfiguration, "lunch eats the day")))
	require.NotNil(t, known)
	assert.Equal(t, http.StatusBadRequest, known.Status)
	assert.Equal(t, "lunch eats the day", known.Message)

	unknown := FromError(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, unknown.Status)
	assert.Equal(t, ErrInternal.Code, unknown.Code)
}
