package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_UsesDefaultMessageAndStatus(t *testing.T) {
	err := New(URLNotFound)

	assert.Equal(t, "short URL not found", err.Message)
	assert.Equal(t, http.StatusNotFound, err.Status())
}

func TestStatus_UnknownKindDefaultsToInternal(t *testing.T) {
	err := New(Kind("SOMETHING_UNLISTED"))

	assert.Equal(t, http.StatusInternalServerError, err.Status())
}

func TestWrap_PreservesPublicMessageAndSetsDetail(t *testing.T) {
	cause := errors.New("duplicate key")
	err := New(CustomAliasTaken).Wrap(cause)

	assert.Equal(t, "custom alias is already in use", err.Message)
	assert.Equal(t, "duplicate key", err.Detail())
	assert.ErrorIs(t, err, cause)
}

func TestWithContext_DoesNotMutateOriginal(t *testing.T) {
	base := New(InvalidInput)
	withCtx := base.WithContext("field", "originalUrl")

	assert.Nil(t, base.Metadata)
	assert.Equal(t, "originalUrl", withCtx.Metadata["field"])
}

func TestWithMessage_ReplacesPublicMessageOnly(t *testing.T) {
	base := New(Forbidden)
	renamed := base.WithMessage("owner mismatch")

	assert.Equal(t, "access to this resource is forbidden", base.Message)
	assert.Equal(t, "owner mismatch", renamed.Message)
}

func TestAs_FindsAppErrorThroughWrapChain(t *testing.T) {
	inner := New(DatabaseError).Wrap(errors.New("conn refused"))
	wrapped := fmt.Errorf("insert link: %w", inner)

	found, ok := As(wrapped)

	require.True(t, ok)
	assert.Equal(t, DatabaseError, found.Kind)
}

func TestAs_ReturnsFalseForPlainError(t *testing.T) {
	_, ok := As(errors.New("plain"))

	assert.False(t, ok)
}

func TestWrapFunc_BuildsAppErrorFromCause(t *testing.T) {
	err := Wrap(CacheError, errors.New("timeout"))

	assert.Equal(t, CacheError, err.Kind)
	assert.Equal(t, "timeout", err.Detail())
}
