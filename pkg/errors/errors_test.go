package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", Clone(ErrBackendUnavailable, "backend down"))
	appErr := FromError(wrapped)
	require.NotNil(t, appErr)
	assert.Equal(t, ErrBackendUnavailable.Code, appErr.Code)
	assert.Equal(t, "backend down", appErr.Message)
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	appErr := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Nil(t, FromError(nil))
}

func TestIsMatchesByCode(t *testing.T) {
	err := Wrap(errors.New("dial"), ErrBackendUnavailable.Code, http.StatusBadGateway, "x")
	assert.True(t, errors.Is(err, ErrBackendUnavailable))
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestWithStatus(t *testing.T) {
	err := WithStatus(ErrBackendRejected, http.StatusUnprocessableEntity)
	assert.Equal(t, http.StatusUnprocessableEntity, err.Status)
	assert.Equal(t, http.StatusBadGateway, ErrBackendRejected.Status)
}
