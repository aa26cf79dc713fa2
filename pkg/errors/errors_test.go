package errors

import (
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	assert.Equal(t, "NOT_FOUND: patient P1 not found", NewNotFoundError("patient P1 not found").Error())
	assert.Equal(t, "EXTERNAL: redis get failed: EOF", NewExternalError("redis get failed", io.EOF).Error())
}

func TestAppError_HTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, NewNotFoundError("x").HTTPStatus())
	assert.Equal(t, http.StatusBadRequest, NewValidationError("x").HTTPStatus())
	assert.Equal(t, http.StatusBadGateway, NewExternalError("x", nil).HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, NewInternalError("x", nil).HTTPStatus())
}

func TestIsType_Wrapped(t *testing.T) {
	err := fmt.Errorf("loading dashboard: %w", NewNotFoundError("patient P1 not found"))

	assert.True(t, IsNotFound(err))
	assert.False(t, IsType(err, ErrorTypeValidation))
	assert.False(t, IsNotFound(io.EOF))
	assert.ErrorIs(t, NewInternalError("wrap", io.EOF), io.EOF)
}
