package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusMapping(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, Status(Validation("bad")))
	assert.Equal(t, http.StatusNotFound, Status(NotFound("missing")))
	assert.Equal(t, http.StatusForbidden, Status(Forbidden("nope")))
	assert.Equal(t, http.StatusConflict, Status(Conflict("taken")))
	assert.Equal(t, http.StatusUnauthorized, Status(Unauthorized("who")))
	assert.Equal(t, http.StatusInternalServerError, Status(Internal("boom", errors.New("db down"))))
	assert.Equal(t, http.StatusInternalServerError, Status(errors.New("plain")))
}

func TestStatusUnwrapsWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", NotFound("missing"))
	assert.Equal(t, http.StatusNotFound, Status(wrapped))
}

func TestMessageSuppressesInternalDetail(t *testing.T) {
	err := Internal("Failed to send message", errors.New("pq: connection refused"))

	assert.Equal(t, "Internal server error", Message(err, true))
	assert.Contains(t, Message(err, false), "connection refused")
}

func TestMessageKeepsClientFacingKinds(t *testing.T) {
	assert.Equal(t, "Conversation not found", Message(NotFound("Conversation not found"), true))
	assert.Equal(t, "Invalid credentials", Message(Unauthorized("Invalid credentials"), true))
}
