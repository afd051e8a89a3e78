package errs

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "", ErrorCode(nil))
	assert.Equal(t, ENOTFOUND, ErrorCode(Errorf(ENOTFOUND, "missing")))
	assert.Equal(t, ECONFLICT, ErrorCode(fmt.Errorf("wrapped: %w", Errorf(ECONFLICT, "taken"))))
	assert.Equal(t, EINTERNAL, ErrorCode(errors.New("boom")))
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "", ErrorMessage(nil))
	assert.Equal(t, "User 3 is gone.", ErrorMessage(Errorf(ENOTFOUND, "User %d is gone.", 3)))
	assert.Equal(t, "Internal error.", ErrorMessage(errors.New("connection refused")))
}

func TestErrorStatusCode(t *testing.T) {
	tests := map[string]int{
		ECONFLICT:     http.StatusConflict,
		EINVALID:      http.StatusBadRequest,
		ENOTFOUND:     http.StatusNotFound,
		EUNAUTHORIZED: http.StatusUnauthorized,
		EFORBIDDEN:    http.StatusForbidden,
		EINTERNAL:     http.StatusInternalServerError,
		"unknown":     http.StatusInternalServerError,
	}
	for code, status := range tests {
		assert.Equal(t, status, ErrorStatusCode(code), code)
	}
}

func TestReturnError(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/users/1", nil)

	w := httptest.NewRecorder()
	ReturnError(w, r, Errorf(ENOTFOUND, "The user does not exist."))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "The user does not exist.")

	w = httptest.NewRecorder()
	ReturnError(w, r, errors.New("pq: relation users does not exist"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "relation")
}
