package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AdamBeresnev/pitch-league/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{name: "not found", err: fmt.Errorf("%w: slot", apperr.ErrNotFound), status: http.StatusNotFound, body: "not found: slot"},
		{name: "conflict", err: fmt.Errorf("%w: taken", apperr.ErrConflict), status: http.StatusConflict, body: "conflict: taken"},
		{name: "invalid state", err: apperr.ErrInvalidState, status: http.StatusUnprocessableEntity, body: "invalid state"},
		{name: "forbidden", err: apperr.ErrForbidden, status: http.StatusForbidden, body: "forbidden"},
		{name: "validation", err: apperr.ErrValidation, status: http.StatusBadRequest, body: "validation failed"},
		{name: "wrapped twice", err: fmt.Errorf("book: %w", fmt.Errorf("%w: full", apperr.ErrConflict)), status: http.StatusConflict, body: "book: conflict: full"},
		{name: "unclassified", err: errors.New("disk on fire"), status: http.StatusInternalServerError, body: "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Error(rec, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			var body errorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.body, body.Error)
		})
	}
}

func TestBadRequestAndNotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	BadRequest(rec, "invalid slot id", errors.New("bad uuid"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid slot id"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	NotFound(rec, "no such route", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	Unauthorized(rec)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
