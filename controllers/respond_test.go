package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bioshop/services"
	"bioshop/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRespondError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"validation", invalid("quantity must be at least 1"), http.StatusBadRequest, "quantity must be at least 1"},
		{"wrapped validation", fmt.Errorf("create review: %w", invalid("rating must be between 1 and 5")), http.StatusBadRequest, "rating must be between 1 and 5"},
		{"not found", fmt.Errorf("%w: %s", services.ErrNotFound, "cart item not found"), http.StatusNotFound, "cart item not found"},
		{"store miss", store.ErrNotFound, http.StatusNotFound, "Not found"},
		{"conflict", fmt.Errorf("%w: %s", services.ErrConflict, "cart was modified concurrently"), http.StatusConflict, "cart was modified concurrently"},
		{"duplicate", fmt.Errorf("%w: %w", store.ErrDuplicate, errors.New("E11000 duplicate key")), http.StatusConflict, "A record with the same unique value already exists"},
		{"unauthorized", services.ErrUnauthorized, http.StatusUnauthorized, "Invalid email or password"},
		{"unexpected", errors.New("socket closed"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondError(rec, zap.NewNop(), tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantMsg, body["error"])
		})
	}
}

func TestRespondErrorLogsOnlyUnexpected(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := zap.New(core)

	respondError(httptest.NewRecorder(), log, store.ErrNotFound)
	assert.Zero(t, logs.Len())

	respondError(httptest.NewRecorder(), log, errors.New("socket closed"))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "request failed", logs.All()[0].Message)
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Quantity int `json:"quantity"`
	}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"quantity": 3}`))
	require.NoError(t, decodeJSON(httptest.NewRecorder(), r, &v))
	assert.Equal(t, 3, v.Quantity)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"quantity":`))
	err := decodeJSON(httptest.NewRecorder(), r, &v)
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestParseDate(t *testing.T) {
	from, err := parseDate("2026-10-01", false)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-01T00:00:00Z", from.Format("2006-01-02T15:04:05Z07:00"))

	to, err := parseDate("2026-10-01", true)
	require.NoError(t, err)
	assert.Equal(t, 2026, to.Year())
	assert.Equal(t, 23, to.Hour())

	exact, err := parseDate("2026-10-01T10:30:00+05:30", true)
	require.NoError(t, err)
	assert.Equal(t, 5, exact.Hour())

	zero, err := parseDate("", false)
	require.NoError(t, err)
	assert.True(t, zero.IsZero())

	_, err = parseDate("yesterday", false)
	assert.ErrorIs(t, err, services.ErrValidation)
}
