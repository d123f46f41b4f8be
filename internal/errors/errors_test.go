package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fulmenhq/gofulmen/errors"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatusFromCode(t *testing.T) {
	cases := map[string]int{
		"INVALID_INPUT":       http.StatusBadRequest,
		"VALIDATION_FAILED":   http.StatusBadRequest,
		"NOT_FOUND":           http.StatusNotFound,
		"METHOD_NOT_ALLOWED":  http.StatusMethodNotAllowed,
		"TIMEOUT":             http.StatusGatewayTimeout,
		"SERVICE_UNAVAILABLE": http.StatusServiceUnavailable,
		"DATABASE_ERROR":      http.StatusInternalServerError,
		"SOMETHING_ELSE":      http.StatusInternalServerError,
	}
	for code, want := range cases {
		require.Equal(t, want, HTTPStatusFromCode(code), "code %s", code)
	}
}

func TestEnsureEnvelopePassesThrough(t *testing.T) {
	original := NewValidationError("bad input")
	require.Same(t, original, EnsureEnvelope(original))
}

func TestEnsureEnvelopeWrapsPlainErrors(t *testing.T) {
	envelope := EnsureEnvelope(fmt.Errorf("boom"))
	require.Equal(t, "INTERNAL_ERROR", envelope.Code)
	require.Equal(t, "boom", envelope.Context["wrapped_error"])
}

func TestEnsureCorrelationIDFallsBack(t *testing.T) {
	envelope := EnsureCorrelationID(NewNotFoundError("missing"), nil)
	require.NotEmpty(t, envelope.CorrelationID)
	require.Contains(t, envelope.CorrelationID, "fallback-")
}

func TestEnsureCorrelationIDKeepsExisting(t *testing.T) {
	envelope := NewNotFoundError("missing").WithCorrelationID("known")
	require.Equal(t, "known", EnsureCorrelationID(envelope, nil).CorrelationID)
}

func TestResponseDetailsMergesDetailsAndContext(t *testing.T) {
	envelope := NewValidationError("bad").WithDetails(map[string]interface{}{"field": "handle"})
	envelope, err := envelope.WithContext(map[string]interface{}{"attempt": 2, "field": "shadowed"})
	require.NoError(t, err)

	details := ResponseDetails(envelope)
	require.Equal(t, "handle", details["field"], "details win over context on collisions")
	require.Equal(t, 2, details["attempt"])
}

func TestRespondWithErrorWritesEnvelope(t *testing.T) {
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)

	RespondWithError(recorder, req, errors.NewErrorEnvelope("VALIDATION_FAILED", "limit must be a positive integer"))

	require.Equal(t, http.StatusBadRequest, recorder.Code)
	require.Equal(t, "application/json", recorder.Header().Get("Content-Type"))

	var body HTTPErrorResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	require.Equal(t, "VALIDATION_FAILED", body.Error.Code)
	require.Equal(t, "limit must be a positive integer", body.Error.Message)
	require.NotEmpty(t, body.Error.RequestID)
}

func TestRespondWithErrorNormalizesPlainErrors(t *testing.T) {
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	RespondWithError(recorder, req, fmt.Errorf("boom"))

	require.Equal(t, http.StatusInternalServerError, recorder.Code)

	var body HTTPErrorResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	require.Equal(t, "INTERNAL_ERROR", body.Error.Code)
}
