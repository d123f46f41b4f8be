package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/fulmenhq/gofulmen/errors"

	"github.com/handlescope/handlescope/internal/core/store"
	apperrors "github.com/handlescope/handlescope/internal/errors"
)

const maxHistoryLimit = 200

// CheckHistory reads recorded check outcomes, implemented by the libsql
// store.
type CheckHistory interface {
	RecentChecks(ctx context.Context, handle string, limit int) ([]store.CheckRecord, error)
}

var checkHistory CheckHistory

// SetCheckHistory injects the durable check history source.
func SetCheckHistory(history CheckHistory) {
	checkHistory = history
}

type historyResponse struct {
	Checks []store.CheckRecord `json:"checks"`
}

// HistoryHandler handles GET /api/history. Optional query parameters:
// handle filters to one handle, limit caps the row count.
func HistoryHandler(w http.ResponseWriter, r *http.Request) {
	if checkHistory == nil {
		respondWithError(w, r, errors.NewErrorEnvelope("SERVICE_UNAVAILABLE", "check history requires a configured store"))
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondWithError(w, r, errors.NewErrorEnvelope("VALIDATION_FAILED", "limit must be a positive integer"))
			return
		}
		if parsed > maxHistoryLimit {
			parsed = maxHistoryLimit
		}
		limit = parsed
	}

	records, err := checkHistory.RecentChecks(r.Context(), r.URL.Query().Get("handle"), limit)
	if err != nil {
		respondWithError(w, r, apperrors.WrapDatabaseError(r.Context(), err, "failed to read check history"))
		return
	}
	if records == nil {
		records = []store.CheckRecord{}
	}

	writeJSON(w, http.StatusOK, historyResponse{Checks: records})
}
