package handlers

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fulmenhq/gofulmen/errors"

	"github.com/handlescope/handlescope/internal/core"
	"github.com/handlescope/handlescope/internal/core/engine"
)

var checkEngine *engine.Orchestrator

// SetCheckEngine injects the checking engine used by the check handlers.
func SetCheckEngine(orch *engine.Orchestrator) {
	checkEngine = orch
}

type checkRequest struct {
	Handle    string   `json:"handle"`
	Platforms []string `json:"platforms,omitempty"`
}

type bulkCheckRequest struct {
	Handles   []string `json:"handles"`
	Platforms []string `json:"platforms,omitempty"`
}

// CheckHandler handles POST /api/check. With Accept: text/event-stream or
// ?stream=1 it streams per-platform results as they complete; otherwise it
// responds with the complete result set as one JSON document.
func CheckHandler(w http.ResponseWriter, r *http.Request) {
	if checkEngine == nil {
		respondWithError(w, r, errors.NewErrorEnvelope("SERVICE_UNAVAILABLE", "checking engine not initialized"))
		return
	}

	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, r, errors.NewErrorEnvelope("INVALID_INPUT", "request body must be valid JSON"))
		return
	}

	// Validate before committing to a response shape so malformed requests
	// get a 400 instead of an SSE error event.
	handle, err := core.ValidateHandle(req.Handle)
	if err != nil {
		respondWithError(w, r, errors.NewErrorEnvelope("VALIDATION_FAILED", fmt.Sprintf("invalid handle: %v", err)))
		return
	}

	if wantsStream(r) {
		streamCheck(w, r, handle, req.Platforms)
		return
	}

	response, err := checkEngine.CheckHandle(r.Context(), engine.CheckRequest{
		Handle:       handle,
		PlatformKeys: req.Platforms,
	})
	if err != nil {
		respondWithError(w, r, checkErrorEnvelope(err))
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// BulkCheckHandler handles POST /api/check/bulk with the same streaming
// negotiation as CheckHandler.
func BulkCheckHandler(w http.ResponseWriter, r *http.Request) {
	if checkEngine == nil {
		respondWithError(w, r, errors.NewErrorEnvelope("SERVICE_UNAVAILABLE", "checking engine not initialized"))
		return
	}

	var req bulkCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, r, errors.NewErrorEnvelope("INVALID_INPUT", "request body must be valid JSON"))
		return
	}

	handles, envelope := validateBulkHandles(req.Handles)
	if envelope != nil {
		respondWithError(w, r, envelope)
		return
	}

	if wantsStream(r) {
		streamBulkCheck(w, r, handles, req.Platforms)
		return
	}

	response, err := checkEngine.CheckBulk(r.Context(), engine.BulkCheckRequest{
		Handles:      handles,
		PlatformKeys: req.Platforms,
	})
	if err != nil {
		respondWithError(w, r, checkErrorEnvelope(err))
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// validateBulkHandles rejects malformed bulk input before any probe work
// starts. It returns the trimmed handles in input order, duplicates kept.
func validateBulkHandles(raw []string) ([]string, *errors.ErrorEnvelope) {
	handles := make([]string, 0, len(raw))
	for _, candidate := range raw {
		if strings.TrimSpace(candidate) == "" {
			continue
		}
		handle, err := core.ValidateHandle(candidate)
		if err != nil {
			return nil, errors.NewErrorEnvelope("VALIDATION_FAILED", fmt.Sprintf("invalid handle %q: %v", candidate, err))
		}
		handles = append(handles, handle)
	}

	if len(handles) == 0 {
		return nil, errors.NewErrorEnvelope("VALIDATION_FAILED", "handles must contain at least one handle")
	}
	if maxHandles := checkEngine.Config().BulkMaxHandles; len(handles) > maxHandles {
		return nil, errors.NewErrorEnvelope("VALIDATION_FAILED",
			fmt.Sprintf("too many handles: %d exceeds the maximum of %d", len(handles), maxHandles))
	}

	return handles, nil
}

// wantsStream reports whether the caller asked for server-sent events.
func wantsStream(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		return true
	}
	return r.URL.Query().Get("stream") == "1"
}

func streamCheck(w http.ResponseWriter, r *http.Request, handle string, platformKeys []string) {
	stream, ok := newSSEStream(w)
	if !ok {
		respondWithError(w, r, errors.NewErrorEnvelope("INTERNAL_ERROR", "streaming is not supported on this connection"))
		return
	}

	stream.send("meta", map[string]any{
		"handle":      handle,
		"requestedAt": time.Now().UTC().Format(time.RFC3339),
	})

	response, err := checkEngine.CheckHandle(r.Context(), engine.CheckRequest{
		Handle:       handle,
		PlatformKeys: platformKeys,
		OnPartial:    stream.partial,
	})
	if err != nil {
		stream.send("error", map[string]string{"message": err.Error()})
		return
	}

	stream.send("done", response)
}

func streamBulkCheck(w http.ResponseWriter, r *http.Request, handles []string, platformKeys []string) {
	stream, ok := newSSEStream(w)
	if !ok {
		respondWithError(w, r, errors.NewErrorEnvelope("INTERNAL_ERROR", "streaming is not supported on this connection"))
		return
	}

	stream.send("meta", map[string]any{
		"handles":     handles,
		"requestedAt": time.Now().UTC().Format(time.RFC3339),
	})

	response, err := checkEngine.CheckBulk(r.Context(), engine.BulkCheckRequest{
		Handles:      handles,
		PlatformKeys: platformKeys,
		OnPartial:    stream.partial,
	})
	if err != nil {
		stream.send("error", map[string]string{"message": err.Error()})
		return
	}

	stream.send("done", response)
}

// checkErrorEnvelope maps engine errors onto API error envelopes.
func checkErrorEnvelope(err error) *errors.ErrorEnvelope {
	var validation *engine.ValidationError
	if stderrors.As(err, &validation) {
		return errors.NewErrorEnvelope("VALIDATION_FAILED", validation.Error())
	}
	return errors.NewErrorEnvelope("INTERNAL_ERROR", "handle check failed")
}

// sseStream serializes server-sent events onto one response. Bulk checks
// emit partial results from several goroutines; the mutex keeps event frames
// from interleaving.
type sseStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
	mu      sync.Mutex
}

func newSSEStream(w http.ResponseWriter) (*sseStream, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, false
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &sseStream{w: w, flusher: flusher}, true
}

func (s *sseStream) send(event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, data)
	s.flusher.Flush()
}

func (s *sseStream) partial(handle string, result *core.PlatformCheckResult) {
	s.send("result", map[string]any{
		"handle": handle,
		"result": result,
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}
