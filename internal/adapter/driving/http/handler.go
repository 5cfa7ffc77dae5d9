package httphandler

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ericfisherdev/bearerwatch/internal/application"
	"github.com/ericfisherdev/bearerwatch/internal/domain/model"
	"github.com/ericfisherdev/bearerwatch/internal/domain/port/driven"
)

// IngestTokenHeader carries the shared secret on the event ingestion endpoint.
const IngestTokenHeader = "X-Bearerwatch-Token"

const (
	maxEventBody   = 1 << 20
	maxCaptureBody = 64 << 20
)

var (
	errMissingTabID     = errors.New("tab_id is required for lifecycle events")
	errUnknownEventType = errors.New("unknown event type")
)

// captureService is the credential side of application.CaptureStore.
type captureService interface {
	Query() (model.CredentialRecord, bool)
	Status() application.CaptureStatus
	Clear(ctx context.Context) error
}

// indicatorView reads the status indicator shown to the user.
type indicatorView interface {
	Text() string
	Color() string
}

type eventDispatcher interface {
	Dispatch(ctx context.Context, ev model.Event) error
}

type tokenForwarder interface {
	Send(ctx context.Context) error
	SendValue(ctx context.Context, value string) error
}

type candidateSource interface {
	FromCapture(ctx context.Context, data []byte) ([]application.CandidateView, error)
}

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	captures    captureService
	indicator   indicatorView
	dispatcher  eventDispatcher
	forwarder   tokenForwarder
	candidates  candidateSource
	prefs       driven.PreferenceStore
	ingestToken string
	logger      *slog.Logger
}

// NewHandler creates a Handler with all required dependencies. When
// ingestToken is non-empty, event ingestion requires it in IngestTokenHeader.
func NewHandler(
	captures captureService,
	indicator indicatorView,
	dispatcher eventDispatcher,
	forwarder tokenForwarder,
	candidates candidateSource,
	prefs driven.PreferenceStore,
	ingestToken string,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		captures:    captures,
		indicator:   indicator,
		dispatcher:  dispatcher,
		forwarder:   forwarder,
		candidates:  candidates,
		prefs:       prefs,
		ingestToken: ingestToken,
		logger:      logger,
	}
}

// RegisterAPIRoutes registers all JSON API routes on mux.
func RegisterAPIRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /api/v1/credential", h.GetCredential)
	mux.HandleFunc("DELETE /api/v1/credential", h.ClearCredential)
	mux.HandleFunc("POST /api/v1/credential/send", h.SendCredential)
	mux.HandleFunc("GET /api/v1/status", h.Status)
	mux.HandleFunc("GET /api/v1/preferences", h.GetPreferences)
	mux.HandleFunc("PATCH /api/v1/preferences", h.UpdatePreferences)
	mux.HandleFunc("POST /api/v1/events", h.IngestEvent)
	mux.HandleFunc("POST /api/v1/candidates", h.ExtractCandidates)
	mux.HandleFunc("GET /api/v1/health", h.Health)
}

// ApplyMiddleware wraps handler with request ID, logging, and recovery middleware.
func ApplyMiddleware(handler http.Handler, logger *slog.Logger) http.Handler {
	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, handler)
	wrapped = loggingMiddleware(logger, wrapped)
	wrapped = requestIDMiddleware(wrapped)
	return wrapped
}

// NewServeMux creates an http.Handler with all API routes registered and
// wrapped with middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	RegisterAPIRoutes(mux, h)
	return ApplyMiddleware(mux, logger)
}

// GetCredential returns the active credential, or 404 when none is captured.
func (h *Handler) GetCredential(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.captures.Query()
	if !ok {
		writeError(w, http.StatusNotFound, "no credential captured")
		return
	}

	prefs, err := h.prefs.Get(r.Context())
	if err != nil {
		h.logger.Error("failed to load preferences", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, CredentialResponse{
		Token: rec.Display(prefs.IncludeSchemePrefix),
		URL:   rec.SourceURL,
	})
}

// ClearCredential discards the active credential.
func (h *Handler) ClearCredential(w http.ResponseWriter, r *http.Request) {
	if err := h.captures.Clear(r.Context()); err != nil {
		h.logger.Error("failed to clear credential", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SendCredential forwards the active credential, or the value named in the
// optional request body, to the configured automation instance.
func (h *Handler) SendCredential(w http.ResponseWriter, r *http.Request) {
	var req SendRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(io.LimitReader(r.Body, maxEventBody)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	var err error
	if req.Value != "" {
		err = h.forwarder.SendValue(r.Context(), req.Value)
	} else {
		err = h.forwarder.Send(r.Context())
	}

	switch {
	case err == nil:
		w.WriteHeader(http.StatusAccepted)
	case errors.Is(err, application.ErrNoCredential):
		writeError(w, http.StatusConflict, "no credential captured")
	case errors.Is(err, application.ErrAutomationNotConfigured):
		writeError(w, http.StatusPreconditionFailed, "automation endpoint not configured")
	default:
		writeError(w, http.StatusBadGateway, "forwarding failed")
	}
}

// Status reports whether a credential is captured, its owning tab, and the
// indicator state.
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, toStatusResponse(h.captures.Status(), h.indicator))
}

// GetPreferences returns the stored settings with tokens masked.
func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.prefs.Get(r.Context())
	if err != nil {
		h.logger.Error("failed to load preferences", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toPreferencesResponse(prefs))
}

// UpdatePreferences applies a partial settings update and returns the result.
func (h *Handler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var req PreferencesPatchRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxEventBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.prefs.Update(r.Context(), req.toPatch()); err != nil {
		h.logger.Error("failed to update preferences", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.GetPreferences(w, r)
}

// IngestEvent accepts one traffic or lifecycle event from a browser host.
// Persistence failures are not reported back to the caller.
func (h *Handler) IngestEvent(w http.ResponseWriter, r *http.Request) {
	if h.ingestToken != "" {
		got := r.Header.Get(IngestTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.ingestToken)) != 1 {
			writeError(w, http.StatusUnauthorized, "invalid ingest token")
			return
		}
	}

	var req EventRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxEventBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ev, err := req.toEvent()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.dispatcher.Dispatch(r.Context(), ev); err != nil {
		h.logger.Error("failed to dispatch event", "type", req.Type, "error", err)
		writeError(w, http.StatusBadRequest, "unsupported event")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ExtractCandidates parses a HAR document from the request body and returns
// its distinct Authorization values.
func (h *Handler) ExtractCandidates(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxCaptureBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "capture too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	views, err := h.candidates.FromCapture(r.Context(), data)
	if err != nil {
		if errors.Is(err, driven.ErrMalformedCapture) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to extract candidates", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]CandidateResponse, 0, len(views))
	for _, v := range views {
		resp = append(resp, toCandidateResponse(v))
	}

	writeJSON(w, http.StatusOK, resp)
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}
