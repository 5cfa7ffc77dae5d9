package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/bearerwatch/internal/application"
	"github.com/ericfisherdev/bearerwatch/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// CredentialResponse is the active credential, formatted per the user's
// include-scheme-prefix preference.
type CredentialResponse struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

// StatusResponse describes the capture state and the found indicator.
type StatusResponse struct {
	Found      bool    `json:"found"`
	URL        string  `json:"url,omitempty"`
	OwnerTabID *int64  `json:"owner_tab_id"`
	CapturedAt *string `json:"captured_at"`
	BadgeLit   bool    `json:"badge_lit"`
	BadgeText  string  `json:"badge_text"`
	BadgeColor string  `json:"badge_color"`
}

// PreferencesResponse is the JSON representation of the user's settings.
// Access tokens are masked; the *_set fields report whether one is stored.
type PreferencesResponse struct {
	SetupComplete       bool   `json:"setup_toggle"`
	HAURL               string `json:"ha_url"`
	HAToken             string `json:"ha_token"`
	HATokenSet          bool   `json:"ha_token_set"`
	DebugMode           bool   `json:"debug_mode_toggle"`
	HAURLDev            string `json:"ha_url_dev"`
	HATokenDev          string `json:"ha_token_dev"`
	HATokenDevSet       bool   `json:"ha_token_dev_set"`
	IncludeSchemePrefix bool   `json:"include_bearer_toggle"`
}

// PreferencesPatchRequest is the JSON body for the preferences PATCH endpoint.
// Omitted fields are left unchanged.
type PreferencesPatchRequest struct {
	SetupComplete       *bool   `json:"setup_toggle"`
	HAURL               *string `json:"ha_url"`
	HAToken             *string `json:"ha_token"`
	DebugMode           *bool   `json:"debug_mode_toggle"`
	HAURLDev            *string `json:"ha_url_dev"`
	HATokenDev          *string `json:"ha_token_dev"`
	IncludeSchemePrefix *bool   `json:"include_bearer_toggle"`
}

// SendRequest is the optional JSON body for the send endpoint. When Value is
// set that Authorization value is forwarded instead of the active credential.
type SendRequest struct {
	Value string `json:"value"`
}

// HeaderRequest is one header of an ingested event.
type HeaderRequest struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// EventRequest is the JSON body for the event ingestion endpoint.
type EventRequest struct {
	Type    model.EventType `json:"type"`
	TabID   *int64          `json:"tab_id"`
	URL     string          `json:"url"`
	Headers []HeaderRequest `json:"headers"`
	FrameID int64           `json:"frame_id"`
}

// CandidateResponse is one distinct Authorization value from a capture.
type CandidateResponse struct {
	URL                string `json:"url"`
	AuthorizationValue string `json:"authorization_value"`
	Token              string `json:"token"`
	InspectURL         string `json:"inspect_url"`
	Curl               string `json:"curl"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// toStatusResponse converts a capture status to its JSON representation.
func toStatusResponse(s application.CaptureStatus, indicator indicatorView) StatusResponse {
	resp := StatusResponse{
		Found:      s.Record.Found,
		URL:        s.Record.SourceURL,
		BadgeLit:   s.IndicatorLit,
		BadgeText:  indicator.Text(),
		BadgeColor: indicator.Color(),
	}
	if s.Record.HasOwner() {
		id := int64(s.Record.OwnerTabID)
		resp.OwnerTabID = &id
	}
	if !s.Record.CapturedAt.IsZero() {
		at := s.Record.CapturedAt.UTC().Format(time.RFC3339)
		resp.CapturedAt = &at
	}
	return resp
}

// toPreferencesResponse converts domain Preferences to their JSON
// representation with tokens masked.
func toPreferencesResponse(p model.Preferences) PreferencesResponse {
	return PreferencesResponse{
		SetupComplete:       p.SetupComplete,
		HAURL:               p.HAURL,
		HAToken:             maskIfSet(p.HAToken),
		HATokenSet:          p.HAToken != "",
		DebugMode:           p.DebugMode,
		HAURLDev:            p.HAURLDev,
		HATokenDev:          maskIfSet(p.HATokenDev),
		HATokenDevSet:       p.HATokenDev != "",
		IncludeSchemePrefix: p.IncludeSchemePrefix,
	}
}

func maskIfSet(token string) string {
	if token == "" {
		return ""
	}
	return model.MaskToken(token)
}

// toPatch converts a PATCH request body to a domain patch.
func (r PreferencesPatchRequest) toPatch() model.PreferencesPatch {
	return model.PreferencesPatch{
		SetupComplete:       r.SetupComplete,
		HAURL:               r.HAURL,
		HAToken:             r.HAToken,
		DebugMode:           r.DebugMode,
		HAURLDev:            r.HAURLDev,
		HATokenDev:          r.HATokenDev,
		IncludeSchemePrefix: r.IncludeSchemePrefix,
	}
}

// toEvent converts an ingestion request to a domain event. Requests with no
// tab ID are mapped to NoTab for traffic events and rejected for lifecycle
// events.
func (r EventRequest) toEvent() (model.Event, error) {
	tabID := model.NoTab
	if r.TabID != nil {
		tabID = model.TabID(*r.TabID)
	}

	headers := make([]model.Header, 0, len(r.Headers))
	for _, h := range r.Headers {
		headers = append(headers, model.Header{Name: h.Name, Value: h.Value})
	}

	switch r.Type {
	case model.EventRequestHeaders:
		return model.RequestHeadersEvent{TabID: tabID, URL: r.URL, Headers: headers}, nil
	case model.EventResponseHeaders:
		return model.ResponseHeadersEvent{TabID: tabID, URL: r.URL, Headers: headers}, nil
	case model.EventNavigationCommitted:
		if r.TabID == nil {
			return nil, errMissingTabID
		}
		return model.NavigationCommittedEvent{TabID: tabID, FrameID: r.FrameID}, nil
	case model.EventTabRemoved:
		if r.TabID == nil {
			return nil, errMissingTabID
		}
		return model.TabRemovedEvent{TabID: tabID}, nil
	default:
		return nil, errUnknownEventType
	}
}

// toCandidateResponse converts a candidate view to its JSON representation.
func toCandidateResponse(v application.CandidateView) CandidateResponse {
	return CandidateResponse{
		URL:                v.URL,
		AuthorizationValue: v.AuthorizationValue,
		Token:              v.Token,
		InspectURL:         v.InspectURL,
		Curl:               v.CurlCommand,
	}
}
