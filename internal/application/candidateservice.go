package application

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/ericfisherdev/bearerwatch/internal/domain/model"
	"github.com/ericfisherdev/bearerwatch/internal/domain/port/driven"
)

const jwtInspectBase = "https://jwt.io/?token="

// CandidateView is a candidate credential prepared for display.
type CandidateView struct {
	URL                string
	AuthorizationValue string
	// Token is the value formatted per the include-scheme-prefix preference.
	Token       string
	InspectURL  string
	CurlCommand string
}

// CandidateService turns a serialized traffic capture into display-ready
// candidate credentials. Candidates are recomputed on every call.
type CandidateService struct {
	parser         driven.CaptureParser
	prefs          driven.PreferenceStore
	automationPath string
}

// NewCandidateService creates a CandidateService. automationPath is the path
// on the automation instance that accepts forwarded tokens; it is used for
// the curl preview.
func NewCandidateService(parser driven.CaptureParser, prefs driven.PreferenceStore, automationPath string) *CandidateService {
	return &CandidateService{parser: parser, prefs: prefs, automationPath: automationPath}
}

// FromCapture parses data and returns its distinct candidates in capture order.
func (s *CandidateService) FromCapture(ctx context.Context, data []byte) ([]CandidateView, error) {
	records, err := s.parser.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse capture: %w", err)
	}

	prefs, err := s.prefs.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load preferences: %w", err)
	}

	candidates := ExtractCandidates(records)
	views := make([]CandidateView, 0, len(candidates))
	for _, c := range candidates {
		views = append(views, CandidateView{
			URL:                c.URL,
			AuthorizationValue: c.AuthorizationValue,
			Token:              model.FormatCredential(c.AuthorizationValue, prefs.IncludeSchemePrefix),
			InspectURL:         InspectURL(c.AuthorizationValue),
			CurlCommand:        CurlCommand(c, prefs.AutomationTarget(), s.automationPath),
		})
	}
	return views, nil
}

// InspectURL returns a jwt.io link that decodes the raw token of value.
func InspectURL(value string) string {
	return jwtInspectBase + url.QueryEscape(model.FormatCredential(value, false))
}

// CurlCommand renders a shell command that forwards the candidate's raw token
// to target the same way the Forwarder does.
func CurlCommand(c model.CandidateCredential, target model.AutomationTarget, automationPath string) string {
	body, _ := json.Marshal(updateTokenBody{AccessToken: model.FormatCredential(c.AuthorizationValue, false)})
	endpoint := strings.TrimRight(target.BaseURL, "/") + automationPath

	return strings.Join([]string{
		"curl -X POST",
		"-H " + shellQuote("Authorization: Bearer "+target.Token),
		"-H " + shellQuote("Content-Type: application/json"),
		"-d " + shellQuote(string(body)),
		shellQuote(endpoint),
	}, " ")
}

// updateTokenBody mirrors the JSON body the automation client sends.
type updateTokenBody struct {
	AccessToken string `json:"access_token"`
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
