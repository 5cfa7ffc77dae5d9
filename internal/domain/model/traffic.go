package model

import "strings"

// Header is a single HTTP header name/value pair as reported by the browser.
type Header struct {
	Name  string
	Value string
}

// TrafficRecord is one captured request: its URL and request headers.
type TrafficRecord struct {
	URL     string
	Headers []Header
}

// AuthorizationValue returns the literal value of the first header named
// "authorization" (any case).
func (r TrafficRecord) AuthorizationValue() (string, bool) {
	for _, h := range r.Headers {
		if strings.EqualFold(h.Name, AuthorizationHeader) {
			return h.Value, true
		}
	}
	return "", false
}

// CandidateCredential is a distinct Authorization value found in a traffic
// capture, with the URL of the first request that carried it. It is never
// persisted.
type CandidateCredential struct {
	URL                string
	AuthorizationValue string
}
