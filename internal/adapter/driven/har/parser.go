// Package har implements the CaptureParser port for HTTP Archive (HAR)
// documents exported from browser developer tools.
package har

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/ericfisherdev/bearerwatch/internal/domain/model"
	"github.com/ericfisherdev/bearerwatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CaptureParser = (*Parser)(nil)

// ErrInvalidHAR is returned for input that is not a HAR document. It wraps
// driven.ErrMalformedCapture.
var ErrInvalidHAR = fmt.Errorf("invalid HAR document: %w", driven.ErrMalformedCapture)

// Parser reads request URLs and request headers out of a HAR document.
// Response data and timings are ignored.
type Parser struct{}

// NewParser creates a Parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse returns one TrafficRecord per entry, in document order. Both the
// standard {"log":{"entries":[...]}} layout and a bare {"entries":[...]}
// object, as produced by some extension APIs, are accepted.
func (p *Parser) Parse(data []byte) ([]model.TrafficRecord, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: malformed JSON", ErrInvalidHAR)
	}

	doc := gjson.ParseBytes(data)
	entries := doc.Get("log.entries")
	if !entries.Exists() {
		entries = doc.Get("entries")
	}
	if !entries.IsArray() {
		return nil, fmt.Errorf("%w: no entries array", ErrInvalidHAR)
	}

	records := make([]model.TrafficRecord, 0, len(entries.Array()))
	for _, entry := range entries.Array() {
		request := entry.Get("request")
		if !request.IsObject() {
			continue
		}
		records = append(records, model.TrafficRecord{
			URL:     request.Get("url").String(),
			Headers: parseHeaders(request.Get("headers")),
		})
	}
	return records, nil
}

func parseHeaders(headers gjson.Result) []model.Header {
	var out []model.Header
	headers.ForEach(func(_, h gjson.Result) bool {
		name := h.Get("name")
		if name.Exists() {
			out = append(out, model.Header{Name: name.String(), Value: h.Get("value").String()})
		}
		return true
	})
	return out
}
