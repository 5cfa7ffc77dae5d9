package driven

import (
	"errors"

	"github.com/ericfisherdev/bearerwatch/internal/domain/model"
)

// ErrMalformedCapture is wrapped by CaptureParser implementations when the
// input is not a capture they understand.
var ErrMalformedCapture = errors.New("malformed capture")

// CaptureParser turns a serialized traffic capture (for example a HAR log)
// into traffic records in capture order.
type CaptureParser interface {
	Parse(data []byte) ([]model.TrafficRecord, error)
}
