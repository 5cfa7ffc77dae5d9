package application

import (
	"context"
	"log/slog"

	"github.com/ericfisherdev/bearerwatch/internal/domain/model"
)

// credentialRecorder is the part of CaptureStore the interceptor writes through.
type credentialRecorder interface {
	Record(ctx context.Context, token, url string, tabID model.TabID) error
}

// Interceptor scans request and response headers of tab traffic for a bearer
// credential and records the first match of each exchange.
type Interceptor struct {
	recorder credentialRecorder
	logger   *slog.Logger
}

// NewInterceptor creates an Interceptor that records captures into recorder.
func NewInterceptor(recorder credentialRecorder, logger *slog.Logger) *Interceptor {
	return &Interceptor{recorder: recorder, logger: logger}
}

// OnRequestHeaders inspects outgoing request headers. It reports whether a
// credential was captured.
func (i *Interceptor) OnRequestHeaders(ctx context.Context, ev model.RequestHeadersEvent) bool {
	return i.inspect(ctx, "request", ev.TabID, ev.URL, ev.Headers)
}

// OnResponseHeaders inspects incoming response headers. It reports whether a
// credential was captured.
func (i *Interceptor) OnResponseHeaders(ctx context.Context, ev model.ResponseHeadersEvent) bool {
	return i.inspect(ctx, "response", ev.TabID, ev.URL, ev.Headers)
}

func (i *Interceptor) inspect(ctx context.Context, phase string, tabID model.TabID, url string, headers []model.Header) bool {
	if tabID == model.NoTab {
		return false
	}

	token, ok := model.FindBearer(headers)
	if !ok {
		return false
	}

	if err := i.recorder.Record(ctx, token, url, tabID); err != nil {
		i.logger.Error("failed to record bearer token",
			"phase", phase,
			"tab_id", tabID,
			"url", url,
			"error", err,
		)
		return false
	}

	i.logger.Info("bearer token captured",
		"phase", phase,
		"tab_id", tabID,
		"url", url,
		"token", model.MaskToken(token),
	)
	return true
}
