package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ericfisherdev/bearerwatch/internal/domain/model"
)

// lifecycleController is the part of CaptureStore driven by tab lifecycle events.
type lifecycleController interface {
	OnTopLevelNavigation(ctx context.Context, tabID model.TabID) error
	OnTabClosed(ctx context.Context, tabID model.TabID) error
}

// Dispatcher routes browser events to the interceptor and the capture
// lifecycle. Persistence failures are logged here and never returned to the
// event source.
type Dispatcher struct {
	interceptor *Interceptor
	lifecycle   lifecycleController
	logger      *slog.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(interceptor *Interceptor, lifecycle lifecycleController, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		interceptor: interceptor,
		lifecycle:   lifecycle,
		logger:      logger,
	}
}

// Dispatch handles one event. It returns an error only for event types it
// does not know.
func (d *Dispatcher) Dispatch(ctx context.Context, ev model.Event) error {
	switch e := ev.(type) {
	case model.RequestHeadersEvent:
		d.interceptor.OnRequestHeaders(ctx, e)
	case model.ResponseHeadersEvent:
		d.interceptor.OnResponseHeaders(ctx, e)
	case model.NavigationCommittedEvent:
		if !e.IsMainFrame() || e.TabID == model.NoTab {
			return nil
		}
		if err := d.lifecycle.OnTopLevelNavigation(ctx, e.TabID); err != nil {
			d.logger.Error("failed to handle navigation", "tab_id", e.TabID, "error", err)
		}
	case model.TabRemovedEvent:
		if err := d.lifecycle.OnTabClosed(ctx, e.TabID); err != nil {
			d.logger.Error("failed to handle tab removal", "tab_id", e.TabID, "error", err)
		}
	default:
		return fmt.Errorf("unsupported event %T", ev)
	}
	return nil
}
