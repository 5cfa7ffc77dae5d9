// Package cdp is a driving adapter that feeds live browser traffic into the
// capture pipeline over the Chrome DevTools Protocol.
package cdp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	cdproto "github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"

	"github.com/ericfisherdev/bearerwatch/internal/domain/model"
)

const (
	targetTypePage = "page"
	eventBuffer    = 256
)

// EventSink receives translated browser events in the order they occurred.
type EventSink interface {
	Dispatch(ctx context.Context, ev model.Event) error
}

// Watcher attaches to a running Chrome, follows every page target, and
// forwards header, navigation, and tab-close events to an EventSink.
type Watcher struct {
	cdpURL string
	sink   EventSink
	logger *slog.Logger

	registry *tabRegistry
	events   chan model.Event
	targets  chan any

	mu   sync.Mutex
	tabs map[target.ID]context.CancelFunc
}

// NewWatcher creates a Watcher for the DevTools endpoint at cdpURL.
func NewWatcher(cdpURL string, sink EventSink, logger *slog.Logger) *Watcher {
	return &Watcher{
		cdpURL:   cdpURL,
		sink:     sink,
		logger:   logger,
		registry: newTabRegistry(),
		events:   make(chan model.Event, eventBuffer),
		targets:  make(chan any, eventBuffer),
		tabs:     make(map[target.ID]context.CancelFunc),
	}
}

// Run connects to the browser and blocks until ctx is canceled or the
// browser connection ends.
func (w *Watcher) Run(ctx context.Context) error {
	allocCtx, cancelAlloc := chromedp.NewRemoteAllocator(ctx, w.cdpURL)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	if err := chromedp.Run(browserCtx); err != nil {
		return fmt.Errorf("connect to browser at %s: %w", w.cdpURL, err)
	}
	own := chromedp.FromContext(browserCtx).Target.TargetID

	chromedp.ListenBrowser(browserCtx, func(ev any) {
		switch ev.(type) {
		case *target.EventTargetCreated, *target.EventTargetDestroyed:
			w.enqueueTarget(ev)
		}
	})

	// Existing targets are reported as created once discovery is on.
	if err := chromedp.Run(browserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		return target.SetDiscoverTargets(true).Do(cdproto.WithExecutor(ctx, chromedp.FromContext(ctx).Browser))
	})); err != nil {
		return fmt.Errorf("enable target discovery: %w", err)
	}
	w.logger.Info("cdp watcher attached", "url", w.cdpURL)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.pump(browserCtx)
	}()
	defer wg.Wait()

	for {
		select {
		case <-browserCtx.Done():
			w.logger.Info("cdp watcher stopped")
			return nil
		case ev := <-w.targets:
			switch e := ev.(type) {
			case *target.EventTargetCreated:
				if e.TargetInfo != nil && e.TargetInfo.Type == targetTypePage && e.TargetInfo.TargetID != own {
					w.attach(browserCtx, e.TargetInfo.TargetID)
				}
			case *target.EventTargetDestroyed:
				w.detach(browserCtx, e.TargetID)
			}
		}
	}
}

// enqueueTarget hands a target lifecycle event to the Run loop. It runs on
// the browser's read loop and must not block, so a full queue drops the event.
func (w *Watcher) enqueueTarget(ev any) bool {
	select {
	case w.targets <- ev:
		return true
	default:
		w.logger.Warn("target event dropped, queue full", "type", fmt.Sprintf("%T", ev))
		return false
	}
}

// pump delivers queued events to the sink in arrival order.
func (w *Watcher) pump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-w.events:
			if err := w.sink.Dispatch(ctx, ev); err != nil {
				w.logger.Warn("cdp event rejected", "type", ev.Type(), "error", err)
			}
		}
	}
}

func (w *Watcher) emit(ctx context.Context, ev model.Event) {
	select {
	case w.events <- ev:
	case <-ctx.Done():
	}
}

func (w *Watcher) attach(browserCtx context.Context, id target.ID) {
	w.mu.Lock()
	_, known := w.tabs[id]
	w.mu.Unlock()
	if known {
		return
	}

	tabID := w.registry.idFor(id)
	tabCtx, cancel := chromedp.NewContext(browserCtx, chromedp.WithTargetID(id))

	chromedp.ListenTarget(tabCtx, func(ev any) {
		if e, ok := translate(tabID, ev); ok {
			w.emit(browserCtx, e)
		}
	})

	if err := chromedp.Run(tabCtx, network.Enable(), page.Enable()); err != nil {
		cancel()
		w.registry.forget(id)
		w.logger.Warn("failed to attach to tab", "target_id", id, "error", err)
		return
	}

	w.mu.Lock()
	w.tabs[id] = cancel
	w.mu.Unlock()

	w.logger.Debug("attached to tab", "target_id", id, "tab_id", tabID)
}

func (w *Watcher) detach(browserCtx context.Context, id target.ID) {
	w.mu.Lock()
	cancel, ok := w.tabs[id]
	delete(w.tabs, id)
	w.mu.Unlock()
	if !ok {
		return
	}
	cancel()

	if tabID, known := w.registry.lookup(id); known {
		w.emit(browserCtx, model.TabRemovedEvent{TabID: tabID})
		w.registry.forget(id)
	}
}
