package cdp

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/target"

	"github.com/ericfisherdev/bearerwatch/internal/domain/model"
)

// translate converts a DevTools event raised on the tab tabID into a domain
// event. Events that carry nothing the capture pipeline uses report false.
func translate(tabID model.TabID, ev any) (model.Event, bool) {
	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		if e.Request == nil {
			return nil, false
		}
		return model.RequestHeadersEvent{
			TabID:   tabID,
			URL:     e.Request.URL,
			Headers: headersFromCDP(e.Request.Headers),
		}, true
	case *network.EventResponseReceived:
		if e.Response == nil {
			return nil, false
		}
		return model.ResponseHeadersEvent{
			TabID:   tabID,
			URL:     e.Response.URL,
			Headers: headersFromCDP(e.Response.Headers),
		}, true
	case *page.EventFrameNavigated:
		// Only a frame without a parent replaces the tab's document.
		if e.Frame == nil || e.Frame.ParentID != "" {
			return nil, false
		}
		return model.NavigationCommittedEvent{TabID: tabID, FrameID: 0}, true
	default:
		return nil, false
	}
}

// headersFromCDP flattens a DevTools header map in name order. DevTools folds
// repeated headers into one value separated by newlines; they are split back
// into separate entries.
func headersFromCDP(h network.Headers) []model.Header {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)

	headers := make([]model.Header, 0, len(names))
	for _, name := range names {
		raw, ok := h[name].(string)
		if !ok {
			raw = fmt.Sprint(h[name])
		}
		for _, value := range strings.Split(raw, "\n") {
			headers = append(headers, model.Header{Name: name, Value: value})
		}
	}
	return headers
}

// tabRegistry assigns stable integer tab IDs to DevTools target IDs.
type tabRegistry struct {
	mu   sync.Mutex
	next model.TabID
	ids  map[target.ID]model.TabID
}

func newTabRegistry() *tabRegistry {
	return &tabRegistry{next: 1, ids: make(map[target.ID]model.TabID)}
}

// idFor returns the tab ID of t, assigning the next free one on first use.
func (r *tabRegistry) idFor(t target.ID) model.TabID {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.ids[t]; ok {
		return id
	}
	id := r.next
	r.next++
	r.ids[t] = id
	return id
}

// lookup returns the tab ID of t without assigning one.
func (r *tabRegistry) lookup(t target.ID) (model.TabID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.ids[t]
	return id, ok
}

// forget drops t. Its tab ID is never reused.
func (r *tabRegistry) forget(t target.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.ids, t)
}
