package model

// Event is a traffic or lifecycle notification from the browser host.
type Event interface {
	Type() EventType
}

// RequestHeadersEvent is raised before a request is sent.
type RequestHeadersEvent struct {
	TabID   TabID
	URL     string
	Headers []Header
}

// ResponseHeadersEvent is raised when response headers arrive.
type ResponseHeadersEvent struct {
	TabID   TabID
	URL     string
	Headers []Header
}

// NavigationCommittedEvent is raised when a frame commits a new document.
// FrameID 0 is the tab's main frame.
type NavigationCommittedEvent struct {
	TabID   TabID
	FrameID int64
}

// TabRemovedEvent is raised when a tab is closed.
type TabRemovedEvent struct {
	TabID TabID
}

func (RequestHeadersEvent) Type() EventType      { return EventRequestHeaders }
func (ResponseHeadersEvent) Type() EventType     { return EventResponseHeaders }
func (NavigationCommittedEvent) Type() EventType { return EventNavigationCommitted }
func (TabRemovedEvent) Type() EventType          { return EventTabRemoved }

// IsMainFrame reports whether the navigation replaced the top-level document.
func (e NavigationCommittedEvent) IsMainFrame() bool {
	return e.FrameID == 0
}
