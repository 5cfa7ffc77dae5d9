package model

import "fmt"

// ClearPolicy decides which top-level navigations clear the captured credential.
type ClearPolicy string

const (
	// ClearPolicyOwner clears the credential only when its owning tab navigates.
	ClearPolicyOwner ClearPolicy = "owner"
	// ClearPolicyAny clears the credential on a top-level navigation of any tab.
	ClearPolicyAny ClearPolicy = "any"
)

// ParseClearPolicy converts a configuration value into a ClearPolicy.
func ParseClearPolicy(s string) (ClearPolicy, error) {
	switch p := ClearPolicy(s); p {
	case ClearPolicyOwner, ClearPolicyAny:
		return p, nil
	default:
		return "", fmt.Errorf("unknown clear policy %q (want %q or %q)", s, ClearPolicyOwner, ClearPolicyAny)
	}
}

// EventType names a traffic or lifecycle event delivered by a browser host.
type EventType string

const (
	// EventRequestHeaders carries the headers of an outgoing request.
	EventRequestHeaders EventType = "request_headers"
	// EventResponseHeaders carries the headers of a received response.
	EventResponseHeaders EventType = "response_headers"
	// EventNavigationCommitted reports a committed navigation in a tab frame.
	EventNavigationCommitted EventType = "navigation_committed"
	// EventTabRemoved reports that a tab was closed.
	EventTabRemoved EventType = "tab_removed"
)
