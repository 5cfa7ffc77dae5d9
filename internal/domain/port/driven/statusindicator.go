package driven

import "context"

// StatusIndicator is the user-visible "credential found" signal, such as a
// toolbar badge.
type StatusIndicator interface {
	ShowFound(ctx context.Context)
	Clear(ctx context.Context)
}
