// Package badge implements the StatusIndicator port as an in-process badge.
// Its text and color are reported by the status API.
package badge

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ericfisherdev/bearerwatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.StatusIndicator = (*Badge)(nil)

const (
	// FoundText is shown while a credential is captured.
	FoundText = "Ok"
	// FoundColor is the badge background while lit.
	FoundColor = "#008000"
)

// Badge records the current indicator text and color and logs transitions.
// Both are empty while the badge is dark.
type Badge struct {
	logger *slog.Logger

	mu    sync.RWMutex
	text  string
	color string
}

// New creates a dark Badge.
func New(logger *slog.Logger) *Badge {
	return &Badge{logger: logger}
}

// ShowFound lights the badge.
func (b *Badge) ShowFound(_ context.Context) {
	b.set(FoundText, FoundColor)
}

// Clear darkens the badge.
func (b *Badge) Clear(_ context.Context) {
	b.set("", "")
}

// Text returns the badge text.
func (b *Badge) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text
}

// Color returns the badge background color.
func (b *Badge) Color() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.color
}

func (b *Badge) set(text, color string) {
	b.mu.Lock()
	changed := b.text != text || b.color != color
	b.text, b.color = text, color
	b.mu.Unlock()

	if changed {
		b.logger.Debug("badge updated", "text", text, "color", color)
	}
}
