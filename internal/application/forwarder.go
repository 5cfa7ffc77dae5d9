package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ericfisherdev/bearerwatch/internal/domain/model"
	"github.com/ericfisherdev/bearerwatch/internal/domain/port/driven"
)

var (
	// ErrNoCredential is returned when there is nothing to forward.
	ErrNoCredential = errors.New("no credential captured")

	// ErrAutomationNotConfigured is returned when the selected automation
	// target lacks a URL or access token.
	ErrAutomationNotConfigured = errors.New("automation endpoint not configured")
)

// credentialQuerier is the read side of CaptureStore.
type credentialQuerier interface {
	Query() (model.CredentialRecord, bool)
}

// Forwarder sends a credential to the automation instance selected by the
// user's preferences. Failures are reported to the caller and never retried.
type Forwarder struct {
	credentials credentialQuerier
	prefs       driven.PreferenceStore
	client      driven.AutomationClient
	logger      *slog.Logger
}

// NewForwarder creates a Forwarder.
func NewForwarder(
	credentials credentialQuerier,
	prefs driven.PreferenceStore,
	client driven.AutomationClient,
	logger *slog.Logger,
) *Forwarder {
	return &Forwarder{
		credentials: credentials,
		prefs:       prefs,
		client:      client,
		logger:      logger,
	}
}

// Send forwards the active captured credential's raw token.
func (f *Forwarder) Send(ctx context.Context) error {
	rec, ok := f.credentials.Query()
	if !ok {
		return ErrNoCredential
	}
	return f.forward(ctx, rec.Token)
}

// SendValue forwards an arbitrary Authorization value, such as a candidate
// picked from a traffic capture. The scheme prefix is stripped first.
func (f *Forwarder) SendValue(ctx context.Context, value string) error {
	token := model.FormatCredential(value, false)
	if token == "" {
		return ErrNoCredential
	}
	return f.forward(ctx, token)
}

func (f *Forwarder) forward(ctx context.Context, token string) error {
	prefs, err := f.prefs.Get(ctx)
	if err != nil {
		return fmt.Errorf("load preferences: %w", err)
	}

	target := prefs.AutomationTarget()
	if !target.Configured() {
		return ErrAutomationNotConfigured
	}

	if err := f.client.UpdateToken(ctx, target, token); err != nil {
		f.logger.Warn("token forward failed", "target", target.BaseURL, "debug_mode", prefs.DebugMode, "error", err)
		return fmt.Errorf("forward token: %w", err)
	}

	f.logger.Info("token forwarded",
		"target", target.BaseURL,
		"debug_mode", prefs.DebugMode,
		"token", model.MaskToken(token),
	)
	return nil
}
