package application_test

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/ericfisherdev/bearerwatch/internal/domain/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockCredentialStore implements driven.CredentialStore in memory.
type mockCredentialStore struct {
	mu        sync.Mutex
	cred      *model.StoredCredential
	saveErr   error
	deleteErr error
	saves     int
	deletes   int
	// saveGate, when non-nil, blocks Save until it is closed. saveStarted
	// is closed once Save is waiting on the gate.
	saveGate    chan struct{}
	saveStarted chan struct{}
}

func (m *mockCredentialStore) Save(_ context.Context, cred model.StoredCredential) error {
	if m.saveGate != nil {
		if m.saveStarted != nil {
			close(m.saveStarted)
		}
		<-m.saveGate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.cred = &cred
	return nil
}

func (m *mockCredentialStore) Load(_ context.Context) (*model.StoredCredential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cred, nil
}

func (m *mockCredentialStore) Delete(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deletes++
	m.cred = nil
	return nil
}

func (m *mockCredentialStore) stored() *model.StoredCredential {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cred
}

// mockIndicator counts indicator transitions.
type mockIndicator struct {
	mu     sync.Mutex
	shows  int
	clears int
}

func (m *mockIndicator) ShowFound(_ context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shows++
}

func (m *mockIndicator) Clear(_ context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clears++
}

func (m *mockIndicator) counts() (shows, clears int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shows, m.clears
}

// mockPreferenceStore implements driven.PreferenceStore.
type mockPreferenceStore struct {
	prefs model.Preferences
	err   error
}

func (m *mockPreferenceStore) Get(_ context.Context) (model.Preferences, error) {
	return m.prefs, m.err
}

func (m *mockPreferenceStore) Update(_ context.Context, _ model.PreferencesPatch) error {
	return m.err
}

// mockAutomationClient implements driven.AutomationClient.
type mockAutomationClient struct {
	err    error
	calls  int
	target model.AutomationTarget
	token  string
}

func (m *mockAutomationClient) UpdateToken(_ context.Context, target model.AutomationTarget, accessToken string) error {
	m.calls++
	m.target = target
	m.token = accessToken
	return m.err
}

// mockParser implements driven.CaptureParser.
type mockParser struct {
	records []model.TrafficRecord
	err     error
}

func (m *mockParser) Parse(_ []byte) ([]model.TrafficRecord, error) {
	return m.records, m.err
}
