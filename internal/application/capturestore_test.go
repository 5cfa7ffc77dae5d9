package application_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/bearerwatch/internal/application"
	"github.com/ericfisherdev/bearerwatch/internal/domain/model"
)

// startCaptureStore builds a CaptureStore and runs its writer loop for the
// duration of the test.
func startCaptureStore(t *testing.T, store *mockCredentialStore, indicator *mockIndicator, policy model.ClearPolicy) *application.CaptureStore {
	t.Helper()

	s := application.NewCaptureStore(store, indicator, policy, discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go s.Start(ctx)
	t.Cleanup(cancel)
	return s
}

func TestCaptureStore_RecordThenQuery(t *testing.T) {
	store := &mockCredentialStore{}
	indicator := &mockIndicator{}
	s := startCaptureStore(t, store, indicator, model.ClearPolicyOwner)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, "tok1", "https://site/api", 7))

	rec, ok := s.Query()
	require.True(t, ok)
	assert.Equal(t, "tok1", rec.Token)
	assert.Equal(t, "https://site/api", rec.SourceURL)
	assert.Equal(t, model.TabID(7), rec.OwnerTabID)
	assert.True(t, rec.Found)
	assert.False(t, rec.CapturedAt.IsZero())

	assert.Equal(t, &model.StoredCredential{Token: "tok1", URL: "https://site/api"}, store.stored())

	shows, _ := indicator.counts()
	assert.Equal(t, 1, shows)
}

func TestCaptureStore_QueryEmptyInitially(t *testing.T) {
	s := startCaptureStore(t, &mockCredentialStore{}, &mockIndicator{}, model.ClearPolicyOwner)

	rec, ok := s.Query()
	assert.False(t, ok)
	assert.Equal(t, model.CredentialRecord{}, rec)
}

func TestCaptureStore_RecordRejectsEmptyToken(t *testing.T) {
	store := &mockCredentialStore{}
	s := startCaptureStore(t, store, &mockIndicator{}, model.ClearPolicyOwner)

	err := s.Record(context.Background(), "", "https://site/api", 7)

	require.ErrorIs(t, err, application.ErrEmptyToken)
	assert.Equal(t, 0, store.saves)
}

func TestCaptureStore_RecordTwiceLastWinsIndicatorOnce(t *testing.T) {
	store := &mockCredentialStore{}
	indicator := &mockIndicator{}
	s := startCaptureStore(t, store, indicator, model.ClearPolicyOwner)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, "first", "https://site/a", 7))
	require.NoError(t, s.Record(ctx, "second", "https://site/b", 7))

	rec, ok := s.Query()
	require.True(t, ok)
	assert.Equal(t, "second", rec.Token)
	assert.Equal(t, "https://site/b", rec.SourceURL)

	shows, clears := indicator.counts()
	assert.Equal(t, 1, shows, "indicator must not toggle again within one epoch")
	assert.Equal(t, 0, clears)
}

func TestCaptureStore_RecordFromOtherTabReplacesOwner(t *testing.T) {
	s := startCaptureStore(t, &mockCredentialStore{}, &mockIndicator{}, model.ClearPolicyOwner)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, "a", "https://site/a", 1))
	require.NoError(t, s.Record(ctx, "b", "https://site/b", 2))

	// The old owner closing no longer affects the credential.
	require.NoError(t, s.OnTabClosed(ctx, 1))
	rec, ok := s.Query()
	require.True(t, ok)
	assert.Equal(t, model.TabID(2), rec.OwnerTabID)
	assert.Equal(t, "b", rec.Token)
}

func TestCaptureStore_ClearThenQuery(t *testing.T) {
	store := &mockCredentialStore{}
	indicator := &mockIndicator{}
	s := startCaptureStore(t, store, indicator, model.ClearPolicyOwner)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, "tok1", "https://site/api", 7))
	require.NoError(t, s.Clear(ctx))

	_, ok := s.Query()
	assert.False(t, ok)
	assert.Nil(t, store.stored())

	status := s.Status()
	assert.Equal(t, model.NoTab, status.Record.OwnerTabID)
	assert.False(t, status.IndicatorLit)

	_, clears := indicator.counts()
	assert.Equal(t, 1, clears)
}

func TestCaptureStore_ClearIsIdempotent(t *testing.T) {
	indicator := &mockIndicator{}
	s := startCaptureStore(t, &mockCredentialStore{}, indicator, model.ClearPolicyOwner)
	ctx := context.Background()

	require.NoError(t, s.Clear(ctx))
	require.NoError(t, s.Clear(ctx))

	_, ok := s.Query()
	assert.False(t, ok)

	shows, clears := indicator.counts()
	assert.Equal(t, 0, shows)
	assert.Equal(t, 0, clears, "clearing an empty store must not touch the indicator")
}

func TestCaptureStore_NavigationOfOwnerClears(t *testing.T) {
	store := &mockCredentialStore{}
	s := startCaptureStore(t, store, &mockIndicator{}, model.ClearPolicyOwner)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, "tok1", "https://site/api", 7))
	require.NoError(t, s.OnTopLevelNavigation(ctx, 7))

	_, ok := s.Query()
	assert.False(t, ok)
	assert.Nil(t, store.stored())
}

func TestCaptureStore_NavigationOfOtherTabKeepsCredential(t *testing.T) {
	store := &mockCredentialStore{}
	indicator := &mockIndicator{}
	s := startCaptureStore(t, store, indicator, model.ClearPolicyOwner)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, "tok1", "https://site/api", 7))
	require.NoError(t, s.OnTopLevelNavigation(ctx, 8))

	rec, ok := s.Query()
	require.True(t, ok, "navigating a different tab must not destroy the owner's credential")
	assert.Equal(t, "tok1", rec.Token)
	assert.NotNil(t, store.stored())

	// The indicator is dimmed on every top-level navigation.
	_, clears := indicator.counts()
	assert.Equal(t, 1, clears)
	assert.False(t, s.Status().IndicatorLit)

	// A later capture lights it again.
	require.NoError(t, s.Record(ctx, "tok1", "https://site/api", 7))
	shows, _ := indicator.counts()
	assert.Equal(t, 2, shows)
}

func TestCaptureStore_NavigationPersistenceFailureStillDimsIndicator(t *testing.T) {
	store := &mockCredentialStore{}
	indicator := &mockIndicator{}
	s := startCaptureStore(t, store, indicator, model.ClearPolicyOwner)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, "tok1", "https://site/api", 7))

	store.mu.Lock()
	store.deleteErr = errors.New("locked")
	store.mu.Unlock()

	err := s.OnTopLevelNavigation(ctx, 7)
	require.Error(t, err)

	status := s.Status()
	assert.False(t, status.IndicatorLit)
	_, clears := indicator.counts()
	assert.Equal(t, 1, clears)

	// The record survives the failed delete.
	rec, ok := s.Query()
	require.True(t, ok)
	assert.Equal(t, "tok1", rec.Token)
	assert.Equal(t, model.TabID(7), status.Record.OwnerTabID)
	assert.NotNil(t, store.stored())
}

func TestCaptureStore_NavigationAnyPolicyClearsForeignTab(t *testing.T) {
	store := &mockCredentialStore{}
	s := startCaptureStore(t, store, &mockIndicator{}, model.ClearPolicyAny)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, "tok1", "https://site/api", 7))
	require.NoError(t, s.OnTopLevelNavigation(ctx, 8))

	_, ok := s.Query()
	assert.False(t, ok)
	assert.Nil(t, store.stored())
}

func TestCaptureStore_TabClosed(t *testing.T) {
	tests := []struct {
		name       string
		closedTab  model.TabID
		wantActive bool
	}{
		{name: "owner closed", closedTab: 7, wantActive: false},
		{name: "other tab closed", closedTab: 9, wantActive: true},
		{name: "no-tab id", closedTab: model.NoTab, wantActive: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := startCaptureStore(t, &mockCredentialStore{}, &mockIndicator{}, model.ClearPolicyOwner)
			ctx := context.Background()

			require.NoError(t, s.Record(ctx, "tok1", "https://site/api", 7))
			require.NoError(t, s.OnTabClosed(ctx, tt.closedTab))

			_, ok := s.Query()
			assert.Equal(t, tt.wantActive, ok)
		})
	}
}

func TestCaptureStore_RecordPersistenceFailureKeepsState(t *testing.T) {
	store := &mockCredentialStore{}
	indicator := &mockIndicator{}
	s := startCaptureStore(t, store, indicator, model.ClearPolicyOwner)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, "good", "https://site/a", 7))
	require.NoError(t, s.OnTopLevelNavigation(ctx, 8)) // dims the indicator only

	store.mu.Lock()
	store.saveErr = errors.New("disk full")
	store.mu.Unlock()

	err := s.Record(ctx, "bad", "https://site/b", 9)
	require.Error(t, err)

	rec, ok := s.Query()
	require.True(t, ok)
	assert.Equal(t, "good", rec.Token)
	assert.Equal(t, model.TabID(7), rec.OwnerTabID)
	assert.False(t, s.Status().IndicatorLit, "failed capture must not light the indicator")

	shows, _ := indicator.counts()
	assert.Equal(t, 1, shows)
}

func TestCaptureStore_ClearPersistenceFailureKeepsState(t *testing.T) {
	store := &mockCredentialStore{deleteErr: errors.New("locked")}
	s := startCaptureStore(t, store, &mockIndicator{}, model.ClearPolicyOwner)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, "tok1", "https://site/api", 7))

	err := s.Clear(ctx)
	require.Error(t, err)

	_, ok := s.Query()
	assert.True(t, ok)
}

func TestCaptureStore_CloseWhileRecordInFlight(t *testing.T) {
	gate := make(chan struct{})
	started := make(chan struct{})
	store := &mockCredentialStore{saveGate: gate, saveStarted: started}
	s := startCaptureStore(t, store, &mockIndicator{}, model.ClearPolicyOwner)
	ctx := context.Background()

	recordDone := make(chan error, 1)
	go func() { recordDone <- s.Record(ctx, "tok1", "https://site/api", 7) }()

	// The record now holds the writer; the close has to queue behind it.
	<-started
	closeDone := make(chan error, 1)
	go func() { closeDone <- s.OnTabClosed(ctx, 7) }()

	close(gate)
	require.NoError(t, <-recordDone)
	require.NoError(t, <-closeDone)

	_, ok := s.Query()
	assert.False(t, ok, "a close queued behind an in-flight record must be observed last")
	assert.Nil(t, store.stored())
}

func TestCaptureStore_ConcurrentRecordsNeverTear(t *testing.T) {
	s := startCaptureStore(t, &mockCredentialStore{}, &mockIndicator{}, model.ClearPolicyOwner)
	ctx := context.Background()

	const writers = 50
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := range writers {
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Record(ctx, fmt.Sprintf("tok-%d", i), fmt.Sprintf("https://site/%d", i), model.TabID(i)))
		}()
	}
	wg.Wait()

	rec, ok := s.Query()
	require.True(t, ok)

	var n int
	_, err := fmt.Sscanf(rec.Token, "tok-%d", &n)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("https://site/%d", n), rec.SourceURL)
	assert.Equal(t, model.TabID(n), rec.OwnerTabID)
}

func TestCaptureStore_StoppedRejectsOperations(t *testing.T) {
	s := application.NewCaptureStore(&mockCredentialStore{}, &mockIndicator{}, model.ClearPolicyOwner, discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go s.Start(ctx)
	cancel()

	require.Eventually(t, func() bool {
		return errors.Is(s.Clear(context.Background()), application.ErrStoreStopped)
	}, time.Second, 5*time.Millisecond)
}
