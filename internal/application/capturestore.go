// Package application contains use-case orchestration services.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ericfisherdev/bearerwatch/internal/domain/model"
	"github.com/ericfisherdev/bearerwatch/internal/domain/port/driven"
)

var (
	// ErrEmptyToken is returned by Record when asked to capture an empty token.
	ErrEmptyToken = errors.New("empty bearer token")

	// ErrStoreStopped is returned when an operation is submitted after the
	// capture store's writer loop has exited.
	ErrStoreStopped = errors.New("capture store stopped")
)

// captureOp is one queued mutation of the credential record.
type captureOp struct {
	apply func(ctx context.Context) error
	done  chan error
}

// CaptureStatus is a point-in-time view of the capture store, including the
// state of the status indicator.
type CaptureStatus struct {
	Record       model.CredentialRecord
	IndicatorLit bool
}

// CaptureStore owns the single captured credential. All mutations go through
// one writer goroutine so a record and a clear for the same tab can never
// interleave; queries read an in-memory snapshot and never touch storage.
type CaptureStore struct {
	store     driven.CredentialStore
	indicator driven.StatusIndicator
	policy    model.ClearPolicy
	logger    *slog.Logger
	now       func() time.Time

	ops     chan captureOp
	stopped chan struct{}

	mu     sync.RWMutex
	record model.CredentialRecord
	lit    bool
}

// NewCaptureStore creates a CaptureStore. Start must be running before any
// mutating operation is called.
func NewCaptureStore(
	store driven.CredentialStore,
	indicator driven.StatusIndicator,
	policy model.ClearPolicy,
	logger *slog.Logger,
) *CaptureStore {
	return &CaptureStore{
		store:     store,
		indicator: indicator,
		policy:    policy,
		logger:    logger,
		now:       time.Now,
		ops:       make(chan captureOp),
		stopped:   make(chan struct{}),
		record:    model.EmptyCredential(),
	}
}

// Start runs the writer loop until ctx is canceled. An operation already
// taken off the queue always runs to completion, even during shutdown.
func (s *CaptureStore) Start(ctx context.Context) {
	defer close(s.stopped)

	opCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("capture store stopped")
			return
		case op := <-s.ops:
			op.done <- op.apply(opCtx)
		}
	}
}

// submit enqueues fn and waits for its result. Once enqueued the operation is
// not cancellable, so the wait ignores ctx.
func (s *CaptureStore) submit(ctx context.Context, fn func(ctx context.Context) error) error {
	op := captureOp{apply: fn, done: make(chan error, 1)}

	select {
	case s.ops <- op:
	case <-s.stopped:
		return ErrStoreStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	return <-op.done
}

// Record replaces the current credential with token, captured from url in
// tab tabID. The indicator is lit only if it is not already lit. If the
// persistence write fails the in-memory record is left untouched.
func (s *CaptureStore) Record(ctx context.Context, token, url string, tabID model.TabID) error {
	if token == "" {
		return ErrEmptyToken
	}

	return s.submit(ctx, func(ctx context.Context) error {
		if err := s.store.Save(ctx, model.StoredCredential{Token: token, URL: url}); err != nil {
			return fmt.Errorf("persist credential: %w", err)
		}

		s.mu.Lock()
		s.record = model.CredentialRecord{
			Token:      token,
			SourceURL:  url,
			OwnerTabID: tabID,
			Found:      true,
			CapturedAt: s.now().UTC(),
		}
		light := !s.lit
		s.lit = true
		s.mu.Unlock()

		if light {
			s.indicator.ShowFound(ctx)
		}
		return nil
	})
}

// Query returns the active credential. ok is false when nothing is captured.
func (s *CaptureStore) Query() (model.CredentialRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.record.Found || s.record.Token == "" {
		return model.CredentialRecord{}, false
	}
	return s.record, true
}

// Status returns the full record and indicator state, including the owner tab.
func (s *CaptureStore) Status() CaptureStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return CaptureStatus{Record: s.record, IndicatorLit: s.lit}
}

// Clear removes the captured credential, both in memory and in storage.
// Clearing an empty store is a no-op.
func (s *CaptureStore) Clear(ctx context.Context) error {
	return s.submit(ctx, s.clear)
}

// OnTopLevelNavigation handles a main-frame navigation of tabID. The
// indicator is always cleared. The record is cleared only when tabID owns it,
// or for any tab under ClearPolicyAny.
func (s *CaptureStore) OnTopLevelNavigation(ctx context.Context, tabID model.TabID) error {
	return s.submit(ctx, func(ctx context.Context) error {
		s.mu.RLock()
		owned := s.record.Found && s.record.OwnerTabID == tabID
		s.mu.RUnlock()

		// The indicator goes dark even if the record cannot be deleted.
		s.dimIndicator(ctx)

		if owned || s.policy == model.ClearPolicyAny {
			return s.clear(ctx)
		}
		return nil
	})
}

// OnTabClosed clears the record if tabID owns it; otherwise it does nothing.
func (s *CaptureStore) OnTabClosed(ctx context.Context, tabID model.TabID) error {
	return s.submit(ctx, func(ctx context.Context) error {
		s.mu.RLock()
		owned := s.record.HasOwner() && s.record.OwnerTabID == tabID
		s.mu.RUnlock()

		if !owned {
			return nil
		}
		return s.clear(ctx)
	})
}

// clear runs on the writer goroutine only.
func (s *CaptureStore) clear(ctx context.Context) error {
	if err := s.store.Delete(ctx); err != nil {
		return fmt.Errorf("delete persisted credential: %w", err)
	}

	s.mu.Lock()
	s.record = model.EmptyCredential()
	s.mu.Unlock()

	s.dimIndicator(ctx)
	return nil
}

func (s *CaptureStore) dimIndicator(ctx context.Context) {
	s.mu.Lock()
	wasLit := s.lit
	s.lit = false
	s.mu.Unlock()

	if wasLit {
		s.indicator.Clear(ctx)
	}
}
