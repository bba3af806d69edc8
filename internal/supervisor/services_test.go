// Astrarium - Astrological Computation and Chart Analysis API
// Copyright 2026 Astrarium Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/astrarium/astrarium

package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/astrarium/astrarium/internal/cache"
	"github.com/astrarium/astrarium/internal/keys"
	"github.com/astrarium/astrarium/internal/logging"
)

// mockServer implements HTTPServer with controllable lifecycle.
type mockServer struct {
	listenErr error
	stop      chan struct{}
	shutdowns atomic.Int32
}

func newMockServer() *mockServer {
	return &mockServer{stop: make(chan struct{})}
}

func (m *mockServer) ListenAndServe() error {
	if m.listenErr != nil {
		return m.listenErr
	}
	<-m.stop
	return nil
}

func (m *mockServer) Shutdown(ctx context.Context) error {
	m.shutdowns.Add(1)
	close(m.stop)
	return nil
}

func TestHTTPServiceGracefulShutdown(t *testing.T) {
	server := newMockServer()
	svc := NewHTTPService(server, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- svc.Serve(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("service did not stop")
	}
	if server.shutdowns.Load() != 1 {
		t.Errorf("expected one shutdown call, got %d", server.shutdowns.Load())
	}
}

func TestHTTPServiceStartupFailure(t *testing.T) {
	server := newMockServer()
	server.listenErr = errors.New("address already in use")
	svc := NewHTTPService(server, time.Second)

	err := svc.Serve(context.Background())
	if err == nil || !errors.Is(err, server.listenErr) {
		t.Errorf("expected listen error, got %v", err)
	}
}

func TestPeriodicServiceRunsAndStops(t *testing.T) {
	var runs atomic.Int32
	svc := NewPeriodicService("test-worker", 10*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- svc.Serve(ctx)
	}()

	time.Sleep(60 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("service did not stop")
	}

	if got := runs.Load(); got < 2 {
		t.Errorf("expected at least 2 runs, got %d", got)
	}
}

func TestPeriodicServiceSurvivesErrors(t *testing.T) {
	var runs atomic.Int32
	svc := NewPeriodicService("failing-worker", 10*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return errors.New("transient failure")
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = svc.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	if got := runs.Load(); got < 2 {
		t.Errorf("service should keep running through errors, got %d runs", got)
	}
}

func TestCacheSweeperEvicts(t *testing.T) {
	c := cache.New(10 * time.Millisecond)
	c.Set("stale", "value", 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	svc := NewCacheSweeper(c, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = svc.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	if c.EntryCount() != 0 {
		t.Errorf("expected swept cache, got %d entries", c.EntryCount())
	}
}

func TestLimiterCleanupWorker(t *testing.T) {
	limiter := keys.NewRateLimiter(100, time.Minute)
	limiter.AllowIP("203.0.113.7")

	svc := NewLimiterCleanup(limiter, 10*time.Millisecond, 1*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = svc.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	if limiter.TrackedCount() != 0 {
		t.Errorf("expected stale limiter removed, got %d", limiter.TrackedCount())
	}
}

func TestTreeServesAndShutsDown(t *testing.T) {
	tree := NewTree(logging.NewSlogLogger(), DefaultTreeConfig())

	var runs atomic.Int32
	tree.AddWorker(NewPeriodicService("tick", 10*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	time.Sleep(60 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("unexpected tree exit error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not stop")
	}

	if runs.Load() < 2 {
		t.Errorf("expected worker to tick, got %d runs", runs.Load())
	}
}
