// Gigline - Music Artist & Event Data Pipeline
// Copyright 2026 Eva Martin (evamartin1240)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/evamartin1240/gigline

package supervisor

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

// stubServer blocks in ListenAndServe until Shutdown is called, like a real
// *http.Server.
type stubServer struct {
	started  chan struct{}
	release  chan error
	shutdown chan struct{}
}

func newStubServer() *stubServer {
	return &stubServer{
		started:  make(chan struct{}),
		release:  make(chan error, 1),
		shutdown: make(chan struct{}, 1),
	}
}

func (s *stubServer) ListenAndServe() error {
	close(s.started)
	return <-s.release
}

func (s *stubServer) Shutdown(ctx context.Context) error {
	s.shutdown <- struct{}{}
	s.release <- http.ErrServerClosed
	return nil
}

func TestHTTPServiceGracefulShutdown(t *testing.T) {
	server := newStubServer()
	service := NewHTTPService(server, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- service.Serve(ctx) }()

	<-server.started
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("service did not stop after cancellation")
	}

	select {
	case <-server.shutdown:
	default:
		t.Error("expected Shutdown to be called")
	}
}

func TestHTTPServiceSurfacesServerError(t *testing.T) {
	server := newStubServer()
	service := NewHTTPService(server, time.Second)

	done := make(chan error, 1)
	go func() { done <- service.Serve(context.Background()) }()

	<-server.started
	server.release <- errors.New("listen tcp: address already in use")

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected an error from a failing server")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("service did not stop after server error")
	}
}

func TestHTTPServiceTreatsServerClosedAsClean(t *testing.T) {
	server := newStubServer()
	service := NewHTTPService(server, time.Second)

	done := make(chan error, 1)
	go func() { done <- service.Serve(context.Background()) }()

	<-server.started
	server.release <- http.ErrServerClosed

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected nil for ErrServerClosed, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("service did not stop")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.FailureThreshold != 5.0 {
		t.Errorf("expected failure threshold 5.0, got %v", cfg.FailureThreshold)
	}
	if cfg.FailureDecay != 30.0 {
		t.Errorf("expected failure decay 30.0, got %v", cfg.FailureDecay)
	}
	if cfg.FailureBackoff != 15*time.Second {
		t.Errorf("expected failure backoff 15s, got %v", cfg.FailureBackoff)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("expected shutdown timeout 10s, got %v", cfg.ShutdownTimeout)
	}
}

func TestHTTPServiceString(t *testing.T) {
	if got := NewHTTPService(newStubServer(), 0).String(); got != "http-server" {
		t.Errorf("unexpected service name %q", got)
	}
}
