package main

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestRunReturnsListenError(t *testing.T) {
	origListen := listenAndServe
	origExit := exitFunc
	t.Cleanup(func() {
		listenAndServe = origListen
		exitFunc = origExit
	})

	listenAndServe = func(srv *http.Server) error {
		if srv.Handler == nil {
			t.Errorf("expected handler")
		}
		if srv.Addr != ":9090" {
			t.Errorf("expected addr :9090, got %s", srv.Addr)
		}
		return errors.New("boom")
	}
	exitFunc = func(error) {}

	t.Setenv("PORT", "9090")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("JWT_SECRET_KEY", "")
	t.Setenv("CENSUS_SCHEDULE", "")

	if err := run(context.TODO()); err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom error, got %v", err)
	}
}

func TestRunWithRedisAndAccounts(t *testing.T) {
	origListen := listenAndServe
	t.Cleanup(func() { listenAndServe = origListen })

	mr := miniredis.RunT(t)

	var served http.Handler
	listenAndServe = func(srv *http.Server) error {
		served = srv.Handler
		return nil
	}

	t.Setenv("PORT", "9092")
	t.Setenv("REDIS_ADDR", mr.Addr())
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	t.Setenv("SQLITE_PATH", "file:main_test?mode=memory&cache=shared")
	t.Setenv("DATABASE_URL", "")

	if err := run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if served == nil {
		t.Fatalf("expected router to be served")
	}
}

func TestRunRejectsBadConfig(t *testing.T) {
	t.Setenv("CLIENT_BUFFER", "lots")
	if err := run(context.Background()); err == nil {
		t.Fatalf("expected config error")
	}
}

func TestMainCompletes(t *testing.T) {
	origListen := listenAndServe
	origExit := exitFunc
	t.Cleanup(func() {
		listenAndServe = origListen
		exitFunc = origExit
	})

	listenAndServe = func(*http.Server) error { return nil }
	exitFunc = func(error) { t.Fatal("exitFunc should not be called") }

	t.Setenv("PORT", "9091")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("JWT_SECRET_KEY", "")

	main()
}

func TestRunShutsDownOnCancel(t *testing.T) {
	origListen := listenAndServe
	t.Cleanup(func() { listenAndServe = origListen })

	serving := make(chan struct{})
	listenAndServe = func(srv *http.Server) error {
		stopped := make(chan struct{})
		srv.RegisterOnShutdown(func() { close(stopped) })
		close(serving)
		<-stopped
		return http.ErrServerClosed
	}

	t.Setenv("PORT", "9093")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("JWT_SECRET_KEY", "")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx) }()

	select {
	case <-serving:
	case <-time.After(2 * time.Second):
		t.Fatal("server was never started")
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancel")
	}
}

func TestRunServesRealListener(t *testing.T) {
	t.Setenv("PORT", "0")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("JWT_SECRET_KEY", "")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancel")
	}
}

func TestSplitOrigins(t *testing.T) {
	got := splitOrigins(" https://a.dev, ,https://b.dev ")
	if len(got) != 2 || got[0] != "https://a.dev" || got[1] != "https://b.dev" {
		t.Fatalf("unexpected origins: %v", got)
	}
	if got := splitOrigins(""); len(got) != 1 || got[0] != "*" {
		t.Fatalf("expected wildcard default, got %v", got)
	}
}
