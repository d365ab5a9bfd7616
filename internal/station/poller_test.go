package station

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"radiometa/internal/core"
)

func newTestPoller(url string, interval, timeout time.Duration, events chan<- core.StationEvent) *Poller {
	config := core.StationConfig{
		MetadataURL:  url,
		PollInterval: interval,
		FetchTimeout: timeout,
	}
	return NewPoller(config, "radiometa-test/1.0", func(_ context.Context, ev core.StationEvent) {
		events <- ev
	}, zap.NewNop())
}

func waitEvent(t *testing.T, events <-chan core.StationEvent) core.StationEvent {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a station event")
		return core.StationEvent{}
	}
}

func TestPoller_EmitsTitleImmediately(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "radiometa-test/1.0" {
			t.Errorf("User-Agent = %q", got)
		}
		_, _ = w.Write([]byte(`parseMusic({"title":"Daft Punk - One More Time"})`))
	}))
	defer srv.Close()

	events := make(chan core.StationEvent, 10)
	poller := newTestPoller(srv.URL, time.Hour, time.Second, events)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- poller.Start(ctx) }()

	ev := waitEvent(t, events)
	if !ev.Available {
		t.Fatalf("event unavailable: %v", ev.Err)
	}
	if ev.RawTitle != "Daft Punk - One More Time" {
		t.Errorf("RawTitle = %q", ev.RawTitle)
	}
	if !poller.Ready() {
		t.Error("Ready() should be true after the first fetch")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Start() error = %v", err)
	}
}

func TestPoller_ErrorsAreUnavailableEvents(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind string
	}{
		{name: "server error", status: http.StatusInternalServerError, wantKind: "transport"},
		{name: "malformed body", status: http.StatusOK, body: "parseMusic(", wantKind: "format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			events := make(chan core.StationEvent, 10)
			poller := newTestPoller(srv.URL, 20*time.Millisecond, time.Second, events)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go func() { _ = poller.Start(ctx) }()

			// The schedule keeps running after a failure.
			for i := 0; i < 2; i++ {
				ev := waitEvent(t, events)
				if ev.Available {
					t.Fatal("event should be unavailable")
				}
				if got := core.ErrorKind(ev.Err); got != tt.wantKind {
					t.Errorf("ErrorKind() = %q, want %q", got, tt.wantKind)
				}
			}
		})
	}
}

func TestPoller_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	events := make(chan core.StationEvent, 10)
	poller := newTestPoller(srv.URL, time.Hour, 50*time.Millisecond, events)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = poller.Start(ctx) }()

	ev := waitEvent(t, events)
	if ev.Available {
		t.Fatal("slow fetch should time out")
	}

	var transportErr *core.TransportError
	if !errors.As(ev.Err, &transportErr) {
		t.Errorf("error = %v, want *core.TransportError", ev.Err)
	}
}

func TestPoller_SkipsTicksWhileFetchPending(t *testing.T) {
	var requests atomic.Int32
	release := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
		_, _ = w.Write([]byte(`{"title":"A - B"}`))
	}))
	defer srv.Close()

	events := make(chan core.StationEvent, 10)
	poller := newTestPoller(srv.URL, 10*time.Millisecond, 5*time.Second, events)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = poller.Start(ctx) }()

	// Several ticks elapse while the first fetch is held open.
	time.Sleep(100 * time.Millisecond)

	if got := requests.Load(); got != 1 {
		t.Errorf("requests while pending = %d, want 1", got)
	}
	if !poller.Pending() {
		t.Error("Pending() should be true while the fetch is held")
	}
	if poller.RefreshNow() {
		t.Error("RefreshNow() should be refused while a fetch is pending")
	}

	close(release)
	ev := waitEvent(t, events)
	if !ev.Available || ev.RawTitle != "A - B" {
		t.Errorf("event = %+v", ev)
	}
}

func TestPoller_RefreshNow(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		_, _ = w.Write([]byte(`{"title":"A - B"}`))
	}))
	defer srv.Close()

	events := make(chan core.StationEvent, 10)
	poller := newTestPoller(srv.URL, time.Hour, time.Second, events)

	if poller.RefreshNow() {
		t.Error("RefreshNow() before Start() should report false")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = poller.Start(ctx) }()

	waitEvent(t, events)

	// Wait for the in-flight flag to clear after the handler returned.
	deadline := time.Now().Add(time.Second)
	for poller.Pending() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	if !poller.RefreshNow() {
		t.Fatal("RefreshNow() should start a fetch when idle")
	}
	waitEvent(t, events)

	if got := requests.Load(); got != 2 {
		t.Errorf("requests = %d, want 2", got)
	}
}
