package cdn_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/Lighty-Launcher/LightyUpdater/cdn"
)

func TestPurgeKeySuccess(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if got, want := r.Header.Get("Authorization"), "Bearer token"; got != want {
			t.Errorf("got Authorization %q, want %q", got, want)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := cdn.New(srv.URL, "token", "zone1", nil)
	if err := client.PurgeKey(context.Background(), "vanilla.json"); err != nil {
		t.Fatalf("PurgeKey: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("got %d calls, want exactly 1 on success", got)
	}
}

func TestPurgeKeyPermanentFailureDoesNotRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := cdn.New(srv.URL, "token", "zone1", nil)
	err := client.PurgeKey(context.Background(), "vanilla.json")
	if err == nil {
		t.Fatal("expected an error for a 4xx response")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("got %d calls, want exactly 1 (4xx must not be retried)", got)
	}
}

func TestPurgeKeyRetriesServerErrorsUpToThreeAttempts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := cdn.New(srv.URL, "token", "zone1", nil)
	err := client.PurgeKey(context.Background(), "vanilla.json")
	if err == nil {
		t.Fatal("expected an error after exhausting retries against a persistent 5xx")
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("got %d attempts, want exactly 3 (the configured max)", got)
	}
}
