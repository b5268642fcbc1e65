package httpclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/deenmate/sync-core/pkg/errs"
)

type chapterResp struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
}

func TestGetJSONSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "test-agent" {
			t.Errorf("User-Agent = %q, want test-agent", r.Header.Get("User-Agent"))
		}
		json.NewEncoder(w).Encode(chapterResp{Number: 1, Name: "Al-Fatihah"})
	}))
	defer srv.Close()

	c := New("test-agent", WithTimeout(2*time.Second))
	var out chapterResp
	if err := c.GetJSON(context.Background(), "quran-provider", srv.URL, &out); err != nil {
		t.Fatalf("GetJSON() error: %v", err)
	}
	if out.Number != 1 || out.Name != "Al-Fatihah" {
		t.Errorf("out = %+v, want {1 Al-Fatihah}", out)
	}
}

func TestGetJSON4xxDoesNotRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New("test-agent")
	err := c.GetJSON(context.Background(), "quran-provider", srv.URL, &chapterResp{})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errs.IsType(err, errs.ErrorTypeUpstream) {
		t.Errorf("error type = %v, want upstream", errs.GetType(err))
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("calls = %d, want 1 (no retry on 4xx)", calls)
	}
}

func TestGetJSON5xxRetriesThenFails(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New("test-agent", WithRetryPolicy(RetryPolicy{MaxAttempts: 3, Backoff: time.Millisecond, RetryOn5xx: true}))
	err := c.GetJSON(context.Background(), "quran-provider", srv.URL, &chapterResp{})
	if err == nil {
		t.Fatal("expected error after retries exhausted")
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestGetJSONMalformedBodyIsProtocolError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := New("test-agent")
	err := c.GetJSON(context.Background(), "quran-provider", srv.URL, &chapterResp{})
	if !errs.IsType(err, errs.ErrorTypeProtocol) {
		t.Errorf("error type = %v, want protocol", errs.GetType(err))
	}
}
