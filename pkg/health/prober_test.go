package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestProber_AllHealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	prober := NewProber(
		NamedCheck{Name: "quran", Checker: NewHTTPChecker(server.URL)},
		NamedCheck{Name: "redis", Checker: NewTCPChecker(server.Listener.Addr().String())},
	)

	snapshot := prober.Probe(context.Background())
	if !snapshot.Healthy {
		t.Fatalf("expected all checks healthy, got %+v", snapshot.Results)
	}
	if len(snapshot.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(snapshot.Results))
	}
}

func TestProber_OneUnhealthyFailsSnapshot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	prober := NewProber(
		NamedCheck{Name: "quran", Checker: NewHTTPChecker(server.URL)},
		NamedCheck{Name: "hadith", Checker: NewHTTPChecker("http://127.0.0.1:1")},
	)

	snapshot := prober.Probe(context.Background())
	if snapshot.Healthy {
		t.Fatal("expected snapshot to be unhealthy when one check fails")
	}
	if snapshot.Results["quran"].Healthy != true {
		t.Error("expected quran check to be healthy")
	}
	if snapshot.Results["hadith"].Healthy != false {
		t.Error("expected hadith check to be unhealthy")
	}
}
