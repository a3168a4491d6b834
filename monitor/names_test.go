package monitor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storewatch/httputil"
)

func TestNameResolver_ScrapesHeading(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><h1> Mang Inasal - Bacoor </h1></body></html>`))
	}))
	defer srv.Close()

	n := newNameResolver(httputil.NewScrapingClient(5 * time.Second))
	name := n.Resolve(context.Background(), srv.URL+"/restaurant/mang-inasal-bacoor")
	if name != "Mang Inasal - Bacoor" {
		t.Fatalf("unexpected name %q", name)
	}
}

func TestNameResolver_BlockPageFallsBackToSlug(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><h1>403 ERROR</h1><p>Request blocked.</p></body></html>`))
	}))
	defer srv.Close()

	n := newNameResolver(httputil.NewScrapingClient(5 * time.Second))
	name := n.Resolve(context.Background(), srv.URL+"/restaurant/mang-inasal-bacoor")
	if name != "Mang Inasal Bacoor" {
		t.Fatalf("expected slug fallback, got %q", name)
	}
}

func TestNameResolver_ErrorStatusFallsBackToSlug(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	n := newNameResolver(httputil.NewScrapingClient(5 * time.Second))
	name := n.Resolve(context.Background(), srv.URL+"/restaurant/jollibee-molino")
	if name != "Jollibee Molino" {
		t.Fatalf("expected slug fallback, got %q", name)
	}
}

func TestNameResolver_UnreachableHostFallsBackToSlug(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL + "/restaurant/chowking-imus"
	srv.Close()

	n := newNameResolver(httputil.NewScrapingClient(2 * time.Second))
	name := n.Resolve(context.Background(), url)
	if name != "Chowking Imus" {
		t.Fatalf("expected slug fallback, got %q", name)
	}
}
