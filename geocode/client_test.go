package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"gta_pricer/config"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.GeocoderConfig{
		APIKey:       "test-key",
		BaseURL:      server.URL,
		RegionSuffix: ", Ontario, Canada",
		DelayMS:      0,
		MaxAttempts:  2,
	}
	return NewClient(cfg, server.Client())
}

func TestLookup_EncodesQuery(t *testing.T) {
	var gotAddress, gotKey string
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAddress = r.URL.Query().Get("address")
		gotKey = r.URL.Query().Get("key")
		data, err := os.ReadFile(filepath.Join("testdata", "geocode_basic.json"))
		if err != nil {
			t.Fatalf("read fixture: %v", err)
		}
		w.Write(data)
	})

	resp, err := client.Lookup(context.Background(), "123 Main St, Toronto")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}

	if gotAddress != "123 Main St, Toronto, Ontario, Canada" {
		t.Fatalf("unexpected address param: %q", gotAddress)
	}
	if gotKey != "test-key" {
		t.Fatalf("unexpected key param: %q", gotKey)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(resp.Results))
	}
}

func TestLookup_ZeroResultsIsNotAnError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": [], "status": "ZERO_RESULTS"}`))
	})

	resp, err := client.Lookup(context.Background(), "nowhere at all")
	if err != nil {
		t.Fatalf("expected no error for ZERO_RESULTS, got %v", err)
	}
	if len(resp.Results) != 0 {
		t.Fatalf("expected empty results, got %d", len(resp.Results))
	}
}

func TestLookup_ServerErrorBecomesFailureValue(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	if _, err := client.Lookup(context.Background(), "123 Main St"); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestLookup_RetriesThenSucceeds(t *testing.T) {
	calls := 0
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "transient", http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"results": [], "status": "ZERO_RESULTS"}`))
	})

	if _, err := client.Lookup(context.Background(), "123 Main St"); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}
