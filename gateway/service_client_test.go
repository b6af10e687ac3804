// Copyright 2025 DreamTrip
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dreamtrip/platform/config"
)

func clientFor(url string, timeoutMs int) *ServiceClient {
	return NewServiceClient(map[string]config.ProviderConfig{
		"route": {URL: url, TimeoutMs: timeoutMs},
	})
}

func TestCallSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/route" {
			t.Errorf("path = %s, want /route", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %s", ct)
		}

		var req map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("request body is not JSON: %v", err)
		}
		if req["origin"] != "Berlin" {
			t.Errorf("origin = %v", req["origin"])
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"distance":"2300 km","duration":"23 hours","steps":["A9 south"]}`))
	}))
	defer srv.Close()

	c := clientFor(srv.URL, 5000)
	body, callErr := c.Call(context.Background(), "route", "/route", map[string]string{
		"origin": "Berlin", "destination": "Lisbon",
	})
	if callErr != nil {
		t.Fatalf("Call returned error: %v", callErr)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if resp["distance"] != "2300 km" {
		t.Errorf("distance = %v", resp["distance"])
	}
}

func TestCallNon2xxIsBadResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := clientFor(srv.URL, 5000)
	_, callErr := c.Call(context.Background(), "route", "/route", nil)
	if callErr == nil {
		t.Fatal("expected error for 500 response")
	}
	if callErr.Kind != CallBadResponse {
		t.Errorf("kind = %s, want bad_response", callErr.Kind)
	}
	if callErr.Status != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", callErr.Status)
	}
	if callErr.Provider != "route" {
		t.Errorf("provider = %s, want route", callErr.Provider)
	}
}

func TestCallTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	c := clientFor(srv.URL, 50)
	_, callErr := c.Call(context.Background(), "route", "/route", nil)
	if callErr == nil {
		t.Fatal("expected timeout error")
	}
	if callErr.Kind != CallTimeout {
		t.Errorf("kind = %s, want timeout", callErr.Kind)
	}
}

func TestCallUnreachable(t *testing.T) {
	// Grab a port that nothing listens on
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := srv.URL
	srv.Close()

	c := clientFor(deadURL, 1000)
	_, callErr := c.Call(context.Background(), "route", "/route", nil)
	if callErr == nil {
		t.Fatal("expected error for refused connection")
	}
	if callErr.Kind != CallUnreachable {
		t.Errorf("kind = %s, want unreachable", callErr.Kind)
	}
}

func TestCallUnknownProvider(t *testing.T) {
	c := clientFor("http://localhost:1", 1000)
	_, callErr := c.Call(context.Background(), "weather", "/weather/forecast", nil)
	if callErr == nil {
		t.Fatal("expected error for unconfigured provider")
	}
	if callErr.Kind != CallUnreachable {
		t.Errorf("kind = %s, want unreachable", callErr.Kind)
	}
}

func TestHealthProbe(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("path = %s, want /health", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer healthy.Close()

	sick := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer sick.Close()

	if got := clientFor(healthy.URL, 1000).Health(context.Background(), "route"); got != "healthy" {
		t.Errorf("healthy probe = %q", got)
	}
	if got := clientFor(sick.URL, 1000).Health(context.Background(), "route"); got != "unhealthy" {
		t.Errorf("sick probe = %q", got)
	}
	if got := clientFor(healthy.URL, 1000).Health(context.Background(), "weather"); got != "unhealthy" {
		t.Errorf("unknown provider probe = %q", got)
	}
}
