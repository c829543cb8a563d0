package nominatim

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/rs/zerolog"

	"github.com/saferoute/saferoute/internal/geocoding"
)

func TestClient_Search_Success(t *testing.T) {
	respBody, err := os.ReadFile("testdata/search_response.json")
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/search" {
			t.Errorf("expected path /search, got %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("q") != "big ben" {
			t.Errorf("expected q 'big ben', got %q", q.Get("q"))
		}
		if q.Get("format") != "json" || q.Get("addressdetails") != "1" || q.Get("limit") != "3" {
			t.Errorf("unexpected query parameters: %s", r.URL.RawQuery)
		}
		if r.Header.Get("User-Agent") != "SafeRouteTest/1.0" {
			t.Errorf("expected User-Agent 'SafeRouteTest/1.0', got %q", r.Header.Get("User-Agent"))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(respBody)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		BaseURL:    server.URL,
		UserAgent:  "SafeRouteTest/1.0",
		HTTPClient: server.Client(),
		Logger:     zerolog.Nop(),
	})

	places, err := client.Search(context.Background(), "big ben", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The entry with an unparseable latitude is skipped.
	if len(places) != 2 {
		t.Fatalf("expected 2 places, got %d", len(places))
	}
	if places[0].DisplayName != "Big Ben, Westminster, London, SW1A 0AA, United Kingdom" {
		t.Errorf("unexpected display name %q", places[0].DisplayName)
	}
	if places[0].Lat != 51.5007325 || places[0].Lon != -0.1246254 {
		t.Errorf("unexpected coordinates %v,%v", places[0].Lat, places[0].Lon)
	}
	if places[1].Lat != 53.4807593 {
		t.Errorf("expected Manchester second, got %+v", places[1])
	}
}

func TestClient_Search_EmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, HTTPClient: server.Client()})

	places, err := client.Search(context.Background(), "nowhere", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(places) != 0 {
		t.Errorf("expected no places, got %d", len(places))
	}
}

func TestClient_Search_ErrorResponses(t *testing.T) {
	tests := []struct {
		name          string
		statusCode    int
		body          string
		expectedCode  string
		expectedErr   error
		wantRetryable bool
	}{
		{
			name:          "rate limit",
			statusCode:    http.StatusTooManyRequests,
			body:          `{"error":{"code":429,"message":"Too many requests"}}`,
			expectedCode:  "RATE_LIMIT",
			expectedErr:   geocoding.ErrRateLimitExceeded,
			wantRetryable: true,
		},
		{
			name:          "forbidden",
			statusCode:    http.StatusForbidden,
			body:          `<html>blocked</html>`,
			expectedCode:  "FORBIDDEN",
			expectedErr:   geocoding.ErrProviderUnavailable,
			wantRetryable: true,
		},
		{
			name:          "server error",
			statusCode:    http.StatusServiceUnavailable,
			body:          ``,
			expectedCode:  "SERVER_503",
			expectedErr:   geocoding.ErrProviderUnavailable,
			wantRetryable: true,
		},
		{
			name:          "bad request",
			statusCode:    http.StatusBadRequest,
			body:          `{"error":{"code":400,"message":"Nothing to search for."}}`,
			expectedCode:  "HTTP_400",
			expectedErr:   geocoding.ErrQueryRejected,
			wantRetryable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(ClientConfig{BaseURL: server.URL, HTTPClient: server.Client()})

			_, err := client.Search(context.Background(), "soho", 5)
			if err == nil {
				t.Fatal("expected error, got nil")
			}

			var gErr *geocoding.Error
			if !errors.As(err, &gErr) {
				t.Fatalf("expected *geocoding.Error, got %T", err)
			}
			if gErr.Provider != ProviderName {
				t.Errorf("expected provider %s, got %s", ProviderName, gErr.Provider)
			}
			if gErr.Code != tt.expectedCode {
				t.Errorf("expected code %s, got %s", tt.expectedCode, gErr.Code)
			}
			if !errors.Is(err, tt.expectedErr) {
				t.Errorf("expected error to wrap %v", tt.expectedErr)
			}
			if gErr.IsRetryable() != tt.wantRetryable {
				t.Errorf("expected retryable %v", tt.wantRetryable)
			}
		})
	}
}

func TestClient_Search_BadRequestMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":400,"message":"Nothing to search for."}}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, HTTPClient: server.Client()})

	_, err := client.Search(context.Background(), "x", 5)
	var gErr *geocoding.Error
	if !errors.As(err, &gErr) {
		t.Fatalf("expected *geocoding.Error, got %v", err)
	}
	if gErr.Message != "Nothing to search for." {
		t.Errorf("expected provider message, got %q", gErr.Message)
	}
}

func TestClient_Search_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"not":"an array"`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, HTTPClient: server.Client()})

	_, err := client.Search(context.Background(), "soho", 5)
	if !errors.Is(err, geocoding.ErrProviderUnavailable) {
		t.Errorf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestClient_Search_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	baseURL := server.URL
	server.Close()

	client := NewClient(ClientConfig{BaseURL: baseURL, HTTPClient: &http.Client{}})

	_, err := client.Search(context.Background(), "soho", 5)
	var gErr *geocoding.Error
	if !errors.As(err, &gErr) {
		t.Fatalf("expected *geocoding.Error, got %v", err)
	}
	if gErr.Code != "REQUEST_FAILED" {
		t.Errorf("expected REQUEST_FAILED, got %s", gErr.Code)
	}
	if !gErr.IsRetryable() {
		t.Error("expected unreachable provider to be retryable")
	}
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(ClientConfig{})

	if client.baseURL != DefaultBaseURL {
		t.Errorf("expected base URL %s, got %s", DefaultBaseURL, client.baseURL)
	}
	if client.userAgent != DefaultUserAgent {
		t.Errorf("expected user agent %s, got %s", DefaultUserAgent, client.userAgent)
	}
	if client.Name() != ProviderName {
		t.Errorf("expected name %s, got %s", ProviderName, client.Name())
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("GEOCODER_BASE_URL", "http://nominatim.local")
	t.Setenv("GEOCODER_USER_AGENT", "SafeRoute/2.0")

	cfg := ConfigFromEnv()
	if cfg.BaseURL != "http://nominatim.local" || cfg.UserAgent != "SafeRoute/2.0" {
		t.Errorf("unexpected config %+v", cfg)
	}
}
