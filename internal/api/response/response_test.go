package response_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/saferoute/saferoute/internal/api/middleware"
	"github.com/saferoute/saferoute/internal/api/models"
	"github.com/saferoute/saferoute/internal/api/response"
)

// requestWithContext returns a request that has passed through the RequestID middleware.
func requestWithContext(t *testing.T, method, path string) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()
	req := httptest.NewRequest(method, path, http.NoBody)

	var processedReq *http.Request
	handler := middleware.RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		processedReq = r
	}))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	return processedReq, httptest.NewRecorder()
}

func TestJSON_IncludesRequestID(t *testing.T) {
	req, rec := requestWithContext(t, http.MethodGet, "/test")

	response.JSON(rec, req, http.StatusOK, map[string]string{"message": "hello"})

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if got, want := rec.Header().Get("X-Request-Id"), middleware.GetRequestID(req.Context()); got != want || got == "" {
		t.Errorf("expected X-Request-Id %q, got %q", want, got)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %q", ct)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["message"] != "hello" {
		t.Errorf("expected message hello, got %q", body["message"])
	}
}

func TestJSON_WithoutRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	rec := httptest.NewRecorder()

	response.JSON(rec, req, http.StatusOK, nil)

	if rec.Header().Get("X-Request-Id") != "" {
		t.Error("expected no X-Request-Id header")
	}
	if rec.Body.Len() != 0 {
		t.Errorf("expected empty body, got %q", rec.Body.String())
	}
}

func TestCreated_SetsLocation(t *testing.T) {
	req, rec := requestWithContext(t, http.MethodPost, "/v1/auth/signup")

	response.Created(rec, req, "/v1/me", map[string]string{"userId": "usr_1"})

	if rec.Code != http.StatusCreated {
		t.Errorf("expected status 201, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/v1/me" {
		t.Errorf("expected Location /v1/me, got %q", loc)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("expected X-Request-Id header to be set")
	}
}

func TestCreated_NoLocation(t *testing.T) {
	req, rec := requestWithContext(t, http.MethodPost, "/v1/auth/signup")

	response.Created(rec, req, "", nil)

	if _, ok := rec.Header()["Location"]; ok {
		t.Error("expected no Location header")
	}
}

func TestProblemHelpers(t *testing.T) {
	tests := []struct {
		name       string
		write      func(http.ResponseWriter, *http.Request)
		wantStatus int
		wantType   string
	}{
		{
			name: "bad request",
			write: func(w http.ResponseWriter, r *http.Request) {
				response.BadRequest(w, r, "invalid body", []models.FieldError{{Field: "mode", Message: "must be one of drive walk", Code: "INVALID_ENUM"}})
			},
			wantStatus: http.StatusBadRequest,
			wantType:   models.ProblemTypeValidation,
		},
		{
			name:       "out of coverage",
			write:      func(w http.ResponseWriter, r *http.Request) { response.OutOfCoverage(w, r, "outside") },
			wantStatus: http.StatusBadRequest,
			wantType:   models.ProblemTypeOutOfCoverage,
		},
		{
			name:       "unauthorized",
			write:      func(w http.ResponseWriter, r *http.Request) { response.Unauthorized(w, r, "bad token") },
			wantStatus: http.StatusUnauthorized,
			wantType:   models.ProblemTypeUnauthorized,
		},
		{
			name:       "not found",
			write:      func(w http.ResponseWriter, r *http.Request) { response.NotFound(w, r, "missing") },
			wantStatus: http.StatusNotFound,
			wantType:   models.ProblemTypeNotFound,
		},
		{
			name:       "no route",
			write:      func(w http.ResponseWriter, r *http.Request) { response.NoRoute(w, r, "disconnected") },
			wantStatus: http.StatusNotFound,
			wantType:   models.ProblemTypeNoRoute,
		},
		{
			name:       "conflict",
			write:      func(w http.ResponseWriter, r *http.Request) { response.Conflict(w, r, "taken") },
			wantStatus: http.StatusConflict,
			wantType:   models.ProblemTypeConflict,
		},
		{
			name:       "internal",
			write:      func(w http.ResponseWriter, r *http.Request) { response.InternalError(w, r, "oops") },
			wantStatus: http.StatusInternalServerError,
			wantType:   models.ProblemTypeInternal,
		},
		{
			name:       "provider",
			write:      func(w http.ResponseWriter, r *http.Request) { response.ProviderError(w, r, "geocoder down") },
			wantStatus: http.StatusBadGateway,
			wantType:   models.ProblemTypeProviderError,
		},
		{
			name:       "unavailable",
			write:      func(w http.ResponseWriter, r *http.Request) { response.ServiceUnavailable(w, r, "loading") },
			wantStatus: http.StatusServiceUnavailable,
			wantType:   models.ProblemTypeUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := requestWithContext(t, http.MethodGet, "/v1/thing")

			tt.write(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
				t.Errorf("expected problem content type, got %q", ct)
			}

			var problem models.Problem
			if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
				t.Fatalf("failed to decode problem: %v", err)
			}
			if problem.Type != tt.wantType {
				t.Errorf("expected type %q, got %q", tt.wantType, problem.Type)
			}
			if problem.Instance != "/v1/thing" {
				t.Errorf("expected instance /v1/thing, got %q", problem.Instance)
			}
			if problem.TraceID != middleware.GetRequestID(req.Context()) {
				t.Errorf("expected traceId %q, got %q", middleware.GetRequestID(req.Context()), problem.TraceID)
			}
			if problem.TraceID != rec.Header().Get("X-Request-Id") {
				t.Error("expected traceId to match X-Request-Id header")
			}
		})
	}
}

func TestBadRequest_FieldErrors(t *testing.T) {
	req, rec := requestWithContext(t, http.MethodPost, "/v1/routes:compute")

	response.BadRequest(rec, req, "validation failed", []models.FieldError{
		{Field: "origin", Message: "origin is required", Code: "REQUIRED"},
	})

	var problem models.Problem
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("failed to decode problem: %v", err)
	}
	if len(problem.Errors) != 1 || problem.Errors[0].Field != "origin" || problem.Errors[0].Code != "REQUIRED" {
		t.Errorf("unexpected field errors: %+v", problem.Errors)
	}
}
