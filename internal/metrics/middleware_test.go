package metrics

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newInstrumentedRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Post("/v1/match", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"score":0.8}`))
	})
	r.Get("/v1/candidates/{id}/top", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Post("/v1/match/batch", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	})
	return r
}

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	r := newInstrumentedRouter()

	for _, id := range []string{"c1", "c2", "c3"} {
		req := httptest.NewRequest(http.MethodGet, "/v1/candidates/"+id+"/top", http.NoBody)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/v1/candidates/{id}/top", "404"))
	if got < 3 {
		t.Errorf("requests_total for pattern = %v, want >= 3", got)
	}
}

func TestMiddleware_StatusCodes(t *testing.T) {
	r := newInstrumentedRouter()

	tests := []struct {
		method, path, route, status string
	}{
		{http.MethodPost, "/v1/match", "/v1/match", "200"},
		{http.MethodPost, "/v1/match/batch", "/v1/match/batch", "422"},
		{http.MethodGet, "/nope", unmatchedRoute, "404"},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, http.NoBody)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(tc.method, tc.route, tc.status))
			if val < 1 {
				t.Errorf("requests_total{%s,%s,%s} = %v, want >= 1", tc.method, tc.route, tc.status, val)
			}
		})
	}

	if testutil.CollectAndCount(httpRequestDuration) == 0 {
		t.Error("expected request duration observations")
	}
}

func TestMiddleware_RequestSizeAndInFlight(t *testing.T) {
	r := newInstrumentedRouter()

	body := bytes.Repeat([]byte("x"), 1024)
	req := httptest.NewRequest(http.MethodPost, "/v1/match", bytes.NewReader(body))
	r.ServeHTTP(httptest.NewRecorder(), req)

	if testutil.CollectAndCount(httpRequestBytes) == 0 {
		t.Error("expected request size observations")
	}
	if v := testutil.ToFloat64(httpInFlight); v != 0 {
		t.Errorf("in-flight after completion = %v, want 0", v)
	}
}

func TestNormalizeRoute(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"", unmatchedRoute},
		{"/", "/"},
		{"/v1/match", "/v1/match"},
		{"/v1/match/", "/v1/match"},
		{"/v1/*", "/v1"},
	}

	for _, tc := range tests {
		if got := normalizeRoute(tc.input); got != tc.want {
			t.Errorf("normalizeRoute(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}
