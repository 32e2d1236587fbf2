package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
	"github.com/prometheus/common/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frappe-dwf/mock-webhook/internal/webservice/metrics"
)

var metricNames = []string{
	"http_endpoint_requests_total",
	"http_endpoint_request_duration_seconds",
	"http_endpoint_request_size_bytes",
}

func TestNewEndpointMiddleware(t *testing.T) {
	t.Parallel()

	// Ensure middleware is returned and no panic occurs.
	require.NotNil(t, metrics.NewEndpointMiddleware(prometheus.NewRegistry()))
}

func TestEndpointWrap(t *testing.T) {
	t.Parallel()

	type request struct {
		method string
		path   string
	}

	tests := map[string]struct {
		requests    []request
		applyLabels bool

		wantCount int
	}{
		"No Requests": {},
		"Single POST Request": {
			requests:  []request{{method: http.MethodPost, path: "/api/method/frappe_dwf.api.create_ups"}},
			wantCount: 1,
		},
		"Single POST Request with Labels": {
			requests:    []request{{method: http.MethodPost, path: "/api/method/frappe_dwf.api.create_ups"}},
			applyLabels: true,
			wantCount:   1,
		},
		"Multiple Requests": {
			requests: []request{
				{method: http.MethodPost, path: "/api/method/frappe_dwf.api.create_ups"},
				{method: http.MethodPost, path: "/api/method/frappe_dwf.api.create_pps"},
				{method: http.MethodGet, path: "/health"},
				{method: http.MethodPost, path: "/api/method/frappe_dwf.api.create_ups"},
			},
			applyLabels: true,
			wantCount:   4,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			reg := prometheus.NewRegistry()
			mw := metrics.NewEndpointMiddleware(reg)

			handler := http.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusCreated)
			}))
			if tc.applyLabels {
				handler = metrics.HandlerApplyLabels(handler)
			}

			wrapped := mw.Wrap(name, handler)
			for _, r := range tc.requests {
				rr := httptest.NewRecorder()
				wrapped.ServeHTTP(rr, httptest.NewRequest(r.method, r.path, nil))
				assert.Equal(t, http.StatusCreated, rr.Code, "Wrapped handler should still answer")
			}

			got := requestsTotal(t, reg, "http_endpoint_requests_total")
			assert.Equal(t, tc.wantCount, got, "Request counter should match the number of requests")
		})
	}
}

func TestMuxWrap(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	mw := metrics.NewMuxMiddleware(reg)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {})
	wrapped := mw.Wrap("mux", mux)

	for _, path := range []string{"/health", "/nope", "/health"} {
		rr := httptest.NewRecorder()
		wrapped.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	}

	got := requestsTotal(t, reg, "http_mux_requests_total")
	assert.Equal(t, 3, got, "Mux counter should count every request, hit or miss")
}

// TestExposition checks the wrapped metrics render to valid Prometheus text format.
func TestExposition(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	mw := metrics.NewEndpointMiddleware(reg)
	wrapped := mw.Wrap("webhook", metrics.HandlerApplyLabels(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})))

	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/method/frappe_dwf.api.receive_ian", nil))

	rr = httptest.NewRecorder()
	promhttp.HandlerFor(reg, promhttp.HandlerOpts{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code, "Metrics handler should answer")

	parser := expfmt.NewTextParser(model.UTF8Validation)
	families, err := parser.TextToMetricFamilies(strings.NewReader(rr.Body.String()))
	require.NoError(t, err, "Exposition should parse as Prometheus text format")

	for _, name := range metricNames {
		assert.Contains(t, families, name, "Exposition should contain %s", name)
	}
}

func requestsTotal(t *testing.T, reg *prometheus.Registry, metric string) int {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err, "Failed to gather metrics")

	total := 0.0
	for _, f := range families {
		if f.GetName() != metric {
			continue
		}
		for _, m := range f.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return int(total)
}
