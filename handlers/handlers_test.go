package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"event-wallboard/models"
	"event-wallboard/services"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockMetricsService for testing
type MockMetricsService struct {
	mock.Mock
}

func (m *MockMetricsService) IncrementCounter(name string, tags map[string]string) {
	m.Called(name, tags)
}

func (m *MockMetricsService) RecordDuration(name string, duration time.Duration, tags map[string]string) {
	m.Called(name, duration, tags)
}

func (m *MockMetricsService) GetMetrics() map[string]interface{} {
	args := m.Called()
	return args.Get(0).(map[string]interface{})
}

func (m *MockMetricsService) WritePrometheus(w io.Writer) error {
	args := m.Called(w)
	return args.Error(0)
}

func testLogger() services.Logger {
	return services.NewStructuredLogger(services.LogLevelError, io.Discard)
}

func TestHealthHandler_Health(t *testing.T) {
	handler := NewHealthHandler(testLogger())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	handler.Health(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, ContentTypeJSON, rr.Header().Get("Content-Type"))
	assert.Equal(t, `{"status":"ok"}`, rr.Body.String())
}

func TestEventHandler_NotImplemented(t *testing.T) {
	store := services.NewEventStore()
	handler := NewEventHandler(store, testLogger())

	router := mux.NewRouter()
	router.HandleFunc("/webhook", handler.Webhook).Methods(http.MethodPost)
	router.HandleFunc("/wallboard", handler.Wallboard).Methods(http.MethodGet)
	router.HandleFunc("/metrics/{source}", handler.SourceMetrics).Methods(http.MethodGet)
	router.HandleFunc("/events/{eventId}", handler.DeleteEvent).Methods(http.MethodDelete)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{name: "webhook with event", method: http.MethodPost, path: "/webhook", body: `{"id":"evt-1","source":"github"}`},
		{name: "webhook empty body", method: http.MethodPost, path: "/webhook"},
		{name: "webhook malformed body", method: http.MethodPost, path: "/webhook", body: `{"id":`},
		{name: "webhook array body", method: http.MethodPost, path: "/webhook", body: `[1,2,3]`},
		{name: "wallboard", method: http.MethodGet, path: "/wallboard"},
		{name: "wallboard with query", method: http.MethodGet, path: "/wallboard?since=yesterday"},
		{name: "source metrics", method: http.MethodGet, path: "/metrics/github"},
		{name: "source metrics escaped", method: http.MethodGet, path: "/metrics/a%20b"},
		{name: "delete event", method: http.MethodDelete, path: "/events/evt-1"},
		{name: "delete unknown event", method: http.MethodDelete, path: "/events/does-not-exist", body: `garbage`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rr := httptest.NewRecorder()

			router.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusNotImplemented, rr.Code)
			assert.Equal(t, ContentTypeJSON, rr.Header().Get("Content-Type"))
			assert.Equal(t, `{"message":"Not implemented yet"}`, rr.Body.String())
			assert.Equal(t, 0, store.Len())
			assert.Equal(t, 0, store.SeenCount())
		})
	}
}

func TestEventHandler_DecodesPathParams(t *testing.T) {
	var logs bytes.Buffer
	handler := NewEventHandler(services.NewEventStore(), services.NewStructuredLogger(services.LogLevelDebug, &logs))

	router := mux.NewRouter().UseEncodedPath()
	router.HandleFunc("/metrics/{source}", handler.SourceMetrics).Methods(http.MethodGet)
	router.HandleFunc("/events/{eventId}", handler.DeleteEvent).Methods(http.MethodDelete)

	tests := []struct {
		method string
		path   string
		field  string
	}{
		{http.MethodGet, "/metrics/a%2Fb", `"source":"a/b"`},
		{http.MethodGet, "/metrics/team%20ci", `"source":"team ci"`},
		{http.MethodDelete, "/events/x%2Fy", `"event_id":"x/y"`},
		{http.MethodDelete, "/events/evt-1", `"event_id":"evt-1"`},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			logs.Reset()
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, http.StatusNotImplemented, rr.Code)
			assert.Contains(t, logs.String(), tt.field)
		})
	}
}

func TestFallbackHandler(t *testing.T) {
	handler := NewFallbackHandler(testLogger())

	t.Run("not found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/nowhere", nil)
		rr := httptest.NewRecorder()
		handler.NotFound(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		var apiErr models.APIError
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &apiErr))
		assert.Equal(t, "not_found", apiErr.Type)
		assert.Equal(t, "ROUTE_NOT_FOUND", apiErr.Code)
		assert.Equal(t, "Cannot GET /nowhere", apiErr.Message)
	})

	t.Run("method not allowed answers 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/webhook", nil)
		rr := httptest.NewRecorder()
		handler.MethodNotAllowed(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		var apiErr models.APIError
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &apiErr))
		assert.Equal(t, "METHOD_NOT_ALLOWED", apiErr.Code)
		assert.Equal(t, "Cannot GET /webhook", apiErr.Message)
	})

	t.Run("recovered", func(t *testing.T) {
		var logs bytes.Buffer
		handler := NewFallbackHandler(services.NewStructuredLogger(services.LogLevelInfo, &logs))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rr := httptest.NewRecorder()
		handler.Recovered(rr, req, fmt.Errorf("nil map"))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		var apiErr models.APIError
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &apiErr))
		assert.Equal(t, "PANIC_RECOVERED", apiErr.Code)
		assert.NotContains(t, rr.Body.String(), "nil map", "cause must not leak to clients")
		assert.Contains(t, logs.String(), "nil map")
	})
}

func TestMetricsHandler_Serve(t *testing.T) {
	metrics := services.NewInMemoryMetrics()
	metrics.IncrementCounter("http_requests_total", map[string]string{"route": "/health"})
	handler := NewMetricsHandler(metrics, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/debug/metrics", nil)
	rr := httptest.NewRecorder()
	handler.Serve(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, services.PrometheusContentType, rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), `http_requests_total{route="/health"} 1`)
}

func TestMetricsHandler_ServeJSON(t *testing.T) {
	metrics := services.NewInMemoryMetrics()
	metrics.IncrementCounter("http_requests_total", map[string]string{"route": "/health"})
	handler := NewMetricsHandler(metrics, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/debug/metrics?format=json", nil)
	rr := httptest.NewRecorder()
	handler.Serve(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, ContentTypeJSON, rr.Header().Get("Content-Type"))

	var snapshot struct {
		System   map[string]string           `json:"system"`
		Counters map[string]services.Counter `json:"counters"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snapshot))
	assert.NotEmpty(t, snapshot.System["start_time"])
	counter := snapshot.Counters["http_requests_total|route:/health"]
	assert.Equal(t, int64(1), counter.Value)
	assert.Equal(t, "/health", counter.Tags["route"])
}

func TestMetricsHandler_ServeError(t *testing.T) {
	metrics := new(MockMetricsService)
	metrics.On("WritePrometheus", mock.Anything).Return(fmt.Errorf("invalid metric name"))
	handler := NewMetricsHandler(metrics, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/debug/metrics", nil)
	rr := httptest.NewRecorder()
	handler.Serve(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	var apiErr models.APIError
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &apiErr))
	assert.Equal(t, "SERIALIZATION_ERROR", apiErr.Code)
	metrics.AssertExpectations(t)
}
