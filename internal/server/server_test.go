package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/markjakearzadon/projectboard-gobackend/internal/handlers"
	"github.com/markjakearzadon/projectboard-gobackend/internal/logger"
	"github.com/markjakearzadon/projectboard-gobackend/internal/services"
	"github.com/markjakearzadon/projectboard-gobackend/internal/store"
)

func newTestHandler(l logger.Logger, opts Options) http.Handler {
	service := services.NewAnnouncementService(store.NewMemory())
	return NewRouter(handlers.NewAnnouncementHandler(service, l), l, opts)
}

func TestHealthCheck(t *testing.T) {
	h := newTestHandler(logger.NewNoopLogger(), Options{})

	for _, method := range []string{http.MethodGet, http.MethodHead} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(method, "/", nil))
		require.Equal(t, http.StatusOK, rec.Code, method)
	}
}

func TestRequestIDAndAccessLog(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := newTestHandler(&logger.ZapLogger{Logger: zap.New(core)}, Options{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/project/"+primitive.NewObjectID().Hex()+"/announcements", nil)
	req.Header.Set(RequestIDHeader, "abc")
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "abc", rec.Header().Get(RequestIDHeader))

	entries := logs.FilterMessage("http request").AllUntimed()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, "/api/project/{projectID}/announcements", fields["route"])
	require.Equal(t, int64(http.StatusOK), fields["status"])
	require.Equal(t, "abc", fields["request_id"])

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestHandler(logger.NewNoopLogger(), Options{MetricsEnabled: true})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/announcement/not-an-id", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `projectboard_http_requests_total{code="400",method="GET",route="/api/announcement/{announcementID}"}`)
}

func TestMetricsDisabled(t *testing.T) {
	h := newTestHandler(logger.NewNoopLogger(), Options{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	h := newTestHandler(logger.NewNoopLogger(), Options{CORSAllowedOrigins: []string{"https://board.example"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/announcement", nil)
	req.Header.Set("Origin", "https://board.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, "https://board.example", rec.Header().Get("Access-Control-Allow-Origin"))
}
