package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/oggyb/exotel-gateway/internal/metrics"
	routes "github.com/oggyb/exotel-gateway/internal/router"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type home struct{}

func (home) Index(w http.ResponseWriter, _ *http.Request)  { w.WriteHeader(http.StatusOK) }
func (home) Health(w http.ResponseWriter, _ *http.Request) { panic("boom") }

func TestNewHandler_RecoversAndExposesMetrics(t *testing.T) {
	m := metrics.New()
	h := NewHandler(routes.AppDeps{Home: home{}, Metrics: m.Handler()}, zap.NewNop(), m)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
	assert.Contains(t, rec.Body.String(), `handler="/health"`)

	// Groups without a handler are not mounted.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/calls/connect", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
