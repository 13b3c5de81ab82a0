package service

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youthmultiply/welcoming-college/internal/models"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/admin/participants", 200, 20*time.Millisecond)
	m.ObserveHTTPRequest(http.MethodGet, "/admin/participants", 200, 40*time.Millisecond)
	m.ObserveBackendRequest("list_participants", 200, time.Millisecond)
	m.ObserveBackendRequest("list_participants", 503, time.Millisecond)
	m.RecordRegistration("success")
	m.RecordRegistration("failure")
	m.RecordExport(models.ExportFormatPDF, ExportModeSync, 12, nil)
	m.RecordExport(models.ExportFormatPDF, ExportModeSync, 0, errors.New("boom"))

	snap := m.Snapshot()
	assert.Equal(t, uint64(2), snap.RequestsTotal)
	assert.InDelta(t, 30, snap.AverageRequestDurationMs, 0.001)
	assert.Equal(t, uint64(2), snap.BackendRequests)
	assert.Equal(t, uint64(1), snap.BackendFailures)
	assert.Equal(t, uint64(1), snap.Registrations)
	assert.Equal(t, uint64(1), snap.Exports)
}

func TestMetricsHandlerExposesCollectors(t *testing.T) {
	m := NewMetricsService()
	m.RecordExport(models.ExportFormatXLSX, ExportModeAsync, 5, nil)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `participant_exports_total{format="xlsx",mode="async",outcome="success"} 1`)
}

func TestNilMetricsServiceIsSafe(t *testing.T) {
	var m *MetricsService
	assert.NotPanics(t, func() {
		m.ObserveHTTPRequest("GET", "/", 200, time.Millisecond)
		m.RecordExport(models.ExportFormatCSV, ExportModeCLI, 1, nil)
		m.StreamClientConnected(1)
	})
	assert.Equal(t, models.SystemMetrics{}, m.Snapshot())
}

func TestMetricsCacheWriteHistogram(t *testing.T) {
	m := NewMetricsService()
	m.ObserveCacheWrite(3 * time.Millisecond)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cache_write_seconds_count 1")
}
