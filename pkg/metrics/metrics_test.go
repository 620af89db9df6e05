package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zots0127/onefile/pkg/attachment"
)

func TestObserver_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	observer, err := NewObserver("test", reg)
	require.NoError(t, err)

	writeErr := &attachment.Error{Op: "store", Kind: attachment.ErrStorageWrite, Disk: "s3", Err: errors.New("timeout")}

	observer.RecordStore("local", 10*time.Millisecond, 128, nil)
	observer.RecordStore("s3", 10*time.Millisecond, 0, writeErr)
	observer.RecordRead("local", time.Millisecond, 64, nil)
	observer.RecordDelete("local", time.Millisecond, nil)

	assert.Equal(t, float64(128), testutil.ToFloat64(observer.transferredBytes.WithLabelValues("store", "local")))
	assert.Equal(t, float64(64), testutil.ToFloat64(observer.transferredBytes.WithLabelValues("read", "local")))
	assert.Equal(t, float64(1), testutil.ToFloat64(observer.operationErrors.WithLabelValues("store", "s3", "storage_write")))
	assert.Equal(t, 4, testutil.CollectAndCount(observer.operationDuration))
}

func TestObserver_NilIsNoop(t *testing.T) {
	var observer *Observer
	assert.NotPanics(t, func() {
		observer.RecordStore("local", time.Millisecond, 1, nil)
		observer.RecordDelete("local", time.Millisecond, errors.New("boom"))
	})
}

func TestNewObserver_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewObserver("test", reg)
	require.NoError(t, err)
	second, err := NewObserver("test", reg)
	require.NoError(t, err)

	first.RecordDelete("local", time.Millisecond, &attachment.Error{Kind: attachment.ErrStorageDelete})
	assert.Equal(t, float64(1), testutil.ToFloat64(second.operationErrors.WithLabelValues("delete", "local", "storage_delete")))
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err      error
		expected string
	}{
		{err: &attachment.Error{Kind: attachment.ErrStorageRead}, expected: "storage_read"},
		{err: &attachment.Error{Kind: attachment.ErrPersistence}, expected: "persistence"},
		{err: attachment.ErrInvalidFileName, expected: "invalid_file_name"},
		{err: fmt.Errorf("%w: id \"\"", attachment.ErrInvalidRecord), expected: "invalid_record"},
		{err: errors.New("other"), expected: "other"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, errorKind(tt.err))
		})
	}
}

func TestHTTPMetrics_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	httpMetrics, err := NewHTTPMetrics("test", reg)
	require.NoError(t, err)

	router := gin.New()
	router.Use(httpMetrics.Middleware())
	router.GET("/api/documents/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", gin.WrapH(Handler(reg)))

	for _, path := range []string{"/api/documents/1", "/api/documents/2", "/missing"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, float64(2), testutil.ToFloat64(httpMetrics.requests.WithLabelValues("GET", "/api/documents/:id", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(httpMetrics.requests.WithLabelValues("GET", "unmatched", "404")))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test_http_requests_total")
}
