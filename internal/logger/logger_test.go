package logger

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	t.Cleanup(restore)
	return logs
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNewInstallsGlobal(t *testing.T) {
	defer zap.ReplaceGlobals(zap.NewNop())
	log, err := New(Config{ServiceName: "svc", Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.Same(t, log, zap.L())
}

func TestFromContextAddsRequestID(t *testing.T) {
	logs := observe(t)

	FromContext(WithRequestID(context.Background(), "req-1")).Info("hello")
	FromContext(context.Background()).Info("plain")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "req-1", entries[0].ContextMap()["request_id"])
	assert.NotContains(t, entries[1].ContextMap(), "request_id")
}

func TestGinMiddlewareLogsRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logs := observe(t)

	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/api/things/:id", func(c *gin.Context) {
		assert.Equal(t, "abc", RequestIDFromContext(c.Request.Context()))
		c.Status(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/things/7", nil)
	req.Header.Set(RequestIDHeader, "abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc", w.Header().Get(RequestIDHeader))
	entries := logs.FilterMessage("http_request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/api/things/:id", fields["route"])
	assert.Equal(t, int64(http.StatusTeapot), fields["status"])
}

func TestGinMiddlewareGeneratesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	observe(t)

	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
}

func TestGormLoggerTrace(t *testing.T) {
	logs := observe(t)
	l := NewGormLogger(gormlogger.Warn, 10*time.Millisecond)
	sql := func() (string, int64) { return "SELECT 1", 1 }

	l.Trace(context.Background(), time.Now(), sql, gormlogger.ErrRecordNotFound)
	l.Trace(context.Background(), time.Now(), sql, errors.New("boom"))
	l.Trace(context.Background(), time.Now().Add(-time.Second), sql, nil)
	l.Trace(context.Background(), time.Now(), sql, nil)

	assert.Equal(t, 1, logs.FilterMessage("gorm.query").Len())
	assert.Equal(t, 1, logs.FilterMessage("gorm.slow_query").Len())

	silent := l.LogMode(gormlogger.Silent)
	silent.Trace(context.Background(), time.Now(), sql, errors.New("boom"))
	assert.Equal(t, 1, logs.FilterMessage("gorm.query").Len())
}
