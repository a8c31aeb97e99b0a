package http

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newBufferLogger() (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return slog.New(slog.NewTextHandler(buf, nil)), buf
}

func TestRequestLogger_LogsStatusAndPath(t *testing.T) {
	t.Parallel()

	logger, buf := newBufferLogger()
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	RequestLogger(handler, logger).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/generate-ticket", nil))

	out := buf.String()
	assert.Contains(t, out, "method=POST")
	assert.Contains(t, out, "path=/generate-ticket")
	assert.Contains(t, out, "status=201")
}

func TestRequestLogger_DefaultsTo200(t *testing.T) {
	t.Parallel()

	logger, buf := newBufferLogger()
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	RequestLogger(handler, logger).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Contains(t, buf.String(), "status=200")
}
