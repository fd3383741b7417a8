package server_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/feral-file/ff-marketplace/internal/api/middleware"
	"github.com/feral-file/ff-marketplace/internal/api/server"
	"github.com/feral-file/ff-marketplace/internal/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: false}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func newTestServer() http.Handler {
	return server.New(server.Config{Host: "127.0.0.1", Port: 0}, func(router *gin.Engine) {
		router.GET("/ok", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
		router.GET("/panic", func(c *gin.Context) { panic("boom") })
	}).Handler()
}

func TestServer_RequestID(t *testing.T) {
	handler := newTestServer()

	t.Run("keeps a valid incoming id", func(t *testing.T) {
		id := uuid.NewString()
		req := httptest.NewRequest(http.MethodGet, "/ok", nil)
		req.Header.Set(middleware.HEADER_REQUEST_ID, id)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, id, w.Header().Get(middleware.HEADER_REQUEST_ID))
	})

	t.Run("replaces a malformed id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ok", nil)
		req.Header.Set(middleware.HEADER_REQUEST_ID, "not-a-uuid")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		got := w.Header().Get(middleware.HEADER_REQUEST_ID)
		assert.NotEqual(t, "not-a-uuid", got)
		_, err := uuid.Parse(got)
		assert.NoError(t, err)
	})
}

func TestServer_Recovery(t *testing.T) {
	w := httptest.NewRecorder()
	newTestServer().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal_error")
	assert.NotEmpty(t, w.Header().Get(middleware.HEADER_REQUEST_ID))
}
