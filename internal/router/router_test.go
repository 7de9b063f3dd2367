package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	handlers "github.com/oksasatya/trainboard/internal/interface/http"
	"github.com/oksasatya/trainboard/internal/interface/middleware"
	"github.com/oksasatya/trainboard/internal/router/modules"
	"github.com/oksasatya/trainboard/pkg/helpers"
	"github.com/oksasatya/trainboard/pkg/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
	validation.Init()
}

func newTestRegistry(debug bool) *Registry {
	logger := helpers.NewDiscardLogger()
	jwt := helpers.NewJWTManager("a", "r", time.Minute, time.Hour)

	r := NewRegistry(gin.New(), "")
	r.Use(middleware.RequestIDMiddleware())
	// nil services: every request below is rejected before reaching them
	r.Add(modules.NewAuthModule(handlers.NewAuthHandler(nil, logger), nil, 10, nil))
	r.Add(modules.NewTrainModule(handlers.NewTrainHandler(nil, logger), jwt, nil))
	if debug {
		r.Add(modules.NewDebugModule(nil))
	}
	r.RegisterAll()
	return r
}

func TestRoutesMountedAtRoot(t *testing.T) {
	r := newTestRegistry(false)

	tests := []struct {
		method, path, body string
		status             int
	}{
		{http.MethodPost, "/auth/signup", `{}`, http.StatusBadRequest},
		{http.MethodPost, "/auth/signin", `{"email":"x"}`, http.StatusBadRequest},
		{http.MethodPost, "/auth/refresh", ``, http.StatusUnauthorized},
		{http.MethodGet, "/train", ``, http.StatusUnauthorized},
		{http.MethodGet, "/train/search?query=a", ``, http.StatusUnauthorized},
		{http.MethodGet, "/train/user/1", ``, http.StatusUnauthorized},
		{http.MethodDelete, "/train/1", ``, http.StatusUnauthorized},
		{http.MethodGet, "/api/train", ``, http.StatusNotFound},
		{http.MethodGet, "/debug/vars", ``, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			w := httptest.NewRecorder()
			r.Engine.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestDebugModule(t *testing.T) {
	r := newTestRegistry(true)
	w := httptest.NewRecorder()
	r.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/debug/vars", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "memstats")
}

func TestRegistryNames(t *testing.T) {
	assert.Equal(t, []string{"auth", "train"}, newTestRegistry(false).Names())
	assert.Equal(t, []string{"auth", "train", "debug"}, newTestRegistry(true).Names())
}

func TestRegistryRejectsDuplicateModule(t *testing.T) {
	r := NewRegistry(gin.New(), "")
	r.Add(modules.NewDebugModule(nil))
	assert.Panics(t, func() { r.Add(modules.NewDebugModule(nil)) })
}
