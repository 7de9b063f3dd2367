package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/trainboard/pkg/helpers"
)

func init() { gin.SetMode(gin.TestMode) }

func newJWT() *helpers.JWTManager {
	return helpers.NewJWTManager("access", "refresh", time.Minute, time.Hour)
}

func authEngine(jwt *helpers.JWTManager) *gin.Engine {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/me", Auth(jwt), func(c *gin.Context) {
		id, ok := CurrentIdentity(c)
		fromCtx, ok2 := IdentityFromContext(c.Request.Context())
		if !ok || !ok2 || id != fromCtx {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, id)
	})
	return r
}

func TestAuth(t *testing.T) {
	jwt := newJWT()
	r := authEngine(jwt)
	want := helpers.Identity{ID: 7, Email: "a@b.com", Name: "A"}
	access, _, err := jwt.GenerateAccessToken(want)
	require.NoError(t, err)
	refresh, err := jwt.IssuePair(want)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{name: "valid", header: "Bearer " + access, status: http.StatusOK},
		{name: "lowercase scheme", header: "bearer " + access, status: http.StatusOK},
		{name: "missing", header: "", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + access, status: http.StatusUnauthorized},
		{name: "garbage", header: "Bearer nope", status: http.StatusUnauthorized},
		{name: "refresh token", header: "Bearer " + refresh.RefreshToken, status: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			require.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				var got helpers.Identity
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
				assert.Equal(t, want, got)
				return
			}
			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, false, body["success"])
			assert.Equal(t, w.Header().Get(RequestIDHeader), body["request_id"])
		})
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := uuid.Parse(w.Body.String())
	require.NoError(t, err)
	assert.Equal(t, w.Body.String(), w.Header().Get(RequestIDHeader))

	keep := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, keep)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, keep, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEqual(t, "not-a-uuid", w.Body.String())
}

func TestRealIPAndAllowPrivate(t *testing.T) {
	r := gin.New()
	r.Use(RealIP())
	allow := AllowPrivateIP()
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ip": c.GetString("real_ip"), "private": allow(c)})
	})

	tests := []struct {
		name    string
		headers map[string]string
		ip      string
		private bool
	}{
		{name: "cloudflare", headers: map[string]string{"CF-Connecting-IP": "203.0.113.9", "X-Forwarded-For": "10.0.0.1"}, ip: "203.0.113.9"},
		{name: "forwarded", headers: map[string]string{"X-Forwarded-For": " 10.1.2.3 , 203.0.113.1"}, ip: "10.1.2.3", private: true},
		{name: "bad cf falls through", headers: map[string]string{"CF-Connecting-IP": "nope", "X-Forwarded-For": "198.51.100.4"}, ip: "198.51.100.4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			var got struct {
				IP      string `json:"ip"`
				Private bool   `json:"private"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, tt.ip, got.IP)
			assert.Equal(t, tt.private, got.Private)
		})
	}
}

func TestRateLimit_FailsOpen(t *testing.T) {
	unreachable := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = unreachable.Close() })

	for name, rdb := range map[string]*redis.Client{"nil client": nil, "unreachable": unreachable} {
		t.Run(name, func(t *testing.T) {
			r := gin.New()
			r.Use(RateLimit(rdb, 1, time.Minute, KeyByIP(), nil))
			r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

			for i := 0; i < 3; i++ {
				w := httptest.NewRecorder()
				r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
				assert.Equal(t, http.StatusNoContent, w.Code)
			}
		})
	}
}

func TestKeyFuncs(t *testing.T) {
	w := httptest.NewRecorder()
	c, r := gin.CreateTestContext(w)
	r.GET("/train/:id", func(*gin.Context) {})
	c.Request = httptest.NewRequest(http.MethodGet, "/train/3", nil)
	c.Set("real_ip", "192.0.2.1")

	assert.Equal(t, "rl:ip:192.0.2.1", KeyByIP()(c))
	assert.Equal(t, "rl:path:/train/3:ip:192.0.2.1", KeyByIPAndPath()(c))
	assert.Equal(t, "rl:user:anon:ip:192.0.2.1", KeyByUserID()(c))

	c.Set(identityKey, helpers.Identity{ID: 12})
	assert.Equal(t, "rl:user:12", KeyByUserID()(c))
}
