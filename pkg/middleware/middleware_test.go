package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"foodinsight/internal/models/db_models"
	"foodinsight/pkg/session"
)

func newRouter(t *testing.T, extra ...gin.HandlerFunc) (*gin.Engine, *session.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := session.NewMemoryStore()
	mgr := session.NewManager(store, []byte("middleware-test"), time.Hour, false, zap.NewNop())
	r := gin.New()
	r.Use(TraceIDMiddleware(), mgr.Middleware(), Recovery(zap.NewNop()))
	r.Use(extra...)
	return r, store
}

func TestTraceIDReusesValidHeader(t *testing.T) {
	r, _ := newRouter(t)
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("trace_id")) })

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TraceIDHeader, id)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, id, w.Body.String())
	assert.Equal(t, id, w.Header().Get(TraceIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TraceIDHeader, "<script>")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	_, err := uuid.Parse(w.Body.String())
	assert.NoError(t, err)
}

func TestRequireLoginRedirects(t *testing.T) {
	r, _ := newRouter(t)
	r.GET("/dashboard", RequireLogin(), func(c *gin.Context) { c.String(http.StatusOK, "secret") })
	r.GET("/as-user", func(c *gin.Context) {
		session.Default(c).LogIn(&db_models.Account{BaseModel: db_models.BaseModel{ID: uuid.New()}, Name: "Jo"})
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/as-user", nil))
	cookie := w.Result().Cookies()[0]

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "secret", w.Body.String())
}

func TestRequireAdminRejectsRegularUser(t *testing.T) {
	r, _ := newRouter(t)
	r.GET("/admin", RequireAdmin(), func(c *gin.Context) { c.String(http.StatusOK, "admin") })
	r.GET("/flashes", func(c *gin.Context) { c.JSON(http.StatusOK, session.Default(c).Flashes()) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
	require.Equal(t, http.StatusFound, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/flashes", nil)
	req.AddCookie(w.Result().Cookies()[0])
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.JSONEq(t, `["Access denied. Admin privileges required."]`, w.Body.String())
}

func TestRecoveryFlashesAndRedirects(t *testing.T) {
	r, _ := newRouter(t)
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })
	r.GET("/flashes", func(c *gin.Context) { c.JSON(http.StatusOK, session.Default(c).Flashes()) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	req := httptest.NewRequest(http.MethodGet, "/flashes", nil)
	req.AddCookie(w.Result().Cookies()[0])
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.JSONEq(t, `["An internal server error occurred. Please try again later."]`, w.Body.String())
}

func TestRateLimiterPerClient(t *testing.T) {
	limiter := NewRateLimiter(0.001, 2, nil, zap.NewNop())
	r, _ := newRouter(t)
	r.POST("/login", limiter.Handler(), func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	post := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = ip + ":5555"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, post("10.0.0.1"))
	assert.Equal(t, http.StatusOK, post("10.0.0.1"))
	assert.Equal(t, http.StatusFound, post("10.0.0.1"))
	assert.Equal(t, http.StatusOK, post("10.0.0.2"))
}

func TestRateLimiterSweepsIdleClients(t *testing.T) {
	limiter := NewRateLimiter(1, 1, nil, zap.NewNop())
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return clock }

	assert.True(t, limiter.allow("a"))
	clock = clock.Add(limiterIdle + time.Minute)
	assert.True(t, limiter.allow("b"))
	assert.Len(t, limiter.limiters, 1)
}
