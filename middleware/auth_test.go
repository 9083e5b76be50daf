package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"parcel-delivery-api/models"
	"parcel-delivery-api/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers map[string]*models.User

func (f fakeUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	if id == "boom" {
		return nil, errors.New("db down")
	}
	u, ok := f[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return u, nil
}

func init() { gin.SetMode(gin.TestMode) }

func newAuthRouter(ts *TokenService, users UserLookup) *gin.Engine {
	a := NewAuth(ts, users)
	r := gin.New()
	whoami := func(c *gin.Context) {
		id, _ := IdentityFrom(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"userId": id.UserID, "email": id.Email, "role": id.Role})
	}
	r.GET("/me", a.RequireAuth(), whoami)
	r.GET("/admin", a.RequireAuth(), a.RequireAdmin(), whoami)
	r.GET("/staff", a.RequireAuth(), a.RequireRole(models.RoleAdmin, models.RoleRider), whoami)
	r.GET("/no-auth-admin", a.RequireAdmin(), whoami)
	return r
}

func do(r http.Handler, path, token string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: AccessCookie, Value: token})
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	body := map[string]any{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestRequireAuth(t *testing.T) {
	ts := newTestTokens()
	r := newAuthRouter(ts, fakeUsers{})

	w, body := do(r, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Unauthorized: No token", body["message"])

	w, body = do(r, "/me", "garbage")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Forbidden: Invalid token", body["message"])

	old := newTestTokens().WithClock(func() time.Time { return time.Now().Add(-time.Hour) })
	expired, err := old.Issue(testUser)
	require.NoError(t, err)
	w, body = do(r, "/me", expired.Access)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Token Expired", body["message"])

	pair, err := ts.Issue(testUser)
	require.NoError(t, err)
	w, body = do(r, "/me", pair.Access)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u-1", body["userId"])
	assert.Equal(t, "a@x.io", body["email"])

	// a refresh token is not an access token
	w, _ = do(r, "/me", pair.Refresh)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireAdmin(t *testing.T) {
	ts := newTestTokens()
	users := fakeUsers{
		"u-1": {ID: "u-1", Role: models.RoleAdmin},
		"u-2": {ID: "u-2", Role: models.RoleUser},
		"u-3": {ID: "u-3", Role: models.RoleRider},
	}
	r := newAuthRouter(ts, users)

	issue := func(id string, role models.UserRole) string {
		p, err := ts.Issue(&models.User{ID: id, Role: role})
		require.NoError(t, err)
		return p.Access
	}

	w, _ := do(r, "/admin", issue("u-1", models.RoleAdmin))
	assert.Equal(t, http.StatusOK, w.Code)

	// the stored role wins over the token claim
	w, body := do(r, "/admin", issue("u-2", models.RoleAdmin))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Forbidden: Admins only", body["message"])

	w, _ = do(r, "/admin", issue("ghost", models.RoleAdmin))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body = do(r, "/admin", issue("boom", models.RoleAdmin))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Server error", body["message"])
	assert.Equal(t, "db down", body["error"])

	w, body = do(r, "/no-auth-admin", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Unauthorized", body["message"])

	w, _ = do(r, "/staff", issue("u-3", models.RoleRider))
	assert.Equal(t, http.StatusOK, w.Code)
	w, body = do(r, "/staff", issue("u-2", models.RoleUser))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Access denied. Required role(s): admin, rider", body["message"])
}

type stubLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (s *stubLimiter) Allow(_ context.Context, key string) (bool, error) {
	s.keys = append(s.keys, key)
	return s.allow, s.err
}

func TestRateLimit(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ok := func(c *gin.Context) { c.Status(http.StatusNoContent) }

	tests := []struct {
		name    string
		limiter Limiter
		want    int
	}{
		{"disabled", nil, http.StatusNoContent},
		{"allowed", &stubLimiter{allow: true}, http.StatusNoContent},
		{"denied", &stubLimiter{allow: false}, http.StatusTooManyRequests},
		{"limiter down", &stubLimiter{err: errors.New("redis down")}, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(RequestLogger(log))
			r.POST("/x", RateLimit(tt.limiter, "upsert", log), ok)
			req := httptest.NewRequest(http.MethodPost, "/x", nil)
			req.RemoteAddr = "10.0.0.1:1234"
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			if s, isStub := tt.limiter.(*stubLimiter); isStub {
				assert.Equal(t, []string{"upsert:10.0.0.1"}, s.keys)
			}
		})
	}
}
