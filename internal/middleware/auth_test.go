package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"guidesphere_backend/internal/config"
	"guidesphere_backend/internal/model"
	"guidesphere_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRouter(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AuthMiddleware(cfg))
	r.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("user_id")})
	})
	r.GET("/admin", RoleMiddleware(model.Admin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func tokenFor(t *testing.T, id string, role model.UserRole, secret string) string {
	t.Helper()
	user := &model.User{Role: role}
	user.ID = id
	token, err := util.GenerateJWT(user, secret, time.Hour)
	require.NoError(t, err)
	return token
}

func TestAuthMiddleware(t *testing.T) {
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "s3cret"}}
	r := testRouter(cfg)

	tests := []struct {
		name   string
		target string
		header string
		status int
	}{
		{"missing", "/me", "", http.StatusUnauthorized},
		{"garbage", "/me", "Bearer nope", http.StatusUnauthorized},
		{"wrong secret", "/me", "Bearer " + tokenFor(t, "u1", model.Student, "other"), http.StatusUnauthorized},
		{"header", "/me", "Bearer " + tokenFor(t, "u1", model.Student, "s3cret"), http.StatusOK},
		{"query", "/me?token=" + tokenFor(t, "u1", model.Student, "s3cret"), "", http.StatusOK},
		{"student on admin", "/admin", "Bearer " + tokenFor(t, "u1", model.Student, "s3cret"), http.StatusForbidden},
		{"admin", "/admin", "Bearer " + tokenFor(t, "u2", model.Admin, "s3cret"), http.StatusNoContent},
		{"superadmin", "/admin", "Bearer " + tokenFor(t, "u3", model.SuperAdmin, "s3cret"), http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestAuthMiddlewareSetsUser(t *testing.T) {
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "s3cret"}}
	r := testRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, "user-42", model.Professor, "s3cret"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":"user-42"}`, w.Body.String())
}

func TestRoleMiddlewareWithoutUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", RoleMiddleware(model.Admin), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
