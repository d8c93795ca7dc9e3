package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/RainierLopez/pos-3l-variety-store-90/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func init() { gin.SetMode(gin.TestMode) }

func signToken(t *testing.T, secret, role, typ string, ttl time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id":  uuid.NewString(),
		"username": "tester",
		"role":     role,
		"typ":      typ,
		"exp":      time.Now().Add(ttl).Unix(),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func protectedRouter(roles ...string) *gin.Engine {
	r := gin.New()
	g := r.Group("/", JWTAuth(testSecret))
	if len(roles) > 0 {
		g.Use(RequireRole(roles...))
	}
	g.GET("/me", func(c *gin.Context) {
		id := GetIdentity(c)
		c.JSON(http.StatusOK, gin.H{"role": id.Role, "username": id.Username})
	})
	return r
}

func get(r *gin.Engine, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuth(t *testing.T) {
	r := protectedRouter()

	cases := []struct {
		name  string
		token string
		want  int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"garbage", "not.a.jwt", http.StatusUnauthorized},
		{"wrong secret", signToken(t, "other", model.RoleCashier, "access", time.Hour), http.StatusUnauthorized},
		{"expired", signToken(t, testSecret, model.RoleCashier, "access", -time.Minute), http.StatusUnauthorized},
		{"refresh token", signToken(t, testSecret, model.RoleCashier, "refresh", time.Hour), http.StatusUnauthorized},
		{"valid access token", signToken(t, testSecret, model.RoleCashier, "access", time.Hour), http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := get(r, tc.token)
			assert.Equal(t, tc.want, w.Code)
			if tc.want == http.StatusUnauthorized {
				assert.Contains(t, w.Body.String(), `"code":"unauthenticated"`)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	r := protectedRouter(model.RoleAdmin)

	w := get(r, signToken(t, testSecret, model.RoleCashier, "access", time.Hour))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "permission_denied")

	w = get(r, signToken(t, testSecret, model.RoleAdmin, "access", time.Hour))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"admin"`)
}
