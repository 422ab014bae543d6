package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBearer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := newTestSigner()

	faculty, err := s.Issue("alice", RoleFaculty)
	require.NoError(t, err)
	admin, err := s.Issue("root", RoleAdmin)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/any", Bearer(s), func(c *gin.Context) {
		claims, ok := ClaimsFrom(c)
		require.True(t, ok)
		c.String(http.StatusOK, claims.Subject)
	})
	r.GET("/admin", Bearer(s, RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{name: "no header", path: "/any", want: http.StatusUnauthorized},
		{name: "not bearer", path: "/any", header: "Basic abc", want: http.StatusUnauthorized},
		{name: "bad token", path: "/any", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "refresh token", path: "/any", header: "Bearer " + faculty.RefreshToken, want: http.StatusUnauthorized},
		{name: "valid", path: "/any", header: "Bearer " + faculty.AccessToken, want: http.StatusOK},
		{name: "wrong role", path: "/admin", header: "Bearer " + faculty.AccessToken, want: http.StatusForbidden},
		{name: "right role", path: "/admin", header: "bearer " + admin.AccessToken, want: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
