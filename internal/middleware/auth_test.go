package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"reviewledger/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/whoami", RequireToken(secret), func(c *gin.Context) {
		c.String(http.StatusOK, service.ActorFromContext(c.Request.Context()))
	})
	return r
}

func TestIssueAndParseToken(t *testing.T) {
	tok, err := IssueToken(testSecret, "owner", time.Hour)
	require.NoError(t, err)

	sub, err := ParseToken(testSecret, tok)
	require.NoError(t, err)
	assert.Equal(t, "owner", sub)

	_, err = ParseToken("other-secret", tok)
	assert.Error(t, err)
}

func TestParseTokenExpired(t *testing.T) {
	tok, err := IssueToken(testSecret, "owner", -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(testSecret, tok)
	assert.Error(t, err)
}

func TestRequireToken(t *testing.T) {
	valid, err := IssueToken(testSecret, "owner", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		secret string
		header string
		cookie string
		code   int
		body   string
	}{
		{name: "disabled guard", secret: "", code: http.StatusOK, body: service.SystemActor},
		{name: "missing header", secret: testSecret, code: http.StatusUnauthorized},
		{name: "wrong scheme", secret: testSecret, header: "Token " + valid, code: http.StatusUnauthorized},
		{name: "bad token", secret: testSecret, header: "Bearer nope", code: http.StatusUnauthorized},
		{name: "bearer header", secret: testSecret, header: "Bearer " + valid, code: http.StatusOK, body: "owner"},
		{name: "cookie", secret: testSecret, cookie: valid, code: http.StatusOK, body: "owner"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "access_token", Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			newRouter(tt.secret).ServeHTTP(w, req)

			assert.Equal(t, tt.code, w.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, w.Body.String())
			}
		})
	}
}

func TestRequireTokenGuardsStaticFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "receipt.txt"), []byte("paid"), 0o644))

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Group("", RequireToken(testSecret)).Static("/uploads", dir)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/uploads/receipt.txt", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	tok, err := IssueToken(testSecret, "owner", time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/uploads/receipt.txt", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: tok})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "paid", w.Body.String())
}
