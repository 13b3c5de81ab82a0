package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	appErrors "github.com/youthmultiply/welcoming-college/pkg/errors"
)

type stubResolver struct {
	tokens map[string]string
	err    error
}

func (s stubResolver) Token(_ context.Context, sessionID string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	token, ok := s.tokens[sessionID]
	if !ok {
		return "", appErrors.ErrUnauthorized
	}
	return token, nil
}

func serveAdmin(resolver tokenResolver, req *http.Request) (*httptest.ResponseRecorder, string) {
	gin.SetMode(gin.TestMode)
	var seen string
	r := gin.New()
	r.GET("/admin/participants", AdminToken(resolver), func(c *gin.Context) {
		seen = AdminTokenFrom(c)
		c.Status(http.StatusOK)
	})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec, seen
}

func TestAdminTokenPrefersHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/admin/participants", nil)
	req.Header.Set("Authorization", "Bearer header-token")
	req.AddCookie(&http.Cookie{Name: AdminSessionCookie, Value: "sid"})

	rec, token := serveAdmin(stubResolver{tokens: map[string]string{"sid": "cookie-token"}}, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "header-token", token)
}

func TestAdminTokenFromSessionCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/admin/participants", nil)
	req.AddCookie(&http.Cookie{Name: AdminSessionCookie, Value: "sid"})

	rec, token := serveAdmin(stubResolver{tokens: map[string]string{"sid": "cookie-token"}}, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cookie-token", token)
}

func TestAdminTokenMissingIsAnonymous(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/admin/participants", nil)
	req.AddCookie(&http.Cookie{Name: AdminSessionCookie, Value: "expired"})

	rec, token := serveAdmin(stubResolver{tokens: map[string]string{}}, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, token)
}

func TestAdminTokenMalformedHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/admin/participants", nil)
	req.Header.Set("Authorization", "Basic abc")

	rec, _ := serveAdmin(nil, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminTokenStoreFailure(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/admin/participants", nil)
	req.AddCookie(&http.Cookie{Name: AdminSessionCookie, Value: "sid"})

	rec, _ := serveAdmin(stubResolver{err: errors.New("redis down")}, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
