package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndValidate(t *testing.T) {
	iss := NewIssuer("secret", time.Hour)
	tok, err := iss.Issue("admin", "管理员")
	require.NoError(t, err)

	claims, err := iss.Validate(tok)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, "管理员", claims.Name)
	assert.Equal(t, "gameops", claims.Issuer)
}

func TestValidateRejectsExpired(t *testing.T) {
	iss := NewIssuer("secret", time.Minute)
	tok, err := iss.Issue("admin", "")
	require.NoError(t, err)

	iss.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = iss.Validate(tok)
	assert.Error(t, err)
}

func TestValidateRejectsOtherSecret(t *testing.T) {
	tok, err := NewIssuer("one", time.Hour).Issue("admin", "")
	require.NoError(t, err)

	_, err = NewIssuer("two", time.Hour).Validate(tok)
	assert.Error(t, err)
	_, err = NewIssuer("one", time.Hour).Validate(tok + "x")
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	iss := NewIssuer("secret", time.Hour)
	var seen string
	h := iss.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := FromContext(r.Context())
		assert.True(t, ok)
		seen = claims.Username
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "未登录")

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "登录已过期")

	tok, err := iss.Issue("admin", "")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin", seen)
}
