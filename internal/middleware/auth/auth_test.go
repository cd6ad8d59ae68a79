package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/tokens"
)

var secret = []byte("test-secret")

func sign(t *testing.T, role string, ttl time.Duration) string {
	t.Helper()
	tok, err := tokens.Sign(uuid.NewString(), role, ttl, secret)
	require.NoError(t, err)
	return tok
}

func newContext(req *http.Request) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func ok(c echo.Context) error { return c.NoContent(http.StatusOK) }

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	return he.Code
}

func TestRequireAuth(t *testing.T) {
	m := NewSimpleAuth(secret)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c, _ := newContext(req)
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, m.RequireAuth(ok)(c)))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookie, Value: sign(t, models.RoleUser, time.Minute)})
	c, rec := newContext(req)
	require.NoError(t, m.RequireAuth(ok)(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, c.Get(KeyUserID))
	assert.Equal(t, models.RoleUser, c.Get(KeyRole))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+sign(t, models.RoleUser, time.Minute))
	c, _ = newContext(req)
	require.NoError(t, m.RequireAuth(ok)(c))
}

func TestRequireAuth_ExpiredClearsCookie(t *testing.T) {
	m := NewSimpleAuth(secret)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookie, Value: sign(t, models.RoleUser, -time.Minute)})
	c, rec := newContext(req)

	assert.Equal(t, http.StatusUnauthorized, statusOf(t, m.RequireAuth(ok)(c)))
	assert.Contains(t, rec.Header().Get("Set-Cookie"), AccessCookie+"=;")
}

func TestRequireAdmin(t *testing.T) {
	m := NewSimpleAuth(secret)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookie, Value: sign(t, models.RoleUser, time.Minute)})
	c, _ := newContext(req)
	assert.Equal(t, http.StatusForbidden, statusOf(t, m.RequireAdmin(ok)(c)))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookie, Value: sign(t, models.RoleAdmin, time.Minute)})
	c, rec := newContext(req)
	require.NoError(t, m.RequireAdmin(ok)(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuthRedirect(t *testing.T) {
	m := NewSimpleAuth(secret)
	req := httptest.NewRequest(http.MethodPost, "/checkout", nil)
	c, rec := newContext(req)

	require.NoError(t, m.RequireAuthRedirect("/auth/login?callbackUrl=/cart")(ok)(c))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth/login?callbackUrl=/cart", rec.Header().Get(echo.HeaderLocation))
}

func TestOptionalAuth(t *testing.T) {
	m := NewSimpleAuth(secret)

	c, rec := newContext(httptest.NewRequest(http.MethodPost, "/", nil))
	require.NoError(t, m.OptionalAuth(ok)(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, c.Get(KeyUserID))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer garbage")
	c, rec = newContext(req)
	require.NoError(t, m.OptionalAuth(ok)(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, c.Get(KeyUserID))
}
