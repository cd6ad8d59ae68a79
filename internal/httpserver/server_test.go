package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/db"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/middleware/csrf"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/tokens"
)

var testSecret = []byte("handler-test-secret")

type testEnv struct {
	T      *testing.T
	E      *echo.Echo
	Repo   *repo.GormRepo
	Events *events.Recorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gdb, err := db.Open(context.Background(), db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() { _ = db.Close(gdb) })

	r := &repo.GormRepo{DB: gdb}
	rec := &events.Recorder{}
	catalog := &service.CatalogService{Repo: r, Events: rec}

	e := echo.New()
	e.Validator = NewValidator()
	Register(e, &Deps{
		ProductHandler:  &ProductHTTP{Svc: catalog},
		CatalogHandler:  &CatalogHTTP{Svc: catalog},
		CartHandler:     &CartHTTP{Svc: &service.CartService{Repo: r, Events: rec}},
		CheckoutHandler: &CheckoutHTTP{Svc: &service.CheckoutService{Repo: r, Catalog: catalog, Events: rec}},
		OrderHandler:    &OrderHTTP{Svc: &service.OrderService{Repo: r, Catalog: catalog, Events: rec}},
		UserHandler:     &UserHTTP{Svc: &service.UserService{Repo: r}},
		DB:              r,
		JWTSecret:       testSecret,
		CSRF:            csrf.DefaultConfig(),
	})

	return &testEnv{T: t, E: e, Repo: r, Events: rec}
}

// login creates a user with role and returns an access cookie for it.
func (env *testEnv) login(role string) *http.Cookie {
	env.T.Helper()
	u := &models.User{Email: uuid.NewString() + "@example.com", Name: "Tester", PasswordHash: "x", Role: role}
	require.NoError(env.T, env.Repo.CreateUser(context.Background(), u))
	tok, err := tokens.Sign(u.ID.String(), role, time.Hour, testSecret)
	require.NoError(env.T, err)
	return &http.Cookie{Name: auth.AccessCookie, Value: tok, Path: "/"}
}

func (env *testEnv) seedProduct(title, price string, stock int) *models.Product {
	env.T.Helper()
	p := &models.Product{
		Title:       title,
		Slug:        service.Slugify(title),
		Description: title,
		Price:       decimal.RequireFromString(price),
		Stock:       stock,
		IsActive:    true,
	}
	require.NoError(env.T, env.Repo.CreateProduct(context.Background(), p))
	return p
}

func (env *testEnv) doJSONRequest(method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	env.T.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) csrfToken() *http.Cookie {
	env.T.Helper()
	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/csrf", nil))
	require.Equal(env.T, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(env.T, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(env.T, body["csrf_token"])
	return &http.Cookie{Name: "XSRF-TOKEN", Value: body["csrf_token"]}
}

// doForm posts a same-origin form carrying a valid CSRF token.
func (env *testEnv) doForm(path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	env.T.Helper()
	token := env.csrfToken()
	if form == nil {
		form = url.Values{}
	}
	form.Set("csrf_token", token.Value)

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	req.Header.Set("Origin", "http://example.com")
	req.AddCookie(token)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}
