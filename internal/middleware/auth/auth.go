package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/tokens"
)

const (
	AccessCookie = "accessToken"

	KeyUserID = "user_id"
	KeyRole   = "role"
)

var errNoToken = errors.New("missing access token")

type SimpleAuth struct {
	JWTSecret []byte
}

func NewSimpleAuth(secret []byte) *SimpleAuth {
	return &SimpleAuth{JWTSecret: secret}
}

func (m *SimpleAuth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, err := m.authenticate(c)
		if err != nil {
			if errors.Is(err, errNoToken) {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}
		setUserContext(c, claims)
		return next(c)
	}
}

func (m *SimpleAuth) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.RequireAuth(func(c echo.Context) error {
		if role, _ := c.Get(KeyRole).(string); role != models.RoleAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "not enough rights")
		}
		return next(c)
	})
}

// RequireAuthRedirect sends anonymous browsers to location with 303 instead
// of answering 401.
func (m *SimpleAuth) RequireAuthRedirect(location string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := m.authenticate(c)
			if err != nil {
				return c.Redirect(http.StatusSeeOther, location)
			}
			setUserContext(c, claims)
			return next(c)
		}
	}
}

// OptionalAuth attaches the caller when a valid token is present and lets
// anonymous requests through.
func (m *SimpleAuth) OptionalAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if claims, err := m.authenticate(c); err == nil {
			setUserContext(c, claims)
		}
		return next(c)
	}
}

func (m *SimpleAuth) authenticate(c echo.Context) (*tokens.AccessClaims, error) {
	raw := bearerToken(c.Request())
	fromCookie := false
	if raw == "" {
		if ck, err := c.Cookie(AccessCookie); err == nil && ck.Value != "" {
			raw = ck.Value
			fromCookie = true
		}
	}
	if raw == "" {
		return nil, errNoToken
	}

	claims, err := tokens.AccessClaimsFromToken(raw, m.JWTSecret)
	if err != nil || claims.Subject == "" {
		if fromCookie {
			c.SetCookie(DeleteCookie(AccessCookie, "/"))
		}
		if err == nil {
			err = errors.New("token has no subject")
		}
		return nil, err
	}
	return claims, nil
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get(echo.HeaderAuthorization)
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func setUserContext(c echo.Context, claims *tokens.AccessClaims) {
	c.Set(KeyUserID, claims.Subject)
	c.Set(KeyRole, claims.Role)
}

func DeleteCookie(name, path string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}
