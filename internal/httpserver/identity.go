package httpserver

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/service"
)

// identityFrom reads the caller the auth middleware attached. Requests
// without one yield the anonymous identity.
func identityFrom(c echo.Context) service.Identity {
	s, ok := c.Get(auth.KeyUserID).(string)
	if !ok || s == "" {
		return service.Identity{}
	}
	userID, err := uuid.Parse(s)
	if err != nil {
		return service.Identity{}
	}
	role, _ := c.Get(auth.KeyRole).(string)
	return service.Identity{UserID: userID, Role: role}
}

func parseID(c echo.Context, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Param(name))
}
