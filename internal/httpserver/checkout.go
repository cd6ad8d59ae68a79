package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/service"
)

const (
	LoginRedirect       = "/auth/login?callbackUrl=/cart"
	checkoutDone        = "/orders?created=1"
	checkoutEmpty       = "/cart?error=empty"
	checkoutStock       = "/cart?error=stock"
	checkoutServerError = "/cart?error=server"
)

type CheckoutHTTP struct {
	Svc *service.CheckoutService
}

// Checkout places the order and redirects the browser to the page that
// shows the outcome.
func (h *CheckoutHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout")

	order, err := h.Svc.Checkout(ctx, identityFrom(c))
	if err != nil {
		var se *service.StockError
		switch {
		case errors.Is(err, service.ErrUnauthenticated):
			return c.Redirect(http.StatusSeeOther, LoginRedirect)
		case errors.Is(err, service.ErrEmptyCart):
			l.Warn("checkout_error", "status", 303, "reason", "empty cart")
			return c.Redirect(http.StatusSeeOther, checkoutEmpty)
		case errors.As(err, &se):
			l.Warn("checkout_error", "status", 303, "reason", "insufficient stock",
				"product_id", se.ProductID, "requested", se.Requested, "available", se.Available)
			return c.Redirect(http.StatusSeeOther, checkoutStock)
		default:
			l.Error("checkout_error", "status", 303, "reason", "internal error", "error", err)
			return c.Redirect(http.StatusSeeOther, checkoutServerError)
		}
	}

	l.Info("checkout_success", "order_id", order.ID, "total", order.Total.StringFixed(2))
	return c.Redirect(http.StatusSeeOther, checkoutDone)
}
