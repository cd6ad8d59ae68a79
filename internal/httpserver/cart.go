package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
)

// Messages returned in FormResult.Error.
const (
	msgNotSignedIn       = "not signed in"
	msgInvalidInput      = "invalid input"
	msgProductNotFound   = "product not found"
	msgItemNotFound      = "cart item not found"
	msgInsufficientStock = "insufficient stock"
	msgServerError       = "server error"
)

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	cart, err := h.Svc.GetCart(ctx, identityFrom(c))
	if err != nil {
		return fail(l, "get_cart", err)
	}
	return c.JSON(http.StatusOK, cart)
}

// Add handles the add-to-cart form. Outcomes are reported in the body, not
// the status code.
func (h *CartHTTP) Add(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	var form transport.AddToCartForm
	if err := bindAndValidate(c, &form); err != nil {
		l.Warn("add_to_cart_error", "reason", "invalid form", "error", err)
		return formResult(c, msgInvalidInput)
	}
	productID, _ := uuid.Parse(form.ProductID)
	quantity := 1
	if form.Quantity != "" {
		q, err := strconv.Atoi(form.Quantity)
		if err != nil {
			l.Warn("add_to_cart_error", "reason", "quantity not an integer", "error", err)
			return formResult(c, msgInvalidInput)
		}
		quantity = q
	}

	if _, err := h.Svc.AddToCart(ctx, identityFrom(c), productID, quantity); err != nil {
		l.Warn("add_to_cart_error", "product_id", productID, "error", err)
		return formResult(c, cartMessage(err, msgProductNotFound))
	}
	return formResult(c, "")
}

func (h *CartHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update")

	var form transport.UpdateCartForm
	if err := bindAndValidate(c, &form); err != nil {
		l.Warn("update_cart_error", "reason", "invalid form", "error", err)
		return formResult(c, msgInvalidInput)
	}
	itemID, _ := uuid.Parse(form.ItemID)
	quantity, err := strconv.Atoi(form.Quantity)
	if err != nil {
		l.Warn("update_cart_error", "reason", "quantity not an integer", "error", err)
		return formResult(c, msgInvalidInput)
	}

	if _, err := h.Svc.UpdateQuantity(ctx, identityFrom(c), itemID, quantity); err != nil {
		l.Warn("update_cart_error", "item_id", itemID, "error", err)
		return formResult(c, cartMessage(err, msgItemNotFound))
	}
	return formResult(c, "")
}

func (h *CartHTTP) Remove(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove")

	var form transport.RemoveCartForm
	if err := bindAndValidate(c, &form); err != nil {
		l.Warn("remove_from_cart_error", "reason", "invalid form", "error", err)
		return formResult(c, msgInvalidInput)
	}
	itemID, _ := uuid.Parse(form.ItemID)

	if err := h.Svc.RemoveItem(ctx, identityFrom(c), itemID); err != nil {
		l.Warn("remove_from_cart_error", "item_id", itemID, "error", err)
		return formResult(c, cartMessage(err, msgItemNotFound))
	}
	return formResult(c, "")
}

func (h *CartHTTP) Clear(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	if err := h.Svc.ClearCart(ctx, identityFrom(c)); err != nil {
		l.Warn("clear_cart_error", "error", err)
		return formResult(c, cartMessage(err, msgItemNotFound))
	}
	return formResult(c, "")
}

func cartMessage(err error, notFound string) string {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		return msgNotSignedIn
	case errors.Is(err, service.ErrValidation):
		return msgInvalidInput
	case errors.Is(err, service.ErrNotFound):
		return notFound
	case errors.Is(err, service.ErrInsufficientStock):
		return msgInsufficientStock
	}
	return msgServerError
}

func formResult(c echo.Context, errMsg string) error {
	return c.JSON(http.StatusOK, transport.FormResult{Success: errMsg == "", Error: errMsg})
}
