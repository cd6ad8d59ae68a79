package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/middleware/csrf"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	ProductHandler  *ProductHTTP
	CatalogHandler  *CatalogHTTP
	CartHandler     *CartHTTP
	CheckoutHandler *CheckoutHTTP
	OrderHandler    *OrderHTTP
	UserHandler     *UserHTTP

	DB        Pinger
	JWTSecret []byte
	CSRF      csrf.Config
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", d.ready)

	authMW := auth.NewSimpleAuth(d.JWTSecret)

	api := e.Group("/api")

	api.GET("/products", d.ProductHandler.ListProducts)
	api.GET("/categories", d.ProductHandler.ListCategories)
	api.POST("/auth/register", d.UserHandler.Register)

	catalog := api.Group("/catalog")
	catalog.GET("/products", d.CatalogHandler.GetProducts)
	catalog.GET("/products/:slug", d.CatalogHandler.GetProduct)
	catalog.GET("/search", d.CatalogHandler.SearchProducts)

	// auth is attached per route: a middleware group on a shared prefix would
	// also wrap the prefix's not-found handler
	user, admin := authMW.RequireAuth, authMW.RequireAdmin
	api.GET("/cart", d.CartHandler.GetCart, user)
	api.GET("/orders", d.OrderHandler.ListOrders, user)

	api.GET("/products/:id", d.ProductHandler.GetProduct, admin)
	api.POST("/products", d.ProductHandler.CreateProduct, admin)
	api.PUT("/products/:id", d.ProductHandler.UpdateProduct, admin)
	api.DELETE("/products/:id", d.ProductHandler.DeleteProduct, admin)
	api.POST("/categories", d.ProductHandler.CreateCategory, admin)
	api.GET("/admin/dashboard", d.OrderHandler.Dashboard, admin)
	api.GET("/admin/orders", d.OrderHandler.AdminListOrders, admin)
	api.PATCH("/admin/orders/:id/status", d.OrderHandler.UpdateStatus, admin)
	api.GET("/admin/users", d.UserHandler.ListUsers, admin)

	csrfMW := csrf.Middleware(d.CSRF)
	e.GET("/csrf", csrfToken, csrfMW)

	cartForm := []echo.MiddlewareFunc{csrfMW, authMW.OptionalAuth}
	e.POST("/cart/add", d.CartHandler.Add, cartForm...)
	e.POST("/cart/update", d.CartHandler.Update, cartForm...)
	e.POST("/cart/remove", d.CartHandler.Remove, cartForm...)
	e.POST("/cart/clear", d.CartHandler.Clear, cartForm...)

	e.POST("/checkout", d.CheckoutHandler.Checkout, csrfMW, authMW.RequireAuthRedirect(LoginRedirect))
}

func (d *Deps) ready(c echo.Context) error {
	if d.DB == nil {
		return c.NoContent(http.StatusOK)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := d.DB.Ping(ctx); err != nil {
		logging.FromContext(ctx).Error("ready_check_error", "status", 503, "error", err)
		return c.NoContent(http.StatusServiceUnavailable)
	}
	return c.NoContent(http.StatusOK)
}

// csrfToken hands the token to clients that cannot read the cookie.
func csrfToken(c echo.Context) error {
	token, _ := c.Get(csrf.ContextKey).(string)
	return c.JSON(http.StatusOK, map[string]string{"csrf_token": token})
}
