package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	mwauth "github.com/kersko/storefront/internal/middleware/auth"
)

// Deps bundles everything the route table needs.
type Deps struct {
	Auth     *AuthHTTP
	Catalog  *CatalogHTTP
	Cart     *CartHTTP
	Checkout *CheckoutHTTP
	Invoice  *InvoiceHTTP
	Feedback *FeedbackHTTP
	Search   *SearchHTTP
	AuthMW   *mwauth.Middleware
}

func Register(e *echo.Echo, d Deps) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api/v1")

	// Public.
	api.POST("/auth/register", d.Auth.Register)
	api.POST("/auth/login", d.Auth.Login)
	api.POST("/auth/refresh", d.Auth.Refresh)
	api.POST("/auth/logout", d.Auth.Logout)

	api.GET("/products", d.Catalog.GetProducts)
	api.GET("/products/:id", d.Catalog.GetProduct)
	api.GET("/products/:id/feedback", d.Feedback.ListByProduct)
	api.GET("/search", d.Search.Search)

	// Authenticated shoppers.
	user := api.Group("", d.AuthMW.RequireAuth)
	user.GET("/cart", d.Cart.GetCart)
	user.POST("/cart", d.Cart.AddToCart)
	user.POST("/cart/increase", d.Cart.IncreaseQuantity)
	user.POST("/cart/decrease", d.Cart.DecreaseQuantity)
	user.PUT("/cart", d.Cart.UpdateQuantity)
	user.DELETE("/cart/item", d.Cart.RemoveFromCart)
	user.DELETE("/cart", d.Cart.ClearCart)

	user.POST("/checkout", d.Checkout.BeginCheckout)
	user.GET("/checkout/paypal/success", d.Checkout.PayPalSuccess)
	user.GET("/checkout/paypal/cancel", d.Checkout.PayPalCancel)
	user.GET("/checkout/nets-qr/success", d.Checkout.NETSQRSuccess)
	user.GET("/checkout/nets-qr/fail", d.Checkout.NETSQRFail)

	user.GET("/invoices", d.Invoice.Overview)
	user.GET("/invoices/:id", d.Invoice.Detail)

	user.POST("/products/:id/feedback", d.Feedback.Submit)
	user.PUT("/feedback/:id", d.Feedback.Update)
	user.DELETE("/feedback/:id", d.Feedback.Delete)

	// Admin.
	admin := api.Group("/admin", d.AuthMW.RequireAdmin)
	admin.POST("/products", d.Catalog.CreateProduct)
	admin.PATCH("/products/:id", d.Catalog.PatchProduct)
	admin.DELETE("/products/:id", d.Catalog.DeleteProduct)
	admin.GET("/invoices", d.Invoice.All)
}
