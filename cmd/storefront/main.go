package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/kersko/storefront/internal/config"
	"github.com/kersko/storefront/internal/events"
	"github.com/kersko/storefront/internal/httpserver"
	"github.com/kersko/storefront/internal/logging"
	mwauth "github.com/kersko/storefront/internal/middleware/auth"
	"github.com/kersko/storefront/internal/payment"
	"github.com/kersko/storefront/internal/repo"
	"github.com/kersko/storefront/internal/search"
	"github.com/kersko/storefront/internal/service"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := logging.New(cfg.LOG_LEVEL)

	ctx := context.Background()
	db, err := config.InitDB(ctx, cfg)
	if err != nil {
		logger.Error("db_init_error", "error", err)
		os.Exit(1)
	}

	prod := events.NewProducer([]string{cfg.KAFKA_ADDRESS})

	esClient, err := search.NewClient(cfg)
	if err != nil {
		logger.Error("es_init_error", "error", err)
		os.Exit(1)
	}

	jwtSecret := []byte(cfg.JWT_SECRET)
	refreshSecret := []byte(cfg.REFRESH_SECRET)

	gateways := payment.NewRegistry(
		payment.NewPayPal(
			cfg.PAYPAL_API,
			cfg.PAYPAL_CLIENT_ID,
			cfg.PAYPAL_CLIENT_SECRET,
			cfg.APP_BASE_URL+"/api/v1/checkout/paypal/success",
			cfg.APP_BASE_URL+"/api/v1/checkout/paypal/cancel",
		),
		payment.NewNETSQR(cfg.NETS_API_URL, cfg.NETS_API_KEY),
	)

	r := &repo.GormRepo{DB: db}
	authSvc := &service.AuthService{Repo: r, JWTSecret: jwtSecret, RefreshSecret: refreshSecret}
	catalogSvc := &service.CatalogService{Repo: r}
	cartSvc := &service.CartService{Repo: r}
	checkoutSvc := &service.CheckoutService{Repo: r, Gateways: gateways, Producer: prod}
	invoiceSvc := &service.InvoiceService{Repo: r}
	feedbackSvc := &service.FeedbackService{Repo: r}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			l := logger.With("request_id", c.Response().Header().Get(echo.HeaderXRequestID))
			req := c.Request()
			c.SetRequest(req.WithContext(logging.IntoContext(req.Context(), l)))
			return next(c)
		}
	})

	httpserver.Register(e, httpserver.Deps{
		Auth:     &httpserver.AuthHTTP{Svc: authSvc, Producer: prod},
		Catalog:  &httpserver.CatalogHTTP{Svc: catalogSvc, Producer: prod, ES: esClient, ESIndex: search.ProductIndex},
		Cart:     &httpserver.CartHTTP{Svc: cartSvc, Producer: prod},
		Checkout: &httpserver.CheckoutHTTP{Svc: checkoutSvc},
		Invoice:  &httpserver.InvoiceHTTP{Svc: invoiceSvc},
		Feedback: &httpserver.FeedbackHTTP{Svc: feedbackSvc},
		Search:   &httpserver.SearchHTTP{ES: esClient, ESIndex: search.ProductIndex},
		AuthMW:   mwauth.New(jwtSecret, authSvc),
	})

	port := cfg.SERVER_PORT
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server_started", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_server_error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_error", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db_close_error", "error", err)
		}
	}

	if err := prod.Close(); err != nil {
		logger.Error("kafka_close_error", "error", err)
	}

	logger.Info("shutdown_complete")
}
