package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kersko/storefront/internal/events"
	"github.com/kersko/storefront/internal/logging"
	"github.com/kersko/storefront/internal/service"
	"github.com/kersko/storefront/internal/tokens"
	"github.com/kersko/storefront/internal/transport"
)

type AuthHTTP struct {
	Svc      *service.AuthService
	Producer events.Publisher
}

func (h *AuthHTTP) publish(c echo.Context, key string, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, events.TopicUserEvents, key, event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka_publish_error", "error", err)
	}
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Svc.Register(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			l.Warn("register_error", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrConflict):
			l.Warn("register_error", "status", 409, "username", req.Username)
			return echo.NewHTTPError(http.StatusConflict, "username already taken")
		default:
			l.Error("register_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	h.publish(c, fmt.Sprint(user.ID), map[string]any{
		"type":     "user_registered",
		"userID":   user.ID,
		"username": user.Username,
	})

	l.Info("user_registered", "user_id", user.ID, "username", user.Username)
	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	pair, err := h.Svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			l.Warn("login_error", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrUnauthorized):
			l.Warn("login_error", "status", 401, "username", req.Username)
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
		default:
			l.Error("login_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	setAuthCookies(c, pair)
	l.Info("user_logged_in", "username", req.Username)
	return c.JSON(http.StatusOK, map[string]string{"message": "logged in"})
}

// Refresh rotates the token pair from the refresh cookie. The auth middleware
// already does this transparently; the endpoint exists for clients that want
// to refresh ahead of expiry.
func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.refresh")

	cookie, err := c.Cookie("refreshToken")
	if err != nil || cookie.Value == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "refresh token missing")
	}

	pair, err := h.Svc.Refresh(ctx, cookie.Value)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			clearAuthCookies(c)
			l.Warn("refresh_error", "status", 401, "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, "session expired")
		}
		l.Error("refresh_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	setAuthCookies(c, pair)
	return c.JSON(http.StatusOK, map[string]string{"message": "refreshed"})
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	if cookie, err := c.Cookie("refreshToken"); err == nil && cookie.Value != "" {
		if err := h.Svc.Logout(ctx, cookie.Value); err != nil {
			l.Error("logout_error", "error", err)
		}
	}

	clearAuthCookies(c)
	l.Info("user_logged_out")
	return c.JSON(http.StatusOK, map[string]string{"message": "logged out"})
}

func setAuthCookies(c echo.Context, pair *transport.TokenPairResponse) {
	c.SetCookie(tokens.CreateCookie("accessToken", pair.AccessToken, "/", time.Unix(pair.AccessExp, 0)))
	c.SetCookie(tokens.CreateCookie("refreshToken", pair.RefreshToken, "/", time.Unix(pair.RefreshExp, 0)))
}

func clearAuthCookies(c echo.Context) {
	c.SetCookie(tokens.DeleteCookie("accessToken", "/"))
	c.SetCookie(tokens.DeleteCookie("refreshToken", "/"))
}
