package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/kersko/storefront/internal/service"
	"github.com/kersko/storefront/internal/tokens"
)

// Middleware guards routes with the cookie-carried token pair. An expired
// access token is refreshed transparently when the refresh token still holds.
type Middleware struct {
	JWTSecret []byte
	Auth      *service.AuthService
}

func New(secret []byte, authSvc *service.AuthService) *Middleware {
	return &Middleware{JWTSecret: secret, Auth: authSvc}
}

type validatorFunc func(claims *tokens.AccessClaims) error

func (m *Middleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, nil)
}

func (m *Middleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, func(claims *tokens.AccessClaims) error {
		if claims.Role != "admin" {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return nil
	})
}

func (m *Middleware) requireAuthWithValidator(next echo.HandlerFunc, validator validatorFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		accessCookie, err := c.Cookie("accessToken")
		if err != nil || accessCookie.Value == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		claims, err := tokens.AccessClaimsFromToken(accessCookie.Value, m.JWTSecret)
		if err == nil && claims != nil {
			if validator != nil {
				if validationErr := validator(claims); validationErr != nil {
					return validationErr
				}
			}
			return m.withUserContext(c, next, claims)
		}

		if !errors.Is(err, jwt.ErrTokenExpired) {
			clearAuthCookies(c)
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
		}

		refreshCookie, rErr := c.Cookie("refreshToken")
		if rErr != nil || refreshCookie.Value == "" {
			clearAuthCookies(c)
			return echo.NewHTTPError(http.StatusUnauthorized, "refresh token missing")
		}

		pair, refErr := m.Auth.Refresh(c.Request().Context(), refreshCookie.Value)
		if refErr != nil {
			clearAuthCookies(c)
			return echo.NewHTTPError(http.StatusUnauthorized, "session expired")
		}

		c.SetCookie(tokens.CreateCookie("accessToken", pair.AccessToken, "/", time.Unix(pair.AccessExp, 0)))
		c.SetCookie(tokens.CreateCookie("refreshToken", pair.RefreshToken, "/", time.Unix(pair.RefreshExp, 0)))

		newClaims, pErr := tokens.AccessClaimsFromToken(pair.AccessToken, m.JWTSecret)
		if pErr != nil || newClaims == nil {
			clearAuthCookies(c)
			return echo.NewHTTPError(http.StatusUnauthorized, "new access token invalid")
		}

		if validator != nil {
			if validationErr := validator(newClaims); validationErr != nil {
				clearAuthCookies(c)
				return validationErr
			}
		}
		return m.withUserContext(c, next, newClaims)
	}
}

func (m *Middleware) withUserContext(c echo.Context, next echo.HandlerFunc, claims *tokens.AccessClaims) error {
	userID, err := claims.UserID()
	if err != nil {
		clearAuthCookies(c)
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid subject")
	}
	c.Set("user_id", userID)
	c.Set("role", claims.Role)
	return next(c)
}

func clearAuthCookies(c echo.Context) {
	c.SetCookie(tokens.DeleteCookie("accessToken", "/"))
	c.SetCookie(tokens.DeleteCookie("refreshToken", "/"))
}

// UserID reads the authenticated user id set by RequireAuth.
func UserID(c echo.Context) (uint, error) {
	v, ok := c.Get("user_id").(uint)
	if !ok {
		return 0, errors.New("unauthorized")
	}
	return v, nil
}

// Role reads the authenticated role; empty when unauthenticated.
func Role(c echo.Context) string {
	v, _ := c.Get("role").(string)
	return v
}
