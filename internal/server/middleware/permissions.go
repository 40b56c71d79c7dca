package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func IsAdmin(user *AppUser) bool {
	if user == nil {
		return false
	}
	return user.Role == "admin"
}

// RequireAdmin guards mutating routes. Graph rebuilds and storyboard uploads
// change shared state and stay admin-only.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !IsAdmin(c.(*AppContext).User) {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "Forbidden"})
		}
		return next(c)
	}
}
