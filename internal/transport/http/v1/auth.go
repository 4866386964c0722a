package v1

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/taskdeck/taskdeck/internal/domain"
)

// requireUser authenticates the request and checks that the credential's
// subject matches the :user_id path parameter. Any user may hold a valid
// credential; they still only reach their own resources.
func (h *Handler) requireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return writeError(c, http.StatusUnauthorized, domain.KindAuth, "missing credential")
		}

		userID, err := h.verifier.Verify(token)
		if err != nil {
			return writeError(c, http.StatusUnauthorized, domain.KindAuth, domain.SafeMessage(err))
		}
		if userID != c.Param("user_id") {
			return writeError(c, http.StatusForbidden, domain.KindAuth, "user id mismatch")
		}

		c.Set(userIDKey, userID)
		return next(c)
	}
}

const userIDKey = "auth_user_id"

// authedUser returns the authenticated user id set by requireUser.
func authedUser(c echo.Context) string {
	userID, _ := c.Get(userIDKey).(string)
	return userID
}
