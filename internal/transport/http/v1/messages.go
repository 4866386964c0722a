package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// ListMessages returns the authenticated user's conversation history,
// oldest first. A positive limit keeps the most recent messages.
// GET /api/:user_id/messages?limit=N
func (h *Handler) ListMessages(c echo.Context) error {
	limit := 0
	if l := c.QueryParam("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil {
			limit = val
		}
	}

	messages, err := h.service.ListMessages(c.Request().Context(), authedUser(c), limit)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"messages": messages,
	})
}
