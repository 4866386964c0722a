package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/taskdeck/taskdeck/internal/domain"
)

// ChatRequest is the request body for POST /api/:user_id/chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// Chat runs one chat cycle for the authenticated user.
// POST /api/:user_id/chat
func (h *Handler) Chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, http.StatusBadRequest, domain.KindValidation, "request body must be a JSON object")
	}

	resp, err := h.service.Chat(c.Request().Context(), authedUser(c), req.Message)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}
