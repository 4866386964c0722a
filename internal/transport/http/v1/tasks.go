package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/taskdeck/taskdeck/internal/domain"
)

// ListTasks lists the authenticated user's tasks.
// GET /api/:user_id/tasks?completed=true|false
func (h *Handler) ListTasks(c echo.Context) error {
	find := &domain.FindTasks{}
	if v := c.QueryParam("completed"); v != "" {
		completed, err := strconv.ParseBool(v)
		if err != nil {
			return writeError(c, http.StatusBadRequest, domain.KindValidation, "completed must be true or false")
		}
		find.Completed = &completed
	}

	tasks, err := h.service.ListTasks(c.Request().Context(), authedUser(c), find)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"tasks": tasks,
	})
}
