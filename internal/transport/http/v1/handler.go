// Package v1 provides the HTTP handlers for the chat and inspection API.
package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/internal/domain"
	"github.com/taskdeck/taskdeck/internal/service"
)

// Handler handles HTTP requests.
type Handler struct {
	service  *service.Service
	verifier auth.Verifier
}

// NewHandler creates a new handler.
func NewHandler(service *service.Service, verifier auth.Verifier) *Handler {
	return &Handler{
		service:  service,
		verifier: verifier,
	}
}

// RegisterRoutes registers the routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api/:user_id", h.requireUser)
	api.POST("/chat", h.Chat)
	api.GET("/tasks", h.ListTasks)
	api.GET("/messages", h.ListMessages)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}

// errorBody is the fixed error envelope: a stable kind plus a user-safe
// message, never internal detail.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func writeError(c echo.Context, status int, kind domain.Kind, message string) error {
	return c.JSON(status, errorBody{Error: errorDetail{Kind: string(kind), Message: message}})
}

// errorResponse maps a service error onto its HTTP status. Unclassified
// errors become a generic 500.
func errorResponse(c echo.Context, err error) error {
	kind := domain.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case domain.KindValidation:
		status = http.StatusBadRequest
	case domain.KindAuth:
		status = http.StatusUnauthorized
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindRateLimit:
		status = http.StatusTooManyRequests
	case domain.KindUpstreamAgent:
		status = http.StatusInternalServerError
	case domain.KindPersistence:
		status = http.StatusServiceUnavailable
	case "":
		kind = "internal"
	}
	return writeError(c, status, kind, domain.SafeMessage(err))
}
