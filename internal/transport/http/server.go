// Package http provides the HTTP server for taskdeck.
package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/internal/service"
	v1 "github.com/taskdeck/taskdeck/internal/transport/http/v1"
)

// NewServer creates and configures the HTTP server.
func NewServer(svc *service.Service, verifier auth.Verifier) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit("256K"))

	// Handlers
	handler := v1.NewHandler(svc, verifier)
	handler.RegisterRoutes(e)

	return e
}
