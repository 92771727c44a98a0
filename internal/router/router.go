package router // package router registers the HTTP routes of the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/heart-disease-api/internal/handler"
	"github.com/iliyamo/heart-disease-api/internal/middleware"
)

// RegisterRoutes registers the public endpoints. Metadata endpoints go
// through the response cache; prediction endpoints through the rate
// limiter.
func RegisterRoutes(e *echo.Echo, h *handler.PredictHandler, limiter, cache echo.MiddlewareFunc) {
	e.GET("/healthz", handler.Healthz)
	e.GET("/health", h.Health)
	e.GET("/", handler.Root, cache)
	e.GET("/model-info", h.ModelInfo, cache)

	e.POST("/predict", h.Predict, limiter)
	e.POST("/predict/batch", h.BatchPredict, limiter)
}

// RegisterOperator registers token issuance under /v1/auth and the
// operator-only audit endpoints under /v1.
func RegisterOperator(e *echo.Echo, a *handler.AuthHandler, p *handler.PredictionsHandler, jwtSecret string) {
	e.POST("/v1/auth/token", a.Token)

	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(handler.RoleOperator))
	g.GET("/predictions", p.List)
}
