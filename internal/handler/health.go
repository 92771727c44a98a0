package handler // HTTP handlers for the prediction API

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// APIVersion is reported by the root and model-info endpoints.
const APIVersion = "1.0.0"

// Healthz is the plain-text probe for load balancers.
func Healthz(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Root lists the public endpoints.
func Root(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Heart Disease Prediction API",
		"version": APIVersion,
		"endpoints": echo.Map{
			"health":     "/health",
			"predict":    "/predict (POST)",
			"batch":      "/predict/batch (POST)",
			"model_info": "/model-info",
		},
	})
}
