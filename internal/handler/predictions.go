package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/heart-disease-api/internal/model"
	"github.com/iliyamo/heart-disease-api/internal/repository"
)

// PredictionLister reads the audit log.
type PredictionLister interface {
	ListRecent(ctx context.Context, limit int) ([]model.PredictionEntry, error)
}

// PredictionsHandler exposes recent audit entries to operators.
type PredictionsHandler struct {
	Store PredictionLister
}

func NewPredictionsHandler(s PredictionLister) *PredictionsHandler {
	return &PredictionsHandler{Store: s}
}

// List handles GET /v1/predictions?limit=N. The store clamps N.
func (h *PredictionsHandler) List(c echo.Context) error {
	limit := 0
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "limit must be an integer"})
		}
		limit = n
	}
	if h.Store == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": repository.ErrNotConfigured.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	entries, err := h.Store.ListRecent(ctx, limit)
	if err != nil {
		if errors.Is(err, repository.ErrNotConfigured) {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"predictions": entries, "count": len(entries)})
}
