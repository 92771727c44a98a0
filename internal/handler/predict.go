package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/heart-disease-api/internal/classifier"
	"github.com/iliyamo/heart-disease-api/internal/features"
	"github.com/iliyamo/heart-disease-api/internal/predictor"
)

const (
	maxBodyBytes   = 1 << 20
	predictTimeout = 5 * time.Second
)

// ModelDescriber exposes metadata of the loaded model.
type ModelDescriber interface {
	Info() classifier.Info
}

// PredictHandler serves health, model metadata and predictions.
type PredictHandler struct {
	Predictor    *predictor.Service
	Model        ModelDescriber
	BatchMaxSize int
}

func NewPredictHandler(p *predictor.Service, m ModelDescriber, batchMax int) *PredictHandler {
	if p == nil || m == nil {
		panic("nil dependency passed to NewPredictHandler")
	}
	return &PredictHandler{Predictor: p, Model: m, BatchMaxSize: batchMax}
}

// Patients stay untyped so one malformed entry does not reject the batch.
type batchReq struct {
	Patients []any `json:"patients"`
}

type batchResp struct {
	Results []predictor.BatchResult `json:"results"`
}

// Health reports that the server is up with a model loaded.
func (h *PredictHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":       "healthy",
		"model_loaded": h.Model != nil,
		"message":      "API is running",
	})
}

func (h *PredictHandler) ModelInfo(c echo.Context) error {
	info := h.Model.Info()
	return c.JSON(http.StatusOK, echo.Map{
		"model_type":    info.ModelType,
		"model_name":    info.Name,
		"model_version": info.Version,
		"features":      info.Features,
		"threshold":     info.Threshold,
		"api_version":   APIVersion,
		"framework":     "Echo",
	})
}

// Predict scores one patient record.
func (h *PredictHandler) Predict(c echo.Context) error {
	var raw map[string]any
	if err := decodeJSON(c, &raw); err != nil || len(raw) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "expected a JSON object in the request body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), predictTimeout)
	defer cancel()

	pred, err := h.Predictor.PredictRaw(ctx, raw)
	if err != nil {
		var ve *features.ValidationError
		if errors.As(err, &ve) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": ve.Msg})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "prediction failed: " + err.Error()})
	}
	c.Response().Header().Set("X-Prediction-ID", pred.ID)
	return c.JSON(http.StatusOK, pred)
}

// BatchPredict scores {"patients": [...]}; invalid records are reported per
// entry without failing the batch.
func (h *PredictHandler) BatchPredict(c echo.Context) error {
	var req batchReq
	if err := decodeJSON(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "expected a JSON object in the request body"})
	}
	if len(req.Patients) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "patients must be a non-empty array"})
	}
	if h.BatchMaxSize > 0 && len(req.Patients) > h.BatchMaxSize {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "too many patients in one batch"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), predictTimeout)
	defer cancel()

	return c.JSON(http.StatusOK, batchResp{Results: h.Predictor.BatchPredict(ctx, req.Patients)})
}

// decodeJSON reads one JSON value from the body, keeping numbers as
// json.Number so integer fields are not routed through float64.
func decodeJSON(c echo.Context, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(c.Response(), c.Request().Body, maxBodyBytes))
	dec.UseNumber()
	return dec.Decode(v)
}
