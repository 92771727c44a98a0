package model

import (
	"encoding/json"
	"time"
)

// Risk buckets returned in Prediction.RiskLevel.
const (
	RiskLow      = "Low"
	RiskModerate = "Moderate"
	RiskHigh     = "High"
)

// Values of Prediction.Interpretation.
const (
	Healthy  = "Healthy"
	Diseased = "Diseased"
)

// Prediction is the fixed response schema of the predict endpoint. The
// identifier, model version and timestamp travel with the value for the
// audit log and events but are not part of the JSON body.
type Prediction struct {
	ID             string    `json:"-"`
	Probability    float64   `json:"heart_disease_probability"`
	Label          int       `json:"prediction"`
	RiskLevel      string    `json:"risk_level"`
	Interpretation string    `json:"interpretation"`
	ModelVersion   string    `json:"-"`
	CreatedAt      time.Time `json:"-"`
}

// PredictionEntry mirrors a row of the `predictions` audit table.
type PredictionEntry struct {
	ID           uint64          `json:"id"`            // predictions.id
	PredictionID string          `json:"prediction_id"` // predictions.prediction_id (uuid)
	Probability  float64         `json:"probability"`   // predictions.probability
	Label        int             `json:"prediction"`    // predictions.prediction
	RiskLevel    string          `json:"risk_level"`    // predictions.risk_level
	ModelVersion string          `json:"model_version"` // predictions.model_version
	Features     json.RawMessage `json:"features"`      // predictions.features_json
	CreatedAt    time.Time       `json:"created_at"`    // predictions.created_at
}
