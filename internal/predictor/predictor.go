// Package predictor runs the single inference path: validate, encode,
// score, bucket. Auditing and event publishing are side effects that never
// fail a prediction.
package predictor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/iliyamo/heart-disease-api/internal/features"
	"github.com/iliyamo/heart-disease-api/internal/model"
	"github.com/iliyamo/heart-disease-api/internal/queue"
)

// Risk bucket edges on the raw probability.
const (
	lowRiskBelow      = 0.3
	moderateRiskBelow = 0.7
)

const sideEffectTimeout = 3 * time.Second

// Scorer is the model black box.
type Scorer interface {
	PredictProba(v features.Vector) (float64, error)
	Threshold() float64
	Version() string
}

// Auditor records served predictions.
type Auditor interface {
	Insert(ctx context.Context, e model.PredictionEntry) (uint64, error)
}

// Publisher emits prediction events.
type Publisher interface {
	PublishPredictionCompleted(ctx context.Context, ev queue.PredictionCompletedEvent) error
}

// Service is safe for concurrent use.
type Service struct {
	model  Scorer
	audit  Auditor
	events Publisher
	log    *zap.Logger
	now    func() time.Time
}

// NewService wires a scorer with optional audit store and publisher; nil
// collaborators are skipped.
func NewService(m Scorer, audit Auditor, events Publisher, log *zap.Logger) *Service {
	if m == nil {
		panic("nil scorer passed to NewService")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{model: m, audit: audit, events: events, log: log, now: time.Now}
}

// BatchResult is one entry of a batch response. Exactly one of the embedded
// prediction or Error is set.
type BatchResult struct {
	PatientID int `json:"patient_id"`
	*model.Prediction
	Error string `json:"error,omitempty"`
}

// PredictRaw validates a decoded JSON object and scores it. Validation
// failures are *features.ValidationError.
func (s *Service) PredictRaw(ctx context.Context, raw map[string]any) (model.Prediction, error) {
	rec, err := features.Parse(raw)
	if err != nil {
		return model.Prediction{}, err
	}
	return s.Predict(ctx, rec)
}

// Predict scores a validated record.
func (s *Service) Predict(ctx context.Context, rec model.PatientRecord) (model.Prediction, error) {
	vec, err := features.Encode(rec)
	if err != nil {
		return model.Prediction{}, err
	}
	p, err := s.model.PredictProba(vec)
	if err != nil {
		return model.Prediction{}, fmt.Errorf("score: %w", err)
	}

	label := 0
	if p > s.model.Threshold() {
		label = 1
	}
	pred := model.Prediction{
		ID:             uuid.NewString(),
		Probability:    Round4(p),
		Label:          label,
		RiskLevel:      RiskLevel(p),
		Interpretation: Interpretation(label),
		ModelVersion:   s.model.Version(),
		CreatedAt:      s.now().UTC(),
	}
	s.record(ctx, rec, pred)
	return pred, nil
}

// ErrNotObject is reported for batch entries that are not JSON objects.
var ErrNotObject = errors.New("expected a JSON object")

// BatchPredict scores every entry independently; patient ids are 1-based
// positions in the input. Entries that are not objects fail on their own.
func (s *Service) BatchPredict(ctx context.Context, entries []any) []BatchResult {
	return lo.Map(entries, func(entry any, i int) BatchResult {
		res := BatchResult{PatientID: i + 1}
		raw, ok := entry.(map[string]any)
		if !ok {
			res.Error = ErrNotObject.Error()
			return res
		}
		pred, err := s.PredictRaw(ctx, raw)
		if err != nil {
			res.Error = err.Error()
			return res
		}
		res.Prediction = &pred
		return res
	})
}

// record writes the audit entry and publishes the event. Failures are
// logged only.
func (s *Service) record(ctx context.Context, rec model.PatientRecord, pred model.Prediction) {
	if s.audit == nil && s.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	if s.audit != nil {
		body, err := json.Marshal(rec)
		if err == nil {
			_, err = s.audit.Insert(ctx, model.PredictionEntry{
				PredictionID: pred.ID,
				Probability:  pred.Probability,
				Label:        pred.Label,
				RiskLevel:    pred.RiskLevel,
				ModelVersion: pred.ModelVersion,
				Features:     body,
				CreatedAt:    pred.CreatedAt,
			})
		}
		if err != nil {
			s.log.Warn("audit insert failed", zap.String("prediction_id", pred.ID), zap.Error(err))
		}
	}
	if s.events != nil {
		err := s.events.PublishPredictionCompleted(ctx, queue.PredictionCompletedEvent{
			PredictionID: pred.ID,
			Probability:  pred.Probability,
			Prediction:   pred.Label,
			RiskLevel:    pred.RiskLevel,
			ModelVersion: pred.ModelVersion,
			CreatedAt:    pred.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			s.log.Warn("publish prediction event failed", zap.String("prediction_id", pred.ID), zap.Error(err))
		}
	}
}

// RiskLevel buckets a raw probability.
func RiskLevel(p float64) string {
	switch {
	case p < lowRiskBelow:
		return model.RiskLow
	case p < moderateRiskBelow:
		return model.RiskModerate
	default:
		return model.RiskHigh
	}
}

func Interpretation(label int) string {
	if label == 1 {
		return model.Diseased
	}
	return model.Healthy
}

// Round4 rounds to four decimal places.
func Round4(p float64) float64 {
	return math.Round(p*1e4) / 1e4
}
