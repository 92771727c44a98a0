package classifier

import (
	"errors"
	"math"

	"github.com/iliyamo/heart-disease-api/internal/features"
)

// ErrNonFinite is returned when a vector or the resulting score is NaN or
// infinite.
var ErrNonFinite = errors.New("non-finite value in model input")

// Model scores encoded vectors. It is immutable after New and safe for
// concurrent use.
type Model struct {
	a         Artifact
	threshold float64
}

// Info describes a loaded model for the model-info endpoint.
type Info struct {
	Name      string   `json:"name"`
	Version   string   `json:"version"`
	ModelType string   `json:"model_type"`
	Features  []string `json:"features"`
	Threshold float64  `json:"threshold"`
}

// New validates an artifact and wraps it in a Model.
func New(a Artifact) (*Model, error) {
	if err := validate(a); err != nil {
		return nil, err
	}
	th := a.Threshold
	if th == 0 {
		th = defaultThreshold
	}
	if a.ModelType == "" {
		a.ModelType = "LogisticRegression"
	}
	return &Model{a: a, threshold: th}, nil
}

// PredictProba returns the probability of the positive class.
func (m *Model) PredictProba(v features.Vector) (float64, error) {
	z := m.a.Intercept
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, ErrNonFinite
		}
		z += m.a.Coefficients[i] * (x - m.a.Scaler.Mean[i]) / m.a.Scaler.Scale[i]
	}
	if math.IsNaN(z) {
		return 0, ErrNonFinite
	}
	return sigmoid(z), nil
}

// Threshold is the probability above which a patient is labeled positive.
func (m *Model) Threshold() float64 { return m.threshold }

// Version identifies the artifact in audit entries and events.
func (m *Model) Version() string {
	if m.a.Version == "" {
		return m.a.Name
	}
	return m.a.Name + "@" + m.a.Version
}

func (m *Model) Info() Info {
	return Info{
		Name:      m.a.Name,
		Version:   m.a.Version,
		ModelType: m.a.ModelType,
		Features:  append([]string(nil), m.a.Features...),
		Threshold: m.threshold,
	}
}

// sigmoid avoids overflow of exp for large |z|.
func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
