// Package classifier loads the serialized heart disease model and scores
// encoded feature vectors with it.
//
// An artifact is a fitted two-step pipeline, a standard scaler followed by
// a logistic regression, stored as JSON or YAML together with the column
// names it was fitted on. Loading refuses any artifact whose columns differ
// from the encoder's, so a stale model never scores a misaligned vector.
package classifier

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/iliyamo/heart-disease-api/internal/features"
)

//go:embed assets/model_cv.json
var defaultArtifact []byte

// ErrContract is returned when an artifact does not match the encoder's
// feature contract or is numerically unusable.
var ErrContract = errors.New("model artifact violates feature contract")

const defaultThreshold = 0.5

// Artifact is the on-disk representation of the fitted pipeline.
type Artifact struct {
	Name         string    `json:"name" yaml:"name"`
	Version      string    `json:"version" yaml:"version"`
	ModelType    string    `json:"model_type" yaml:"model_type"`
	Features     []string  `json:"features" yaml:"features"`
	Scaler       Scaler    `json:"scaler" yaml:"scaler"`
	Coefficients []float64 `json:"coefficients" yaml:"coefficients"`
	Intercept    float64   `json:"intercept" yaml:"intercept"`
	Threshold    float64   `json:"threshold,omitempty" yaml:"threshold,omitempty"`
}

// Scaler holds the per-column statistics of a fitted standard scaler.
type Scaler struct {
	Mean  []float64 `json:"mean" yaml:"mean"`
	Scale []float64 `json:"scale" yaml:"scale"`
}

// Format of a serialized artifact.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the artifact format from a file extension. Unknown
// extensions are treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Parse decodes and validates an artifact.
func Parse(data []byte, format Format) (*Model, error) {
	var a Artifact
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &a)
	default:
		err = json.Unmarshal(data, &a)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s artifact: %w", format, err)
	}
	return New(a)
}

// Load reads an artifact from the local filesystem.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}
	return Parse(data, FormatFromPath(path))
}

// Default returns the artifact compiled into the binary.
func Default() (*Model, error) {
	return Parse(defaultArtifact, FormatJSON)
}

// Open resolves the artifact source: an s3:// URI wins over a local path,
// and the compiled-in artifact is used when neither is set.
func Open(ctx context.Context, path, uri string) (*Model, error) {
	switch {
	case uri != "":
		return LoadFromS3(ctx, uri)
	case path != "":
		return Load(path)
	default:
		return Default()
	}
}

func validate(a Artifact) error {
	want := features.Columns()
	if len(a.Features) != len(want) {
		return fmt.Errorf("%w: artifact has %d features, encoder produces %d", ErrContract, len(a.Features), len(want))
	}
	for i := range want {
		if a.Features[i] != want[i] {
			return fmt.Errorf("%w: feature %d is %q, encoder produces %q", ErrContract, i, a.Features[i], want[i])
		}
	}
	n := len(want)
	if len(a.Scaler.Mean) != n || len(a.Scaler.Scale) != n || len(a.Coefficients) != n {
		return fmt.Errorf("%w: expected %d scaler means, scales and coefficients, got %d/%d/%d",
			ErrContract, n, len(a.Scaler.Mean), len(a.Scaler.Scale), len(a.Coefficients))
	}
	for i, s := range a.Scaler.Scale {
		if s == 0 {
			return fmt.Errorf("%w: zero scale for %s", ErrContract, want[i])
		}
	}
	for _, vals := range []struct {
		name string
		xs   []float64
	}{
		{"mean", a.Scaler.Mean},
		{"scale", a.Scaler.Scale},
		{"coefficients", a.Coefficients},
		{"intercept", []float64{a.Intercept}},
	} {
		for i, x := range vals.xs {
			if !finite(x) {
				return fmt.Errorf("%w: non-finite %s[%d]", ErrContract, vals.name, i)
			}
		}
	}
	// NaN fails both comparisons
	if !(a.Threshold >= 0 && a.Threshold < 1) {
		return fmt.Errorf("%w: threshold %v outside (0,1)", ErrContract, a.Threshold)
	}
	return nil
}

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }
