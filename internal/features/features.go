// Package features owns the contract between the API and the classifier:
// it validates raw patient input and encodes it into the exact column set
// and order the model was fitted on.
package features

import (
	"fmt"
	"strings"

	"github.com/iliyamo/heart-disease-api/internal/model"
)

// NumColumns is the width of the encoded feature vector.
const NumColumns = 15

// Vector is one encoded patient, indexed like Columns().
type Vector [NumColumns]float64

// categorical describes a one-hot encoded field. Levels holds the full
// training vocabulary in sorted order; Levels[0] is the dropped baseline
// and contributes no column.
type categorical struct {
	Field  string
	Levels []string
}

var numericColumns = []string{"Age", "RestingBP", "Cholesterol", "FastingBS", "MaxHR", "Oldpeak"}

var categoricals = []categorical{
	{Field: "Sex", Levels: []string{"F", "M"}},
	{Field: "ChestPainType", Levels: []string{"ASY", "ATA", "NAP", "TA"}},
	{Field: "RestingECG", Levels: []string{"LVH", "Normal", "ST"}},
	{Field: "ExerciseAngina", Levels: []string{"N", "Y"}},
	{Field: "ST_Slope", Levels: []string{"Down", "Flat", "Up"}},
}

var columns = buildColumns()

func buildColumns() []string {
	cols := append([]string(nil), numericColumns...)
	for _, c := range categoricals {
		for _, lvl := range c.Levels[1:] {
			cols = append(cols, c.Field+"_"+lvl)
		}
	}
	if len(cols) != NumColumns {
		panic(fmt.Sprintf("features: %d columns, want %d", len(cols), NumColumns))
	}
	return cols
}

// Columns returns the encoded column names in model order.
func Columns() []string {
	return append([]string(nil), columns...)
}

// Levels returns the accepted values of a categorical field, or nil when
// field is not categorical.
func Levels(field string) []string {
	for _, c := range categoricals {
		if c.Field == field {
			return append([]string(nil), c.Levels...)
		}
	}
	return nil
}

// Encode builds the feature vector for a record. Categorical values are
// matched against the training vocabulary, not against the values present
// in the record, so a baseline value always encodes to an all-zero group.
func Encode(p model.PatientRecord) (Vector, error) {
	var v Vector
	v[0] = float64(p.Age)
	v[1] = float64(p.RestingBP)
	v[2] = float64(p.Cholesterol)
	v[3] = float64(p.FastingBS)
	v[4] = float64(p.MaxHR)
	v[5] = p.Oldpeak

	values := categoricalValues(p)
	i := len(numericColumns)
	for k, c := range categoricals {
		idx := levelIndex(c, values[k])
		if idx < 0 {
			return Vector{}, unknownCategory(c, values[k])
		}
		if idx > 0 {
			v[i+idx-1] = 1
		}
		i += len(c.Levels) - 1
	}
	return v, nil
}

// Map returns the vector keyed by column name.
func (v Vector) Map() map[string]float64 {
	m := make(map[string]float64, NumColumns)
	for i, name := range columns {
		m[name] = v[i]
	}
	return m
}

// categoricalValues lists the record's categorical values in the order of
// the categoricals table.
func categoricalValues(p model.PatientRecord) []string {
	return []string{p.Sex, p.ChestPainType, p.RestingECG, p.ExerciseAngina, p.STSlope}
}

func levelIndex(c categorical, value string) int {
	for i, lvl := range c.Levels {
		if lvl == value {
			return i
		}
	}
	return -1
}

func unknownCategory(c categorical, value string) error {
	return &ValidationError{
		Field: c.Field,
		Err:   ErrUnknownCategory,
		Msg:   fmt.Sprintf("unknown value %q for %s (expected one of %s)", value, c.Field, strings.Join(c.Levels, ", ")),
	}
}
