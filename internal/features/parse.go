package features

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/iliyamo/heart-disease-api/internal/model"
)

// Sentinel causes wrapped by ValidationError. Handlers map all of them to
// 400 Bad Request.
var (
	ErrMissingField    = errors.New("missing required field")
	ErrInvalidType     = errors.New("invalid type")
	ErrOutOfRange      = errors.New("out of range")
	ErrUnknownCategory = errors.New("unknown category")
)

// ValidationError reports the first problem found in a patient payload.
// Msg is safe to return to API clients.
type ValidationError struct {
	Field string
	Err   error
	Msg   string
}

func (e *ValidationError) Error() string { return e.Msg }
func (e *ValidationError) Unwrap() error { return e.Err }

// RequiredFields lists the input fields in the order presence is checked.
var RequiredFields = []string{
	"Age", "Sex", "ChestPainType", "RestingBP", "Cholesterol",
	"FastingBS", "RestingECG", "MaxHR", "ExerciseAngina", "Oldpeak", "ST_Slope",
}

type intBound struct {
	Field    string
	Min, Max int
}

// Range checks run in this order; the first failure is reported.
var intBounds = []intBound{
	{Field: "Age", Min: 20, Max: 100},
	{Field: "RestingBP", Min: 80, Max: 200},
	{Field: "Cholesterol", Min: 100, Max: 600},
	{Field: "MaxHR", Min: 60, Max: 220},
}

const (
	oldpeakMin = 0.0
	oldpeakMax = 10.0
)

// Parse validates a decoded JSON object and returns the typed record.
// Numbers may arrive as JSON numbers (float64 or json.Number) or as numeric
// strings; integer fields truncate toward zero.
func Parse(raw map[string]any) (model.PatientRecord, error) {
	var p model.PatientRecord
	for _, f := range RequiredFields {
		if _, ok := raw[f]; !ok {
			return p, &ValidationError{Field: f, Err: ErrMissingField, Msg: "missing required field: " + f}
		}
	}

	ints := make(map[string]int, len(intBounds)+1)
	for _, b := range intBounds {
		n, err := intField(raw, b.Field)
		if err != nil {
			return p, err
		}
		if n < b.Min || n > b.Max {
			return p, &ValidationError{
				Field: b.Field,
				Err:   ErrOutOfRange,
				Msg:   fmt.Sprintf("%s must be between %d and %d", b.Field, b.Min, b.Max),
			}
		}
		ints[b.Field] = n
	}

	oldpeak, err := floatField(raw, "Oldpeak")
	if err != nil {
		return p, err
	}
	if oldpeak < oldpeakMin || oldpeak > oldpeakMax {
		return p, &ValidationError{Field: "Oldpeak", Err: ErrOutOfRange, Msg: "Oldpeak must be between 0 and 10"}
	}

	fbs, err := intField(raw, "FastingBS")
	if err != nil {
		return p, err
	}
	if fbs != 0 && fbs != 1 {
		return p, &ValidationError{Field: "FastingBS", Err: ErrOutOfRange, Msg: "FastingBS must be 0 or 1"}
	}

	p = model.PatientRecord{
		Age:         ints["Age"],
		RestingBP:   ints["RestingBP"],
		Cholesterol: ints["Cholesterol"],
		FastingBS:   fbs,
		MaxHR:       ints["MaxHR"],
		Oldpeak:     oldpeak,
	}
	targets := []*string{&p.Sex, &p.ChestPainType, &p.RestingECG, &p.ExerciseAngina, &p.STSlope}
	for i, c := range categoricals {
		s, err := stringField(raw, c.Field)
		if err != nil {
			return model.PatientRecord{}, err
		}
		if levelIndex(c, s) < 0 {
			return model.PatientRecord{}, unknownCategory(c, s)
		}
		*targets[i] = s
	}
	return p, nil
}

func intField(raw map[string]any, field string) (int, error) {
	switch t := raw[field].(type) {
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, typeError(field, "an integer", t)
		}
		return n, nil
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n), nil
		}
	}
	f, err := floatField(raw, field)
	if err != nil {
		return 0, err
	}
	return int(math.Trunc(f)), nil
}

func floatField(raw map[string]any, field string) (float64, error) {
	v := raw[field]
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return 0, typeError(field, "a number", v)
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, typeError(field, "a number", v)
		}
		f = n
	default:
		return 0, typeError(field, "a number", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, typeError(field, "a finite number", v)
	}
	return f, nil
}

func stringField(raw map[string]any, field string) (string, error) {
	s, ok := raw[field].(string)
	if !ok {
		return "", typeError(field, "a string", raw[field])
	}
	return s, nil
}

func typeError(field, want string, got any) error {
	return &ValidationError{
		Field: field,
		Err:   ErrInvalidType,
		Msg:   fmt.Sprintf("invalid type for %s: expected %s, got %s", field, want, describe(got)),
	}
}

func describe(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return strconv.Quote(t)
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%v", t)
	}
}
