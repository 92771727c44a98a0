package features

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/heart-disease-api/internal/model"
)

func samplePatient() model.PatientRecord {
	return model.PatientRecord{
		Age:            52,
		Sex:            "M",
		ChestPainType:  "ASY",
		RestingBP:      125,
		Cholesterol:    212,
		FastingBS:      0,
		RestingECG:     "Normal",
		MaxHR:          168,
		ExerciseAngina: "N",
		Oldpeak:        1.0,
		STSlope:        "Flat",
	}
}

func TestColumnsOrder(t *testing.T) {
	want := []string{
		"Age", "RestingBP", "Cholesterol", "FastingBS", "MaxHR", "Oldpeak",
		"Sex_M", "ChestPainType_ATA", "ChestPainType_NAP", "ChestPainType_TA",
		"RestingECG_Normal", "RestingECG_ST", "ExerciseAngina_Y", "ST_Slope_Flat", "ST_Slope_Up",
	}
	if diff := cmp.Diff(want, Columns()); diff != "" {
		t.Fatalf("columns mismatch (-want +got):\n%s", diff)
	}
}

func TestColumnsReturnsCopy(t *testing.T) {
	c := Columns()
	c[0] = "mutated"
	assert.Equal(t, "Age", Columns()[0])
}

func TestEncodeSample(t *testing.T) {
	v, err := Encode(samplePatient())
	require.NoError(t, err)

	want := Vector{52, 125, 212, 0, 168, 1.0, 1, 0, 0, 0, 1, 0, 0, 1, 0}
	if diff := cmp.Diff(want, v); diff != "" {
		t.Fatalf("vector mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeBaselinesAreAllZero(t *testing.T) {
	p := samplePatient()
	p.Sex, p.ChestPainType, p.RestingECG, p.ExerciseAngina, p.STSlope = "F", "ASY", "LVH", "N", "Down"

	v, err := Encode(p)
	require.NoError(t, err)
	for i := len(numericColumns); i < NumColumns; i++ {
		assert.Zerof(t, v[i], "column %s", columns[i])
	}
}

func TestEncodeOneHotPerGroup(t *testing.T) {
	tests := []struct {
		name  string
		apply func(*model.PatientRecord)
		col   string
	}{
		{"ata", func(p *model.PatientRecord) { p.ChestPainType = "ATA" }, "ChestPainType_ATA"},
		{"nap", func(p *model.PatientRecord) { p.ChestPainType = "NAP" }, "ChestPainType_NAP"},
		{"ta", func(p *model.PatientRecord) { p.ChestPainType = "TA" }, "ChestPainType_TA"},
		{"ecg st", func(p *model.PatientRecord) { p.RestingECG = "ST" }, "RestingECG_ST"},
		{"angina", func(p *model.PatientRecord) { p.ExerciseAngina = "Y" }, "ExerciseAngina_Y"},
		{"slope up", func(p *model.PatientRecord) { p.STSlope = "Up" }, "ST_Slope_Up"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := samplePatient()
			tc.apply(&p)
			v, err := Encode(p)
			require.NoError(t, err)
			assert.Equal(t, 1.0, v.Map()[tc.col])
		})
	}
}

func TestEncodeGroupsHaveAtMostOneHot(t *testing.T) {
	setters := map[string]func(*model.PatientRecord, string){
		"Sex":            func(p *model.PatientRecord, v string) { p.Sex = v },
		"ChestPainType":  func(p *model.PatientRecord, v string) { p.ChestPainType = v },
		"RestingECG":     func(p *model.PatientRecord, v string) { p.RestingECG = v },
		"ExerciseAngina": func(p *model.PatientRecord, v string) { p.ExerciseAngina = v },
		"ST_Slope":       func(p *model.PatientRecord, v string) { p.STSlope = v },
	}
	for group, set := range setters {
		levels := Levels(group)
		require.NotEmpty(t, levels, group)
		for i, level := range levels {
			t.Run(group+"="+level, func(t *testing.T) {
				p := samplePatient()
				set(&p, level)
				v, err := Encode(p)
				require.NoError(t, err)

				var sum float64
				for col, x := range v.Map() {
					if strings.HasPrefix(col, group+"_") {
						sum += x
					}
				}
				if i == 0 {
					assert.Zero(t, sum, "baseline")
				} else {
					assert.Equal(t, 1.0, sum)
					assert.Equal(t, 1.0, v.Map()[group+"_"+level])
				}
			})
		}
	}
}

func TestEncodeUnknownCategory(t *testing.T) {
	p := samplePatient()
	p.RestingECG = "abnormal"
	_, err := Encode(p)
	require.ErrorIs(t, err, ErrUnknownCategory)
	assert.Contains(t, err.Error(), "RestingECG")
}

func TestEncodeDeterministic(t *testing.T) {
	a, err := Encode(samplePatient())
	require.NoError(t, err)
	b, err := Encode(samplePatient())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestLevelsUnknownField(t *testing.T) {
	assert.Nil(t, Levels("Age"))
	assert.Equal(t, []string{"Down", "Flat", "Up"}, Levels("ST_Slope"))
}
