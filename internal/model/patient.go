// Package model holds the patient, prediction and audit types shared by
// the API, the predictor and the audit store.
package model

// PatientRecord is one validated set of clinical features. JSON names match
// the column names of the training dataset so records round-trip through
// the API and the audit log unchanged.
//
// Fields:
//	Age            – age in years.
//	Sex            – M or F.
//	ChestPainType  – ATA, NAP, ASY or TA.
//	RestingBP      – resting blood pressure in mm Hg.
//	Cholesterol    – serum cholesterol in mg/dl.
//	FastingBS      – 1 when fasting blood sugar > 120 mg/dl, else 0.
//	RestingECG     – Normal, ST or LVH.
//	MaxHR          – maximum heart rate achieved.
//	ExerciseAngina – exercise induced angina, Y or N.
//	Oldpeak        – ST depression.
//	STSlope        – slope of the peak exercise ST segment, Up, Flat or Down.
type PatientRecord struct {
	Age            int     `json:"Age"`
	Sex            string  `json:"Sex"`
	ChestPainType  string  `json:"ChestPainType"`
	RestingBP      int     `json:"RestingBP"`
	Cholesterol    int     `json:"Cholesterol"`
	FastingBS      int     `json:"FastingBS"`
	RestingECG     string  `json:"RestingECG"`
	MaxHR          int     `json:"MaxHR"`
	ExerciseAngina string  `json:"ExerciseAngina"`
	Oldpeak        float64 `json:"Oldpeak"`
	STSlope        string  `json:"ST_Slope"`
}
