package drift

import "fmt"

// DataResult is the outcome of one data drift detection
type DataResult struct {
	Detected         bool     `json:"detected"`
	Score            float64  `json:"score"`
	AffectedFeatures []string `json:"affected_features"`
	PValue           float64  `json:"p_value"`
	TopPValue        float64  `json:"top_p_value"`
}

// ConceptResult is the outcome of one concept drift detection
type ConceptResult struct {
	Detected         bool    `json:"detected"`
	Score            float64 `json:"score"`
	CurrentAccuracy  float64 `json:"current_accuracy"`
	BaselineAccuracy float64 `json:"baseline_accuracy"`
}

// PredictionResult is the outcome of one prediction drift detection
type PredictionResult struct {
	Detected     bool    `json:"detected"`
	Score        float64 `json:"score"`
	CurrentMean  float64 `json:"current_mean"`
	BaselineMean float64 `json:"baseline_mean"`
}

// Report maps each drift kind to its result for one monitoring run.
// Built fresh per run and never mutated after construction; there are no
// partial reports, a run either yields all three results or fails
type Report struct {
	Data       DataResult       `json:"data_drift"`
	Concept    ConceptResult    `json:"concept_drift"`
	Prediction PredictionResult `json:"prediction_drift"`
}

// NewReport combines the three detection results into a report
func NewReport(data DataResult, concept ConceptResult, prediction PredictionResult) Report {
	return Report{Data: data, Concept: concept, Prediction: prediction}
}

// Summary renders which detectors fired
func (r Report) Summary() string {
	return fmt.Sprintf("data drift: %t, concept drift: %t, prediction drift: %t",
		r.Data.Detected, r.Concept.Detected, r.Prediction.Detected)
}

// Detected reports whether any of the three detectors fired
func (r Report) Detected() bool {
	return r.Data.Detected || r.Concept.Detected || r.Prediction.Detected
}
