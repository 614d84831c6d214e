package domain

import "time"

// PredictionPoint is one element of a forecast series. Historical points
// carry IsProjected=false, model-generated points IsProjected=true.
type PredictionPoint struct {
	Date        time.Time `json:"date"`
	Amount      float64   `json:"amount"`
	IsProjected bool      `json:"isProjected"`
}

// Forecast is the normalized output of the prediction backend. Confidence
// is advisory metadata in [0, 100], not a statistical contract.
type Forecast struct {
	Points             []PredictionPoint `json:"predictedDonations"`
	GoalCompletionDate time.Time         `json:"goalCompletionDate,omitzero"`
	ConfidenceScore    int               `json:"confidenceScore"`
	GeneratedAt        time.Time         `json:"generatedAt"`
}
