package models

import "time"

// Confidence is the naive band around a point prediction.
type Confidence struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type PredictionResponse struct {
	Success        bool       `json:"success"`
	PredictedPrice float64    `json:"predicted_price"`
	FormattedPrice string     `json:"formatted_price"`
	Currency       string     `json:"currency"`
	Confidence     Confidence `json:"confidence"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type HealthResponse struct {
	Status      string    `json:"status"`
	ModelLoaded bool      `json:"model_loaded"`
	Time        time.Time `json:"time"`
}
