// Package queue defines message payloads exchanged over the message broker.
package queue

// PredictionQueueName is the RabbitMQ queue and Kafka topic default for
// PredictionCompletedEvent.
const PredictionQueueName = "prediction.completed"

// PredictionCompletedEvent is published after a prediction is served. It
// carries the outcome only; the clinical features stay in the audit store.
type PredictionCompletedEvent struct {
	PredictionID string  `json:"prediction_id"`
	Probability  float64 `json:"probability"`
	Prediction   int     `json:"prediction"`
	RiskLevel    string  `json:"risk_level"`
	ModelVersion string  `json:"model_version"`
	CreatedAt    string  `json:"created_at"`
}
