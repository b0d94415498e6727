// Package types contains common types used across the application
package types

import "time"

// Entry represents a leaderboard entry
type Entry struct {
	Team         string  `json:"team"`
	Model        string  `json:"model"`
	FullContext  float64 `json:"fullContext"`
	GoldEvidence float64 `json:"goldEvidence"`
	Delta        float64 `json:"delta"`
	Date         string  `json:"date"`
}

// ComputeDelta returns goldEvidence minus fullContext.
func ComputeDelta(fullContext, goldEvidence float64) float64 {
	return goldEvidence - fullContext
}

// Health status values.
const (
	HealthOK       = "ok"
	HealthDegraded = "degraded"
)

// Health is the outcome of a health probe.
type Health struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Store     string    `json:"store"`
	Error     string    `json:"error,omitempty"`
}
