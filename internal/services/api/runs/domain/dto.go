// Package domain holds DTOs for runs http and service contracts
package domain

import "driftwatch/internal/core/drift"

// RunInput triggers a monitoring run for one deployment
type RunInput struct {
	ModelID     string `json:"model_id" validate:"required,min=1,max=200" example:"demo-model"`
	Environment string `json:"environment" validate:"required,min=1,max=100" example:"dev"`
}

// RunResponse is the run summary payload
type RunResponse struct {
	RunID       string        `json:"run_id"`
	ModelID     string        `json:"model_id"`
	Environment string        `json:"environment"`
	Status      string        `json:"status"`
	Published   bool          `json:"published"`
	MetricCount int           `json:"metric_count"`
	StartedAt   string        `json:"started_at"`
	FinishedAt  string        `json:"finished_at"`
	Summary     string        `json:"summary"`
	Report      *drift.Report `json:"report,omitempty"`
}

// ReportResponse wraps the latest computed report for a deployment
type ReportResponse struct {
	ModelID     string       `json:"model_id"`
	Environment string       `json:"environment"`
	GeneratedAt string       `json:"generated_at"`
	Report      drift.Report `json:"report"`
}
