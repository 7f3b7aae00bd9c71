// Package validation scores a normalized project record against a set of
// hard gates. Gates report pass/fail but never block the pipeline.
package validation

import (
	"context"

	"requify/internal/snapshot"
)

// ProjectRecord is the normalized input handed to a Validator.
type ProjectRecord struct {
	Name     string            `json:"name"`
	Vision   string            `json:"vision"`
	Snapshot snapshot.Snapshot `json:"snapshot"`
}

// Check is one validation finding inside a gate.
type Check struct {
	Message  string `json:"message"`
	Severity string `json:"severity"` // error | warning | info
	Passed   bool   `json:"passed"`
}

// GateResult is one hard gate with its checks.
type GateResult struct {
	Gate   string  `json:"gate"`
	Passed bool    `json:"passed"`
	Checks []Check `json:"checks,omitempty"`
}

// Report is the full validation outcome.
type Report struct {
	OverallScore int          `json:"overallScore"`
	HardGates    []GateResult `json:"hardGates,omitempty"`
	Warnings     []string     `json:"warnings,omitempty"`
}

// Validator scores a project record. Implementations may call out to remote
// services; errors propagate to the caller.
type Validator interface {
	Validate(ctx context.Context, record ProjectRecord) (Report, error)
}
