// Package pipeline runs the batch expansion flow: one free-form product
// sentence in, a synthesized project with derived artifacts out. The flow has
// five phases; only synthesis and persistence failures abort it.
package pipeline

import (
	"fmt"
	"time"
)

// Step identifies one phase of the expansion run.
type Step string

const (
	StepSynthesis Step = "synthesis"
	StepExpansion Step = "expansion"
	StepValidate  Step = "validation"
	StepArtifacts Step = "artifacts"
	StepPersist   Step = "persist"
)

// StepStatus is reported through the progress callback.
type StepStatus string

const (
	StatusRunning  StepStatus = "running"
	StatusComplete StepStatus = "complete"
	StatusError    StepStatus = "error"
	StatusSkipped  StepStatus = "skipped"
)

// ProgressFunc receives phase transitions as they happen. Detail carries a
// short human-readable note, empty when there is nothing to add.
type ProgressFunc func(step Step, status StepStatus, detail string)

// FatalError marks an error that must abort the whole run. Synthesis and
// persistence failures are fatal; everything else degrades gracefully.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("pipeline: fatal: %v", e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// NewFatalError wraps err so callers can distinguish aborts from partial runs.
func NewFatalError(err error) *FatalError {
	return &FatalError{Err: err}
}

const (
	defaultFanOutTimeout = 2 * time.Minute
	defaultQualityFloor  = 40
)
