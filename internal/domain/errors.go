package domain

import (
	"errors"
)

// Sentinel errors - use with errors.Is()
var (
	// ErrNotFound indicates a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a record that must be unique already exists.
	ErrConflict = errors.New("already exists")

	// ErrValidation indicates malformed input, rejected before any write.
	ErrValidation = errors.New("validation failed")

	// ErrUnauthorized indicates a missing or wrong admin token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrExhaustedPool indicates every AI credential is inside its failure
	// cooldown. Surfaced to participants as transient unavailability.
	ErrExhaustedPool = errors.New("all credentials exhausted")

	// ErrGenerationUnavailable indicates the AI call failed after retrying
	// across credentials. Retryable by re-invoking the same step.
	ErrGenerationUnavailable = errors.New("generation unavailable")

	// ErrGenerationRejected indicates a non-retryable provider failure
	// (malformed prompt, content violation).
	ErrGenerationRejected = errors.New("generation rejected")

	// ErrPersistenceUnavailable indicates the store was unreachable after
	// bounded retries. Fatal for the current request only; transitions are
	// idempotent so the participant may safely retry the action.
	ErrPersistenceUnavailable = errors.New("persistence unavailable")

	// ErrAlreadyCompleted indicates a duplicate questionnaire submission for
	// a participant whose study is already complete.
	ErrAlreadyCompleted = errors.New("study already completed")

	// ErrSessionClosed indicates an interaction with an abandoned session.
	ErrSessionClosed = errors.New("session closed")
)
