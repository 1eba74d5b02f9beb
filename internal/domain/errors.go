package domain

import (
	"errors"
	"fmt"
)

var (
	ErrMissingCredential = errors.New("analysis credential is not configured")
	ErrEmptyInput        = errors.New("transcript is empty")
	ErrAnalysisInFlight  = errors.New("analysis already in progress for this session")
	ErrInvalidTransition = errors.New("invalid session state transition")
	ErrAnalysisService   = errors.New("analysis service error")
)

// AnalysisServiceError is a transport or upstream failure from the
// text-generation collaborator.
type AnalysisServiceError struct {
	Message string
	Err     error
}

func (e *AnalysisServiceError) Error() string {
	if e.Err == nil {
		return "analysis service: " + e.Message
	}
	return fmt.Sprintf("analysis service: %s: %v", e.Message, e.Err)
}

func (e *AnalysisServiceError) Unwrap() error { return e.Err }

func (e *AnalysisServiceError) Is(target error) bool { return target == ErrAnalysisService }

// PersistenceError reports a failed read or write in the key-value collaborator.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
