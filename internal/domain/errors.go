package domain

import (
	"errors"
	"fmt"
	"time"
)

// Error codes for different failure scenarios
const (
	ErrInvalidFormat      = "INVALID_FORMAT"
	ErrUnsupportedDrug    = "UNSUPPORTED_DRUG"
	ErrExplanationService = "EXPLANATION_SERVICE_ERROR"
	ErrStorage            = "STORAGE_ERROR"
	ErrInvalidInput       = "INVALID_INPUT"
	ErrInternalServer     = "INTERNAL_SERVER_ERROR"
)

// AnalysisError represents a standardized error response
type AnalysisError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// Error implements the error interface
func (e *AnalysisError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewAnalysisError creates a new AnalysisError with timestamp
func NewAnalysisError(code, message, details string) *AnalysisError {
	return &AnalysisError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidFormatError reports a structurally unusable VCF payload.
// Fatal to the whole parse; no partial result accompanies it.
func NewInvalidFormatError(details string) *AnalysisError {
	return NewAnalysisError(ErrInvalidFormat, "malformed or unrecognizable VCF content", details)
}

// NewUnsupportedDrugError reports a drug with no policy entry.
// Fatal only for that drug's result.
func NewUnsupportedDrugError(drug string) *AnalysisError {
	return NewAnalysisError(ErrUnsupportedDrug,
		fmt.Sprintf("no pharmacogenomic policy found for drug %q", drug), "")
}

// IsErrorCode reports whether err is an AnalysisError carrying code.
func IsErrorCode(err error, code string) bool {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}
