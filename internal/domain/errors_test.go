package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalysisError_Error(t *testing.T) {
	err := NewAnalysisError(ErrStorage, "write failed", "disk full")

	assert.Equal(t, "STORAGE_ERROR: write failed", err.Error())
	assert.Equal(t, "disk full", err.Details)
	assert.False(t, err.Timestamp.IsZero())
}

func TestIsErrorCode(t *testing.T) {
	invalidFormat := NewInvalidFormatError("missing header")
	unsupported := NewUnsupportedDrugError("aspirin")

	assert.True(t, IsErrorCode(invalidFormat, ErrInvalidFormat))
	assert.False(t, IsErrorCode(invalidFormat, ErrUnsupportedDrug))
	assert.True(t, IsErrorCode(unsupported, ErrUnsupportedDrug))

	// Wrapped errors still match
	wrapped := fmt.Errorf("extracting variants: %w", invalidFormat)
	assert.True(t, IsErrorCode(wrapped, ErrInvalidFormat))

	// Non-AnalysisError never matches
	assert.False(t, IsErrorCode(fmt.Errorf("plain error"), ErrInvalidFormat))
	assert.False(t, IsErrorCode(nil, ErrInvalidFormat))
}

func TestNewUnsupportedDrugError_Message(t *testing.T) {
	err := NewUnsupportedDrugError("aspirin")
	assert.Contains(t, err.Message, `"aspirin"`)
}
