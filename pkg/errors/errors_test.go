package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	err := NewDirectoryLoadFailedError("Failed to load data: 503", fmt.Errorf("upstream"))
	assert.Equal(t, "DIRECTORY_LOAD_FAILED: Failed to load data: 503: upstream", err.Error())

	forbidden := NewForbiddenError("Forbidden")
	assert.Equal(t, "FORBIDDEN: Forbidden", forbidden.Error())
}

func TestIs_MatchesWrappedAppError(t *testing.T) {
	inner := NewBookingSubmissionFailedError("Request failed (500)", nil)
	wrapped := fmt.Errorf("book: %w", inner)

	assert.True(t, Is(wrapped, ErrorTypeBookingSubmissionFailed))
	assert.False(t, Is(wrapped, ErrorTypeForbidden))
	assert.False(t, Is(fmt.Errorf("plain"), ErrorTypeForbidden))
	assert.False(t, Is(nil, ErrorTypeForbidden))
}
