package util

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaleResponseErrorCarriesSequenceDetails(t *testing.T) {
	err := NewStaleResponseError(3, 5)
	require.True(t, IsStaleResponse(err))
	assert.False(t, IsNetwork(err))

	domainErr := ToDomainError(err)
	assert.Equal(t, CodeStaleResponse, domainErr.Code)
	assert.Equal(t, uint64(3), domainErr.Details["seq"])
	assert.Equal(t, uint64(5), domainErr.Details["applied"])
}

func TestToDomainErrorWrapsUnknownErrors(t *testing.T) {
	cause := errors.New("boom")
	domainErr := ToDomainError(cause)
	assert.Equal(t, CodeInternal, domainErr.Code)
	assert.ErrorIs(t, domainErr, cause)
}

func TestHasCodeSeesThroughWrapping(t *testing.T) {
	err := fmt.Errorf("sending: %w", NewTerminalStateError("CERRADO"))
	assert.True(t, IsTerminalState(err))
	assert.False(t, HasCode(errors.New("plain"), CodeTerminalState))
}
