package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestUserIDFromContextDefault verifies the default user ID (1) when no value
// is set in the context.
func TestUserIDFromContextDefault(t *testing.T) {
	assert.Equal(t, 1, UserIDFromContext(context.Background()))
}

// TestUserIDFromContextSet verifies the user ID is extracted from context
// after being set by WithUserID.
func TestUserIDFromContextSet(t *testing.T) {
	assert.Equal(t, 42, UserIDFromContext(WithUserID(context.Background(), 42)))
}

// TestOptionalRange verifies open sides, both date formats and invalid input.
func TestOptionalRange(t *testing.T) {
	start, end, err := optionalRange("", "")
	require.NoError(t, err)
	assert.True(t, start.IsZero())
	assert.True(t, end.IsZero())

	start, end, err = optionalRange("2024-01-01", "2024-06-15T10:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, 1, start.Day())
	assert.Equal(t, 10, end.Hour())
	assert.Equal(t, 30, end.Minute())

	_, _, err = optionalRange("not-a-date", "")
	assert.Error(t, err)
}
