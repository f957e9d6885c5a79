package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompatibilityTable_EmptyMeansAlwaysCompatible(t *testing.T) {
	table, err := NewCompatibilityTable(nil)
	require.NoError(t, err)

	ok, err := table.Compatible(1, 2)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCompatibilityTable_FirstMatchingRuleWins(t *testing.T) {
	table, err := NewCompatibilityTable([]string{"from == to", "from == 1 && to == 2"})
	require.NoError(t, err)

	ok, err := table.Compatible(1, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = table.Compatible(1, 3)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCompatibilityTable_CompileError(t *testing.T) {
	_, err := NewCompatibilityTable([]string{"from +++ to"})
	assert.Error(t, err)
}
