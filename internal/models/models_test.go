package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringArrayRoundTrip(t *testing.T) {
	value, err := StringArray{"a", "b"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["a","b"]`, value)

	empty, err := StringArray(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", empty)

	var scanned StringArray
	require.NoError(t, scanned.Scan([]byte(`["x"]`)))
	assert.Equal(t, StringArray{"x"}, scanned)

	require.NoError(t, scanned.Scan(nil))
	assert.Empty(t, scanned)

	assert.Error(t, scanned.Scan(42))
	assert.Error(t, scanned.Scan("not json"))
}

func TestBaseBeforeCreateAssignsID(t *testing.T) {
	b := &Base{}
	require.NoError(t, b.BeforeCreate(nil))
	assert.Len(t, b.ID, 36)

	fixed := &Base{ID: "keep"}
	require.NoError(t, fixed.BeforeCreate(nil))
	assert.Equal(t, "keep", fixed.ID)
}
