package typeid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCarriesPrefix(t *testing.T) {
	id := NewEntityID()
	assert.True(t, strings.HasPrefix(id, PrefixEntity+"_"), id)
	require.NoError(t, Validate(id, PrefixEntity))
	assert.Error(t, Validate(id, PrefixKeyframe))
}

func TestNewIsUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewKeyframeID()
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	assert.Error(t, Validate("not an id", PrefixEntity))
}
