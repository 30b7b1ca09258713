package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeKeyedFromSequenceOfStrings(t *testing.T) {
	out := normalizeKeyed([]interface{}{"a", "b"})
	require.Len(t, out, 2)
	assert.Equal(t, "a", out["a"].(Raw)["name"])
	assert.Equal(t, "b", out["b"].(Raw)["name"])
}

func TestNormalizeKeyedFromSequenceOfObjects(t *testing.T) {
	out := normalizeKeyed([]interface{}{Raw{"name": "a", "type": "x"}})
	require.Len(t, out, 1)
	assert.Equal(t, "a", out["a"].(Raw)["name"])
	assert.Equal(t, "x", out["a"].(Raw)["type"])
}

func TestNormalizeKeyedAnonymousEntryGetsUnnamedKey(t *testing.T) {
	out := normalizeKeyed([]interface{}{Raw{"type": "x"}})
	require.Len(t, out, 1)
	for k, v := range out {
		assert.True(t, strings.HasPrefix(k, "unnamed-"))
		assert.Equal(t, k, v.(Raw)["name"])
	}
}

func TestNormalizeKeyedFromMapping(t *testing.T) {
	out := normalizeKeyed(Raw{"a": Raw{"type": "x"}})
	require.Len(t, out, 1)
	assert.Equal(t, "a", out["a"].(Raw)["name"])
}

func TestNormalizeKeyedEmpty(t *testing.T) {
	assert.Empty(t, normalizeKeyed(nil))
}
