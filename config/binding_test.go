package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBindingName(t *testing.T) {
	source, destination, keys, ok := parseBindingName("e1[ k1, k2 ]-> q1")
	assert.True(t, ok)
	assert.Equal(t, "e1", source)
	assert.Equal(t, "q1", destination)
	assert.Equal(t, []string{"k1", "k2"}, keys)
}

func TestParseBindingNameNoKeys(t *testing.T) {
	source, destination, keys, ok := parseBindingName("e1 -> q1")
	assert.True(t, ok)
	assert.Equal(t, "e1", source)
	assert.Equal(t, "q1", destination)
	assert.Empty(t, keys)
}

func TestExpandBindingSingleKey(t *testing.T) {
	bindings := expandBinding("e1-> q1", Raw{"bindingKey": "k1"}, "")
	assert.Len(t, bindings, 1)
	assert.Equal(t, "k1", bindings[0].BindingKey)
	assert.Equal(t, "e1-> q1", bindings[0].Name)
}

func TestExpandBindingQualifiesKeys(t *testing.T) {
	bindings := expandBinding("e1[ k1 ]-> q1", Raw{"qualifyBindingKeys": true}, "ns")
	assert.Len(t, bindings, 1)
	assert.Equal(t, "ns:k1", bindings[0].BindingKey)
}

func TestParseShovelName(t *testing.T) {
	sub, pub, ok := parseShovelName("s1 -> p1")
	assert.True(t, ok)
	assert.Equal(t, "s1", sub)
	assert.Equal(t, "p1", pub)
}
