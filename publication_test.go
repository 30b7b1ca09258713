package rascal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeBodyContentTypeDefaults(t *testing.T) {
	body, ct, err := encodeBody([]byte("raw"))
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", ct)
	assert.Equal(t, []byte("raw"), body)

	body, ct, err = encodeBody("hello")
	require.NoError(t, err)
	assert.Equal(t, "text/plain", ct)
	assert.Equal(t, []byte("hello"), body)

	body, ct, err = encodeBody(map[string]int{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, "application/json", ct)
	assert.JSONEq(t, `{"a":1}`, string(body))
}

func TestEncodeBodyRejectsUnmarshalableValue(t *testing.T) {
	_, _, err := encodeBody(make(chan int))
	assert.Error(t, err)
}
