package cipher

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey64Hex = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

func TestEncryptDecryptRoundTrip(t *testing.T) {
	p, err := New(Config{Name: "default", Key: testKey64Hex, IVLength: 16, Algorithm: "aes-256-cbc"})
	require.NoError(t, err)

	ciphertext, iv, err := p.Encrypt([]byte("test message"))
	require.NoError(t, err)
	assert.Len(t, hex.EncodeToString(iv), 32) // 16 raw bytes -> 32 hex chars, matching the wire encoding

	plaintext, err := p.Decrypt(ciphertext, iv)
	require.NoError(t, err)
	assert.Equal(t, "test message", string(plaintext))
}

func TestInvalidKeyLength(t *testing.T) {
	_, err := New(Config{Name: "default", Key: "abcd", IVLength: 16, Algorithm: "aes-256-cbc"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrInvalidKeyLength)
}

func TestUnsupportedAlgorithm(t *testing.T) {
	_, err := New(Config{Name: "default", Key: testKey64Hex, Algorithm: "des-ede3-cbc"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrUnsupportedCipher)
}
