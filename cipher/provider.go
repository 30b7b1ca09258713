package cipher

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"io"

	"go.bryk.io/pkg/errors"
)

// algorithmSpec describes the key/IV sizing a named cipher spec string
// requires, e.g. "aes-256-cbc".
type algorithmSpec struct {
	keySize int
	ivSize  int
	factory func(key []byte) (cipher.Block, error)
}

var supportedAlgorithms = map[string]algorithmSpec{
	"aes-128-cbc": {keySize: 16, ivSize: aes.BlockSize, factory: aes.NewCipher},
	"aes-192-cbc": {keySize: 24, ivSize: aes.BlockSize, factory: aes.NewCipher},
	"aes-256-cbc": {keySize: 32, ivSize: aes.BlockSize, factory: aes.NewCipher},
}

// Provider encrypts and decrypts one-shot payloads under a single named
// profile, registered against the broker as part of its component
// overrides.
type Provider interface {
	// Encrypt returns ciphertext and the IV used to produce it.
	Encrypt(plaintext []byte) (ciphertext, iv []byte, err error)
	// Decrypt reverses Encrypt given the IV that accompanied the message.
	Decrypt(ciphertext, iv []byte) ([]byte, error)
}

type aesCBCProvider struct {
	cfg   Config
	key   []byte
	block cipher.Block
}

// New builds a Provider from a profile configuration, validating it
// first.
func New(cfg Config) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	key, err := hex.DecodeString(cfg.Key)
	if err != nil {
		return nil, errors.New(ErrInvalidKeyEncoding)
	}
	spec := supportedAlgorithms[cfg.Algorithm]
	block, err := spec.factory(key)
	if err != nil {
		return nil, errors.Wrap(err, "cipher: failed to build block cipher")
	}
	return &aesCBCProvider{cfg: cfg, key: key, block: block}, nil
}

func (p *aesCBCProvider) Encrypt(plaintext []byte) ([]byte, []byte, error) {
	iv := make([]byte, p.cfg.IVLength)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, nil, errors.Wrap(err, "cipher: failed to generate iv")
	}

	padded := pkcs7Pad(plaintext, p.block.BlockSize())
	ciphertext := make([]byte, len(padded))
	mode := cipher.NewCBCEncrypter(p.block, iv[:p.block.BlockSize()])
	mode.CryptBlocks(ciphertext, padded)
	return ciphertext, iv, nil
}

func (p *aesCBCProvider) Decrypt(ciphertext, iv []byte) ([]byte, error) {
	if len(iv) < p.block.BlockSize() {
		return nil, errors.New("cipher: iv too short")
	}
	if len(ciphertext)%p.block.BlockSize() != 0 {
		return nil, errors.New("cipher: ciphertext is not a multiple of the block size")
	}
	plaintext := make([]byte, len(ciphertext))
	mode := cipher.NewCBCDecrypter(p.block, iv[:p.block.BlockSize()])
	mode.CryptBlocks(plaintext, ciphertext)
	return pkcs7Unpad(plaintext)
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}
	return padded
}

func pkcs7Unpad(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("cipher: empty ciphertext")
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > len(data) {
		return nil, errors.New("cipher: invalid padding")
	}
	return data[:len(data)-padLen], nil
}
