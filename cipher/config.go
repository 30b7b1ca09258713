// Package cipher implements the symmetric encryption provider assumed
// by the configuration-expansion engine's publication/subscription
// encryption profiles: a one-shot encrypt/decrypt call rather than a
// streaming protocol.
package cipher

import (
	"encoding/hex"

	"go.bryk.io/pkg/errors"
)

// Error messages. New returns "Invalid key length" when the decoded key
// does not fit the algorithm. The broker builds a publication's provider
// in Create, so a profile with such a key makes Create fail; the error is
// not returned by a publish call.
const (
	ErrInvalidKeyLength   = "Invalid key length"
	ErrUnsupportedCipher  = "cipher: unsupported algorithm"
	ErrInvalidKeyEncoding = "cipher: key is not valid hex"
)

// Config mirrors an encryption profile: a named symmetric cipher
// configuration with a hex-encoded key and a configurable IV length.
type Config struct {
	Name      string
	Key       string
	IVLength  int
	Algorithm string
}

// Validate checks the configuration against common setup errors before
// a Provider is built from it.
func (c *Config) Validate() error {
	if _, ok := supportedAlgorithms[c.Algorithm]; !ok {
		return errors.New(ErrUnsupportedCipher)
	}
	key, err := hex.DecodeString(c.Key)
	if err != nil {
		return errors.New(ErrInvalidKeyEncoding)
	}
	if len(key) != supportedAlgorithms[c.Algorithm].keySize {
		return errors.New(ErrInvalidKeyLength)
	}
	if c.IVLength <= 0 {
		c.IVLength = supportedAlgorithms[c.Algorithm].ivSize
	}
	return nil
}
