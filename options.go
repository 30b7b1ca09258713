package rascal

import (
	"github.com/rascal-go/rascal/cipher"
	"github.com/rascal-go/rascal/counter"
	xlog "go.bryk.io/pkg/log"
)

// Option adjusts a Broker's optional components before Create finishes
// assembling it. The zero-value Broker uses a discard logger, the
// registered counter factories and the built-in cipher provider.
type Option func(*Broker) error

// WithLogger sets the logger instance used for all broker activity.
// If not set, log.Discard() is used.
func WithLogger(l xlog.Logger) Option {
	return func(b *Broker) error {
		b.log = l
		return nil
	}
}

// WithCounterFactory registers a redelivery counter implementation under
// `name`, making it available to any counter declaration whose resolved
// `type` matches. This is the `components` override mentioned for
// create(config, components): it lets a caller provide, e.g., a
// clustered counter backed by an external store.
func WithCounterFactory(name string, factory counter.Factory) Option {
	return func(b *Broker) error {
		counter.Register(name, factory)
		return nil
	}
}

// WithCipherProvider overrides the factory used to build the encryption
// Provider for a named cipher algorithm spec. The default is the
// package's own AES-CBC implementation.
func WithCipherProvider(build func(cipher.Config) (cipher.Provider, error)) Option {
	return func(b *Broker) error {
		b.newCipher = build
		return nil
	}
}

// WithPrefetch sets the channel QoS prefetch count used when Connect,
// Purge, Nuke or Bounce opens a vhost's link. The vhost's concurrency
// setting is not read.
func WithPrefetch(count int) Option {
	return func(b *Broker) error {
		b.prefetch = count
		return nil
	}
}

// WithName sets the broker's name. The name is stored on the Broker
// only; it is not sent as an AMQP connection property and does not
// appear in log output.
func WithName(name string) Option {
	return func(b *Broker) error {
		b.name = name
		return nil
	}
}
