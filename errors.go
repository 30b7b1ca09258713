package rascal

import "go.bryk.io/pkg/errors"

// Operational errors surface to the caller of the originating verb, or
// are emitted on the affected Publication/Session. The broker does not
// self-recover from these; the wording mirrors the config package's
// configuration-time errors for consistency.

func errUnknownPublication(name string) error {
	return errors.Errorf("Unknown publication: %s", name)
}

func errUnknownSubscription(name string) error {
	return errors.Errorf("Unknown subscription: %s", name)
}

func errUnknownVhost(name string) error {
	return errors.Errorf("Unknown vhost: %s", name)
}

func errUnknownShovel(name string) error {
	return errors.Errorf("Unknown shovel: %s", name)
}

func errNotConnectedVhost(name string) error {
	return errors.Errorf("vhost not connected: %s", name)
}

func errEncryptionFailed(publication string, cause error) error {
	return errors.Wrapf(cause, "publication: %s encryption failed", publication)
}

func errUnsupportedPayload(publication string) error {
	return errors.Errorf("publication: %s received an unsupported payload type", publication)
}

func errBrokerShuttingDown() error {
	return errors.New("broker is shutting down")
}
