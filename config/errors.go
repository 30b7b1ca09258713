package config

import "go.bryk.io/pkg/errors"

// Configuration errors are rendered as human-readable, entity-named
// messages, matching the wording callers are expected to match against.

func errUnknownVhost(name string) error {
	return errors.Errorf("Unknown vhost: %s", name)
}

func errDuplicatePublication(name string) error {
	return errors.Errorf("Duplicate publication: %s", name)
}

func errDuplicateSubscription(name string) error {
	return errors.Errorf("Duplicate subscription: %s", name)
}

func errUnknownReplyQueue(publication, queue string) error {
	return errors.Errorf("Publication: %s refers to an unknown reply queue: %s", publication, queue)
}

func errUnknownExchange(publication, exchange string) error {
	return errors.Errorf("Publication: %s refers to an unknown exchange: %s", publication, exchange)
}

func errUnknownQueue(owner, queue string) error {
	return errors.Errorf("%s refers to an unknown queue: %s", owner, queue)
}

func errAmbiguousDestination(publication string) error {
	return errors.Errorf("Publication: %s must specify exactly one of exchange or queue", publication)
}

func errNoDestination(publication string) error {
	return errors.Errorf("Publication: %s must specify exactly one of exchange or queue", publication)
}

func errUnknownShovelSubscription(shovel, subscription string) error {
	return errors.Errorf("Shovel: %s refers to an unknown subscription: %s", shovel, subscription)
}

func errUnknownShovelPublication(shovel, publication string) error {
	return errors.Errorf("Shovel: %s refers to an unknown publication: %s", shovel, publication)
}

func errUnknownCounterType(counter, kind string) error {
	return errors.Errorf("Counter: %s has unknown type: %s", counter, kind)
}

func errInvalidConnectionURL(raw string, cause error) error {
	return errors.Wrapf(cause, "invalid connection URL: %s", raw)
}

func errInvalidProtocol(protocol string) error {
	return errors.Errorf("invalid connection protocol: %s", protocol)
}

func errUnknownEncryptionProfile(owner, profile string) error {
	return errors.Errorf("%s refers to an unknown encryption profile: %s", owner, profile)
}

func errUnknownChannelPool(publication, pool string) error {
	return errors.Errorf("Publication: %s refers to an unknown channel pool: %s", publication, pool)
}
