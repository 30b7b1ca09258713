package counter

import "go.bryk.io/pkg/errors"

func errUnknownType(kind string) error {
	return errors.Errorf("counter: unknown type: %s", kind)
}
