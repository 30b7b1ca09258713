package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRejectsUnknownShovelReferences(t *testing.T) {
	r := &Resolved{
		Vhosts:        map[string]*Vhost{},
		Publications:  map[string]*Publication{},
		Subscriptions: map[string]*Subscription{},
		Shovels: map[string]*Shovel{
			"sh1": {Name: "sh1", Subscription: "s1", Publication: "p1"},
		},
		Counters: map[string]*Counter{},
	}
	err := Validate(r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown subscription: s1")
}

func TestValidateRejectsUnknownCounterType(t *testing.T) {
	r := &Resolved{
		Vhosts:        map[string]*Vhost{},
		Publications:  map[string]*Publication{},
		Subscriptions: map[string]*Subscription{},
		Shovels:       map[string]*Shovel{},
		Counters: map[string]*Counter{
			"c1": {Name: "c1", Type: "bogus"},
		},
	}
	err := Validate(r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown type: bogus")
}

func TestValidatePassesOnWellFormedConfig(t *testing.T) {
	r, err := ConfigureMap(Raw{
		"vhosts": Raw{
			"/": Raw{"exchanges": Raw{"e1": Raw{}}, "queues": Raw{"q1": Raw{}}},
		},
		"shovels": Raw{
			"sh1": Raw{"subscription": "/q1", "publication": "/e1"},
		},
	})
	require.NoError(t, err)
	assert.NoError(t, Validate(r))
}
