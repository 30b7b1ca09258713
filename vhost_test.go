package rascal

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rascal-go/rascal/config"
	"go.bryk.io/pkg/log"
)

func newTestRuntimeVhost(n int) *runtimeVhost {
	cfg := &config.Vhost{Name: "/", Connections: make([]*config.Connection, n)}
	return newRuntimeVhost(cfg, log.Discard())
}

func TestFailoverOrderStartsAfterActive(t *testing.T) {
	v := newTestRuntimeVhost(4)
	v.active = 1
	assert.Equal(t, []int{2, 3, 0, 1}, v.failoverOrder())
}

func TestFailoverOrderWrapsFromLastIndex(t *testing.T) {
	v := newTestRuntimeVhost(3)
	v.active = 2
	assert.Equal(t, []int{0, 1, 2}, v.failoverOrder())
}

func TestFailoverOrderSingleConnection(t *testing.T) {
	v := newTestRuntimeVhost(1)
	assert.Equal(t, []int{0}, v.failoverOrder())
}
