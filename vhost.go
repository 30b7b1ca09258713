package rascal

import (
	"sync"

	"github.com/rascal-go/rascal/config"
	"go.bryk.io/pkg/errors"
	xlog "go.bryk.io/pkg/log"
)

// runtimeVhost owns the links for a single resolved config.Vhost and
// implements failover across its connection list: when the active link
// reports itself not ready, the next connect attempt walks the sorted
// connection list starting just after the failed entry, wrapping
// around, trying each host until one succeeds.
type runtimeVhost struct {
	cfg   *config.Vhost
	log   xlog.Logger
	name  string

	mu      sync.Mutex
	active  int // index into cfg.Connections of the current link
	current *link
}

func newRuntimeVhost(cfg *config.Vhost, log xlog.Logger) *runtimeVhost {
	return &runtimeVhost{cfg: cfg, log: log.WithField("vhost", cfg.Name), name: cfg.Name}
}

// connect opens a link against the vhost's current connection, or the
// next one in the failover order if called after a failure.
func (v *runtimeVhost) connect(prefetch int) (*link, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if len(v.cfg.Connections) == 0 {
		return nil, errors.Errorf("vhost: %s has no connections configured", v.name)
	}
	if v.current != nil && v.current.isReady() {
		return v.current, nil
	}

	order := v.failoverOrder()
	if v.current == nil {
		// no link has failed yet: try the current connection first
		order = append([]int{v.active}, order[:len(order)-1]...)
	}
	var lastErr error
	for _, idx := range order {
		conn := v.cfg.Connections[idx]
		l := openLink(v.name, conn.URL, v.cfg, v.log, prefetch)
		if waitReady(l) {
			v.active = idx
			v.current = l
			return l, nil
		}
		lastErr = errors.Errorf("vhost: %s failed to connect to %s", v.name, conn.LoggableURL)
		_ = l.close()
	}
	return nil, lastErr
}

// failoverOrder returns connection indexes starting just after the
// currently active one, wrapping around to cover the full list once.
func (v *runtimeVhost) failoverOrder() []int {
	n := len(v.cfg.Connections)
	order := make([]int, 0, n)
	for i := 1; i <= n; i++ {
		order = append(order, (v.active+i)%n)
	}
	return order
}

// activeConnection reports the index into cfg.Connections of the
// vhost's current connection attempt and whether its link is up.
func (v *runtimeVhost) activeConnection() (int, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.active, v.current != nil && v.current.isReady()
}

func (v *runtimeVhost) close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.current == nil {
		return nil
	}
	err := v.current.close()
	v.current = nil
	return err
}

// waitReady blocks on a freshly opened link's first status notification,
// reporting whether it came up successfully.
func waitReady(l *link) bool {
	ok, valid := <-l.status
	return valid && ok
}
