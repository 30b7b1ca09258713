package rascal

import (
	"sync"
	"time"

	"github.com/rascal-go/rascal/cipher"
	"github.com/rascal-go/rascal/config"
	"github.com/rascal-go/rascal/counter"
	"go.bryk.io/pkg/errors"
	xlog "go.bryk.io/pkg/log"
)

// Broker is the facade applications use: it owns the vhost links and
// the named Publications, Subscriptions and Shovels built from a
// resolved configuration tree. Create performs initialization
// leaf-first: counters, then vhosts, then publications, subscriptions
// and shovels.
type Broker struct {
	cfg  *config.Resolved
	log  xlog.Logger
	name string

	prefetch  int
	newCipher func(cipher.Config) (cipher.Provider, error)

	vhosts        map[string]*runtimeVhost
	publications  map[string]*Publication
	subscriptions map[string]*Subscription
	shovels       map[string]*Shovel
	counters      map[string]counter.Counter

	mu       sync.Mutex
	shutdown bool
}

// Create builds and initializes a Broker from a resolved configuration
// tree. Use config.Configure or config.ConfigureMap to produce one from
// user-supplied YAML/JSON. Component overrides (counter factories,
// cipher providers, logger) are supplied as Options.
func Create(cfg *config.Resolved, opts ...Option) (*Broker, error) {
	b := &Broker{
		cfg:           cfg,
		log:           xlog.Discard(),
		newCipher:     cipher.New,
		vhosts:        map[string]*runtimeVhost{},
		publications:  map[string]*Publication{},
		subscriptions: map[string]*Subscription{},
		shovels:       map[string]*Shovel{},
		counters:      map[string]counter.Counter{},
	}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}

	if err := b.initCounters(); err != nil {
		return nil, err
	}
	b.initVhosts()
	if err := b.initPublications(); err != nil {
		return nil, err
	}
	if err := b.initSubscriptions(); err != nil {
		return nil, err
	}
	if err := b.initShovels(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Broker) initCounters() error {
	for name, c := range b.cfg.Counters {
		instance, err := counter.New(c.Type, c.Options)
		if err != nil {
			return err
		}
		b.counters[name] = instance
	}
	return nil
}

func (b *Broker) initVhosts() {
	for name, v := range b.cfg.Vhosts {
		b.vhosts[name] = newRuntimeVhost(v, b.log)
	}
}

func (b *Broker) initPublications() error {
	for name, p := range b.cfg.Publications {
		vhost, ok := b.vhosts[p.Vhost]
		if !ok {
			return errUnknownVhost(p.Vhost)
		}
		var prov cipher.Provider
		if p.Encryption != nil {
			var err error
			prov, err = b.newCipher(cipher.Config{
				Name:      p.Encryption.Name,
				Key:       p.Encryption.Key,
				IVLength:  p.Encryption.IVLength,
				Algorithm: p.Encryption.Algorithm,
			})
			if err != nil {
				return err
			}
		}
		b.publications[name] = newPublication(p, vhost, prov, b.log)
	}
	return nil
}

func (b *Broker) initSubscriptions() error {
	for name, s := range b.cfg.Subscriptions {
		vhost, ok := b.vhosts[s.Vhost]
		if !ok {
			return errUnknownVhost(s.Vhost)
		}
		ctr := b.redeliveryCounter(s)
		b.subscriptions[name] = newSubscription(s, vhost, ctr, b.log)
	}
	return nil
}

// redeliveryCounter resolves the counter instance a subscription's
// redeliveries block refers to, if any.
func (b *Broker) redeliveryCounter(s *config.Subscription) counter.Counter {
	if s.Redeliveries == nil {
		return nil
	}
	name, _ := s.Redeliveries["counter"].(string)
	if name == "" {
		return nil
	}
	return b.counters[name]
}

func (b *Broker) initShovels() error {
	for name, sh := range b.cfg.Shovels {
		sub, ok := b.subscriptions[sh.Subscription]
		if !ok {
			return errors.Errorf("shovel: %s refers to an unknown subscription: %s", name, sh.Subscription)
		}
		pub, ok := b.publications[sh.Publication]
		if !ok {
			return errors.Errorf("shovel: %s refers to an unknown publication: %s", name, sh.Publication)
		}
		instance := newShovel(sh, sub, pub, b.log)
		if err := instance.start(); err != nil {
			return err
		}
		b.shovels[name] = instance
	}
	return nil
}

// Connect eagerly establishes the link for a named vhost, returning an
// error if the vhost is unknown or cannot be reached.
func (b *Broker) Connect(vhostName string) error {
	v, ok := b.vhosts[vhostName]
	if !ok {
		return errUnknownVhost(vhostName)
	}
	_, err := v.connect(b.prefetch)
	return err
}

// GetFullyQualifiedName returns the fully qualified name a vhost's
// namespace resolves a bare entity name to.
func (b *Broker) GetFullyQualifiedName(vhostName, name string) (string, error) {
	v, ok := b.cfg.Vhosts[vhostName]
	if !ok {
		return "", errUnknownVhost(vhostName)
	}
	if ex, ok := v.Exchanges[name]; ok {
		return ex.FullyQualifiedName, nil
	}
	if q, ok := v.Queues[name]; ok {
		return q.FullyQualifiedName, nil
	}
	return "", errors.Errorf("unknown entity: %s in vhost: %s", name, vhostName)
}

// Publish sends message through the named publication.
func (b *Broker) Publish(name string, message interface{}, overrides *Overrides) (*PublishResult, error) {
	p, ok := b.publications[name]
	if !ok {
		return nil, errUnknownPublication(name)
	}
	return p.Publish(message, overrides)
}

// Forward shovels a single already-received delivery to the named
// publication, stamping headers that record where it originally came
// from, per the forwarding contract. originalQueue is the name of the
// queue the delivery was consumed from (a Delivery carries its
// originating exchange and routing key, but not its queue).
func (b *Broker) Forward(name, originalQueue string, d Delivery, overrides *Overrides) (*PublishResult, error) {
	p, ok := b.publications[name]
	if !ok {
		return nil, errUnknownPublication(name)
	}
	if overrides == nil {
		overrides = &Overrides{}
	}
	restore := overrides.RestoreRoutingHeaders
	overrides.Headers = forwardHeaders(d, originalQueue, restore)
	if overrides.RoutingKey == "" {
		overrides.RoutingKey = d.RoutingKey
	}
	return p.Publish(d.Body, overrides)
}

// forwardHeaders stamps the original-routing headers a forwarded
// message carries so a downstream consumer can recover where it
// originally came from. rascal.restoreRoutingHeaders defaults to
// false; callers opt in via Overrides.RestoreRoutingHeaders.
func forwardHeaders(d Delivery, originalQueue string, restoreRoutingHeaders bool) map[string]interface{} {
	headers := map[string]interface{}{}
	for k, v := range d.Headers {
		headers[k] = v
	}
	headers["rascal.originalQueue"] = originalQueue
	headers["rascal.originalRoutingKey"] = d.RoutingKey
	headers["rascal.originalExchange"] = d.Exchange
	headers["rascal.restoreRoutingHeaders"] = restoreRoutingHeaders
	return headers
}

// Subscribe opens a delivery session against the named subscription.
func (b *Broker) Subscribe(name string, onMsg func(Delivery), onErr func(error), onClose func()) (*Session, error) {
	s, ok := b.subscriptions[name]
	if !ok {
		return nil, errUnknownSubscription(name)
	}
	return s.Subscribe(onMsg, onErr, onClose)
}

// SubscribeAll opens a delivery session on every subscription for which
// filter returns true, or every subscription if filter is nil.
func (b *Broker) SubscribeAll(filter func(name string) bool, onMsg func(string, Delivery), onErr func(string, error)) ([]*Session, error) {
	var sessions []*Session
	for name, s := range b.subscriptions {
		if filter != nil && !filter(name) {
			continue
		}
		n := name
		sess, err := s.Subscribe(
			func(d Delivery) { onMsg(n, d) },
			func(err error) {
				if onErr != nil {
					onErr(n, err)
				}
			},
			nil,
		)
		if err != nil {
			for _, opened := range sessions {
				opened.cancel()
			}
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, nil
}

// UnsubscribeAll cancels every active session across every subscription,
// then blocks for the longest deferCloseChannel horizon reported by any
// of the cancelled sessions, giving their in-flight channel closes time
// to complete before this call returns.
func (b *Broker) UnsubscribeAll() {
	var maxDefer time.Duration
	for _, s := range b.subscriptions {
		if d := s.UnsubscribeAll(); d > maxDefer {
			maxDefer = d
		}
	}
	if maxDefer > 0 {
		time.Sleep(maxDefer)
	}
}

// ConnectionStatus reports one configured connection's loggable URLs
// and whether it is the vhost's currently active, ready connection.
type ConnectionStatus struct {
	LoggableURL           string
	ManagementLoggableURL string
	Connected             bool
}

// GetConnections returns, for every vhost, the status of each of its
// configured connections in failover order. Useful for health checks.
func (b *Broker) GetConnections() map[string][]ConnectionStatus {
	out := make(map[string][]ConnectionStatus, len(b.vhosts))
	for name, v := range b.vhosts {
		cfg := b.cfg.Vhosts[name]
		active, ready := v.activeConnection()
		statuses := make([]ConnectionStatus, 0, len(cfg.Connections))
		for i, c := range cfg.Connections {
			statuses = append(statuses, ConnectionStatus{
				LoggableURL:           c.LoggableURL,
				ManagementLoggableURL: c.Management.LoggableURL,
				Connected:             ready && i == active,
			})
		}
		out[name] = statuses
	}
	return out
}

// Purge removes all messages from a vhost's queues without deleting
// the queues themselves.
func (b *Broker) Purge(vhostName string) error {
	v, ok := b.vhosts[vhostName]
	if !ok {
		return errUnknownVhost(vhostName)
	}
	cfg := b.cfg.Vhosts[vhostName]
	l, err := v.connect(b.prefetch)
	if err != nil {
		return err
	}
	for _, q := range cfg.Queues {
		if _, err := l.channel.QueuePurge(q.FullyQualifiedName, false); err != nil {
			return err
		}
	}
	return nil
}

// Nuke deletes every queue and exchange declared for a vhost.
func (b *Broker) Nuke(vhostName string) error {
	v, ok := b.vhosts[vhostName]
	if !ok {
		return errUnknownVhost(vhostName)
	}
	cfg := b.cfg.Vhosts[vhostName]
	l, err := v.connect(b.prefetch)
	if err != nil {
		return err
	}
	for _, q := range cfg.Queues {
		if _, err := l.channel.QueueDelete(q.FullyQualifiedName, false, false, false); err != nil {
			return err
		}
	}
	for _, ex := range cfg.Exchanges {
		if ex.Name == "" {
			continue
		}
		if err := l.channel.ExchangeDelete(ex.FullyQualifiedName, false, false); err != nil {
			return err
		}
	}
	return nil
}

// Shutdown cancels every session and closes every vhost link. It is
// idempotent.
func (b *Broker) Shutdown() error {
	b.mu.Lock()
	if b.shutdown {
		b.mu.Unlock()
		return nil
	}
	b.shutdown = true
	b.mu.Unlock()

	for _, sh := range b.shovels {
		sh.stop()
	}
	b.UnsubscribeAll()

	var firstErr error
	for _, v := range b.vhosts {
		if err := v.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Bounce closes and immediately reopens every vhost link, without
// tearing down subscriptions or shovels. Useful for forcing a
// reconnect, e.g. after a credential rotation.
func (b *Broker) Bounce() error {
	var firstErr error
	for _, v := range b.vhosts {
		if err := v.close(); err != nil && firstErr == nil {
			firstErr = err
		}
		if _, err := v.connect(b.prefetch); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
