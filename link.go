package rascal

import (
	"context"
	"sync"
	"time"

	driver "github.com/rabbitmq/amqp091-go"

	"github.com/rascal-go/rascal/config"
	"go.bryk.io/pkg/errors"
	xlog "go.bryk.io/pkg/log"
)

// Return captures the fields the server sends back when a publish
// operation cannot be routed ("mandatory") or delivered to a free
// consumer ("immediate").
type Return = driver.Return

// Delivery is a message received from the broker.
type Delivery = driver.Delivery

// Message is a message sent to the broker.
type Message = driver.Publishing

const (
	reconnectDelay = 3 * time.Second
	resendDelay    = 3 * time.Second
	ackDelay       = 10 * time.Millisecond
)

var (
	errShutdown        = "link is shutting down"
	errNotConnected    = "not connected to a server"
	errAlreadyClosed   = "link is already closed"
	errUnconfirmedPush = "unconfirmed push"
)

// link owns a single underlying AMQP connection and channel for one of
// a vhost's resolved connection entries. It loads the vhost's topology
// on (re)connect and exposes the primitives Publication/Subscription
// runtime objects build on.
type link struct {
	vhost   *config.Vhost
	addr    string
	name    string
	log     xlog.Logger
	conn    *driver.Connection
	channel *driver.Channel

	reconnect       chan bool
	notifyConnClose chan *driver.Error
	notifyChanClose chan *driver.Error
	notifyConfirm   chan driver.Confirmation
	notifyReturn    chan Return
	prefetchCount   int
	prefetchSize    int
	status          chan bool
	rr              bool
	wg              *sync.WaitGroup
	mc              []chan<- bool
	mr              []chan<- Return
	mu              sync.RWMutex
	ctx             context.Context
	halt            context.CancelFunc

	poolMu  sync.Mutex
	pools   map[string][]*poolChannel
	poolIdx map[string]int
}

// poolChannel is one channel of a named publication_channel_pools
// entry. It carries its own publisher confirms and returns so messages
// published through different pool channels never contend over the
// same ack queue.
type poolChannel struct {
	channel       *driver.Channel
	notifyConfirm chan driver.Confirmation
	notifyReturn  chan Return

	mu sync.Mutex
	mc []chan<- bool
	mr []chan<- Return
}

func newPoolChannel(ch *driver.Channel) *poolChannel {
	pc := &poolChannel{
		channel:       ch,
		notifyConfirm: make(chan driver.Confirmation, 10),
		notifyReturn:  make(chan driver.Return, 10),
	}
	ch.NotifyPublish(pc.notifyConfirm)
	ch.NotifyReturn(pc.notifyReturn)
	go pc.drain()
	return pc
}

// drain runs for the life of the underlying channel, exiting once the
// driver closes either notify channel.
func (pc *poolChannel) drain() {
	for {
		select {
		case mc, ok := <-pc.notifyConfirm:
			if !ok {
				return
			}
			pc.handleConfirmation(mc)
		case mr, ok := <-pc.notifyReturn:
			if !ok {
				return
			}
			pc.handleMessageReturns(mr)
		}
	}
}

func (pc *poolChannel) ack() <-chan bool {
	ch := make(chan bool)
	pc.mu.Lock()
	pc.mc = append(pc.mc, ch)
	pc.mu.Unlock()
	return ch
}

func (pc *poolChannel) handleConfirmation(msg driver.Confirmation) {
	if msg.DeliveryTag == 0 {
		return
	}
	pc.mu.Lock()
	if len(pc.mc) == 0 {
		pc.mu.Unlock()
		return
	}
	index := len(pc.mc) - 1
	ack := pc.mc[index]
	pc.mc = pc.mc[:index]
	pc.mu.Unlock()
	ack <- msg.Ack
	close(ack)
}

func (pc *poolChannel) handleMessageReturns(msg Return) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	for _, m := range pc.mr {
		select {
		case m <- msg:
		default:
		}
	}
}

// openLink establishes a link to the given address, immediately
// attempting connection and topology load in the background.
func openLink(name, addr string, vhost *config.Vhost, log xlog.Logger, prefetch int) *link {
	ctx, halt := context.WithCancel(context.Background())
	l := &link{
		vhost:         vhost,
		addr:          addr,
		name:          name,
		log:           log,
		prefetchCount: prefetch,
		reconnect:     make(chan bool, 5),
		status:        make(chan bool, 1),
		halt:          halt,
		ctx:           ctx,
		wg:            new(sync.WaitGroup),
	}
	go l.eventLoop()
	l.reconnect <- true
	return l
}

func (l *link) close() error {
	if !l.isReady() {
		return errors.New(errAlreadyClosed)
	}

	l.log.Debug("closing link")
	l.halt()
	<-l.ctx.Done()

	if l.channel != nil {
		if err := l.channel.Close(); err != nil {
			return err
		}
	}
	l.closePools()
	if l.conn != nil {
		if err := l.conn.Close(); err != nil {
			return err
		}
	}
	l.updateStatus(false)
	l.wg.Wait()
	l.clean()
	return nil
}

func (l *link) clean() {
	l.mu.Lock()
	for _, ack := range l.mc {
		close(ack)
	}
	for _, mr := range l.mr {
		close(mr)
	}
	close(l.status)
	l.mu.Unlock()
}

func (l *link) isReady() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.rr
}

func (l *link) updateStatus(value bool) {
	l.mu.Lock()
	l.rr = value
	l.mu.Unlock()

	l.wg.Add(1)
	go func(val bool) {
		defer l.wg.Done()
		select {
		case l.status <- val:
		case <-l.ctx.Done():
		case <-time.After(ackDelay):
		}
	}(value)
}

func (l *link) init() error {
	if l.conn == nil || l.conn.IsClosed() {
		conn, err := driver.Dial(l.addr)
		if err != nil {
			return err
		}
		l.setConnection(conn)
		l.log.Info("connected")
	}

	ch, err := l.conn.Channel()
	if err != nil {
		return err
	}
	if err := ch.Qos(l.prefetchCount, l.prefetchSize, false); err != nil {
		return err
	}
	if err := ch.Confirm(false); err != nil {
		return err
	}
	if err := l.loadTopology(ch); err != nil {
		return err
	}
	if err := l.initPools(); err != nil {
		return err
	}

	l.setChannel(ch)
	l.updateStatus(true)
	l.log.Info("ready")
	return nil
}

// initPools (re)opens, for every entry of the vhost's
// publication_channel_pools block, as many channels as the entry's size
// (at least one), replacing any pools from a previous connection attempt.
func (l *link) initPools() error {
	pools := map[string][]*poolChannel{}
	for name, spec := range l.vhost.PublicationChannelPools {
		size := spec.Size
		if size < 1 {
			size = 1
		}
		channels := make([]*poolChannel, 0, size)
		for i := 0; i < size; i++ {
			ch, err := l.conn.Channel()
			if err != nil {
				return err
			}
			if err := ch.Confirm(false); err != nil {
				return err
			}
			channels = append(channels, newPoolChannel(ch))
		}
		pools[name] = channels
	}

	l.closePools()
	l.poolMu.Lock()
	l.pools = pools
	l.poolIdx = map[string]int{}
	l.poolMu.Unlock()
	return nil
}

func (l *link) closePools() {
	l.poolMu.Lock()
	pools := l.pools
	l.pools = nil
	l.poolMu.Unlock()
	for _, channels := range pools {
		for _, pc := range channels {
			_ = pc.channel.Close()
		}
	}
}

// channelFor resolves the next channel of a named pool in round-robin
// order. An empty name or an unknown pool falls back to the link's
// default channel, reported as a nil poolChannel.
func (l *link) channelFor(pool string) *poolChannel {
	if pool == "" {
		return nil
	}
	l.poolMu.Lock()
	defer l.poolMu.Unlock()
	channels, ok := l.pools[pool]
	if !ok || len(channels) == 0 {
		return nil
	}
	idx := l.poolIdx[pool] % len(channels)
	l.poolIdx[pool] = idx + 1
	return channels[idx]
}

func (l *link) setConnection(conn *driver.Connection) {
	l.mu.Lock()
	if l.conn != nil {
		_ = l.conn.Close()
	}
	l.conn = conn
	l.notifyConnClose = make(chan *driver.Error)
	l.conn.NotifyClose(l.notifyConnClose)
	l.mu.Unlock()
}

func (l *link) setChannel(channel *driver.Channel) {
	l.mu.Lock()
	l.channel = channel
	l.notifyChanClose = make(chan *driver.Error)
	l.notifyConfirm = make(chan driver.Confirmation, 10)
	l.notifyReturn = make(chan driver.Return, 10)
	l.channel.NotifyClose(l.notifyChanClose)
	l.channel.NotifyPublish(l.notifyConfirm)
	l.channel.NotifyReturn(l.notifyReturn)
	l.mu.Unlock()
}

// loadTopology asserts the vhost's resolved exchanges, queues and
// bindings against the broker, in that order.
func (l *link) loadTopology(ch *driver.Channel) error {
	for _, ex := range l.vhost.Exchanges {
		if err := l.addExchange(ex, ch); err != nil {
			return err
		}
	}
	for _, q := range l.vhost.Queues {
		if err := l.addQueue(q, ch); err != nil {
			return err
		}
	}
	for _, b := range l.vhost.Bindings {
		if err := l.addBinding(b, ch); err != nil {
			return err
		}
	}
	return nil
}

func (l *link) addExchange(ex *config.Exchange, ch *driver.Channel) error {
	if ex.Name == "" {
		return nil
	}
	kind := ex.Type
	if kind == "" {
		kind = "direct"
	}
	return ch.ExchangeDeclare(ex.FullyQualifiedName, kind, true, false, false, false, amqpTable(ex.Options))
}

func (l *link) addQueue(q *config.Queue, ch *driver.Channel) error {
	_, err := ch.QueueDeclare(q.FullyQualifiedName, true, false, false, false, amqpTable(q.Options))
	return err
}

func (l *link) addBinding(b *config.Binding, ch *driver.Channel) error {
	return ch.QueueBind(b.Destination, b.BindingKey, b.Source, false, nil)
}

func amqpTable(opts config.Raw) driver.Table {
	if len(opts) == 0 {
		return nil
	}
	t := driver.Table{}
	for k, v := range opts {
		t[k] = v
	}
	return t
}

func (l *link) ack() <-chan bool {
	ch := make(chan bool)
	l.mu.Lock()
	l.mc = append(l.mc, ch)
	l.mu.Unlock()
	return ch
}

func (l *link) messageReturns() <-chan Return {
	monitor := make(chan Return)
	l.mu.Lock()
	l.mr = append(l.mr, monitor)
	l.mu.Unlock()
	return monitor
}

func (l *link) handleConfirmation(msg driver.Confirmation) {
	if msg.DeliveryTag == 0 {
		return
	}
	l.mu.Lock()
	if len(l.mc) == 0 {
		l.mu.Unlock()
		return
	}
	index := len(l.mc) - 1
	ack := l.mc[index]
	l.mc = l.mc[:index]
	l.mu.Unlock()

	l.wg.Add(1)
	go func(ctx context.Context, ack chan<- bool) {
		defer l.wg.Done()
		select {
		case ack <- msg.Ack:
		case <-time.After(ackDelay):
		case <-ctx.Done():
		}
		close(ack)
	}(l.ctx, ack)
}

func (l *link) handleMessageReturns(msg Return) {
	l.mu.Lock()
	for _, m := range l.mr {
		l.wg.Add(1)
		go func(ctx context.Context, m chan<- Return) {
			defer l.wg.Done()
			select {
			case m <- msg:
			case <-time.After(ackDelay):
			case <-ctx.Done():
			}
		}(l.ctx, m)
	}
	l.mu.Unlock()
}

// eventLoop drives reconnection and confirm/return delivery. One
// goroutine per link, for the life of the link.
func (l *link) eventLoop() {
	for {
		select {
		case <-l.ctx.Done():
			l.log.Debug("stop listening for link events")
			return
		case _, ok := <-l.notifyConnClose:
			if !ok {
				continue
			}
			if l.isReady() {
				l.log.Warning("connection closed")
				l.reconnect <- true
			}
		case _, ok := <-l.notifyChanClose:
			if !ok {
				continue
			}
			if l.isReady() {
				l.log.Warning("channel closed")
				l.reconnect <- true
			}
		case mc, ok := <-l.notifyConfirm:
			if ok {
				l.handleConfirmation(mc)
			}
		case mr, ok := <-l.notifyReturn:
			if ok {
				l.handleMessageReturns(mr)
			}
		case <-l.reconnect:
			// mark the link not ready without sending a status, so the
			// first status a fresh link sends is the outcome of its first
			// connection attempt
			l.mu.Lock()
			l.rr = false
			l.mu.Unlock()
			l.log.Debug("attempting to connect")
			if err := l.init(); err != nil {
				l.updateStatus(false)
				l.log.Warning("failed to connect")
				select {
				case <-l.ctx.Done():
					return
				case <-time.After(reconnectDelay):
					l.reconnect <- true
				}
			}
		}
	}
}

// push publishes a message through the named channel pool (or the
// link's default channel, if pool is empty or unknown) and blocks
// until the broker confirms it, publishing again after resendDelay
// when the publish fails or no confirmation arrives within resendDelay.
func (l *link) push(pool, exchange, routingKey string, mandatory bool, msg Message) (bool, error) {
	if !l.isReady() {
		return false, errors.New(errNotConnected)
	}
	pc := l.channelFor(pool)

	for {
		if err := l.publishOn(pc, exchange, routingKey, mandatory, msg); err != nil {
			select {
			case <-l.ctx.Done():
				return false, errors.New(errShutdown)
			case <-time.After(resendDelay):
				continue
			}
		}

		select {
		case status, ok := <-l.ackOn(pc):
			if ok {
				return status, nil
			}
		case <-l.ctx.Done():
			return false, errors.New(errShutdown)
		case <-time.After(resendDelay):
			l.log.Warning(errUnconfirmedPush)
			continue
		}
	}
}

func (l *link) unsafePush(pool, exchange, routingKey string, mandatory bool, msg Message) error {
	if !l.isReady() {
		return errors.New(errNotConnected)
	}
	return l.publishOn(l.channelFor(pool), exchange, routingKey, mandatory, msg)
}

func (l *link) publishOn(pc *poolChannel, exchange, routingKey string, mandatory bool, msg Message) error {
	if pc != nil {
		return pc.channel.Publish(exchange, routingKey, mandatory, false, msg)
	}
	return l.channel.Publish(exchange, routingKey, mandatory, false, msg)
}

func (l *link) ackOn(pc *poolChannel) <-chan bool {
	if pc != nil {
		return pc.ack()
	}
	return l.ack()
}

// consume opens a delivery channel for the given queue, tagged with
// consumerTag.
func (l *link) consume(queue, consumerTag string, prefetch int) (<-chan Delivery, error) {
	if !l.isReady() {
		return nil, errors.New(errNotConnected)
	}
	return l.channel.Consume(queue, consumerTag, false, false, false, false, nil)
}

// cancelConsumer stops delivery for a previously opened consumer tag.
func (l *link) cancelConsumer(consumerTag string) error {
	if l.channel == nil {
		return nil
	}
	return l.channel.Cancel(consumerTag, false)
}
