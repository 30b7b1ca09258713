package rascal

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rascal-go/rascal/config"
	"github.com/rascal-go/rascal/counter"
	xlog "go.bryk.io/pkg/log"
)

// Session represents one active delivery loop for a Subscription. It
// carries cancellation, channel-close deferral and at-most-once
// teardown: cancel() may be called any number of times from any
// goroutine, but only the first call has effect.
type Session struct {
	tag     string
	queue   string
	onMsg   func(Delivery)
	onErr   func(error)
	onClose func()

	// deferClose is this session's contribution to an unsubscribeAll
	// call's wait: the broker blocks for the largest deferClose among
	// the sessions it cancelled before returning.
	deferClose time.Duration

	ctx    context.Context
	halt   context.CancelFunc
	once   sync.Once
	link   *link
	log    xlog.Logger
	wg     sync.WaitGroup
}

// Messages, Errors and Cancelled register the callbacks a caller uses to
// observe a session's lifecycle. They must be set before the
// subscription's loop is started and are not safe to change afterward.
func (s *Session) Messages(fn func(Delivery)) *Session { s.onMsg = fn; return s }
func (s *Session) Errors(fn func(error)) *Session       { s.onErr = fn; return s }
func (s *Session) Cancelled(fn func()) *Session         { s.onClose = fn; return s }

// Ack acknowledges a single delivery.
func (s *Session) Ack(d Delivery) error { return d.Ack(false) }

// Nack negatively acknowledges a delivery, optionally requeueing it.
func (s *Session) Nack(d Delivery, requeue bool) error { return d.Nack(false, requeue) }

// cancel tears the session down at most once: it stops the delivery
// loop, cancels the consumer against the broker and fires onClose.
func (s *Session) cancel() {
	s.once.Do(func() {
		s.halt()
		if s.link != nil {
			_ = s.link.cancelConsumer(s.tag)
		}
		s.wg.Wait()
		if s.onClose != nil {
			s.onClose()
		}
	})
}

func (s *Session) run(deliveries <-chan Delivery) {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				// cancel waits for this loop to exit, so it runs apart
				go s.cancel()
				return
			}
			if s.onMsg != nil {
				s.onMsg(d)
			}
		}
	}
}

// Subscription is a named consumer endpoint bound to a vhost queue. A
// subscription may have any number of concurrently active Sessions,
// though callers typically keep one.
type Subscription struct {
	cfg     *config.Subscription
	vhost   *runtimeVhost
	log     xlog.Logger
	counter counter.Counter

	mu       sync.Mutex
	sessions map[string]*Session
}

func newSubscription(cfg *config.Subscription, vhost *runtimeVhost, ctr counter.Counter, log xlog.Logger) *Subscription {
	return &Subscription{
		cfg:      cfg,
		vhost:    vhost,
		counter:  ctr,
		log:      log.WithField("subscription", cfg.Name),
		sessions: map[string]*Session{},
	}
}

// Subscribe opens a new delivery Session against the subscription's
// queue, registering onMsg/onErr/onClose as its lifecycle callbacks.
func (s *Subscription) Subscribe(onMsg func(Delivery), onErr func(error), onClose func()) (*Session, error) {
	l, err := s.vhost.connect(s.cfg.Prefetch)
	if err != nil {
		if onErr != nil {
			onErr(err)
		}
		return nil, err
	}

	tag := uuid.NewString()
	deliveries, err := l.consume(s.cfg.Source, tag, s.cfg.Prefetch)
	if err != nil {
		if onErr != nil {
			onErr(err)
		}
		return nil, err
	}

	ctx, halt := context.WithCancel(context.Background())
	sess := &Session{
		tag:        tag,
		queue:      s.cfg.Queue,
		onMsg:      onMsg,
		onErr:      onErr,
		onClose:    onClose,
		deferClose: time.Duration(s.cfg.DeferCloseChannelMS) * time.Millisecond,
		ctx:        ctx,
		halt:       halt,
		link:       l,
		log:        s.log,
	}
	sess.wg.Add(1)
	go sess.run(deliveries)

	s.mu.Lock()
	s.sessions[tag] = sess
	s.mu.Unlock()
	return sess, nil
}

// Unsubscribe cancels and removes a previously opened session by tag.
func (s *Subscription) Unsubscribe(tag string) {
	s.mu.Lock()
	sess, ok := s.sessions[tag]
	if ok {
		delete(s.sessions, tag)
	}
	s.mu.Unlock()
	if ok {
		sess.cancel()
	}
}

// UnsubscribeAll cancels every active session on this subscription and
// returns the largest deferClose horizon among the sessions it
// cancelled, for a caller (typically the broker) to wait out once every
// subscription it manages has been unwound.
func (s *Subscription) UnsubscribeAll() time.Duration {
	s.mu.Lock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.sessions = map[string]*Session{}
	s.mu.Unlock()

	var maxDefer time.Duration
	for _, sess := range sessions {
		sess.cancel()
		if sess.deferClose > maxDefer {
			maxDefer = sess.deferClose
		}
	}
	return maxDefer
}
