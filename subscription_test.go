package rascal

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionCancelIsIdempotent(t *testing.T) {
	ctx, halt := context.WithCancel(context.Background())
	var closed int32
	sess := &Session{
		ctx:  ctx,
		halt: halt,
		onClose: func() {
			atomic.AddInt32(&closed, 1)
		},
	}

	sess.cancel()
	sess.cancel()
	sess.cancel()

	assert.Equal(t, int32(1), atomic.LoadInt32(&closed))
}

func TestSessionRunStopsOnCancel(t *testing.T) {
	ctx, halt := context.WithCancel(context.Background())
	deliveries := make(chan Delivery)
	sess := &Session{ctx: ctx, halt: halt}
	sess.wg.Add(1)

	done := make(chan struct{})
	go func() {
		sess.run(deliveries)
		close(done)
	}()

	halt()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("session.run did not exit after cancel")
	}
}

func TestSubscriptionUnsubscribeAllReportsMaxDeferClose(t *testing.T) {
	s := &Subscription{sessions: map[string]*Session{}}

	for i, ms := range []time.Duration{5 * time.Millisecond, 20 * time.Millisecond, 10 * time.Millisecond} {
		ctx, halt := context.WithCancel(context.Background())
		s.sessions[string(rune('a'+i))] = &Session{ctx: ctx, halt: halt, deferClose: ms}
	}

	got := s.UnsubscribeAll()
	assert.Equal(t, 20*time.Millisecond, got)
	assert.Empty(t, s.sessions)
}

func TestSessionRunDeliversMessages(t *testing.T) {
	ctx, halt := context.WithCancel(context.Background())
	deliveries := make(chan Delivery, 1)
	received := make(chan Delivery, 1)
	sess := &Session{
		ctx:  ctx,
		halt: halt,
		onMsg: func(d Delivery) {
			received <- d
		},
	}
	sess.wg.Add(1)
	go sess.run(deliveries)
	defer halt()

	deliveries <- Delivery{MessageId: "m1"}
	select {
	case d := <-received:
		assert.Equal(t, "m1", d.MessageId)
	case <-time.After(time.Second):
		t.Fatal("message was not delivered")
	}
}
