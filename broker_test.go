package rascal

import (
	"context"
	"testing"
	"time"

	driver "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rascal-go/rascal/config"
)

func TestForwardHeadersStampsOriginalRouting(t *testing.T) {
	d := driver.Delivery{
		Exchange:   "orders.topic",
		RoutingKey: "order.created",
		Headers:    driver.Table{"trace-id": "abc"},
	}

	headers := forwardHeaders(d, "orders.dead-letter", false)
	assert.Equal(t, "orders.dead-letter", headers["rascal.originalQueue"])
	assert.Equal(t, "order.created", headers["rascal.originalRoutingKey"])
	assert.Equal(t, "orders.topic", headers["rascal.originalExchange"])
	assert.Equal(t, false, headers["rascal.restoreRoutingHeaders"])
	assert.Equal(t, "abc", headers["trace-id"])
}

func TestForwardHeadersCanRestoreRoutingHeaders(t *testing.T) {
	d := driver.Delivery{Exchange: "orders.topic", RoutingKey: "order.created"}
	headers := forwardHeaders(d, "orders.dead-letter", true)
	assert.Equal(t, true, headers["rascal.restoreRoutingHeaders"])
}

func TestGetConnectionsReportsActiveStatusPerVhost(t *testing.T) {
	b := &Broker{
		cfg: &config.Resolved{
			Vhosts: map[string]*config.Vhost{
				"/": {
					Connections: []*config.Connection{
						{LoggableURL: "amqp://a", Management: config.ManagementConnection{LoggableURL: "http://a:15672"}},
						{LoggableURL: "amqp://b", Management: config.ManagementConnection{LoggableURL: "http://b:15672"}},
					},
				},
			},
		},
		vhosts: map[string]*runtimeVhost{
			"/": {cfg: &config.Vhost{Connections: []*config.Connection{{}, {}}}, active: 1},
		},
	}

	statuses := b.GetConnections()
	vhost, ok := statuses["/"]
	require.True(t, ok)
	require.Len(t, vhost, 2)
	assert.Equal(t, "amqp://a", vhost[0].LoggableURL)
	assert.Equal(t, "http://a:15672", vhost[0].ManagementLoggableURL)
	assert.False(t, vhost[0].Connected)
	assert.Equal(t, "amqp://b", vhost[1].LoggableURL)
	assert.False(t, vhost[1].Connected, "no link has connected yet, so nothing is reported as active")
}

func TestBrokerUnsubscribeAllWaitsLongestDeferClose(t *testing.T) {
	newSession := func(d time.Duration) *Session {
		ctx, halt := context.WithCancel(context.Background())
		return &Session{ctx: ctx, halt: halt, deferClose: d}
	}

	b := &Broker{
		subscriptions: map[string]*Subscription{
			"quick": {sessions: map[string]*Session{"a": newSession(5 * time.Millisecond)}},
			"slow":  {sessions: map[string]*Session{"b": newSession(40 * time.Millisecond)}},
		},
	}

	start := time.Now()
	b.UnsubscribeAll()
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestGetFullyQualifiedNameResolvesExchangeAndQueue(t *testing.T) {
	b := &Broker{
		cfg: &config.Resolved{
			Vhosts: map[string]*config.Vhost{
				"/": {
					Exchanges: map[string]*config.Exchange{
						"e1": {Name: "e1", FullyQualifiedName: ":e1"},
					},
					Queues: map[string]*config.Queue{
						"q1": {Name: "q1", FullyQualifiedName: ":q1"},
					},
				},
			},
		},
	}

	fqn, err := b.GetFullyQualifiedName("/", "e1")
	require.NoError(t, err)
	assert.Equal(t, ":e1", fqn)

	fqn, err = b.GetFullyQualifiedName("/", "q1")
	require.NoError(t, err)
	assert.Equal(t, ":q1", fqn)

	_, err = b.GetFullyQualifiedName("/", "missing")
	assert.Error(t, err)

	_, err = b.GetFullyQualifiedName("other", "e1")
	assert.Error(t, err)
}
