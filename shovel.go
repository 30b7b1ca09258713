package rascal

import (
	"github.com/rascal-go/rascal/config"
	xlog "go.bryk.io/pkg/log"
)

// deliveryToMessage unpacks a Delivery into an outgoing Message,
// preserving message identity and content metadata so a shovelled
// message is indistinguishable from one published directly.
func deliveryToMessage(d Delivery) Message {
	return Message{
		Headers:         d.Headers,
		ContentType:     d.ContentType,
		ContentEncoding: d.ContentEncoding,
		DeliveryMode:    d.DeliveryMode,
		Priority:        d.Priority,
		CorrelationId:   d.CorrelationId,
		ReplyTo:         d.ReplyTo,
		Expiration:      d.Expiration,
		MessageId:       d.MessageId,
		Timestamp:       d.Timestamp,
		Type:            d.Type,
		UserId:          d.UserId,
		AppId:           d.AppId,
		Body:            d.Body,
	}
}

// Shovel pairs a subscription's deliveries with a publication, bridging
// messages from one topology location to another. When the publication
// uses confirms, the consuming side acks only after the publish has been
// confirmed (a failed or nacked publish is requeued), so a crash
// mid-shovel redelivers rather than drops. Without confirms it acks once
// the publish call returns.
type Shovel struct {
	cfg          *config.Shovel
	subscription *Subscription
	publication  *Publication
	log          xlog.Logger

	session *Session
}

func newShovel(cfg *config.Shovel, sub *Subscription, pub *Publication, log xlog.Logger) *Shovel {
	return &Shovel{
		cfg:          cfg,
		subscription: sub,
		publication:  pub,
		log:          log.WithField("shovel", cfg.Name),
	}
}

// start begins forwarding deliveries from the subscription to the
// publication. It is idempotent: calling start twice is a no-op.
func (sh *Shovel) start() error {
	if sh.session != nil {
		return nil
	}
	sess, err := sh.subscription.Subscribe(sh.forward, sh.onError, nil)
	if err != nil {
		return err
	}
	sh.session = sess
	return nil
}

func (sh *Shovel) forward(d Delivery) {
	msg := deliveryToMessage(d)
	overrides := &Overrides{RoutingKey: d.RoutingKey, Headers: msg.Headers, ContentType: msg.ContentType}
	if msg.MessageId != "" {
		overrides.MessageID = msg.MessageId
	}
	res, err := sh.publication.Publish(msg.Body, overrides)
	if err != nil {
		sh.log.WithField("error", err.Error()).Error("shovel failed to forward message")
		_ = d.Nack(false, true)
		return
	}
	if sh.publication.cfg.Confirm && !res.Confirmed {
		sh.log.Error("shovel forward was not confirmed by the broker")
		_ = d.Nack(false, true)
		return
	}
	_ = d.Ack(false)
}

func (sh *Shovel) onError(err error) {
	sh.log.WithField("error", err.Error()).Error("shovel subscription error")
}

// stop tears the shovel's subscription session down.
func (sh *Shovel) stop() {
	if sh.session != nil {
		sh.session.cancel()
		sh.session = nil
	}
}
