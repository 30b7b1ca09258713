package config

import "github.com/rascal-go/rascal/counter"

// Validate runs a second pass over an already-resolved configuration,
// enforcing semantic rules that cannot be expressed as merges. It is
// pure and returns the first violation it finds.
func Validate(r *Resolved) error {
	for name, p := range r.Publications {
		hasExchange := p.Exchange != ""
		hasQueue := p.Queue != ""
		if hasExchange && hasQueue {
			return errAmbiguousDestination(name)
		}
		vhost, ok := r.Vhosts[p.Vhost]
		if !ok {
			return errUnknownVhost(p.Vhost)
		}
		if hasQueue {
			if _, ok := vhost.Queues[p.Queue]; !ok {
				return errUnknownQueue("Publication: "+name, p.Queue)
			}
		} else {
			// an empty exchange name is the nameless default exchange
			if _, ok := vhost.Exchanges[p.Exchange]; !ok {
				return errUnknownExchange(name, p.Exchange)
			}
		}
		if p.ChannelPool != "" {
			if _, ok := vhost.PublicationChannelPools[p.ChannelPool]; !ok {
				return errUnknownChannelPool(name, p.ChannelPool)
			}
		}
	}

	for name, s := range r.Subscriptions {
		vhost, ok := r.Vhosts[s.Vhost]
		if !ok {
			return errUnknownVhost(s.Vhost)
		}
		if _, ok := vhost.Queues[s.Queue]; !ok {
			return errUnknownQueue("Subscription: "+name, s.Queue)
		}
	}

	for name, sh := range r.Shovels {
		if _, ok := r.Subscriptions[sh.Subscription]; !ok {
			return errUnknownShovelSubscription(name, sh.Subscription)
		}
		if _, ok := r.Publications[sh.Publication]; !ok {
			return errUnknownShovelPublication(name, sh.Publication)
		}
	}

	for name, c := range r.Counters {
		if !counter.Known(c.Type) {
			return errUnknownCounterType(name, c.Type)
		}
	}

	for _, v := range r.Vhosts {
		for _, c := range v.Connections {
			if c.Protocol != "amqp" && c.Protocol != "amqps" {
				return errInvalidProtocol(c.Protocol)
			}
		}
	}

	return nil
}
