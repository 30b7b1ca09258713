package config

// resolvePublications applies defaults, enforces per-name uniqueness
// across vhosts, resolves `destination` to the referenced exchange or
// queue's FQN, resolves `replyTo`, and resolves a string `encryption`
// reference against the global encryption block.
func resolvePublications(merged Raw) (map[string]*Publication, error) {
	rawPubs, _ := merged["publications"].(Raw)
	vhosts, _ := merged["vhosts"].(Raw)
	encryption, _ := merged["encryption"].(Raw)

	seen := map[string]bool{}
	out := map[string]*Publication{}

	for name, pv := range rawPubs {
		if name == "defaults" {
			continue
		}
		if seen[name] {
			return nil, errDuplicatePublication(name)
		}
		seen[name] = true

		entry := pv.(Raw)
		for k, dv := range publicationDefaults() {
			if _, ok := entry[k]; !ok {
				entry[k] = dv
			}
		}

		p := &Publication{
			Name:        name,
			Vhost:       stringAttr(entry["vhost"]),
			Exchange:    stringAttr(entry["exchange"]),
			Queue:       stringAttr(entry["queue"]),
			RoutingKey:  stringAttr(entry["routingKey"]),
			Confirm:     boolAttr(entry["confirm"]),
			Deprecated:  boolAttr(entry["deprecated"]),
			AutoCreated: boolAttr(entry["autoCreated"]),
			ChannelPool: stringAttr(entry["channelPool"]),
		}

		vv, vhostExists := vhosts[p.Vhost]
		var vhost Raw
		if vhostExists {
			vhost = vv.(Raw)
		}

		if vhostExists {
			if p.Exchange != "" {
				exchanges, _ := vhost["exchanges"].(Raw)
				if ex, ok := exchanges[p.Exchange].(Raw); ok {
					p.Destination = stringAttr(ex["fullyQualifiedName"])
				} else {
					return nil, errUnknownExchange(name, p.Exchange)
				}
			} else if p.Queue != "" {
				queues, _ := vhost["queues"].(Raw)
				if q, ok := queues[p.Queue].(Raw); ok {
					p.Destination = stringAttr(q["fullyQualifiedName"])
				} else {
					return nil, errUnknownQueue("Publication: "+name, p.Queue)
				}
			}

			if replyTo := stringAttr(entry["replyTo"]); replyTo != "" {
				queues, _ := vhost["queues"].(Raw)
				if q, ok := queues[replyTo].(Raw); ok {
					p.ReplyTo = stringAttr(q["fullyQualifiedName"])
				} else {
					return nil, errUnknownReplyQueue(name, replyTo)
				}
			}
		}

		if encName := stringAttr(entry["encryption"]); encName != "" {
			profile, err := resolveEncryptionProfile(encryption, encName)
			if err != nil {
				return nil, errUnknownEncryptionProfile("Publication: "+name, encName)
			}
			p.Encryption = profile
		}

		out[name] = p
	}
	return out, nil
}

// resolveSubscriptions applies defaults, enforces per-name uniqueness,
// resolves `source` to the referenced queue's FQN, and defaults
// `encryption` from the global encryption block when unspecified.
func resolveSubscriptions(merged Raw) (map[string]*Subscription, error) {
	rawSubs, _ := merged["subscriptions"].(Raw)
	vhosts, _ := merged["vhosts"].(Raw)
	encryption, _ := merged["encryption"].(Raw)

	seen := map[string]bool{}
	out := map[string]*Subscription{}

	for name, sv := range rawSubs {
		if name == "defaults" {
			continue
		}
		if seen[name] {
			return nil, errDuplicateSubscription(name)
		}
		seen[name] = true

		entry := sv.(Raw)
		for k, dv := range subscriptionDefaults() {
			if _, ok := entry[k]; !ok {
				entry[k] = dv
			}
		}

		s := &Subscription{
			Name:                name,
			Vhost:               stringAttr(entry["vhost"]),
			Queue:               stringAttr(entry["queue"]),
			Prefetch:            intAttr(entry["prefetch"]),
			AutoCreated:         boolAttr(entry["autoCreated"]),
			DeferCloseChannelMS: intAttr(entry["deferCloseChannel"]),
		}
		if r, ok := entry["redeliveries"].(Raw); ok {
			s.Redeliveries = r
		}

		if vv, ok := vhosts[s.Vhost]; ok {
			vhost := vv.(Raw)
			queues, _ := vhost["queues"].(Raw)
			if q, ok := queues[s.Queue].(Raw); ok {
				s.Source = stringAttr(q["fullyQualifiedName"])
			} else {
				return nil, errUnknownQueue("Subscription: "+name, s.Queue)
			}
		}

		if encName := stringAttr(entry["encryption"]); encName != "" {
			profile, err := resolveEncryptionProfile(encryption, encName)
			if err != nil {
				return nil, errUnknownEncryptionProfile("Subscription: "+name, encName)
			}
			s.Encryption = map[string]*EncryptionProfile{encName: profile}
		} else {
			s.Encryption = allEncryptionProfiles(encryption)
		}

		out[name] = s
	}
	return out, nil
}

func resolveEncryptionProfile(block Raw, name string) (*EncryptionProfile, error) {
	pv, ok := block[name].(Raw)
	if !ok {
		return nil, errUnknownEncryptionProfile("encryption", name)
	}
	return &EncryptionProfile{
		Name:      name,
		Key:       stringAttr(pv["key"]),
		IVLength:  intAttr(pv["ivLength"]),
		Algorithm: stringAttr(pv["algorithm"]),
	}, nil
}

func allEncryptionProfiles(block Raw) map[string]*EncryptionProfile {
	if len(block) == 0 {
		return nil
	}
	out := map[string]*EncryptionProfile{}
	for name := range block {
		if profile, err := resolveEncryptionProfile(block, name); err == nil {
			out[name] = profile
		}
	}
	return out
}
