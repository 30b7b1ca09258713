package config

// convertVhosts turns the fully expanded `vhosts` Raw tree into typed
// Vhost values.
func convertVhosts(raw Raw) map[string]*Vhost {
	out := map[string]*Vhost{}
	for name, vv := range raw {
		entry := vv.(Raw)
		v := &Vhost{
			Name:               name,
			Namespace:          stringAttr(entry["namespace"]),
			Concurrency:        intAttr(entry["concurrency"]),
			ConnectionStrategy: stringAttr(entry["connectionStrategy"]),
			Exchanges:          map[string]*Exchange{},
			Queues:             map[string]*Queue{},
			Bindings:           map[string]*Binding{},
		}
		if d, ok := entry["defaults"].(Raw); ok {
			v.Defaults = d
		}
		if pools, ok := entry["publicationChannelPools"].(Raw); ok {
			v.PublicationChannelPools = map[string]ChannelPool{}
			for poolName, pv := range pools {
				if p, ok := pv.(Raw); ok {
					v.PublicationChannelPools[poolName] = ChannelPool{Size: intAttr(p["size"])}
				}
			}
		}
		if conns, ok := entry["connections"].([]Raw); ok {
			for _, c := range conns {
				v.Connections = append(v.Connections, convertConnection(c))
			}
		}
		if exchanges, ok := entry["exchanges"].(Raw); ok {
			for exName, ev := range exchanges {
				ex := ev.(Raw)
				v.Exchanges[exName] = &Exchange{
					Name:               exName,
					FullyQualifiedName: stringAttr(ex["fullyQualifiedName"]),
					Type:               stringAttr(ex["type"]),
					Options:            optionsOf(ex["options"]),
				}
			}
		}
		if queues, ok := entry["queues"].(Raw); ok {
			for qName, qv := range queues {
				q := qv.(Raw)
				v.Queues[qName] = &Queue{
					Name:               qName,
					FullyQualifiedName: stringAttr(q["fullyQualifiedName"]),
					Options:            optionsOf(q["options"]),
					ReplyTo:            stringAttr(q["replyTo"]),
				}
			}
		}
		if bindings, ok := entry["bindings"].(Raw); ok {
			for bName, bv := range bindings {
				if b, ok := bv.(*Binding); ok {
					v.Bindings[bName] = b
				}
			}
		}
		out[name] = v
	}
	return out
}

func optionsOf(v interface{}) Raw {
	if r, ok := v.(Raw); ok {
		return r
	}
	return nil
}

func convertConnection(c Raw) *Connection {
	conn := &Connection{
		Protocol:    stringAttr(c["protocol"]),
		Hostname:    stringAttr(c["hostname"]),
		Port:        intAttr(c["port"]),
		User:        stringAttr(c["user"]),
		Password:    stringAttr(c["password"]),
		Vhost:       stringAttr(c["vhost"]),
		URL:         stringAttr(c["url"]),
		LoggableURL: stringAttr(c["loggable_url"]),
	}
	if opts, ok := c["options"].(map[string]string); ok {
		conn.Options = opts
	}
	if so, ok := c["socket_options"].(Raw); ok {
		conn.SocketOptions = so
	}
	if mgmt, ok := c["management"].(Raw); ok {
		conn.Management = ManagementConnection{
			Hostname:    stringAttr(mgmt["hostname"]),
			URL:         stringAttr(mgmt["url"]),
			LoggableURL: stringAttr(mgmt["loggable_url"]),
		}
		if auth, ok := mgmt["auth"].(Raw); ok {
			conn.Management.Auth = ManagementAuth{
				User:     stringAttr(auth["user"]),
				Password: stringAttr(auth["password"]),
			}
		}
	}
	return conn
}

func convertEncryption(raw Raw) map[string]*EncryptionProfile {
	out := map[string]*EncryptionProfile{}
	for name := range raw {
		if profile, err := resolveEncryptionProfile(raw, name); err == nil {
			out[name] = profile
		}
	}
	return out
}
