package config

import "github.com/google/uuid"

// expandVhosts normalizes the `vhosts` block in place: it resolves
// namespaces, connections, exchanges, queues and bindings for every
// vhost, and promotes any vhost-local publications/subscriptions up to
// the root collections (tagging them with their owning vhost). A
// promoted publication or subscription whose name is already taken is a
// duplicate and fails the expansion.
func expandVhosts(merged Raw) error {
	rawVhosts, _ := merged["vhosts"].(Raw)
	vhosts := normalizeKeyed(rawVhosts)

	rootPubs, _ := merged["publications"].(Raw)
	if rootPubs == nil {
		rootPubs = Raw{}
	}
	rootSubs, _ := merged["subscriptions"].(Raw)
	if rootSubs == nil {
		rootSubs = Raw{}
	}

	for name, v := range vhosts {
		entry := v.(Raw)
		for k, dv := range vhostDefaults() {
			if _, ok := entry[k]; !ok {
				entry[k] = dv
			}
		}

		namespace := entry["namespace"]
		if b, ok := namespace.(bool); ok && b {
			entry["namespace"] = uuid.NewString()
		}
		ns := stringAttr(entry["namespace"])

		strategy := stringAttr(entry["connectionStrategy"])
		connRaw := entry["connection"]
		if connRaw == nil {
			connRaw = entry["connections"]
		} else if entry["connections"] != nil {
			// both singular and plural given: concatenate, de-duplicate;
			// last entry wins on attribute conflicts (see DESIGN.md).
			var all []interface{}
			switch s := entry["connection"].(type) {
			case []interface{}:
				all = append(all, s...)
			default:
				all = append(all, s)
			}
			switch s := entry["connections"].(type) {
			case []interface{}:
				all = append(all, s...)
			default:
				all = append(all, s)
			}
			connRaw = all
		}
		delete(entry, "connection")
		connections, err := normalizeConnections(name, strategy, connRaw)
		if err != nil {
			return err
		}
		entry["connections"] = connections

		exchanges := normalizeKeyed(entry["exchanges"])
		if _, ok := exchanges[""]; !ok {
			exchanges[""] = Raw{"name": ""}
		}
		for exName, ev := range exchanges {
			ex := ev.(Raw)
			ex["name"] = exName
			ex["fullyQualifiedName"] = qualify(exName, ns)
		}
		entry["exchanges"] = exchanges

		queues := normalizeKeyed(entry["queues"])
		for qName, qv := range queues {
			q := qv.(Raw)
			q["name"] = qName
			replyTag := ""
			if rt, ok := q["replyTo"]; ok {
				if b, ok := rt.(bool); ok && b {
					replyTag = uuid.NewString()
					q["replyTo"] = replyTag
				} else if s, ok := rt.(string); ok {
					replyTag = s
				}
			}
			if dlx, ok := q["options"].(Raw); ok {
				if x, ok := dlx["x-dead-letter-exchange"].(string); ok && x != "" {
					dlx["x-dead-letter-exchange"] = qualify(x, ns)
				}
			}
			if replyTag != "" {
				q["fullyQualifiedName"] = qualify(qName, ns, replyTag)
			} else {
				q["fullyQualifiedName"] = qualify(qName, ns)
			}
		}
		entry["queues"] = queues

		bindingsRaw := normalizeKeyed(entry["bindings"])
		bindings := Raw{}
		for bName, bv := range bindingsRaw {
			for _, b := range expandBinding(bName, bv.(Raw), ns) {
				if fqn, ok := fqnOf(b.Source, exchanges, queues); ok {
					b.Source = fqn
				}
				if fqn, ok := fqnOf(b.Destination, exchanges, queues); ok {
					b.Destination = fqn
				}
				bindings[b.Name] = b
			}
		}
		entry["bindings"] = bindings

		if pubs, ok := entry["publications"].(Raw); ok {
			for pName, pv := range normalizeKeyed(pubs) {
				if _, exists := rootPubs[pName]; exists {
					return errDuplicatePublication(pName)
				}
				p := pv.(Raw)
				p["vhost"] = name
				rootPubs[pName] = p
			}
			delete(entry, "publications")
		}
		if subs, ok := entry["subscriptions"].(Raw); ok {
			for sName, sv := range normalizeKeyed(subs) {
				if _, exists := rootSubs[sName]; exists {
					return errDuplicateSubscription(sName)
				}
				s := sv.(Raw)
				s["vhost"] = name
				rootSubs[sName] = s
			}
			delete(entry, "subscriptions")
		}

		vhosts[name] = entry
	}

	merged["vhosts"] = vhosts
	merged["publications"] = rootPubs
	merged["subscriptions"] = rootSubs
	return nil
}

// fqnOf resolves a bare exchange/queue name to its fully qualified
// form, checking exchanges before queues since a binding's source is
// always an exchange and its destination may be either.
func fqnOf(name string, exchanges, queues Raw) (string, bool) {
	if ex, ok := exchanges[name].(Raw); ok {
		return stringAttr(ex["fullyQualifiedName"]), true
	}
	if q, ok := queues[name].(Raw); ok {
		return stringAttr(q["fullyQualifiedName"]), true
	}
	return "", false
}

// generateDefaultPublicationsAndSubscriptions creates one auto-publication
// per vhost/exchange pair and one auto-subscription per vhost/queue pair.
// Explicit, user-named entries with the same name override the generated
// ones.
func generateDefaultPublicationsAndSubscriptions(merged Raw) {
	vhosts, _ := merged["vhosts"].(Raw)
	pubs, _ := merged["publications"].(Raw)
	subs, _ := merged["subscriptions"].(Raw)

	for vhostName, vv := range vhosts {
		v := vv.(Raw)
		exchanges, _ := v["exchanges"].(Raw)
		for exName := range exchanges {
			pubName := defaultName(vhostName, exName)
			if _, exists := pubs[pubName]; !exists {
				pubs[pubName] = Raw{
					"name":        pubName,
					"vhost":       vhostName,
					"exchange":    exName,
					"autoCreated": true,
				}
			}
		}
		queues, _ := v["queues"].(Raw)
		for qName := range queues {
			subName := defaultName(vhostName, qName)
			if _, exists := subs[subName]; !exists {
				subs[subName] = Raw{
					"name":        subName,
					"vhost":       vhostName,
					"queue":       qName,
					"autoCreated": true,
				}
			}
		}
	}

	merged["publications"] = pubs
	merged["subscriptions"] = subs
}

// defaultName builds the `<vhost>/<entity>` auto-created entry name,
// collapsing the root vhost `/` to a bare `/<entity>`.
func defaultName(vhost, entity string) string {
	if vhost == "/" {
		return "/" + entity
	}
	return vhost + "/" + entity
}
