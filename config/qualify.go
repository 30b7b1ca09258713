package config

import "strings"

// qualify computes the fully-qualified, wire-visible name for an entity:
// `namespace + ":" + name (+ ":" + tag)`. The namespace prefix is added
// even when namespace is the empty string (a bare vhost carries the
// empty namespace, not no namespace) — the one entity exempt from
// qualification is the nameless default exchange, whose name is itself
// the empty string: qualify("", ns, tag) is always "".
func qualify(name, namespace string, tag ...string) string {
	if name == "" {
		return ""
	}

	fqn := name
	if len(tag) > 0 && tag[0] != "" {
		fqn = fqn + ":" + tag[0]
	}
	return namespace + ":" + fqn
}

// loggableURL replaces the password component of a connection URL with
// a redaction marker, leaving everything else unchanged.
func loggableURL(raw string) string {
	at := strings.Index(raw, "@")
	if at < 0 {
		return raw
	}
	scheme := strings.Index(raw, "://")
	if scheme < 0 {
		return raw
	}
	creds := raw[scheme+3 : at]
	colon := strings.Index(creds, ":")
	if colon < 0 {
		return raw
	}
	return raw[:scheme+3] + creds[:colon] + ":***@" + raw[at+1:]
}
