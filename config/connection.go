package config

import (
	"crypto/rand"
	"math/big"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// hostIndexCache assigns a stable, random-once ordering index to every
// distinct host:port seen while expanding connections under any
// connectionStrategy other than "fixed". Process-wide and write-once per
// host, so repeated configuration runs agree on ordering.
var (
	hostIndexMu    sync.Mutex
	hostIndexCache = map[string]int{}
)

func hostIndex(hostport string) int {
	hostIndexMu.Lock()
	defer hostIndexMu.Unlock()
	if idx, ok := hostIndexCache[hostport]; ok {
		return idx
	}
	n, _ := rand.Int(rand.Reader, big.NewInt(1<<31))
	idx := int(n.Int64())
	hostIndexCache[hostport] = idx
	return idx
}

// parsedConnectionURL is the attribute set extracted from a connection URL.
type parsedConnectionURL struct {
	Protocol string
	Hostname string
	Port     int
	User     string
	Password string
	Vhost    string
	Options  map[string]string
}

func parseConnectionURL(raw string) (*parsedConnectionURL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errInvalidConnectionURL(raw, err)
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return nil, errInvalidProtocol(u.Scheme)
	}

	p := &parsedConnectionURL{Protocol: u.Scheme, Hostname: u.Hostname()}
	if u.Port() != "" {
		if port, err := strconv.Atoi(u.Port()); err == nil {
			p.Port = port
		}
	} else if u.Scheme == "amqps" {
		p.Port = 5671
	} else {
		p.Port = 5672
	}
	if u.User != nil {
		p.User = u.User.Username()
		if pw, ok := u.User.Password(); ok {
			p.Password = pw
		}
	}
	vhostPath := strings.TrimPrefix(u.Path, "/")
	if vhostPath != "" {
		if decoded, err := url.PathUnescape(vhostPath); err == nil {
			p.Vhost = decoded
		} else {
			p.Vhost = vhostPath
		}
	}
	if q := u.Query(); len(q) > 0 {
		p.Options = map[string]string{}
		for k := range q {
			p.Options[k] = q.Get(k)
		}
	}
	return p, nil
}

// buildConnectionURL recomposes a connection URL from its resolved
// attributes, honoring preEncoded to avoid double-escaping components
// that already arrived percent-encoded.
func buildConnectionURL(c Raw, preEncoded map[string]bool) string {
	protocol, _ := c["protocol"].(string)
	hostname, _ := c["hostname"].(string)
	port := intAttr(c["port"])
	user, _ := c["user"].(string)
	password, _ := c["password"].(string)
	vhost, _ := c["vhost"].(string)

	var b strings.Builder
	b.WriteString(protocol)
	b.WriteString("://")
	if user != "" {
		if preEncoded["auth"] {
			b.WriteString(user)
		} else {
			b.WriteString(url.QueryEscape(user))
		}
		if password != "" {
			b.WriteString(":")
			if preEncoded["auth"] {
				b.WriteString(password)
			} else {
				b.WriteString(url.QueryEscape(password))
			}
		}
		b.WriteString("@")
	}
	b.WriteString(hostname)
	if port != 0 {
		b.WriteString(":")
		b.WriteString(strconv.Itoa(port))
	}
	b.WriteString("/")
	if vhost != "" && vhost != "/" {
		if preEncoded["pathname"] {
			b.WriteString(vhost)
		} else {
			b.WriteString(url.PathEscape(vhost))
		}
	}
	if opts, ok := c["options"].(map[string]string); ok && len(opts) > 0 {
		b.WriteString("?")
		first := true
		keys := make([]string, 0, len(opts))
		for k := range opts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if !first {
				b.WriteString("&")
			}
			first = false
			if preEncoded["query"] {
				b.WriteString(k)
				b.WriteString("=")
				b.WriteString(opts[k])
			} else {
				b.WriteString(url.QueryEscape(k))
				b.WriteString("=")
				b.WriteString(url.QueryEscape(opts[k]))
			}
		}
	}
	return b.String()
}

func intAttr(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func boolAttr(v interface{}) bool {
	b, _ := v.(bool)
	return b
}

func stringAttr(v interface{}) string {
	s, _ := v.(string)
	return s
}

// normalizeConnections expands a vhost's `connection`/`connections`
// attributes into a single, fully resolved, sorted connection list.
func normalizeConnections(vhostName, strategy string, raw interface{}) ([]Raw, error) {
	var entries []interface{}
	switch v := raw.(type) {
	case nil:
		entries = nil
	case []interface{}:
		entries = v
	default:
		entries = []interface{}{v}
	}
	if len(entries) == 0 {
		entries = []interface{}{Raw{}}
	}

	seen := map[string]int{}
	var out []Raw
	for _, e := range entries {
		var entry Raw
		switch v := e.(type) {
		case string:
			entry = Raw{"url": v}
		case Raw:
			entry = v
		default:
			entry = Raw{}
		}

		merged := Raw{}
		for k, v := range connectionDefaults() {
			merged[k] = v
		}
		merged["vhost"] = vhostName
		for k, v := range entry {
			if k == "url" || k == "preEncoded" || k == "management" {
				continue
			}
			merged[k] = v
		}

		preEncoded := map[string]bool{}
		if pe, ok := entry["preEncoded"].(Raw); ok {
			for k, v := range pe {
				preEncoded[k] = boolAttr(v)
			}
		}

		if rawURL, ok := entry["url"].(string); ok && rawURL != "" {
			parsed, err := parseConnectionURL(rawURL)
			if err != nil {
				return nil, err
			}
			merged["protocol"] = parsed.Protocol
			merged["hostname"] = parsed.Hostname
			if parsed.Port != 0 {
				merged["port"] = parsed.Port
			}
			if parsed.User != "" {
				merged["user"] = parsed.User
			}
			if parsed.Password != "" {
				merged["password"] = parsed.Password
			}
			if parsed.Vhost != "" {
				merged["vhost"] = parsed.Vhost
			}
			if len(parsed.Options) > 0 {
				merged["options"] = parsed.Options
			}
		}

		if protocol := stringAttr(merged["protocol"]); protocol != "amqp" && protocol != "amqps" {
			return nil, errInvalidProtocol(protocol)
		}

		merged["url"] = buildConnectionURL(merged, preEncoded)
		merged["loggable_url"] = loggableURL(stringAttr(merged["url"]))

		mgmt := buildManagement(merged, entry)
		merged["management"] = mgmt

		key := stringAttr(merged["hostname"]) + ":" + strconv.Itoa(intAttr(merged["port"])) + ":" + stringAttr(merged["vhost"])
		if idx, dup := seen[key]; dup {
			// the entry that appears last wins on attribute conflicts
			out[idx] = merged
			continue
		}
		seen[key] = len(out)

		if strategy == "fixed" {
			merged["index"] = len(out)
		} else {
			merged["index"] = hostIndex(stringAttr(merged["hostname"]) + ":" + strconv.Itoa(intAttr(merged["port"])))
		}
		out = append(out, merged)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return intAttr(out[i]["index"]) < intAttr(out[j]["index"])
	})
	for _, c := range out {
		delete(c, "index")
	}
	return out, nil
}

func buildManagement(merged, entry Raw) Raw {
	mgmt := Raw{}
	if m, ok := entry["management"].(Raw); ok {
		for k, v := range m {
			mgmt[k] = v
		}
	}
	hostname := stringAttr(mgmt["hostname"])
	if hostname == "" {
		hostname = stringAttr(merged["hostname"])
	}
	user := stringAttr(mgmt["user"])
	password := stringAttr(mgmt["password"])
	if auth, ok := mgmt["auth"].(Raw); ok {
		if user == "" {
			user = stringAttr(auth["user"])
		}
		if password == "" {
			password = stringAttr(auth["password"])
		}
	}
	if user == "" {
		user = stringAttr(merged["user"])
	}
	if password == "" {
		password = stringAttr(merged["password"])
	}

	var b strings.Builder
	b.WriteString("http://")
	if user != "" {
		b.WriteString(url.QueryEscape(user))
		if password != "" {
			b.WriteString(":")
			b.WriteString(url.QueryEscape(password))
		}
		b.WriteString("@")
	}
	b.WriteString(hostname)
	b.WriteString(":15672")
	fullURL := b.String()

	return Raw{
		"hostname":     hostname,
		"url":          fullURL,
		"loggable_url": loggableURL(fullURL),
		"auth":         Raw{"user": user, "password": password},
	}
}
