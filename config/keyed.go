package config

import "github.com/google/uuid"

// normalizeKeyed accepts either an ordered sequence of entries (each a
// bare string name or a mapping with a "name" field) or a mapping already
// keyed by name, and returns a mapping keyed by name. Anonymous sequence
// entries receive a fresh "unnamed-<uuid>" key. Entries found under a
// mapping always have their "name" field forced to match the key.
func normalizeKeyed(raw interface{}) Raw {
	out := Raw{}
	switch v := raw.(type) {
	case nil:
		return out
	case Raw:
		for key, entry := range v {
			m := asEntryMap(entry)
			m["name"] = key
			out[key] = m
		}
	case map[string]Raw:
		for key, entry := range v {
			m := Raw{}
			for k, vv := range entry {
				m[k] = vv
			}
			m["name"] = key
			out[key] = m
		}
	case []interface{}:
		for _, item := range v {
			key, m := keyedEntry(item)
			out[key] = m
		}
	}
	return out
}

// keyedEntry derives a name/value pair for one sequence entry.
func keyedEntry(item interface{}) (string, Raw) {
	switch e := item.(type) {
	case string:
		return e, Raw{"name": e}
	case Raw:
		m := asEntryMap(e)
		if name, ok := m["name"].(string); ok && name != "" {
			return name, m
		}
		key := "unnamed-" + uuid.NewString()
		m["name"] = key
		return key, m
	default:
		key := "unnamed-" + uuid.NewString()
		return key, Raw{"name": key}
	}
}

// asEntryMap coerces a collection entry's value to a mutable Raw map,
// tolerating a nil/empty entry (e.g. `exchanges: { e1: }`).
func asEntryMap(v interface{}) Raw {
	switch e := v.(type) {
	case Raw:
		out := Raw{}
		for k, vv := range e {
			out[k] = vv
		}
		return out
	case map[interface{}]interface{}:
		out := Raw{}
		for k, vv := range e {
			if ks, ok := k.(string); ok {
				out[ks] = vv
			}
		}
		return out
	default:
		return Raw{}
	}
}
