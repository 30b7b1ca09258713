package config

import (
	"regexp"
	"strings"
)

var bindingNamePattern = regexp.MustCompile(`^\s*([^\[\s]+)\s*(?:\[\s*([^\]]*)\s*\])?\s*->\s*(.+?)\s*$`)

// parseBindingName decodes a binding name of the form
// `source[ key1, key2 ]-> destination` into its source, destination and
// binding-key parts. Entries that don't match the pattern are left
// untouched (source/destination must then come from explicit fields).
func parseBindingName(name string) (source, destination string, keys []string, matched bool) {
	m := bindingNamePattern.FindStringSubmatch(name)
	if m == nil {
		return "", "", nil, false
	}
	source = m[1]
	destination = m[3]
	keys = splitKeys(m[2])
	return source, destination, keys, true
}

func splitKeys(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	var out []string
	for _, f := range fields {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func unionKeys(lists ...[]string) []string {
	seen := map[string]bool{}
	var out []string
	for _, l := range lists {
		for _, k := range l {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	return out
}

// expandBinding produces the one-or-more resolved Binding entries a
// single binding configuration entry fans out into, one per key.
func expandBinding(name string, entry Raw, namespace string) []*Binding {
	source := stringAttr(entry["source"])
	destination := stringAttr(entry["destination"])
	var parsedKeys []string
	if parsedSource, parsedDest, keys, ok := parseBindingName(name); ok {
		if source == "" {
			source = parsedSource
		}
		if destination == "" {
			destination = parsedDest
		}
		parsedKeys = keys
	}

	var explicit []string
	if bk := stringAttr(entry["bindingKey"]); bk != "" {
		explicit = append(explicit, bk)
	}
	switch v := entry["bindingKeys"].(type) {
	case []interface{}:
		for _, k := range v {
			if s, ok := k.(string); ok && s != "" {
				explicit = append(explicit, s)
			}
		}
	case []string:
		explicit = append(explicit, v...)
	}

	keys := unionKeys(parsedKeys, explicit)
	qualifyKeys := boolAttr(entry["qualifyBindingKeys"])

	if len(keys) <= 1 {
		key := ""
		if len(keys) == 1 {
			key = keys[0]
			if qualifyKeys {
				key = qualify(key, namespace)
			}
		}
		return []*Binding{{
			Name:               name,
			Source:             source,
			Destination:        destination,
			BindingKey:         key,
			QualifyBindingKeys: qualifyKeys,
		}}
	}

	out := make([]*Binding, 0, len(keys))
	for _, k := range keys {
		key := k
		if qualifyKeys {
			key = qualify(key, namespace)
		}
		out = append(out, &Binding{
			Name:               name + ":" + k,
			Source:             source,
			Destination:        destination,
			BindingKey:         key,
			QualifyBindingKeys: qualifyKeys,
		})
	}
	return out
}
