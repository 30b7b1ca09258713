package config

import (
	"gopkg.in/yaml.v3"
)

// Configure decodes raw YAML (or JSON, a YAML subset) bytes and runs the
// full Configurator + Validator pipeline over them.
func Configure(raw []byte) (*Resolved, error) {
	var user Raw
	if err := yaml.Unmarshal(raw, &user); err != nil {
		return nil, err
	}
	return ConfigureMap(normalizeDecoded(user))
}

// ConfigureMap runs the Configurator + Validator pipeline over an
// already-decoded configuration tree. It is a pure, synchronous
// function: any failure is a configuration error.
func ConfigureMap(user Raw) (*Resolved, error) {
	merged, err := deepMerge(user, baseline())
	if err != nil {
		return nil, err
	}

	if err := expandVhosts(merged); err != nil {
		return nil, err
	}
	generateDefaultPublicationsAndSubscriptions(merged)

	pubs, err := resolvePublications(merged)
	if err != nil {
		return nil, err
	}
	subs, err := resolveSubscriptions(merged)
	if err != nil {
		return nil, err
	}

	shovelsRaw := normalizeKeyed(merged["shovels"])
	shovels := map[string]*Shovel{}
	for name, sv := range shovelsRaw {
		shovels[name] = resolveShovel(name, sv.(Raw))
	}

	countersRaw := normalizeKeyed(merged["counters"])
	defaults, _ := merged["defaults"].(Raw)
	counters := map[string]*Counter{}
	for name, cv := range countersRaw {
		counters[name] = resolveCounter(name, cv.(Raw), defaults)
	}

	encryption, _ := merged["encryption"].(Raw)

	resolved := &Resolved{
		Vhosts:        convertVhosts(merged["vhosts"].(Raw)),
		Publications:  pubs,
		Subscriptions: subs,
		Shovels:       shovels,
		Counters:      counters,
		Encryption:    convertEncryption(encryption),
		Defaults:      defaults,
	}

	if err := Validate(resolved); err != nil {
		return nil, err
	}
	return resolved, nil
}

// normalizeDecoded returns the decoded top-level tree as Raw, or an
// empty Raw if it is not a mapping. yaml.v3 already decodes string-keyed
// mappings as map[string]interface{} (the type Raw names), so nested
// values are passed through unchanged, not converted.
func normalizeDecoded(v interface{}) Raw {
	m, ok := v.(Raw)
	if !ok {
		return Raw{}
	}
	return m
}
