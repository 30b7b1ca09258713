package config

// resolveCounter applies type defaulting (a counter's type defaults to
// its own name) and merges in `defaults.redeliveries.counters.<type>`.
func resolveCounter(name string, entry Raw, defaults Raw) *Counter {
	kind := stringAttr(entry["type"])
	if kind == "" {
		kind = name
	}

	options := Raw{}
	if perType := lookupCounterDefaults(defaults, kind); perType != nil {
		for k, v := range perType {
			if k == "type" {
				continue
			}
			options[k] = v
		}
	}
	for k, v := range entry {
		if k == "name" || k == "type" {
			continue
		}
		options[k] = v
	}

	return &Counter{Name: name, Type: kind, Options: options}
}

func lookupCounterDefaults(defaults Raw, kind string) Raw {
	redeliveries, ok := defaults["redeliveries"].(Raw)
	if !ok {
		return nil
	}
	counters, ok := redeliveries["counters"].(Raw)
	if !ok {
		return nil
	}
	perType, ok := counters[kind].(Raw)
	if !ok {
		return nil
	}
	return perType
}
