package config

import "dario.cat/mergo"

// deepMerge merges base under user, so user-supplied values win wherever
// both specify the same field, but fields user never set fall back to
// base. Plain mappings merge recursively; since a non-empty slice on
// the user side is never "empty", it is kept whole rather than appended
// to base's slice — i.e. arrays are replaced, not concatenated.
func deepMerge(user, base Raw) (Raw, error) {
	merged := deepCopy(user)
	if err := mergo.Merge(&merged, base); err != nil {
		return nil, err
	}
	return merged, nil
}

// deepCopy produces an independent copy of a generic config tree so the
// merge step never mutates the caller's original map.
func deepCopy(v interface{}) Raw {
	out := Raw{}
	m, ok := v.(Raw)
	if !ok {
		return out
	}
	for k, val := range m {
		out[k] = deepCopyValue(val)
	}
	return out
}

func deepCopyValue(v interface{}) interface{} {
	switch vv := v.(type) {
	case Raw:
		return deepCopy(vv)
	case []interface{}:
		out := make([]interface{}, len(vv))
		for i, item := range vv {
			out[i] = deepCopyValue(item)
		}
		return out
	default:
		return vv
	}
}
