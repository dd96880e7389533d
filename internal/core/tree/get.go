package tree

import "time"

// The helpers below are the only place that decides how a loosely-typed
// field is coerced. Missing keys and wrong-typed values yield the default.

// GetString returns a String or Number field in canonical text form.
func (v Value) GetString(key, def string) string {
	if s, ok := v.Get(key).Canonical(); ok {
		return s
	}
	return def
}

// GetInt returns a Number field as int64.
func (v Value) GetInt(key string, def int64) int64 {
	if n, ok := v.Get(key).AsInt(); ok {
		return n
	}
	return def
}

// GetFloat returns a Number field as float64.
func (v Value) GetFloat(key string, def float64) float64 {
	if f, ok := v.Get(key).AsFloat(); ok {
		return f
	}
	return def
}

// GetBool returns a Bool field.
func (v Value) GetBool(key string, def bool) bool {
	if b, ok := v.Get(key).AsBool(); ok {
		return b
	}
	return def
}

// GetSeconds returns a Number field holding seconds as a Duration.
func (v Value) GetSeconds(key string, def time.Duration) time.Duration {
	if f, ok := v.Get(key).AsFloat(); ok {
		return time.Duration(f * float64(time.Second))
	}
	return def
}

// Lookup walks a path of mapping keys and returns the first one found from
// the list of candidate paths.
func (v Value) Lookup(paths ...[]string) (Value, bool) {
	for _, path := range paths {
		cur := v
		found := true
		for _, key := range path {
			if !cur.Has(key) {
				found = false
				break
			}
			cur = cur.Get(key)
		}
		if found {
			return cur, true
		}
	}
	return Value{}, false
}
