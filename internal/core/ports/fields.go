package ports

import (
	"encoding/json"
	"sort"
)

// Fields is a raw PATCH payload keyed by JSON field name. Values are decoded
// only after the key set has passed the allow-list.
type Fields map[string]json.RawMessage

// Disallowed returns the keys of f that are not in allowed, sorted.
func (f Fields) Disallowed(allowed ...string) []string {
	set := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		set[a] = struct{}{}
	}
	var out []string
	for k := range f {
		if _, ok := set[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
