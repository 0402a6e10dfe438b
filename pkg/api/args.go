package api

import "maps"

type (
	// Args is an opaque key/value map handed to an execution unit
	Args map[string]any

	// Metadata is a general-purpose key/value container attached to projects
	Metadata map[string]any
)

// Apply returns a copy of the Args with every key of other merged in. Keys
// present in other take precedence
func (a Args) Apply(other Args) Args {
	res := make(Args, len(a)+len(other))
	maps.Copy(res, a)
	maps.Copy(res, other)
	return res
}

// Apply returns a copy of the Metadata with every key of other merged in
func (m Metadata) Apply(other Metadata) Metadata {
	res := make(Metadata, len(m)+len(other))
	maps.Copy(res, m)
	maps.Copy(res, other)
	return res
}

// GetString returns the string stored under key, if present and non-empty
func (m Metadata) GetString(key string) (string, bool) {
	v, ok := m[key].(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
