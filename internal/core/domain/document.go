package domain

import "time"

// Document represents one note in the watched tree.
// The tree is owned by the filesystem; notewatch only reads it.
type Document struct {
	// ID is a stable identifier derived from Path.
	ID string

	// Path is the slash-separated path relative to the notes root.
	Path string

	// AbsPath is the location on disk used for reading.
	AbsPath string

	// ModTime is the last modification time reported by the filesystem.
	ModTime time.Time
}

// FieldMap maps tracked field names to their current values.
// It is extracted fresh every cycle and never persisted as-is.
type FieldMap map[string]any

// Get returns the value of a field, or nil if absent.
func (m FieldMap) Get(field string) any {
	if m == nil {
		return nil
	}
	return m[field]
}

// Only returns a copy containing just the named fields that are present.
func (m FieldMap) Only(fields []string) FieldMap {
	out := make(FieldMap, len(fields))
	for _, f := range fields {
		if v, ok := m[f]; ok {
			out[f] = v
		}
	}
	return out
}

// Clone returns a shallow copy of the map.
func (m FieldMap) Clone() FieldMap {
	if m == nil {
		return FieldMap{}
	}
	out := make(FieldMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
