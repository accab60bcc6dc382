package identity

import "strings"

// ModelKey is the stable identity of a record: its type and primary key. An
// empty ID means the record has not been created yet.
type ModelKey struct {
	Type string
	ID   string
}

// NewModelKey trims and builds a key.
func NewModelKey(modelType, id string) ModelKey {
	return ModelKey{Type: strings.TrimSpace(modelType), ID: strings.TrimSpace(id)}
}

// Persisted reports whether the key carries a durable identity.
func (k ModelKey) Persisted() bool {
	return k.Type != "" && k.ID != ""
}

func (k ModelKey) String() string {
	if k.ID == "" {
		return k.Type
	}
	return k.Type + "#" + k.ID
}
