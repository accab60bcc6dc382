// Package attrpath resolves dotted or bracketed attribute names (address.city,
// viewBag[title], items[0].label) to locations inside nested value maps. Get,
// Set and Unset share Split so reads and writes always address the same slot.
package attrpath

import "strings"

// Split breaks an attribute path into its segments. Empty segments are
// dropped, so "a..b" and "a[]b" both resolve to [a b].
func Split(path string) []string {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	segments := make([]string, 0, 4)
	var current strings.Builder
	flush := func() {
		if current.Len() == 0 {
			return
		}
		segments = append(segments, current.String())
		current.Reset()
	}
	for _, r := range path {
		switch r {
		case '.', '[', ']':
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return segments
}

// Root returns the first segment of path, i.e. the attribute column that holds
// the nested value.
func Root(path string) string {
	segments := Split(path)
	if len(segments) == 0 {
		return ""
	}
	return segments[0]
}

// Get returns the value stored at path and whether it exists.
func Get(data map[string]any, path string) (any, bool) {
	segments := Split(path)
	if len(segments) == 0 || data == nil {
		return nil, false
	}
	var current any = data
	for _, segment := range segments {
		node, ok := asMap(current)
		if !ok {
			return nil, false
		}
		current, ok = node[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Set stores value at path, creating intermediate maps as needed. Non-map
// intermediates are replaced. Set is a no-op for an empty path or nil map.
func Set(data map[string]any, path string, value any) {
	segments := Split(path)
	if len(segments) == 0 || data == nil {
		return
	}
	node := data
	for _, segment := range segments[:len(segments)-1] {
		next, ok := asMap(node[segment])
		if !ok {
			next = map[string]any{}
			node[segment] = next
		}
		node = next
	}
	node[segments[len(segments)-1]] = value
}

// Unset removes the value at path. Missing paths are ignored.
func Unset(data map[string]any, path string) {
	segments := Split(path)
	if len(segments) == 0 || data == nil {
		return
	}
	node := data
	for _, segment := range segments[:len(segments)-1] {
		next, ok := asMap(node[segment])
		if !ok {
			return
		}
		node = next
	}
	delete(node, segments[len(segments)-1])
}

func asMap(value any) (map[string]any, bool) {
	switch typed := value.(type) {
	case map[string]any:
		return typed, typed != nil
	default:
		return nil, false
	}
}
