package attributes

import (
	"fmt"
	"slices"
	"strings"
)

// Definition is the resolved translatable declaration of a model type: the
// ordered attribute names and their options.
type Definition struct {
	modelType string
	names     []string
	options   map[string]Attribute
}

// Resolve turns a declaration list into a Definition. Each entry may be a
// string, an Attribute (or pointer), a map with name/index/fallback keys, or a
// two element []any pairing a name with an options map. Malformed entries fail
// immediately with a DeclarationError.
func Resolve(modelType string, decl []any) (*Definition, error) {
	def := &Definition{
		modelType: strings.TrimSpace(modelType),
		names:     make([]string, 0, len(decl)),
		options:   make(map[string]Attribute, len(decl)),
	}
	for idx, entry := range decl {
		attr, err := resolveEntry(entry)
		if err != nil {
			return nil, &DeclarationError{Index: idx, Value: entry, Err: err}
		}
		if err := attr.Validate(); err != nil {
			if NormalizeName(attr.Name) == ReservedName {
				return nil, &DeclarationError{Index: idx, Value: entry, Err: ErrReservedAttribute}
			}
			return nil, &DeclarationError{Index: idx, Value: entry, Err: err}
		}
		attr.Name = NormalizeName(attr.Name)
		if _, exists := def.options[attr.Name]; exists {
			return nil, &DeclarationError{Index: idx, Value: entry, Err: ErrDuplicateAttribute}
		}
		def.names = append(def.names, attr.Name)
		def.options[attr.Name] = attr
	}
	return def, nil
}

// MustResolve is Resolve for static declarations; it panics on error.
func MustResolve(modelType string, decl ...any) *Definition {
	def, err := Resolve(modelType, decl)
	if err != nil {
		panic(err)
	}
	return def
}

// ModelType returns the model type the definition was registered for.
func (d *Definition) ModelType() string {
	if d == nil {
		return ""
	}
	return d.modelType
}

// Names returns the declared attribute names in declaration order.
func (d *Definition) Names() []string {
	if d == nil {
		return nil
	}
	return slices.Clone(d.names)
}

// Options returns the options declared for name.
func (d *Definition) Options(name string) (Attribute, bool) {
	if d == nil {
		return Attribute{}, false
	}
	attr, ok := d.options[NormalizeName(name)]
	return attr, ok
}

// Has reports whether name is declared translatable. The reserved name is
// always excluded.
func (d *Definition) Has(name string) bool {
	normalized := NormalizeName(name)
	if normalized == ReservedName {
		return false
	}
	_, ok := d.Options(normalized)
	return ok
}

// Attributes returns the declared attributes in declaration order.
func (d *Definition) Attributes() []Attribute {
	if d == nil {
		return nil
	}
	out := make([]Attribute, 0, len(d.names))
	for _, name := range d.names {
		out = append(out, d.options[name])
	}
	return out
}

// Indexed returns the attributes flagged for the translation index.
func (d *Definition) Indexed() []Attribute {
	out := []Attribute{}
	for _, attr := range d.Attributes() {
		if attr.Indexed {
			out = append(out, attr)
		}
	}
	return out
}

// Len returns the number of declared attributes.
func (d *Definition) Len() int {
	if d == nil {
		return 0
	}
	return len(d.names)
}

func resolveEntry(entry any) (Attribute, error) {
	switch typed := entry.(type) {
	case string:
		return New(typed), nil
	case Attribute:
		return typed, nil
	case *Attribute:
		if typed == nil {
			return Attribute{}, fmt.Errorf("nil attribute")
		}
		return *typed, nil
	case map[string]any:
		name, ok := typed["name"].(string)
		if !ok {
			return Attribute{}, fmt.Errorf("options map requires a string name")
		}
		return applyOptions(New(name), typed)
	case []any:
		return resolvePair(typed)
	case []string:
		if len(typed) != 1 {
			return Attribute{}, fmt.Errorf("string list entries must hold exactly one name")
		}
		return New(typed[0]), nil
	default:
		return Attribute{}, fmt.Errorf("unsupported declaration type")
	}
}

func resolvePair(pair []any) (Attribute, error) {
	if len(pair) == 0 || len(pair) > 2 {
		return Attribute{}, fmt.Errorf("pair entries must hold a name and optional options")
	}
	name, ok := pair[0].(string)
	if !ok {
		return Attribute{}, fmt.Errorf("pair entries must start with a string name")
	}
	attr := New(name)
	if len(pair) == 1 {
		return attr, nil
	}
	options, ok := pair[1].(map[string]any)
	if !ok {
		return Attribute{}, fmt.Errorf("pair options must be a map")
	}
	return applyOptions(attr, options)
}

func applyOptions(attr Attribute, options map[string]any) (Attribute, error) {
	for key, value := range options {
		switch key {
		case "name":
		case "index", "indexed":
			flag, ok := value.(bool)
			if !ok {
				return Attribute{}, fmt.Errorf("option %q must be a boolean", key)
			}
			attr.Indexed = flag
		case "fallback", "fallback_to_default":
			flag, ok := value.(bool)
			if !ok {
				return Attribute{}, fmt.Errorf("option %q must be a boolean", key)
			}
			attr.FallbackToDefault = flag
		default:
			return Attribute{}, fmt.Errorf("unknown option %q", key)
		}
	}
	return attr, nil
}
