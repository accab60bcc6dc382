package attributes

import (
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-translatable/internal/attrpath"
)

// ReservedName can never be declared translatable.
const ReservedName = "translatable"

var (
	ErrInvalidDeclaration = errors.New("attributes: invalid translatable declaration")
	ErrReservedAttribute  = errors.New("attributes: attribute name is reserved")
	ErrDuplicateAttribute = errors.New("attributes: attribute declared more than once")
	ErrModelTypeRequired  = errors.New("attributes: model type is required")
)

// Attribute describes one translatable field of a model type.
type Attribute struct {
	Name              string `json:"name"`
	Indexed           bool   `json:"index"`
	FallbackToDefault bool   `json:"fallback"`
}

// New returns an attribute with fallback enabled and indexing disabled.
func New(name string) Attribute {
	return Attribute{Name: name, FallbackToDefault: true}
}

// Validate checks the attribute name with ozzo-validation rules.
func (a Attribute) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Name, validation.Required, validation.By(func(value any) error {
			name, _ := value.(string)
			if len(attrpath.Split(name)) == 0 {
				return validation.NewError("translatable.attribute.name_invalid", "name must contain at least one path segment")
			}
			if NormalizeName(name) == ReservedName {
				return validation.NewError("translatable.attribute.name_reserved", "name is reserved")
			}
			return nil
		})),
	)
}

// NormalizeName canonicalises bracketed and dotted paths to dotted form so
// address[city] and address.city name the same attribute.
func NormalizeName(name string) string {
	return strings.Join(attrpath.Split(name), ".")
}

// DeclarationError reports the declaration entry that could not be resolved.
type DeclarationError struct {
	Index  int
	Value  any
	Reason string
	Err    error
}

func (e *DeclarationError) Error() string {
	if e == nil {
		return ErrInvalidDeclaration.Error()
	}
	reason := strings.TrimSpace(e.Reason)
	if reason == "" && e.Err != nil {
		reason = e.Err.Error()
	}
	if reason == "" {
		return fmt.Sprintf("%s: entry %d (%T)", ErrInvalidDeclaration.Error(), e.Index, e.Value)
	}
	return fmt.Sprintf("%s: entry %d (%T): %s", ErrInvalidDeclaration.Error(), e.Index, e.Value, reason)
}

func (e *DeclarationError) Unwrap() []error {
	if e == nil {
		return []error{ErrInvalidDeclaration}
	}
	if e.Err != nil {
		return []error{ErrInvalidDeclaration, e.Err}
	}
	return []error{ErrInvalidDeclaration}
}
