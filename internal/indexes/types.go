package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-translatable/internal/identity"
)

var (
	// ErrUnsupportedOperator is returned for comparison operators outside the
	// supported set.
	ErrUnsupportedOperator = errors.New("indexes: unsupported operator")
	// ErrKeyRequired is returned when an operation needs a persisted record key.
	ErrKeyRequired = errors.New("indexes: persisted model key, locale and item required")
	// ErrIdentityConflict is returned when a stored row under a derived id
	// belongs to a different (record, locale, item) triple.
	ErrIdentityConflict = errors.New("indexes: stored row belongs to another record")
)

// Entry is one searchable (record, locale, attribute) value.
type Entry struct {
	bun.BaseModel `bun:"table:translate_indexes,alias:tix"`

	ID        uuid.UUID `bun:",pk,type:uuid" json:"id"`
	ModelType string    `bun:"model_type,notnull" json:"model_type"`
	ModelID   string    `bun:"model_id,notnull" json:"model_id"`
	Locale    string    `bun:"locale,notnull" json:"locale"`
	Item      string    `bun:"item,notnull" json:"item"`
	Value     string    `bun:"value,notnull" json:"value"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// Key returns the record identity the entry belongs to.
func (e *Entry) Key() identity.ModelKey {
	if e == nil {
		return identity.ModelKey{}
	}
	return identity.NewModelKey(e.ModelType, e.ModelID)
}

// Matches reports whether the entry belongs to exactly key, locale and item.
func (e *Entry) Matches(key identity.ModelKey, locale, item string) bool {
	return e != nil && e.ModelType == key.Type && e.ModelID == key.ID && e.Locale == locale && e.Item == item
}

// Operator is a SQL comparison operator accepted by translated filters.
//
// Index values are stored as text, so the range operators order them
// lexically: "10" < "9" holds. Zero-pad numbers before indexing them when a
// numeric range is needed.
type Operator string

const (
	OpEqual        Operator = "="
	OpNotEqual     Operator = "!="
	OpNotEqualAlt  Operator = "<>"
	OpLess         Operator = "<"
	OpLessEqual    Operator = "<="
	OpGreater      Operator = ">"
	OpGreaterEqual Operator = ">="
	OpLike         Operator = "like"
)

// ParseOperator normalises an operator string. An empty string means equality.
func ParseOperator(raw string) (Operator, error) {
	op := Operator(strings.ToLower(strings.TrimSpace(raw)))
	if op == "" {
		return OpEqual, nil
	}
	switch op {
	case OpEqual, OpNotEqual, OpNotEqualAlt, OpLess, OpLessEqual, OpGreater, OpGreaterEqual, OpLike:
		return op, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedOperator, raw)
}

// SQL returns the operator as it appears in a WHERE clause.
func (o Operator) SQL() string {
	if o == OpLike {
		return "LIKE"
	}
	return string(o)
}

// Match evaluates the operator against two stored values. Values are compared
// as strings, matching how the text column compares them in SQL.
func (o Operator) Match(stored, value string) bool {
	switch o {
	case OpEqual:
		return stored == value
	case OpNotEqual, OpNotEqualAlt:
		return stored != value
	case OpLess:
		return stored < value
	case OpLessEqual:
		return stored <= value
	case OpGreater:
		return stored > value
	case OpGreaterEqual:
		return stored >= value
	case OpLike:
		return likeMatch(stored, value)
	}
	return false
}

// Repository persists index entries and answers key lookups for filters.
type Repository interface {
	// Upsert writes the entry; an empty value removes it.
	Upsert(ctx context.Context, key identity.ModelKey, locale, item, value string) error
	Delete(ctx context.Context, key identity.ModelKey, locale, item string) error
	// FindKeys returns the record ids whose value satisfies op. Range
	// operators compare text, not numbers.
	FindKeys(ctx context.Context, modelType, locale, item string, op Operator, value string) ([]string, error)
	Exists(ctx context.Context, key identity.ModelKey, locale, item string) (bool, error)
	ListForModel(ctx context.Context, key identity.ModelKey) ([]*Entry, error)
	DeleteForModel(ctx context.Context, key identity.ModelKey) (int, error)
}

func validateKey(key identity.ModelKey, locale, item string) error {
	if !key.Persisted() || strings.TrimSpace(locale) == "" || strings.TrimSpace(item) == "" {
		return ErrKeyRequired
	}
	return nil
}

// likeMatch implements SQL LIKE with % and _ wildcards, case-insensitively for
// ASCII as sqlite does.
func likeMatch(value, pattern string) bool {
	v := []rune(strings.ToLower(value))
	p := []rune(strings.ToLower(pattern))
	var match func(i, j int) bool
	match = func(i, j int) bool {
		for j < len(p) {
			switch p[j] {
			case '%':
				for k := i; k <= len(v); k++ {
					if match(k, j+1) {
						return true
					}
				}
				return false
			case '_':
				if i >= len(v) {
					return false
				}
			default:
				if i >= len(v) || v[i] != p[j] {
					return false
				}
			}
			i++
			j++
		}
		return i == len(v)
	}
	return match(0, 0)
}
