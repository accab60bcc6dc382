package blobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-translatable/internal/identity"
)

// ErrNotFound is returned when no blob exists for a (record, locale) pair.
var ErrNotFound = errors.New("blobs: translation blob not found")

// ErrKeyRequired is returned when an operation needs a persisted record key.
var ErrKeyRequired = errors.New("blobs: persisted model key required")

// ErrIdentityConflict is returned when a stored row under a derived id
// belongs to a different (record, locale) pair.
var ErrIdentityConflict = errors.New("blobs: stored row belongs to another record")

// Blob is the persisted overlay of one record in one locale. AttributeData
// holds the JSON document of translated attribute values.
type Blob struct {
	bun.BaseModel `bun:"table:translate_attributes,alias:ta"`

	ID            uuid.UUID `bun:",pk,type:uuid" json:"id"`
	ModelType     string    `bun:"model_type,notnull" json:"model_type"`
	ModelID       string    `bun:"model_id,notnull" json:"model_id"`
	Locale        string    `bun:"locale,notnull" json:"locale"`
	AttributeData string    `bun:"attribute_data,notnull" json:"attribute_data"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// Key returns the record identity the blob belongs to.
func (b *Blob) Key() identity.ModelKey {
	if b == nil {
		return identity.ModelKey{}
	}
	return identity.NewModelKey(b.ModelType, b.ModelID)
}

// Matches reports whether the blob belongs to exactly key and locale.
func (b *Blob) Matches(key identity.ModelKey, locale string) bool {
	return b != nil && b.ModelType == key.Type && b.ModelID == key.ID && b.Locale == locale
}

// Document decodes AttributeData.
func (b *Blob) Document() (map[string]any, error) {
	if b == nil {
		return map[string]any{}, nil
	}
	return DecodeDocument(b.AttributeData)
}

// Repository persists one overlay document per (record, locale).
type Repository interface {
	Get(ctx context.Context, key identity.ModelKey, locale string) (map[string]any, error)
	Upsert(ctx context.Context, key identity.ModelKey, locale string, document map[string]any) error
	ListForModels(ctx context.Context, modelType string, ids []string, locales ...string) ([]*Blob, error)
	ListByType(ctx context.Context, modelType string) ([]*Blob, error)
	DeleteForModel(ctx context.Context, key identity.ModelKey) (int, error)
}

// NotFoundError describes a missing blob and unwraps to ErrNotFound.
type NotFoundError struct {
	Key    identity.ModelKey
	Locale string
}

func (e *NotFoundError) Error() string {
	if e == nil {
		return ErrNotFound.Error()
	}
	return fmt.Sprintf("%s: %s locale=%s", ErrNotFound.Error(), e.Key.String(), e.Locale)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// EncodeDocument serialises an overlay document as JSON, leaving unicode and
// HTML characters unescaped.
func EncodeDocument(document map[string]any) (string, error) {
	if document == nil {
		document = map[string]any{}
	}
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(document); err != nil {
		return "", fmt.Errorf("blobs: encode attribute data: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// DecodeDocument parses stored attribute data. Empty input decodes to an
// empty document.
func DecodeDocument(data string) (map[string]any, error) {
	document := map[string]any{}
	if strings.TrimSpace(data) == "" {
		return document, nil
	}
	if err := json.Unmarshal([]byte(data), &document); err != nil {
		return nil, fmt.Errorf("blobs: decode attribute data: %w", err)
	}
	if document == nil {
		document = map[string]any{}
	}
	return document, nil
}

func validateKey(key identity.ModelKey, locale string) error {
	if !key.Persisted() || strings.TrimSpace(locale) == "" {
		return ErrKeyRequired
	}
	return nil
}
