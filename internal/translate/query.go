package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-slug"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-translatable/internal/identity"
	"github.com/goliatone/go-translatable/internal/indexes"
	"github.com/goliatone/go-translatable/internal/locale"
)

const indexTable = "translate_indexes"

// Scope builds locale-aware predicates for queries over one model type.
type Scope struct {
	manager *Manager

	ModelType string
	// KeyColumn holds the record key; defaults to "id".
	KeyColumn string
	// TableAlias qualifies base columns. Empty uses the query model alias.
	TableAlias string
	// Locale overrides the locale service for this scope.
	Locale string
}

// Scope returns a query scope for modelType.
func (m *Manager) Scope(modelType string) *Scope {
	return &Scope{manager: m, ModelType: strings.TrimSpace(modelType), KeyColumn: "id"}
}

// Query wraps a select query and remembers the translation joins applied to it.
type Query struct {
	q     *bun.SelectQuery
	joins map[joinKey]string
}

// joinKey is the exact attribute and locale a join was made for.
type joinKey struct {
	attribute string
	locale    string
}

// NewQuery wraps q.
func NewQuery(q *bun.SelectQuery) *Query {
	return &Query{q: q, joins: make(map[joinKey]string)}
}

// SelectQuery returns the underlying bun query.
func (q *Query) SelectQuery() *bun.SelectQuery { return q.q }

// Joined reports whether alias was already joined.
func (q *Query) Joined(alias string) bool {
	for _, joined := range q.joins {
		if joined == alias {
			return true
		}
	}
	return false
}

func (q *Query) String() string { return q.q.String() }

// WhereTranslated filters on attribute as translated in locale. Matching
// index rows constrain the query to their keys; when none match and fallback
// is allowed the base column is compared instead.
func (s *Scope) WhereTranslated(ctx context.Context, q *Query, attribute string, value any, code, op string) (*Query, error) {
	return s.where(ctx, q, attribute, value, code, op, true)
}

// WhereTranslatedNoFallback always constrains the query to the keys found in
// the index, which may be none.
func (s *Scope) WhereTranslatedNoFallback(ctx context.Context, q *Query, attribute string, value any, code, op string) (*Query, error) {
	return s.where(ctx, q, attribute, value, code, op, false)
}

// OrderByTranslated sorts by the translated value of attribute, falling back
// to the base column for records without an index row. Repeated calls with the
// same attribute and locale leave the query unchanged.
func (s *Scope) OrderByTranslated(q *Query, attribute, direction, code string) (*Query, error) {
	if strings.TrimSpace(attribute) == "" {
		return q, ErrAttributeRequired
	}
	dir := strings.ToUpper(strings.TrimSpace(direction))
	if dir == "" {
		dir = "ASC"
	}
	if dir != "ASC" && dir != "DESC" {
		return q, fmt.Errorf("%w: %q", ErrInvalidDirection, direction)
	}

	code = s.resolveLocale(code)
	key := joinKey{attribute: attribute, locale: code}
	if _, ok := q.joins[key]; ok {
		return q, nil
	}
	alias := JoinAlias(attribute, code)
	q.joins[key] = alias

	keyExpr, keyArgs := s.column(s.keyColumn())
	joinArgs := []any{bun.Ident(indexTable), bun.Ident(alias), bun.Ident(alias), s.ModelType, bun.Ident(alias), code, bun.Ident(alias), attribute, bun.Ident(alias)}
	joinArgs = append(joinArgs, keyArgs...)
	q.q = q.q.Join("LEFT JOIN ? AS ? ON ?.model_type = ? AND ?.locale = ? AND ?.item = ? AND ?.model_id = CAST("+keyExpr+" AS VARCHAR)", joinArgs...)

	baseExpr, baseArgs := s.column(attribute)
	orderArgs := append([]any{bun.Ident(alias)}, baseArgs...)
	q.q = q.q.OrderExpr("COALESCE(?.value, CAST("+baseExpr+" AS VARCHAR)) "+dir, orderArgs...)

	s.manager.queryLogger.Debug("translate.query.order", "model_type", s.ModelType, "attribute", attribute, "locale", code, "alias", alias)
	return q, nil
}

// JoinAlias names the index join for attribute and locale. The readable part
// folds punctuation, so a hash of the raw pair keeps first_name and
// first-name apart.
func JoinAlias(attribute, code string) string {
	sum := identity.UUID(fmt.Sprintf("translatable:join:%d:%s:%s", len(attribute), attribute, code))
	return "ti_" + aliasPart(attribute) + "_" + aliasPart(code) + "_" + strings.ReplaceAll(sum.String(), "-", "")[:8]
}

func (s *Scope) where(ctx context.Context, q *Query, attribute string, value any, code, rawOp string, allowFallback bool) (*Query, error) {
	if strings.TrimSpace(attribute) == "" {
		return q, ErrAttributeRequired
	}
	op, err := indexes.ParseOperator(rawOp)
	if err != nil {
		return q, err
	}
	code = s.resolveLocale(code)
	logger := s.manager.queryLogger

	if code == locale.Normalize(s.manager.locales.DefaultLocale()) {
		logger.Debug("translate.query.where_base", "model_type", s.ModelType, "attribute", attribute, "locale", code)
		return s.whereBase(q, attribute, op, value), nil
	}

	scalar, err := indexValue(attribute, value)
	if err != nil {
		return q, err
	}
	keys, err := s.manager.indexes.FindKeys(ctx, s.ModelType, code, attribute, op, scalar)
	if err != nil {
		return q, fmt.Errorf("translate: where %s.%s: %w", s.ModelType, attribute, err)
	}
	logger.Debug("translate.query.where", "model_type", s.ModelType, "attribute", attribute, "locale", code, "operator", string(op), "matches", len(keys))

	if len(keys) > 0 {
		return s.whereKeys(q, keys), nil
	}
	if allowFallback && s.fallbackAllowed(attribute) {
		return s.whereBase(q, attribute, op, value), nil
	}
	q.q = q.q.Where("1 = 0")
	return q, nil
}

func (s *Scope) whereKeys(q *Query, keys []string) *Query {
	expr, args := s.column(s.keyColumn())
	q.q = q.q.Where("CAST("+expr+" AS VARCHAR) IN (?)", append(args, bun.In(keys))...)
	return q
}

func (s *Scope) whereBase(q *Query, attribute string, op indexes.Operator, value any) *Query {
	expr, args := s.column(attribute)
	q.q = q.q.Where(expr+" "+op.SQL()+" ?", append(args, value)...)
	return q
}

func (s *Scope) fallbackAllowed(attribute string) bool {
	if !s.manager.useFallback {
		return false
	}
	def, ok := s.manager.registry.Lookup(s.ModelType)
	if !ok {
		return true
	}
	attr, ok := def.Options(attribute)
	return !ok || attr.FallbackToDefault
}

func (s *Scope) column(name string) (string, []any) {
	if s.TableAlias != "" {
		return "?.?", []any{bun.Ident(s.TableAlias), bun.Ident(name)}
	}
	return "?TableAlias.?", []any{bun.Ident(name)}
}

func (s *Scope) keyColumn() string {
	if s.KeyColumn == "" {
		return "id"
	}
	return s.KeyColumn
}

func (s *Scope) resolveLocale(code string) string {
	if normalized := locale.Normalize(code); normalized != "" {
		return normalized
	}
	if normalized := locale.Normalize(s.Locale); normalized != "" {
		return normalized
	}
	return locale.Normalize(s.manager.locales.CurrentLocale())
}

func aliasPart(value string) string {
	value = strings.NewReplacer(".", "-", "[", "-", "]", "-", "_", "-").Replace(value)
	normalized, err := slug.Normalize(value)
	if err != nil || normalized == "" {
		normalized = strings.ToLower(value)
	}
	var b strings.Builder
	for _, r := range normalized {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
