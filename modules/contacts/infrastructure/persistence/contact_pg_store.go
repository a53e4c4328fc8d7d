package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/act-community/steward/modules/contacts/domain/ports"
	"github.com/act-community/steward/modules/contacts/domain/types"
	"github.com/act-community/steward/pkg/httperr"
)

type pgQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type ContactPGStore struct {
	pool pgQuerier
}

func NewContactPGStore(pool pgQuerier) ports.ContactStore {
	return &ContactPGStore{pool: pool}
}

func (s *ContactPGStore) Load(ctx context.Context, id string) (types.Contact, error) {
	var contact types.Contact
	var tagsRaw, fieldsRaw []byte
	err := s.pool.QueryRow(ctx, `
SELECT id, tags, fields, created_at, updated_at
FROM contacts
WHERE id = $1
`, id).Scan(&contact.ID, &tagsRaw, &fieldsRaw, &contact.CreatedAt, &contact.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.Contact{}, ports.ErrNotFound
		}
		return types.Contact{}, err
	}
	if err := decodeContactJSON(&contact, tagsRaw, fieldsRaw); err != nil {
		return types.Contact{}, err
	}
	return contact, nil
}

func (s *ContactPGStore) Save(ctx context.Context, contact types.Contact) (types.Contact, error) {
	tags := contact.Tags
	if tags == nil {
		tags = []string{}
	}
	fields := contact.Fields
	if fields == nil {
		fields = map[string]any{}
	}
	tagsRaw, err := json.Marshal(tags)
	if err != nil {
		return types.Contact{}, err
	}
	fieldsRaw, err := json.Marshal(fields)
	if err != nil {
		return types.Contact{}, err
	}

	saved := contact.Clone()
	if err := s.pool.QueryRow(ctx, `
INSERT INTO contacts (id, tags, fields)
VALUES ($1, $2::jsonb, $3::jsonb)
ON CONFLICT (id) DO UPDATE
SET tags = EXCLUDED.tags, fields = EXCLUDED.fields, updated_at = now()
RETURNING created_at, updated_at
`, contact.ID, tagsRaw, fieldsRaw).Scan(&saved.CreatedAt, &saved.UpdatedAt); err != nil {
		return types.Contact{}, err
	}
	return saved, nil
}

func (s *ContactPGStore) Query(ctx context.Context, predicate types.Predicate) ([]types.Contact, error) {
	where, args, err := compilePredicate(predicate)
	if err != nil {
		return nil, err
	}
	sql := `SELECT id, tags, fields, created_at, updated_at FROM contacts`
	if where != "" {
		sql += " WHERE " + where
	}
	sql += " ORDER BY id ASC"

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.Contact
	for rows.Next() {
		var contact types.Contact
		var tagsRaw, fieldsRaw []byte
		if err := rows.Scan(&contact.ID, &tagsRaw, &fieldsRaw, &contact.CreatedAt, &contact.UpdatedAt); err != nil {
			return nil, err
		}
		if err := decodeContactJSON(&contact, tagsRaw, fieldsRaw); err != nil {
			return nil, err
		}
		out = append(out, contact)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// compilePredicate renders the typed filter into a jsonb WHERE clause.
// Numeric comparisons guard on jsonb_typeof so a text value never
// trips the numeric cast.
func compilePredicate(p types.Predicate) (string, []any, error) {
	var clauses []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	for _, cond := range p.Fields {
		switch cond.Op {
		case types.CompareExists:
			want, ok := cond.Value.(bool)
			if !ok {
				return "", nil, httperr.BadRequestf("exists condition for %q requires a bool", cond.Field)
			}
			if want {
				clauses = append(clauses, fmt.Sprintf("fields ? %s", arg(cond.Field)))
			} else {
				clauses = append(clauses, fmt.Sprintf("NOT (fields ? %s)", arg(cond.Field)))
			}
		case types.CompareEq:
			if num, ok := toNumericArg(cond.Value); ok {
				field := arg(cond.Field)
				clauses = append(clauses, fmt.Sprintf("(jsonb_typeof(fields->%s) = 'number' AND (fields->>%s)::numeric = %s)", field, field, arg(num)))
			} else if b, ok := cond.Value.(bool); ok {
				field := arg(cond.Field)
				clauses = append(clauses, fmt.Sprintf("(jsonb_typeof(fields->%s) = 'boolean' AND (fields->>%s)::boolean = %s)", field, field, arg(b)))
			} else if str, ok := cond.Value.(string); ok {
				clauses = append(clauses, fmt.Sprintf("fields->>%s = %s", arg(cond.Field), arg(str)))
			} else {
				return "", nil, httperr.BadRequestf("eq condition for %q has unsupported value type %T", cond.Field, cond.Value)
			}
		case types.CompareGte, types.CompareLte:
			num, ok := toNumericArg(cond.Value)
			if !ok {
				return "", nil, httperr.BadRequestf("%s condition for %q requires a number", cond.Op, cond.Field)
			}
			op := ">="
			if cond.Op == types.CompareLte {
				op = "<="
			}
			field := arg(cond.Field)
			clauses = append(clauses, fmt.Sprintf("(jsonb_typeof(fields->%s) = 'number' AND (fields->>%s)::numeric %s %s)", field, field, op, arg(num)))
		default:
			return "", nil, httperr.BadRequestf("unsupported comparison %q", cond.Op)
		}
	}

	if len(p.AnyTags) > 0 {
		clauses = append(clauses, fmt.Sprintf("tags ?| %s::text[]", arg(p.AnyTags)))
	}
	if len(p.AllTags) > 0 {
		clauses = append(clauses, fmt.Sprintf("tags ?& %s::text[]", arg(p.AllTags)))
	}
	return strings.Join(clauses, " AND "), args, nil
}

func toNumericArg(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func decodeContactJSON(contact *types.Contact, tagsRaw, fieldsRaw []byte) error {
	if err := json.Unmarshal(tagsRaw, &contact.Tags); err != nil {
		return fmt.Errorf("contacts: decode tags for %q: %w", contact.ID, err)
	}
	if err := json.Unmarshal(fieldsRaw, &contact.Fields); err != nil {
		return fmt.Errorf("contacts: decode fields for %q: %w", contact.ID, err)
	}
	return nil
}
