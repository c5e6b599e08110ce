package docstore

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
)

// Where is a filter usable both as an SQL fragment over the documents table
// and as an in-memory predicate.
type Where interface {
	sq.Sqlizer
	Match(doc Document) bool
}

// Eq matches documents whose field equals value.
func Eq(field string, value any) Where { return eqExpr{field: field, value: value} }

// Contains matches documents whose array field holds value.
func Contains(field string, value any) Where { return containsExpr{field: field, value: value} }

// In matches documents whose field equals one of values.
func In(field string, values ...string) Where { return inExpr{field: field, values: values} }

func And(conds ...Where) Where { return andExpr(conds) }

func Or(conds ...Where) Where { return orExpr(conds) }

type eqExpr struct {
	field string
	value any
}

func (e eqExpr) ToSql() (string, []any, error) {
	if e.field == "id" {
		return "id::text = ?", []any{fmt.Sprint(e.value)}, nil
	}
	if s, ok := e.value.(string); ok {
		return "data #>> ?::text[] = ?", []any{path(e.field), s}, nil
	}
	b, err := json.Marshal(e.value)
	if err != nil {
		return "", nil, fmt.Errorf("eq %s: %w", e.field, err)
	}
	return "data #> ?::text[] = ?::jsonb", []any{path(e.field), string(b)}, nil
}

func (e eqExpr) Match(doc Document) bool {
	v, ok := lookup(doc, e.field)
	if !ok {
		return false
	}
	return reflect.DeepEqual(v, normalize(e.value))
}

type containsExpr struct {
	field string
	value any
}

func (e containsExpr) ToSql() (string, []any, error) {
	b, err := json.Marshal([]any{e.value})
	if err != nil {
		return "", nil, fmt.Errorf("contains %s: %w", e.field, err)
	}
	return "data #> ?::text[] @> ?::jsonb", []any{path(e.field), string(b)}, nil
}

func (e containsExpr) Match(doc Document) bool {
	v, ok := lookup(doc, e.field)
	if !ok {
		return false
	}
	items, ok := v.([]any)
	if !ok {
		return false
	}
	want := normalize(e.value)
	for _, item := range items {
		if reflect.DeepEqual(item, want) {
			return true
		}
	}
	return false
}

type inExpr struct {
	field  string
	values []string
}

func (e inExpr) ToSql() (string, []any, error) {
	if len(e.values) == 0 {
		return "1=0", nil, nil
	}
	if e.field == "id" {
		return "id::text = ANY(?::text[])", []any{pq.StringArray(e.values)}, nil
	}
	return "data #>> ?::text[] = ANY(?::text[])", []any{path(e.field), pq.StringArray(e.values)}, nil
}

func (e inExpr) Match(doc Document) bool {
	v, ok := lookup(doc, e.field)
	if !ok {
		return false
	}
	s, ok := v.(string)
	if !ok {
		return false
	}
	for _, candidate := range e.values {
		if s == candidate {
			return true
		}
	}
	return false
}

type andExpr []Where

func (a andExpr) ToSql() (string, []any, error) {
	return sq.And(sqlizers(a)).ToSql()
}

func (a andExpr) Match(doc Document) bool {
	for _, w := range a {
		if !w.Match(doc) {
			return false
		}
	}
	return true
}

type orExpr []Where

func (o orExpr) ToSql() (string, []any, error) {
	return sq.Or(sqlizers(o)).ToSql()
}

func (o orExpr) Match(doc Document) bool {
	for _, w := range o {
		if w.Match(doc) {
			return true
		}
	}
	return len(o) == 0
}

func sqlizers(ws []Where) []sq.Sqlizer {
	out := make([]sq.Sqlizer, 0, len(ws))
	for _, w := range ws {
		out = append(out, w)
	}
	return out
}

func path(field string) pq.StringArray {
	return pq.StringArray(strings.Split(field, "."))
}

// lookup resolves a dotted field path. "id", "createdAt" and "updatedAt"
// address the document columns.
func lookup(doc Document, field string) (any, bool) {
	switch field {
	case "id":
		return doc.ID, true
	case "createdAt":
		return doc.CreatedAt, true
	case "updatedAt":
		return doc.UpdatedAt, true
	}

	var cur any = doc.Data
	for _, part := range strings.Split(field, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// normalize maps a Go value onto the shape it takes after a JSON round trip,
// so comparisons against decoded documents line up.
func normalize(v any) any {
	b, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return v
	}
	return out
}
