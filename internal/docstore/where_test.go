package docstore

import (
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDoc() Document {
	return Document{
		ID:        "doc-1",
		CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Data: normalize(map[string]any{
			"slug":   "hello-world",
			"status": "draft",
			"active": true,
			"score":  0.5,
			"domain": []string{"dev", "ops"},
			"source": map[string]any{"type": "notion", "externalId": "abc"},
		}).(map[string]any),
	}
}

func TestEq_ToSql(t *testing.T) {
	sql, args, err := Eq("source.externalId", "abc").ToSql()
	require.NoError(t, err)
	assert.Equal(t, "data #>> ?::text[] = ?", sql)
	assert.Equal(t, []any{pq.StringArray{"source", "externalId"}, "abc"}, args)

	sql, args, err = Eq("active", true).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "data #> ?::text[] = ?::jsonb", sql)
	assert.Equal(t, []any{pq.StringArray{"active"}, "true"}, args)

	sql, args, err = Eq("id", "doc-1").ToSql()
	require.NoError(t, err)
	assert.Equal(t, "id::text = ?", sql)
	assert.Equal(t, []any{"doc-1"}, args)
}

func TestContainsAndIn_ToSql(t *testing.T) {
	sql, args, err := Contains("domain", "dev").ToSql()
	require.NoError(t, err)
	assert.Equal(t, "data #> ?::text[] @> ?::jsonb", sql)
	assert.Equal(t, []any{pq.StringArray{"domain"}, `["dev"]`}, args)

	sql, args, err = In("slug", "a", "b").ToSql()
	require.NoError(t, err)
	assert.Equal(t, "data #>> ?::text[] = ANY(?::text[])", sql)
	assert.Equal(t, []any{pq.StringArray{"slug"}, pq.StringArray{"a", "b"}}, args)

	sql, _, err = In("slug").ToSql()
	require.NoError(t, err)
	assert.Equal(t, "1=0", sql)
}

func TestAndOr_ToSql(t *testing.T) {
	sql, args, err := And(Eq("a", "1"), Or(Eq("b", "2"), Eq("c", "3"))).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "(data #>> ?::text[] = ? AND (data #>> ?::text[] = ? OR data #>> ?::text[] = ?))", sql)
	assert.Len(t, args, 6)
}

func TestWhere_Match(t *testing.T) {
	doc := testDoc()

	tests := []struct {
		name  string
		where Where
		want  bool
	}{
		{"eq string", Eq("slug", "hello-world"), true},
		{"eq string miss", Eq("slug", "other"), false},
		{"eq nested", Eq("source.externalId", "abc"), true},
		{"eq bool", Eq("active", true), true},
		{"eq number", Eq("score", 0.5), true},
		{"eq missing field", Eq("nope", "x"), false},
		{"eq id", Eq("id", "doc-1"), true},
		{"contains hit", Contains("domain", "ops"), true},
		{"contains miss", Contains("domain", "design"), false},
		{"contains on scalar", Contains("slug", "hello"), false},
		{"in hit", In("status", "published", "draft"), true},
		{"in miss", In("status", "published"), false},
		{"and", And(Eq("slug", "hello-world"), Eq("source.type", "notion")), true},
		{"and miss", And(Eq("slug", "hello-world"), Eq("source.type", "api")), false},
		{"or", Or(Eq("slug", "x"), Contains("domain", "dev")), true},
		{"or miss", Or(Eq("slug", "x"), Eq("slug", "y")), false},
		{"empty and", And(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.where.Match(doc))
		})
	}
}

func TestOrderClause(t *testing.T) {
	got, err := orderClause("-createdAt")
	require.NoError(t, err)
	assert.Equal(t, "created_at DESC", got)

	got, err = orderClause("source.externalId")
	require.NoError(t, err)
	assert.Equal(t, "data #>> '{source,externalId}' ASC", got)

	_, err = orderClause("title'; DROP TABLE documents;--")
	assert.Error(t, err)
}

func TestDocument_Decode(t *testing.T) {
	var out struct {
		ID     string `json:"id"`
		Slug   string `json:"slug"`
		Source struct {
			Type string `json:"type"`
		} `json:"source"`
		CreatedAt time.Time `json:"createdAt"`
	}

	doc := testDoc()
	require.NoError(t, doc.Decode(&out))
	assert.Equal(t, "doc-1", out.ID)
	assert.Equal(t, "hello-world", out.Slug)
	assert.Equal(t, "notion", out.Source.Type)
	assert.True(t, doc.CreatedAt.Equal(out.CreatedAt))
	assert.Equal(t, "abc", doc.String("source.externalId"))
	assert.Equal(t, "", doc.String("domain"))
}
