package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
)

const documentsTable = "documents"

var (
	psql          = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	sortFieldExpr = regexp.MustCompile(`^[A-Za-z0-9_]+(\.[A-Za-z0-9_]+)*$`)
)

var _ Store = (*PostgresStore)(nil)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Find(ctx context.Context, collection string, q Query) (*FindResult, error) {
	q = q.normalized()

	order, err := orderClause(q.Sort)
	if err != nil {
		return nil, err
	}

	total, err := s.Count(ctx, collection, q.Where)
	if err != nil {
		return nil, err
	}

	builder := psql.Select("id", "data", "created_at", "updated_at").
		From(documentsTable).
		Where(sq.Eq{"collection": collection})
	if q.Where != nil {
		builder = builder.Where(q.Where)
	}
	builder = builder.OrderBy(order).
		Limit(uint64(q.Limit)).
		Offset(uint64((q.Page - 1) * q.Limit))

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find %s: %w", collection, err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}
	defer rows.Close()

	docs := make([]Document, 0, q.Limit)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", collection, err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", collection, err)
	}

	return &FindResult{
		Docs:        docs,
		TotalDocs:   total,
		Page:        q.Page,
		HasNextPage: q.Page*q.Limit < total,
	}, nil
}

func (s *PostgresStore) Create(ctx context.Context, collection string, data any) (*Document, error) {
	raw, _, err := encodeData(data)
	if err != nil {
		return nil, err
	}

	query, args, err := psql.Insert(documentsTable).
		Columns("collection", "data").
		Values(collection, sq.Expr("?::jsonb", string(raw))).
		Suffix("RETURNING id, data, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build create %s: %w", collection, err)
	}

	doc, err := scanDocument(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", collection, mapError(collection, err))
	}
	return doc, nil
}

func (s *PostgresStore) Update(ctx context.Context, collection, id string, data any) (*Document, error) {
	raw, _, err := encodeData(data)
	if err != nil {
		return nil, err
	}

	query, args, err := psql.Update(documentsTable).
		Set("data", sq.Expr("data || ?::jsonb", string(raw))).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"collection": collection}).
		Where("id::text = ?", id).
		Suffix("RETURNING id, data, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update %s: %w", collection, err)
	}

	doc, err := scanDocument(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update %s/%s: %w", collection, id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update %s/%s: %w", collection, id, mapError(collection, err))
	}
	return doc, nil
}

func (s *PostgresStore) Count(ctx context.Context, collection string, where Where) (int, error) {
	builder := psql.Select("COUNT(*)").
		From(documentsTable).
		Where(sq.Eq{"collection": collection})
	if where != nil {
		builder = builder.Where(where)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count %s: %w", collection, err)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	return count, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*Document, error) {
	doc := &Document{}
	var raw []byte
	if err := row.Scan(&doc.ID, &raw, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &doc.Data); err != nil {
		return nil, fmt.Errorf("decode data: %w", err)
	}
	if doc.Data == nil {
		doc.Data = map[string]any{}
	}
	return doc, nil
}

func orderClause(sort string) (string, error) {
	dir := "ASC"
	field := sort
	if strings.HasPrefix(sort, "-") {
		dir = "DESC"
		field = sort[1:]
	}

	switch field {
	case "createdAt":
		return "created_at " + dir, nil
	case "updatedAt":
		return "updated_at " + dir, nil
	case "id":
		return "id " + dir, nil
	}

	if !sortFieldExpr.MatchString(field) {
		return "", fmt.Errorf("invalid sort field %q", field)
	}
	return fmt.Sprintf("data #>> '{%s}' %s", strings.ReplaceAll(field, ".", ","), dir), nil
}

func mapError(collection string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return &ConflictError{Collection: collection, Constraint: pqErr.Constraint}
	}
	return err
}
