package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/relaydesk/relaydesk/internal/domain"
)

// payload field names accepted by CreateFieldIndex, mapped to columns.
var indexableFields = map[string]string{
	"businessId": "business_id",
	"widgetId":   "widget_id",
	"itemId":     "item_id",
}

var collectionNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// PgStore implements Store on Postgres with the pgvector extension. Each
// collection is a table with a vector column fixed to the collection's
// dimension, so mixed-dimension writes are rejected by the schema itself.
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// tableName maps a collection name onto a prefixed, quoted identifier.
// Collection names are validated because they end up in DDL.
func tableName(collection string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(collection))
	if !collectionNamePattern.MatchString(name) {
		return "", fmt.Errorf("invalid collection name: %q", collection)
	}
	return pgx.Identifier{"kb_" + strings.ReplaceAll(name, "-", "_")}.Sanitize(), nil
}

func (s *PgStore) EnsureCollection(ctx context.Context, name string, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("collection dimension must be positive, got %d", dimension)
	}

	info, err := s.DescribeCollection(ctx, name)
	if err != nil && !errors.Is(err, domain.ErrCollectionNotFound) {
		return err
	}
	if info != nil {
		if info.Dimension != dimension {
			return domain.NewDomainErrorWithCause(
				domain.ErrCodeDimensionMismatch,
				fmt.Sprintf("collection %q has dimension %d, active model needs %d", name, info.Dimension, dimension),
				domain.ErrDimensionMismatch,
			)
		}
		return nil
	}

	table, err := tableName(name)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (
			id uuid PRIMARY KEY,
			business_id text NOT NULL DEFAULT '',
			widget_id text NOT NULL DEFAULT '',
			item_id text NOT NULL DEFAULT '',
			title text NOT NULL DEFAULT '',
			doc_type text NOT NULL DEFAULT 'text',
			chunk_index int NOT NULL DEFAULT 0,
			total_chunks int NOT NULL DEFAULT 1,
			content text NOT NULL,
			file_name text,
			file_size bigint,
			embedding vector(%d) NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now()
		)`, table, dimension))
	if err != nil {
		return fmt.Errorf("failed to create collection %q: %w", name, err)
	}
	return nil
}

func (s *PgStore) CreateFieldIndex(ctx context.Context, collection, field string) error {
	column, ok := indexableFields[field]
	if !ok {
		return fmt.Errorf("field %q is not indexable", field)
	}

	table, err := tableName(collection)
	if err != nil {
		return err
	}

	indexName := pgx.Identifier{fmt.Sprintf("idx_kb_%s_%s",
		strings.ReplaceAll(strings.ToLower(collection), "-", "_"), column)}.Sanitize()

	_, err = s.pool.Exec(ctx, fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS %s ON %s (%s)`, indexName, table, column))
	if err != nil {
		return fmt.Errorf("failed to create field index on %s.%s: %w", collection, field, err)
	}
	return nil
}

func (s *PgStore) Search(ctx context.Context, collection string, vector []float32, filter Filter, limit int) ([]ScoredPoint, error) {
	table, err := tableName(collection)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}

	where, args := buildFilter(filter, 2)
	args = append([]any{pgvector.NewVector(vector)}, args...)
	args = append(args, limit)

	// Cosine distance; score = 1 - distance so higher means more relevant.
	query := fmt.Sprintf(
		`SELECT id, business_id, widget_id, item_id, title, doc_type, chunk_index, total_chunks,
		        content, file_name, file_size, 1 - (embedding <=> $1) AS score
		 FROM %s
		 %s
		 ORDER BY embedding <=> $1
		 LIMIT $%d`, table, where, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search in collection %q failed: %w", collection, err)
	}
	defer rows.Close()

	var hits []ScoredPoint
	for rows.Next() {
		var p ScoredPoint
		var fileName pgtype.Text
		var fileSize pgtype.Int8
		if err := rows.Scan(
			&p.Fragment.ID, &p.Fragment.BusinessID, &p.Fragment.WidgetID, &p.Fragment.ItemID,
			&p.Fragment.Title, &p.Fragment.DocType, &p.Fragment.ChunkIndex, &p.Fragment.TotalChunks,
			&p.Fragment.Content, &fileName, &fileSize, &p.Score,
		); err != nil {
			return nil, err
		}
		if fileName.Valid {
			p.Fragment.FileName = fileName.String
		}
		if fileSize.Valid {
			p.Fragment.FileSize = fileSize.Int64
		}
		hits = append(hits, p)
	}
	return hits, rows.Err()
}

func (s *PgStore) Upsert(ctx context.Context, collection string, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	table, err := tableName(collection)
	if err != nil {
		return err
	}

	for _, p := range points {
		if err := domain.ValidateFragment(&p.Fragment); err != nil {
			return domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid fragment in upsert", err)
		}

		var fileName *string
		var fileSize *int64
		if p.Fragment.FileName != "" {
			fileName = &p.Fragment.FileName
		}
		if p.Fragment.FileSize > 0 {
			fileSize = &p.Fragment.FileSize
		}

		_, err := s.pool.Exec(ctx, fmt.Sprintf(
			`INSERT INTO %s
				(id, business_id, widget_id, item_id, title, doc_type, chunk_index, total_chunks, content, file_name, file_size, embedding)
			 VALUES
				($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			 ON CONFLICT (id) DO UPDATE SET
				business_id = EXCLUDED.business_id,
				widget_id = EXCLUDED.widget_id,
				item_id = EXCLUDED.item_id,
				title = EXCLUDED.title,
				doc_type = EXCLUDED.doc_type,
				chunk_index = EXCLUDED.chunk_index,
				total_chunks = EXCLUDED.total_chunks,
				content = EXCLUDED.content,
				file_name = EXCLUDED.file_name,
				file_size = EXCLUDED.file_size,
				embedding = EXCLUDED.embedding`, table),
			p.Fragment.ID,
			p.Fragment.BusinessID,
			p.Fragment.WidgetID,
			p.Fragment.ItemID,
			p.Fragment.Title,
			p.Fragment.DocType,
			p.Fragment.ChunkIndex,
			p.Fragment.TotalChunks,
			p.Fragment.Content,
			fileName,
			fileSize,
			pgvector.NewVector(p.Vector),
		)
		if err != nil {
			return fmt.Errorf("upsert into collection %q failed: %w", collection, err)
		}
	}
	return nil
}

func (s *PgStore) DeleteByFilter(ctx context.Context, collection string, filter Filter) error {
	if filter.IsEmpty() {
		return fmt.Errorf("refusing to delete with an empty filter, use DropCollection")
	}

	table, err := tableName(collection)
	if err != nil {
		return err
	}

	where, args := buildFilter(filter, 1)
	_, err = s.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s %s`, table, where), args...)
	if err != nil {
		return fmt.Errorf("delete from collection %q failed: %w", collection, err)
	}
	return nil
}

func (s *PgStore) DeleteByIDs(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	table, err := tableName(collection)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ANY($1)`, table), ids)
	if err != nil {
		return fmt.Errorf("delete from collection %q failed: %w", collection, err)
	}
	return nil
}

func (s *PgStore) DescribeCollection(ctx context.Context, name string) (*CollectionInfo, error) {
	table, err := tableName(name)
	if err != nil {
		return nil, err
	}

	var regclass pgtype.Text
	if err := s.pool.QueryRow(ctx, `SELECT to_regclass($1)::text`, table).Scan(&regclass); err != nil {
		return nil, err
	}
	if !regclass.Valid {
		return nil, domain.ErrCollectionNotFound
	}

	info := &CollectionInfo{Name: name}

	// pgvector stores the declared dimension in the column's typmod.
	err = s.pool.QueryRow(ctx,
		`SELECT atttypmod FROM pg_attribute
		 WHERE attrelid = $1::regclass AND attname = 'embedding'`,
		table,
	).Scan(&info.Dimension)
	if err != nil {
		return nil, fmt.Errorf("failed to read collection %q dimension: %w", name, err)
	}

	if err := s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT count(*) FROM %s`, table)).Scan(&info.Count); err != nil {
		return nil, err
	}

	return info, nil
}

func (s *PgStore) DropCollection(ctx context.Context, name string) error {
	table, err := tableName(name)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, table))
	return err
}

// buildFilter renders the WHERE clause for a scope filter, numbering
// placeholders from start.
func buildFilter(filter Filter, start int) (string, []any) {
	var conditions []string
	var args []any

	next := start
	add := func(column, value string) {
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, next))
		args = append(args, value)
		next++
	}

	if filter.BusinessID != "" {
		add("business_id", filter.BusinessID)
	}
	if filter.WidgetID != "" {
		add("widget_id", filter.WidgetID)
	}
	if filter.ItemID != "" {
		add("item_id", filter.ItemID)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}
