package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Document is one record in the document store.
type Document struct {
	Collection string
	ID         string
	Data       map[string]any
}

// Filter matches documents whose field equals the given text value.
type Filter struct {
	Field string
	Value string
}

// DocumentRepository is the document-store contract: keyed reads and writes
// plus filtered queries within a collection.
type DocumentRepository interface {
	Get(ctx context.Context, collection, id string) (*Document, error)
	Set(ctx context.Context, collection, id string, data map[string]any) error
	Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error)
}

type documentRepository struct {
	pool *pgxpool.Pool
}

// NewDocumentRepository returns a Postgres-backed implementation storing one
// JSONB row per document.
func NewDocumentRepository(pool *pgxpool.Pool) DocumentRepository {
	return &documentRepository{pool: pool}
}

func (r *documentRepository) Get(ctx context.Context, collection, id string) (*Document, error) {
	const query = `
        SELECT data FROM documents
        WHERE collection=$1 AND id=$2`

	var raw []byte
	if err := r.pool.QueryRow(ctx, query, collection, id).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	doc := &Document{Collection: collection, ID: id}
	if err := json.Unmarshal(raw, &doc.Data); err != nil {
		return nil, fmt.Errorf("decode document %s/%s: %w", collection, id, err)
	}
	return doc, nil
}

func (r *documentRepository) Set(ctx context.Context, collection, id string, data map[string]any) error {
	const query = `
        INSERT INTO documents (collection, id, data)
        VALUES ($1, $2, $3)
        ON CONFLICT (collection, id)
        DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`

	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode document %s/%s: %w", collection, id, err)
	}

	_, err = r.pool.Exec(ctx, query, collection, id, raw)
	return err
}

func (r *documentRepository) Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error) {
	query := `SELECT id, data FROM documents WHERE collection=$1`
	args := []any{collection}
	for _, f := range filters {
		args = append(args, f.Field, f.Value)
		query += fmt.Sprintf(` AND data->>$%d = $%d`, len(args)-1, len(args))
	}
	query += ` ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc := Document{Collection: collection}
		var raw []byte
		if err := rows.Scan(&doc.ID, &raw); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &doc.Data); err != nil {
			return nil, fmt.Errorf("decode document %s/%s: %w", collection, doc.ID, err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}
