package study

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const repoTimeout = 5 * time.Second

// Repository provides access to the studies document collection.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a new study repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID fetches a single study document, its id merged into the fields.
func (r *Repository) GetByID(ctx context.Context, id string) (Document, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	var data []byte
	err := r.pool.QueryRow(ctx, `SELECT data FROM studies WHERE id = $1;`, id).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStudyNotFound
		}
		return nil, fmt.Errorf("get study: %w", err)
	}

	return decodeDocument(id, data)
}

// FindByIDs resolves a set of study ids with a single membership query.
// Missing ids are simply absent from the result.
func (r *Repository) FindByIDs(ctx context.Context, ids []string) ([]Document, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `SELECT id, data FROM studies WHERE id = ANY($1);`, ids)
	if err != nil {
		return nil, fmt.Errorf("find studies: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var id string
		var data []byte
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("scan study: %w", err)
		}
		doc, err := decodeDocument(id, data)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate studies: %w", err)
	}
	return docs, nil
}

// List returns all study documents.
func (r *Repository) List(ctx context.Context) ([]Document, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `SELECT id, data FROM studies ORDER BY created_at DESC;`)
	if err != nil {
		return nil, fmt.Errorf("list studies: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var id string
		var data []byte
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("scan study: %w", err)
		}
		doc, err := decodeDocument(id, data)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate studies: %w", err)
	}
	return docs, nil
}

// Save upserts a study document.
func (r *Repository) Save(ctx context.Context, s Study) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	doc, err := s.Document()
	if err != nil {
		return err
	}
	delete(doc, "id") // the id lives in its own column

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode study %s: %w", s.ID, err)
	}

	query := `
INSERT INTO studies (id, data)
VALUES ($1, $2)
ON CONFLICT (id)
DO UPDATE SET data = EXCLUDED.data, updated_at = NOW();`

	if _, err := r.pool.Exec(ctx, query, s.ID, data); err != nil {
		return fmt.Errorf("save study: %w", err)
	}
	return nil
}

// Delete removes a study document.
func (r *Repository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `DELETE FROM studies WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("delete study: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStudyNotFound
	}
	return nil
}

func decodeDocument(id string, data []byte) (Document, error) {
	doc := Document{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode study %s: %w", id, err)
		}
	}
	doc["id"] = id
	return doc, nil
}
