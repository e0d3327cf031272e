package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"auth-gateway/internal/model"
)

type DocumentRepository struct {
	pool *pgxpool.Pool
}

func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{pool: pool}
}

// List returns documents newest first, optionally filtered by a
// case-insensitive match against title, content or category.
func (r *DocumentRepository) List(ctx context.Context, search string) ([]model.Document, error) {
	var (
		rows pgx.Rows
		err  error
	)

	if search == "" {
		rows, err = r.pool.Query(ctx,
			`SELECT id, title, content, category, created_at, user_id
			 FROM documents ORDER BY created_at DESC`)
	} else {
		rows, err = r.pool.Query(ctx,
			`SELECT id, title, content, category, created_at, user_id
			 FROM documents
			 WHERE title ILIKE '%' || $1 || '%'
			    OR content ILIKE '%' || $1 || '%'
			    OR category ILIKE '%' || $1 || '%'
			 ORDER BY created_at DESC`, search)
	}
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	docs := make([]model.Document, 0)
	for rows.Next() {
		var d model.Document
		if err := rows.Scan(&d.ID, &d.Title, &d.Content, &d.Category, &d.CreatedAt, &d.UserID); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (r *DocumentRepository) FindByID(ctx context.Context, id int64) (model.Document, error) {
	var d model.Document
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, content, category, created_at, user_id
		 FROM documents WHERE id = $1`, id).
		Scan(&d.ID, &d.Title, &d.Content, &d.Category, &d.CreatedAt, &d.UserID)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Document{}, model.ErrDocumentNotFound
	}
	if err != nil {
		return model.Document{}, fmt.Errorf("find document by id: %w", err)
	}
	return d, nil
}

func (r *DocumentRepository) Create(ctx context.Context, d model.Document) (model.Document, error) {
	d.CreatedAt = time.Now().UTC()

	err := r.pool.QueryRow(ctx,
		`INSERT INTO documents (title, content, category, created_at, user_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		d.Title, d.Content, d.Category, d.CreatedAt, d.UserID).Scan(&d.ID)
	if err != nil {
		return model.Document{}, fmt.Errorf("create document: %w", err)
	}
	return d, nil
}
