// Package documents provides the PostgreSQL repository for document rows.
package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/studyshelf/internal/common"
	"github.com/dmitrijs2005/studyshelf/internal/dbx"
	"github.com/dmitrijs2005/studyshelf/internal/server/models"
)

const columns = `id, year, subject, title, file_path, file_size, download_count, created_at, owner_id`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (models.Document, error) {
	var d models.Document
	err := s.Scan(&d.ID, &d.Year, &d.Subject, &d.Title, &d.FilePath, &d.FileSize,
		&d.DownloadCount, &d.CreatedAt, &d.OwnerID)
	return d, err
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]models.Document, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return docs, nil
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]models.Document, error) {
	query := `SELECT ` + columns + ` FROM documents ORDER BY created_at DESC, id`
	return r.list(ctx, query)
}

func (r *PostgresRepository) ListByYear(ctx context.Context, year int) ([]models.Document, error) {
	query := `SELECT ` + columns + ` FROM documents WHERE year = $1 ORDER BY subject, created_at DESC`
	return r.list(ctx, query, year)
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Document, error) {
	query := `SELECT ` + columns + ` FROM documents WHERE owner_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, ownerID)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	query := `SELECT ` + columns + ` FROM documents WHERE id = $1`

	d, err := scanDocument(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &d, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, doc *models.Document) (*models.Document, error) {
	query :=
		`INSERT INTO documents (year, subject, title, file_path, file_size, owner_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, download_count, created_at`

	err := r.db.QueryRowContext(ctx, query,
		doc.Year, doc.Subject, doc.Title, doc.FilePath, doc.FileSize, doc.OwnerID,
	).Scan(&doc.ID, &doc.DownloadCount, &doc.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return doc, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) SetDownloadCount(ctx context.Context, id string, count int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE documents SET download_count = $2 WHERE id = $1`, id, count)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) IncrementDownloadCount(ctx context.Context, id string) (int64, error) {
	query :=
		`UPDATE documents SET download_count = download_count + 1
		 WHERE id = $1
		 RETURNING download_count`

	var count int64
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&count); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return count, nil
}

func (r *PostgresRepository) CompareAndSwapDownloadCount(ctx context.Context, id string, expected, next int64) error {
	query :=
		`UPDATE documents SET download_count = $3
		 WHERE id = $1 AND download_count = $2`

	res, err := r.db.ExecContext(ctx, query, id, expected, next)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrVersionConflict
	}
	return nil
}
