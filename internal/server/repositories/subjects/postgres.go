// Package subjects is the PostgreSQL repository of the per-year subject
// vocabulary, the single source used by upload validation and year pages.
package subjects

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/studyshelf/internal/dbx"
	"github.com/dmitrijs2005/studyshelf/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListByYear(ctx context.Context, year int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM subjects WHERE year = $1 ORDER BY position, name`, year)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return names, nil
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]models.Subject, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT year, name, position FROM subjects ORDER BY year, position, name`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.Subject
	for rows.Next() {
		var s models.Subject
		if err := rows.Scan(&s.Year, &s.Name, &s.Position); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Exists(ctx context.Context, year int, name string) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM subjects WHERE year = $1 AND name = $2)`, year, name,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, s models.Subject) error {
	query :=
		`INSERT INTO subjects (year, name, position)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (year, name) DO UPDATE SET position = EXCLUDED.position`

	if _, err := r.db.ExecContext(ctx, query, s.Year, s.Name, s.Position); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
