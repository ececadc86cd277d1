package subjects

import (
	"context"

	"github.com/dmitrijs2005/studyshelf/internal/server/models"
)

// Repository reads and seeds the subject vocabulary.
type Repository interface {
	ListByYear(ctx context.Context, year int) ([]string, error)
	ListAll(ctx context.Context) ([]models.Subject, error)
	Exists(ctx context.Context, year int, name string) (bool, error)
	Upsert(ctx context.Context, s models.Subject) error
}
