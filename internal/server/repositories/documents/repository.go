package documents

import (
	"context"

	"github.com/dmitrijs2005/studyshelf/internal/server/models"
)

// Repository persists document rows. Blob bytes are handled by blob.Store.
type Repository interface {
	ListAll(ctx context.Context) ([]models.Document, error)
	ListByYear(ctx context.Context, year int) ([]models.Document, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Document, error)
	GetByID(ctx context.Context, id string) (*models.Document, error)
	Insert(ctx context.Context, doc *models.Document) (*models.Document, error)
	Delete(ctx context.Context, id string) error

	// SetDownloadCount overwrites the counter unconditionally.
	SetDownloadCount(ctx context.Context, id string, count int64) error
	// IncrementDownloadCount bumps the counter in one statement and returns
	// the new value.
	IncrementDownloadCount(ctx context.Context, id string) (int64, error)
	// CompareAndSwapDownloadCount writes next only if the stored value is
	// still expected; otherwise it returns common.ErrVersionConflict.
	CompareAndSwapDownloadCount(ctx context.Context, id string, expected, next int64) error
}
