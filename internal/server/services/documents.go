package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/studyshelf/internal/catalog"
	"github.com/dmitrijs2005/studyshelf/internal/common"
	"github.com/dmitrijs2005/studyshelf/internal/logging"
	"github.com/dmitrijs2005/studyshelf/internal/server/blob"
	"github.com/dmitrijs2005/studyshelf/internal/server/config"
	"github.com/dmitrijs2005/studyshelf/internal/server/models"
	"github.com/dmitrijs2005/studyshelf/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/studyshelf/internal/session"
)

// Profile is the owner's view of their uploads.
type Profile struct {
	UserID    string            `json:"user_id"`
	Documents []models.Document `json:"documents"`
	Stats     catalog.Stats     `json:"stats"`
}

// DocumentService handles owner operations on documents.
type DocumentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	blobs       blob.Store
	catalog     interface{ Invalidate() }
	logger      logging.Logger
	timeout     time.Duration
}

func NewDocumentService(db *sql.DB, m repomanager.RepositoryManager, blobs blob.Store, c interface{ Invalidate() }, cfg *config.Config, l logging.Logger) *DocumentService {
	return &DocumentService{
		db:          db,
		repomanager: m,
		blobs:       blobs,
		catalog:     c,
		logger:      l.With("module", "document_service"),
		timeout:     cfg.RemoteCallTimeout,
	}
}

// Delete removes the blob and then the row of document id. Only the owner
// may delete. The two steps are not atomic: a failed row delete leaves a row
// without a blob, reported as a *common.DeleteError.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	who, err := session.FromContext(ctx).Require("delete")
	if err != nil {
		return err
	}

	repo := s.repomanager.Documents(s.db)
	doc, err := callWithTimeout(ctx, s.timeout, func(ctx context.Context) (*models.Document, error) {
		return repo.GetByID(ctx, id)
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return &common.NotFoundError{ID: id}
		}
		return err
	}
	if doc.OwnerID != who.UserID {
		return common.ErrorForbidden
	}

	err = execWithTimeout(ctx, s.timeout, func(ctx context.Context) error {
		return s.blobs.Remove(ctx, doc.FilePath)
	})
	if err != nil {
		return &common.DeleteError{ID: id, Step: "remove blob", Err: err}
	}

	err = execWithTimeout(ctx, s.timeout, func(ctx context.Context) error {
		return repo.Delete(ctx, id)
	})
	s.catalog.Invalidate()
	if err != nil {
		s.logger.Error(ctx, "row kept after blob removal", "id", id, "path", doc.FilePath, "error", err)
		return &common.DeleteError{ID: id, Step: "delete row", Err: err}
	}

	s.logger.Info(ctx, "document deleted", "id", id, "owner", who.UserID)
	return nil
}

// Profile lists the caller's documents, newest first, with totals.
func (s *DocumentService) Profile(ctx context.Context) (*Profile, error) {
	who, err := session.FromContext(ctx).Require("profile")
	if err != nil {
		return nil, err
	}
	docs, err := callWithTimeout(ctx, s.timeout, func(ctx context.Context) ([]models.Document, error) {
		return s.repomanager.Documents(s.db).ListByOwner(ctx, who.UserID)
	})
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []models.Document{}
	}
	return &Profile{UserID: who.UserID, Documents: docs, Stats: catalog.SummarizeOwner(docs)}, nil
}
