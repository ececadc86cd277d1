package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/studyshelf/internal/catalog"
	"github.com/dmitrijs2005/studyshelf/internal/common"
	"github.com/dmitrijs2005/studyshelf/internal/dbx"
	"github.com/dmitrijs2005/studyshelf/internal/logging"
	"github.com/dmitrijs2005/studyshelf/internal/server/config"
	"github.com/dmitrijs2005/studyshelf/internal/server/models"
	"github.com/dmitrijs2005/studyshelf/internal/server/repositories/repomanager"
)

// VocabularyService reads and seeds the subject vocabulary table.
type VocabularyService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	timeout     time.Duration
}

func NewVocabularyService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, l logging.Logger) *VocabularyService {
	return &VocabularyService{
		db:          db,
		repomanager: m,
		logger:      l.With("module", "vocabulary_service"),
		timeout:     cfg.RemoteCallTimeout,
	}
}

// Subjects returns the ordered subject list of year.
func (s *VocabularyService) Subjects(ctx context.Context, year int) ([]string, error) {
	if !catalog.ValidYear(year) {
		return nil, common.ErrorInvalidYear
	}
	names, err := callWithTimeout(ctx, s.timeout, func(ctx context.Context) ([]string, error) {
		return s.repomanager.Subjects(s.db).ListByYear(ctx, year)
	})
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// Seed upserts subjects in one transaction.
func (s *VocabularyService) Seed(ctx context.Context, subjects []models.Subject) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Subjects(tx)
		for _, sub := range subjects {
			if err := repo.Upsert(ctx, sub); err != nil {
				return fmt.Errorf("seed %d/%q: %w", sub.Year, sub.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info(ctx, "vocabulary seeded", "subjects", len(subjects))
	return nil
}
