package services

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/studyshelf/internal/catalog"
	"github.com/dmitrijs2005/studyshelf/internal/common"
	"github.com/dmitrijs2005/studyshelf/internal/logging"
	"github.com/dmitrijs2005/studyshelf/internal/server/config"
	"github.com/dmitrijs2005/studyshelf/internal/server/models"
	"github.com/dmitrijs2005/studyshelf/internal/server/repositories/repomanager"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const snapshotKey = "all"

// SnapshotPatcher updates one record of a cached snapshot in place of a full
// reload.
type SnapshotPatcher interface {
	PatchDownloadCount(id string, count int64)
}

// Listing is the response of the catalog endpoint: either the home page
// (featured + remainder) or search results.
type Listing struct {
	Search    bool              `json:"search"`
	Query     string            `json:"query,omitempty"`
	Featured  []models.Document `json:"featured,omitempty"`
	Remainder []models.Document `json:"remainder,omitempty"`
	Results   []models.Document `json:"results,omitempty"`
}

// YearListing is the year page: grouped documents and the two label sets.
type YearListing struct {
	catalog.Grouping
	Navigation []catalog.NavEntry `json:"navigation"`
	Sections   []catalog.NavEntry `json:"sections"`
}

// CatalogService serves listings from a cached snapshot of all documents.
type CatalogService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	timeout     time.Duration

	mu    sync.Mutex
	cache *expirable.LRU[string, []models.Document]
}

var _ SnapshotPatcher = (*CatalogService)(nil)

func NewCatalogService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, l logging.Logger) *CatalogService {
	size := cfg.CacheSize
	if size <= 0 {
		size = 1
	}
	return &CatalogService{
		db:          db,
		repomanager: m,
		logger:      l.With("module", "catalog_service"),
		timeout:     cfg.RemoteCallTimeout,
		cache:       expirable.NewLRU[string, []models.Document](size, nil, cfg.CacheTTL),
	}
}

// Snapshot returns every document, newest first. The returned slice must not
// be modified.
func (s *CatalogService) Snapshot(ctx context.Context) ([]models.Document, error) {
	if docs, ok := s.cache.Get(snapshotKey); ok {
		snapshotCacheHits.Inc()
		return docs, nil
	}
	snapshotCacheMisses.Inc()

	docs, err := callWithTimeout(ctx, s.timeout, func(ctx context.Context) ([]models.Document, error) {
		return s.repomanager.Documents(s.db).ListAll(ctx)
	})
	if err != nil {
		return nil, err
	}
	s.cache.Add(snapshotKey, docs)
	return docs, nil
}

// Invalidate drops the cached snapshot.
func (s *CatalogService) Invalidate() {
	s.cache.Remove(snapshotKey)
}

// PatchDownloadCount replaces the count of one record in the cached
// snapshot. Readers holding the old slice keep seeing it unchanged.
func (s *CatalogService) PatchDownloadCount(id string, count int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, ok := s.cache.Peek(snapshotKey)
	if !ok {
		return
	}
	i := slices.IndexFunc(docs, func(d models.Document) bool { return d.ID == id })
	if i < 0 {
		return
	}
	patched := slices.Clone(docs)
	patched[i].DownloadCount = count
	s.cache.Add(snapshotKey, patched)
}

// List builds the home listing, or search results when query has any
// non-blank characters.
func (s *CatalogService) List(ctx context.Context, query string) (*Listing, error) {
	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	q := strings.TrimSpace(query)
	if q == "" {
		home, err := catalog.BuildHomeListing(snapshot)
		if err != nil {
			return nil, s.malformed(ctx, err)
		}
		return &Listing{Featured: home.Featured, Remainder: home.Remainder}, nil
	}

	results, err := catalog.Search(snapshot, q)
	if err != nil {
		return nil, s.malformed(ctx, err)
	}
	return &Listing{Search: true, Query: q, Results: results}, nil
}

// Year groups the documents of one academic year by subject.
func (s *CatalogService) Year(ctx context.Context, year int) (*YearListing, error) {
	if !catalog.ValidYear(year) {
		return nil, common.ErrorInvalidYear
	}
	docs, err := callWithTimeout(ctx, s.timeout, func(ctx context.Context) ([]models.Document, error) {
		return s.repomanager.Documents(s.db).ListByYear(ctx, year)
	})
	if err != nil {
		return nil, err
	}

	g, err := catalog.GroupBySubject(docs, year)
	if err != nil {
		return nil, s.malformed(ctx, err)
	}
	return &YearListing{
		Grouping:   g,
		Navigation: catalog.NavigationIndex(g, catalog.NavLabelLength),
		Sections:   catalog.NavigationIndex(g, catalog.SectionLabelLength),
	}, nil
}

// Get resolves one document, from the snapshot when cached.
func (s *CatalogService) Get(ctx context.Context, id string) (*models.Document, error) {
	if docs, ok := s.cache.Get(snapshotKey); ok {
		if i := slices.IndexFunc(docs, func(d models.Document) bool { return d.ID == id }); i >= 0 {
			d := docs[i]
			return &d, nil
		}
	}

	doc, err := callWithTimeout(ctx, s.timeout, func(ctx context.Context) (*models.Document, error) {
		return s.repomanager.Documents(s.db).GetByID(ctx, id)
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, &common.NotFoundError{ID: id}
		}
		return nil, err
	}
	return doc, nil
}

func (s *CatalogService) malformed(ctx context.Context, err error) error {
	var me *common.MalformedRecordError
	if errors.As(err, &me) {
		s.logger.Error(ctx, "malformed catalog record", "id", me.ID, "field", me.Field)
	}
	return err
}
