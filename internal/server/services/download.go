package services

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/dmitrijs2005/studyshelf/internal/common"
	"github.com/dmitrijs2005/studyshelf/internal/logging"
	"github.com/dmitrijs2005/studyshelf/internal/server/blob"
	"github.com/dmitrijs2005/studyshelf/internal/server/config"
	"github.com/dmitrijs2005/studyshelf/internal/server/models"
	"github.com/dmitrijs2005/studyshelf/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/studyshelf/internal/session"
)

// Stage is a step of the download protocol.
type Stage int

const (
	StageIdle Stage = iota
	StageFetching
	StageDownloading
	StageIncrementing
	StageDone
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageFetching:
		return "fetching"
	case StageDownloading:
		return "downloading"
	case StageIncrementing:
		return "incrementing"
	case StageDone:
		return "done"
	case StageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DocumentResolver finds documents and accepts counter patches; satisfied by
// *CatalogService.
type DocumentResolver interface {
	Get(ctx context.Context, id string) (*models.Document, error)
	SnapshotPatcher
}

// DeliverFunc hands fetched bytes to the client.
type DeliverFunc func(doc models.Document, content []byte)

// DownloadOutcome records how far a download got.
type DownloadOutcome struct {
	DocumentID string
	Stage      Stage
	Trail      []Stage
	Delivered  bool
	// Count is the stored download count after a successful increment.
	Count int64
	// CounterErr is an *common.UpdateError when Incrementing failed after
	// delivery.
	CounterErr error
}

func (o *DownloadOutcome) enter(s Stage) {
	o.Stage = s
	o.Trail = append(o.Trail, s)
}

// TrailString renders the trail as "idle>fetching>...".
func (o *DownloadOutcome) TrailString() string {
	parts := make([]string, len(o.Trail))
	for i, s := range o.Trail {
		parts[i] = s.String()
	}
	return strings.Join(parts, ">")
}

// DownloadService runs the download counter protocol.
type DownloadService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	blobs       blob.Store
	resolver    DocumentResolver
	strategy    CounterStrategy
	logger      logging.Logger
	timeout     time.Duration
}

func NewDownloadService(db *sql.DB, m repomanager.RepositoryManager, blobs blob.Store, resolver DocumentResolver, strategy CounterStrategy, cfg *config.Config, l logging.Logger) *DownloadService {
	return &DownloadService{
		db:          db,
		repomanager: m,
		blobs:       blobs,
		resolver:    resolver,
		strategy:    strategy,
		logger:      l.With("module", "download_service"),
		timeout:     cfg.RemoteCallTimeout,
	}
}

// Download fetches document id, passes it to deliver and increments its
// counter. The returned error covers the steps before delivery: an
// *common.UnauthenticatedError when ctx carries no signed-in session (no
// remote call is made), *common.NotFoundError or *common.BlobFetchError.
// A counter failure after delivery is reported in the outcome only.
func (s *DownloadService) Download(ctx context.Context, id string, deliver DeliverFunc) (*DownloadOutcome, error) {
	out := &DownloadOutcome{DocumentID: id}
	out.enter(StageIdle)

	if _, err := session.FromContext(ctx).Require("download"); err != nil {
		downloadsTotal.WithLabelValues("unauthenticated").Inc()
		return out, err
	}

	out.enter(StageFetching)
	doc, err := s.resolver.Get(ctx, id)
	if err != nil {
		return s.fail(ctx, out, err)
	}
	content, err := callWithTimeout(ctx, s.timeout, func(ctx context.Context) ([]byte, error) {
		return s.blobs.Download(ctx, doc.FilePath)
	})
	if err != nil {
		return s.fail(ctx, out, &common.BlobFetchError{Path: doc.FilePath, Err: err})
	}

	out.enter(StageDownloading)
	deliver(*doc, content)
	out.Delivered = true

	out.enter(StageIncrementing)
	repo := timedDocuments{Repository: s.repomanager.Documents(s.db), timeout: s.timeout}
	// Counted even if the client went away after delivery.
	count, err := s.strategy.Increment(context.WithoutCancel(ctx), repo, id)
	if err != nil {
		counterUpdatesTotal.WithLabelValues(s.strategy.Name(), "error").Inc()
		out.CounterErr = &common.UpdateError{ID: id, Op: "increment download count", Err: err}
		out.enter(StageFailed)
		downloadsTotal.WithLabelValues(StageFailed.String()).Inc()
		s.logger.Error(ctx, "download counter not updated", "id", id, "strategy", s.strategy.Name(), "error", err, "trail", out.TrailString())
		return out, nil
	}
	counterUpdatesTotal.WithLabelValues(s.strategy.Name(), "ok").Inc()

	out.Count = count
	s.resolver.PatchDownloadCount(id, count)
	out.enter(StageDone)
	downloadsTotal.WithLabelValues(StageDone.String()).Inc()
	s.logger.Debug(ctx, "download complete", "id", id, "count", count)
	return out, nil
}

func (s *DownloadService) fail(ctx context.Context, out *DownloadOutcome, err error) (*DownloadOutcome, error) {
	out.enter(StageFailed)
	downloadsTotal.WithLabelValues(StageFailed.String()).Inc()
	s.logger.Warn(ctx, "download failed", "id", out.DocumentID, "error", err, "trail", out.TrailString())
	return out, err
}
