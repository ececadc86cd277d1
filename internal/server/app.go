// Package server wires configuration, storage, services and the HTTP
// transport into a runnable application with graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/studyshelf/internal/logging"
	"github.com/dmitrijs2005/studyshelf/internal/server/blob"
	"github.com/dmitrijs2005/studyshelf/internal/server/config"
	"github.com/dmitrijs2005/studyshelf/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/studyshelf/internal/server/rest"
	"github.com/dmitrijs2005/studyshelf/internal/server/services"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var (
	sqlOpen = sql.Open

	newRepositoryManager = func() repomanager.RepositoryManager {
		return repomanager.NewPostgresRepositoryManager()
	}

	newS3Store = func(ctx context.Context, c blob.S3Config) (blob.Store, error) {
		return blob.NewS3Store(ctx, c)
	}
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	handler     http.Handler
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	db, err := sqlOpen("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app := &App{config: c, logger: logger, db: db, repomanager: newRepositoryManager()}

	blobs, err := app.newBlobStore(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("blob store init error: %w", err)
	}

	strategy, err := services.NewCounterStrategy(c.CounterStrategy, c.CASRetryLimit)
	if err != nil {
		db.Close()
		return nil, err
	}

	tutors, err := services.NewTutorService(c.TutorsFile)
	if err != nil {
		db.Close()
		return nil, err
	}

	rm := app.repomanager
	catalog := services.NewCatalogService(db, rm, c, logger)

	h := rest.NewHandler(rest.Services{
		Users:      services.NewUserService(db, rm, c, logger),
		Catalog:    catalog,
		Downloads:  services.NewDownloadService(db, rm, blobs, catalog, strategy, c, logger),
		Uploads:    services.NewUploadService(db, rm, blobs, catalog, c, logger),
		Documents:  services.NewDocumentService(db, rm, blobs, catalog, c, logger),
		Vocabulary: services.NewVocabularyService(db, rm, c, logger),
		Tutors:     tutors,
		Ready:      db,
	}, c.MaxUploadBytes, c.AccessTokenValidityDuration, logger)

	app.handler = h.Router()

	logger.Info(ctx, "App initialized",
		"blob_backend", c.BlobBackend,
		"counter_strategy", strategy.Name())

	return app, nil
}

func (app *App) newBlobStore(ctx context.Context) (blob.Store, error) {
	c := app.config
	switch c.BlobBackend {
	case config.BlobMemory:
		app.logger.Warn(ctx, "Using in-memory blob store, uploads are lost on restart")
		return blob.NewMemoryStore("memory://blobs"), nil
	case config.BlobS3:
		return newS3Store(ctx, blob.S3Config{
			Endpoint:      c.S3BaseEndpoint,
			Region:        c.S3Region,
			AccessKey:     c.S3RootUser,
			SecretKey:     c.S3RootPassword,
			Bucket:        c.S3Bucket,
			PublicBaseURL: c.S3PublicBaseURL,
		})
	default:
		return nil, fmt.Errorf("unknown blob backend %q", c.BlobBackend)
	}
}

// Handler exposes the router, mostly for tests.
func (app *App) Handler() http.Handler {
	return app.handler
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) (stop func()) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	done := make(chan struct{})
	go func() {
		select {
		case <-sigs:
			cancelFunc()
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(done)
	}
}

// Run applies migrations and serves HTTP until ctx is cancelled or the
// process receives a termination signal.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	stop := app.initSignalHandler(cancelFunc)
	defer stop()

	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	var (
		wg     sync.WaitGroup
		runErr error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		s := rest.NewServer(app.config.HTTPAddr, app.handler, app.config.ShutdownTimeout, app.logger)
		if err := s.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			runErr = err
			cancelFunc()
		}
	}()

	wg.Wait()

	app.logger.Info(ctx, "App stopped")
	return runErr
}

func (app *App) Close() error {
	return app.db.Close()
}
