// Package admin is the operator CLI: schema migrations, the subject
// vocabulary and account creation.
package admin

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/dmitrijs2005/studyshelf/internal/logging"
	"github.com/dmitrijs2005/studyshelf/internal/server/config"
	"github.com/dmitrijs2005/studyshelf/internal/server/models"
	"github.com/dmitrijs2005/studyshelf/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/studyshelf/internal/server/services"
	"github.com/spf13/cobra"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type Migrator interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	RollbackMigration(ctx context.Context, db *sql.DB) error
}

type Vocabulary interface {
	Seed(ctx context.Context, subjects []models.Subject) error
	Subjects(ctx context.Context, year int) ([]string, error)
}

type Registrar interface {
	Register(ctx context.Context, c services.Credentials) (*models.User, error)
}

// Deps are the collaborators the commands act on.
type Deps struct {
	DB         *sql.DB
	Migrator   Migrator
	Vocabulary Vocabulary
	Users      Registrar
	Close      func() error
}

// DepsFactory builds Deps from the loaded configuration.
type DepsFactory func(cfg *config.Config) (*Deps, error)

// RootOptions holds global flags.
type RootOptions struct {
	DSN      string
	LogLevel string
	Config   string

	deps *Deps
}

// NewRootCommand creates the admin command tree. factory is called once per
// invocation, after flags are parsed.
func NewRootCommand(factory DepsFactory) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "studyshelf-admin",
		Short:         "Operator tasks for the studyshelf server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var cfgArgs []string
			if opts.Config != "" {
				cfgArgs = []string{"-c", opts.Config}
			}
			cfg, err := config.Load(cfgArgs)
			if err != nil {
				return err
			}
			if opts.DSN != "" {
				cfg.DatabaseDSN = opts.DSN
			}
			if opts.LogLevel != "" {
				cfg.LogLevel = opts.LogLevel
			}
			deps, err := factory(cfg)
			if err != nil {
				return err
			}
			opts.deps = deps
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.deps != nil && opts.deps.Close != nil {
				return opts.deps.Close()
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.DSN, "dsn", "", "database DSN (overrides configuration)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "JSON configuration file")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedSubjectsCommand(opts))
	cmd.AddCommand(NewSubjectsCommand(opts))
	cmd.AddCommand(NewCreateUserCommand(opts))

	return cmd
}

// DefaultDeps opens PostgreSQL and wires the real services.
func DefaultDeps(cfg *config.Config) (*Deps, error) {
	logger, err := logging.New(os.Stderr, cfg.LogLevel, "text")
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	rm := repomanager.NewPostgresRepositoryManager()
	return &Deps{
		DB:         db,
		Migrator:   rm,
		Vocabulary: services.NewVocabularyService(db, rm, cfg, logger),
		Users:      services.NewUserService(db, rm, cfg, logger),
		Close:      db.Close,
	}, nil
}
