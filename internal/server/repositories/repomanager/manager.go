package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/studyshelf/internal/dbx"
	"github.com/dmitrijs2005/studyshelf/internal/server/repositories/documents"
	"github.com/dmitrijs2005/studyshelf/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/studyshelf/internal/server/repositories/subjects"
	"github.com/dmitrijs2005/studyshelf/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so services can use
// the same code with a plain connection or inside dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Documents(db dbx.DBTX) documents.Repository
	Subjects(db dbx.DBTX) subjects.Repository
}
