// Package refreshtokens stores the refresh tokens issued at login.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/studyshelf/internal/server/models"
)

type Repository interface {
	// Create stores token for userID, valid until expiresAt.
	Create(ctx context.Context, userID string, token string, expiresAt time.Time) error

	// Find returns common.ErrorNotFound for an unknown token.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete removes one token. Unknown tokens are not an error.
	Delete(ctx context.Context, token string) error

	// DeleteByUser revokes every token of userID (sign-out).
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}
