// Package refreshtokens declares the server-side repository contract for
// managing refresh token records in persistent storage.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/ministry/internal/server/models"
)

// Repository stores refresh token records keyed by the token's SHA-256 hash.
type Repository interface {
	// Create stores a new record.
	Create(ctx context.Context, token *models.RefreshToken) error

	// FindByHash returns common.ErrorNotFound when no record matches.
	FindByHash(ctx context.Context, hash string) (*models.RefreshToken, error)

	// DeleteByHash removes the matching record and returns the number of rows
	// deleted. Deleting a missing record is not an error.
	DeleteByHash(ctx context.Context, hash string) (int64, error)

	// DeleteExpired purges records whose expiry is not after now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
