// Package users declares the user repository and its SQL implementation.
package users

import (
	"context"

	"github.com/dmitrijs2005/ministry/internal/server/models"
)

type Repository interface {
	// Create inserts user. A duplicate email yields common.ErrConflict.
	Create(ctx context.Context, user *models.User) error
	// GetByEmail expects an already normalized (lowercased) email.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}
