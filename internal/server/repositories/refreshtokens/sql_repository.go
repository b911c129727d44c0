package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/ministry/internal/common"
	"github.com/dmitrijs2005/ministry/internal/dbx"
	"github.com/dmitrijs2005/ministry/internal/server/models"
	"github.com/jmoiron/sqlx"
)

type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	query := r.db.Rebind(
		`INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		token.ID, token.UserID, token.TokenHash, token.ExpiresAt.UTC(), token.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *SQLRepository) FindByHash(ctx context.Context, hash string) (*models.RefreshToken, error) {
	query := r.db.Rebind(
		`SELECT id, user_id, token_hash, expires_at, created_at FROM refresh_tokens
		 WHERE token_hash = ?`)

	token := &models.RefreshToken{}
	if err := sqlx.GetContext(ctx, r.db, token, query, hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	token.ExpiresAt = token.ExpiresAt.UTC()
	token.CreatedAt = token.CreatedAt.UTC()
	return token, nil
}

func (r *SQLRepository) DeleteByHash(ctx context.Context, hash string) (int64, error) {
	return r.exec(ctx, `DELETE FROM refresh_tokens WHERE token_hash = ?`, hash)
}

func (r *SQLRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	// Stored times carry second precision, so compare against the same.
	return r.exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= ?`, now.UTC().Truncate(time.Second))
}

func (r *SQLRepository) exec(ctx context.Context, query string, arg any) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), arg)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
