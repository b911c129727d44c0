package refreshtokens_test

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/ministry/internal/common"
	"github.com/dmitrijs2005/ministry/internal/server/models"
	"github.com/dmitrijs2005/ministry/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/ministry/internal/server/repositories/users"
	"github.com/dmitrijs2005/ministry/internal/server/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLRepository_SQLite(t *testing.T) {
	db := storetest.Open(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	user := &models.User{
		ID: "u-1", Name: "Lydia", Email: "lydia@example.com", Role: common.DefaultRole,
		PasswordHash: "h", Salt: "s", CreatedAt: now,
	}
	require.NoError(t, users.NewSQLRepository(db).Create(ctx, user))

	repo := refreshtokens.NewSQLRepository(db)

	live := &models.RefreshToken{ID: "r-live", UserID: user.ID, TokenHash: "live", ExpiresAt: now.Add(time.Hour), CreatedAt: now}
	stale := &models.RefreshToken{ID: "r-stale", UserID: user.ID, TokenHash: "stale", ExpiresAt: now.Add(-time.Hour), CreatedAt: now}
	require.NoError(t, repo.Create(ctx, live))
	require.NoError(t, repo.Create(ctx, stale))

	got, err := repo.FindByHash(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, live, got)

	_, err = repo.FindByHash(ctx, "nope")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	n, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.DeleteByHash(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.DeleteByHash(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n, "second delete is a no-op")
}

func TestSQLRepository_SQLite_RequiresExistingUser(t *testing.T) {
	db := storetest.Open(t)

	err := refreshtokens.NewSQLRepository(db).Create(context.Background(), &models.RefreshToken{
		ID: "r", UserID: "ghost", TokenHash: "h", ExpiresAt: time.Now(), CreatedAt: time.Now(),
	})
	assert.Error(t, err, "foreign key must be enforced")
}
