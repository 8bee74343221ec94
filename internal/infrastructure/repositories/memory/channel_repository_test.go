package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tempvoice/internal/core/domain"
)

func testChannel(id, guild, owner string) *domain.Channel {
	return &domain.Channel{
		ID:        domain.ChannelID(id),
		GuildID:   domain.GuildID(guild),
		OwnerID:   domain.UserID(owner),
		CreatedAt: time.Now(),
	}
}

func TestChannelRepository_SaveAndGet(t *testing.T) {
	repo := NewMemoryChannelRepository()
	ctx := context.Background()

	ch := testChannel("400000000000000000", "300000000000000000", "111111111111111111")
	require.NoError(t, repo.Save(ctx, ch))

	got, err := repo.Get(ctx, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, ch.OwnerID, got.OwnerID)
	assert.Equal(t, ch.GuildID, got.GuildID)

	// stored value is a copy; mutating the returned channel must not leak back
	got.OwnerID = "999999999999999999"
	again, err := repo.Get(ctx, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.UserID("111111111111111111"), again.OwnerID)
}

func TestChannelRepository_GetMissing(t *testing.T) {
	repo := NewMemoryChannelRepository()

	_, err := repo.Get(context.Background(), "400000000000000000")
	assert.ErrorIs(t, err, domain.ErrChannelNotFound)
}

func TestChannelRepository_UpdateOwner(t *testing.T) {
	repo := NewMemoryChannelRepository()
	ctx := context.Background()

	ch := testChannel("400000000000000000", "300000000000000000", "111111111111111111")
	require.NoError(t, repo.Save(ctx, ch))

	require.NoError(t, repo.UpdateOwner(ctx, ch.ID, "222222222222222222"))

	got, err := repo.Get(ctx, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.UserID("222222222222222222"), got.OwnerID)

	err = repo.UpdateOwner(ctx, "400000000000000001", "222222222222222222")
	assert.ErrorIs(t, err, domain.ErrChannelNotFound)
}

func TestChannelRepository_DeleteIdempotent(t *testing.T) {
	repo := NewMemoryChannelRepository()
	ctx := context.Background()

	ch := testChannel("400000000000000000", "300000000000000000", "111111111111111111")
	require.NoError(t, repo.Save(ctx, ch))

	require.NoError(t, repo.Delete(ctx, ch.ID))
	require.NoError(t, repo.Delete(ctx, ch.ID))

	_, err := repo.Get(ctx, ch.ID)
	assert.ErrorIs(t, err, domain.ErrChannelNotFound)
}

func TestChannelRepository_Listing(t *testing.T) {
	repo := NewMemoryChannelRepository()
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, testChannel("400000000000000000", "300000000000000000", "111111111111111111")))
	require.NoError(t, repo.Save(ctx, testChannel("400000000000000001", "300000000000000000", "222222222222222222")))
	require.NoError(t, repo.Save(ctx, testChannel("400000000000000002", "300000000000000001", "111111111111111111")))

	byGuild, err := repo.ListByGuild(ctx, "300000000000000000")
	require.NoError(t, err)
	assert.Len(t, byGuild, 2)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
