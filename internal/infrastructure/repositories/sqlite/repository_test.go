package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tempvoice/internal/core/domain"
)

func TestChannelRepository_RoundTrip(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "tempvoice.db"))
	require.NoError(t, err)
	repo := NewSQLiteChannelRepository(db)
	ctx := context.Background()

	ch := &domain.Channel{
		ID:        "100000000000000000",
		GuildID:   "300000000000000000",
		OwnerID:   "200000000000000000",
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, repo.Save(ctx, ch))

	got, err := repo.Get(ctx, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, ch.OwnerID, got.OwnerID)
	assert.Equal(t, ch.GuildID, got.GuildID)

	// saving again must upsert, not duplicate
	require.NoError(t, repo.Save(ctx, ch))
	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestChannelRepository_UpdateOwner(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "tempvoice.db"))
	require.NoError(t, err)
	repo := NewSQLiteChannelRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &domain.Channel{
		ID: "100000000000000000", GuildID: "g", OwnerID: "200000000000000000",
	}))
	require.NoError(t, repo.UpdateOwner(ctx, "100000000000000000", "200000000000000001"))

	got, err := repo.Get(ctx, "100000000000000000")
	require.NoError(t, err)
	assert.Equal(t, domain.UserID("200000000000000001"), got.OwnerID)

	err = repo.UpdateOwner(ctx, "100000000000000099", "200000000000000001")
	assert.ErrorIs(t, err, domain.ErrChannelNotFound)
}

func TestChannelRepository_GetMissing(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "tempvoice.db"))
	require.NoError(t, err)
	repo := NewSQLiteChannelRepository(db)

	_, err = repo.Get(context.Background(), "100000000000000000")
	assert.ErrorIs(t, err, domain.ErrChannelNotFound)
}

func TestPermissionRepository_AddListRemove(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "tempvoice.db"))
	require.NoError(t, err)
	repo := NewSQLitePermissionRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, "100000000000000000", "u1", domain.PermissionTrust))
	// duplicate add is a no-op
	require.NoError(t, repo.Add(ctx, "100000000000000000", "u1", domain.PermissionTrust))
	require.NoError(t, repo.Add(ctx, "100000000000000000", "u2", domain.PermissionBlock))

	trusted, err := repo.List(ctx, "100000000000000000", domain.PermissionTrust)
	require.NoError(t, err)
	assert.Equal(t, []domain.UserID{"u1"}, trusted)

	require.NoError(t, repo.Remove(ctx, "100000000000000000", "u1", domain.PermissionTrust))
	trusted, err = repo.List(ctx, "100000000000000000", domain.PermissionTrust)
	require.NoError(t, err)
	assert.Empty(t, trusted)

	require.NoError(t, repo.DeleteChannel(ctx, "100000000000000000"))
	blocked, err := repo.List(ctx, "100000000000000000", domain.PermissionBlock)
	require.NoError(t, err)
	assert.Empty(t, blocked)
}

func TestEventRepository_StatsAndPrune(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "tempvoice.db"))
	require.NoError(t, err)
	repo := NewSQLiteEventRepository(db)
	ctx := context.Background()
	guild := domain.GuildID("300000000000000000")
	now := time.Now().UTC()

	require.NoError(t, repo.Record(ctx,
		&domain.Event{Kind: domain.EventChannelCreated, GuildID: guild, RecordedAt: now},
		&domain.Event{Kind: domain.EventChannelDeleted, GuildID: guild, RecordedAt: now},
		&domain.Event{Kind: domain.EventSweepDeleted, GuildID: guild, RecordedAt: now},
		&domain.Event{Kind: domain.EventOperation, GuildID: guild, Action: "rename", RecordedAt: now},
		&domain.Event{Kind: domain.EventOperation, GuildID: guild, Action: "rename", RecordedAt: now.Add(-48 * time.Hour)},
		&domain.Event{Kind: domain.EventError, GuildID: guild, RecordedAt: now},
		&domain.Event{Kind: domain.EventChannelCreated, GuildID: "300000000000000001", RecordedAt: now},
	))

	stats, err := repo.Stats(ctx, guild, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.ChannelsCreated)
	assert.Equal(t, int64(2), stats.ChannelsDeleted)
	assert.Equal(t, int64(1), stats.Operations)
	assert.Equal(t, int64(1), stats.OperationCounts["rename"])
	assert.Equal(t, int64(1), stats.ErrorCount)

	removed, err := repo.Prune(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}
