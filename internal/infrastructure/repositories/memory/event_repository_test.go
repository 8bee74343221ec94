package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tempvoice/internal/core/domain"
)

func TestEventRepository_Stats(t *testing.T) {
	repo := NewMemoryEventRepository()
	ctx := context.Background()
	guild := domain.GuildID("300000000000000000")
	now := time.Now()

	require.NoError(t, repo.Record(ctx,
		&domain.Event{Kind: domain.EventChannelCreated, GuildID: guild, RecordedAt: now},
		&domain.Event{Kind: domain.EventChannelDeleted, GuildID: guild, RecordedAt: now},
		&domain.Event{Kind: domain.EventSweepDeleted, GuildID: guild, RecordedAt: now},
		&domain.Event{Kind: domain.EventOperation, GuildID: guild, Action: "rename", RecordedAt: now},
		&domain.Event{Kind: domain.EventOperation, GuildID: guild, Action: "rename", RecordedAt: now},
		&domain.Event{Kind: domain.EventOperation, GuildID: guild, Action: "kick", RecordedAt: now},
		&domain.Event{Kind: domain.EventError, GuildID: guild, RecordedAt: now},
		&domain.Event{Kind: domain.EventChannelCreated, GuildID: "300000000000000001", RecordedAt: now},
	))

	stats, err := repo.Stats(ctx, guild, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.ChannelsCreated)
	assert.Equal(t, int64(2), stats.ChannelsDeleted)
	assert.Equal(t, int64(3), stats.Operations)
	assert.Equal(t, int64(2), stats.OperationCounts["rename"])
	assert.Equal(t, int64(1), stats.OperationCounts["kick"])
	assert.Equal(t, int64(1), stats.ErrorCount)
}

func TestEventRepository_StatsSinceCutoff(t *testing.T) {
	repo := NewMemoryEventRepository()
	ctx := context.Background()
	guild := domain.GuildID("300000000000000000")
	now := time.Now()

	require.NoError(t, repo.Record(ctx,
		&domain.Event{Kind: domain.EventChannelCreated, GuildID: guild, RecordedAt: now.Add(-2 * time.Hour)},
		&domain.Event{Kind: domain.EventChannelCreated, GuildID: guild, RecordedAt: now},
	))

	stats, err := repo.Stats(ctx, guild, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.ChannelsCreated)
}

func TestEventRepository_Prune(t *testing.T) {
	repo := NewMemoryEventRepository()
	ctx := context.Background()
	guild := domain.GuildID("300000000000000000")
	now := time.Now()

	require.NoError(t, repo.Record(ctx,
		&domain.Event{Kind: domain.EventOperation, GuildID: guild, Action: "rename", RecordedAt: now.Add(-48 * time.Hour)},
		&domain.Event{Kind: domain.EventOperation, GuildID: guild, Action: "kick", RecordedAt: now},
	))

	removed, err := repo.Prune(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	stats, err := repo.Stats(ctx, guild, now.Add(-72*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Operations)
	assert.Zero(t, stats.OperationCounts["rename"])
}
