package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tempvoice/internal/core/domain"
	"tempvoice/internal/core/ports"
)

type RedisEventRepository struct {
	client *redis.Client
}

func NewRedisEventRepository(client *redis.Client) ports.EventRepository {
	return &RedisEventRepository{client: client}
}

func (r *RedisEventRepository) listKey(guild domain.GuildID) string {
	return "tempvoice:events:" + string(guild)
}

func (r *RedisEventRepository) guildsKey() string {
	return "tempvoice:event:guilds"
}

func (r *RedisEventRepository) Record(ctx context.Context, events ...*domain.Event) error {
	if len(events) == 0 {
		return nil
	}

	pipe := r.client.TxPipeline()
	for _, ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("failed to marshal event: %w", err)
		}
		pipe.RPush(ctx, r.listKey(ev.GuildID), data)
		pipe.SAdd(ctx, r.guildsKey(), string(ev.GuildID))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record events in Redis: %w", err)
	}
	return nil
}

func (r *RedisEventRepository) Stats(ctx context.Context, guild domain.GuildID, since time.Time) (*domain.GuildStats, error) {
	rows, err := r.client.LRange(ctx, r.listKey(guild), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read events from Redis: %w", err)
	}

	stats := &domain.GuildStats{
		GuildID:         guild,
		Since:           since,
		OperationCounts: make(map[string]int64),
	}

	for _, row := range rows {
		var ev domain.Event
		if err := json.Unmarshal([]byte(row), &ev); err != nil {
			continue
		}
		if ev.RecordedAt.Before(since) {
			continue
		}
		switch ev.Kind {
		case domain.EventChannelCreated:
			stats.ChannelsCreated++
		case domain.EventChannelDeleted, domain.EventSweepDeleted:
			stats.ChannelsDeleted++
		case domain.EventOperation:
			stats.Operations++
			stats.OperationCounts[ev.Action]++
		case domain.EventError:
			stats.ErrorCount++
		}
	}
	return stats, nil
}

func (r *RedisEventRepository) Prune(ctx context.Context, before time.Time) (int64, error) {
	guilds, err := r.client.SMembers(ctx, r.guildsKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to list event guilds: %w", err)
	}

	var removed int64
	for _, g := range guilds {
		n, err := r.pruneGuild(ctx, domain.GuildID(g), before)
		if err != nil {
			return removed, err
		}
		removed += n
	}
	return removed, nil
}

// pruneGuild rewrites one guild's list without the expired rows. Events are
// appended in record order, so the first kept row ends the scan.
func (r *RedisEventRepository) pruneGuild(ctx context.Context, guild domain.GuildID, before time.Time) (int64, error) {
	key := r.listKey(guild)
	var removed int64
	for {
		row, err := r.client.LIndex(ctx, key, 0).Result()
		if err == redis.Nil {
			return removed, nil
		}
		if err != nil {
			return removed, fmt.Errorf("failed to read event head: %w", err)
		}

		var ev domain.Event
		if err := json.Unmarshal([]byte(row), &ev); err == nil && !ev.RecordedAt.Before(before) {
			return removed, nil
		}
		if err := r.client.LPop(ctx, key).Err(); err != nil {
			return removed, fmt.Errorf("failed to prune event: %w", err)
		}
		removed++
	}
}
