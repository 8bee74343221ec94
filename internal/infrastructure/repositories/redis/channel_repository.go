package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"tempvoice/internal/core/domain"
	"tempvoice/internal/core/ports"
)

type RedisChannelRepository struct {
	client *redis.Client
	prefix string
}

func NewRedisChannelRepository(client *redis.Client) ports.ChannelRepository {
	return &RedisChannelRepository{
		client: client,
		prefix: "tempvoice:channel:",
	}
}

func (r *RedisChannelRepository) channelKey(id domain.ChannelID) string {
	return r.prefix + string(id)
}

func (r *RedisChannelRepository) indexKey() string {
	return "tempvoice:channels"
}

func (r *RedisChannelRepository) guildKey(guild domain.GuildID) string {
	return "tempvoice:guild:" + string(guild) + ":channels"
}

func (r *RedisChannelRepository) Get(ctx context.Context, id domain.ChannelID) (*domain.Channel, error) {
	data, err := r.client.Get(ctx, r.channelKey(id)).Result()
	if err == redis.Nil {
		return nil, domain.ErrChannelNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get channel from Redis: %w", err)
	}

	var ch domain.Channel
	if err := json.Unmarshal([]byte(data), &ch); err != nil {
		return nil, fmt.Errorf("failed to unmarshal channel: %w", err)
	}
	return &ch, nil
}

func (r *RedisChannelRepository) Save(ctx context.Context, ch *domain.Channel) error {
	data, err := json.Marshal(ch)
	if err != nil {
		return fmt.Errorf("failed to marshal channel: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.channelKey(ch.ID), data, 0)
	pipe.SAdd(ctx, r.indexKey(), string(ch.ID))
	pipe.SAdd(ctx, r.guildKey(ch.GuildID), string(ch.ID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save channel in Redis: %w", err)
	}
	return nil
}

func (r *RedisChannelRepository) UpdateOwner(ctx context.Context, id domain.ChannelID, owner domain.UserID) error {
	ch, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	ch.OwnerID = owner
	data, err := json.Marshal(ch)
	if err != nil {
		return fmt.Errorf("failed to marshal channel: %w", err)
	}
	if err := r.client.Set(ctx, r.channelKey(id), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to update channel in Redis: %w", err)
	}
	return nil
}

func (r *RedisChannelRepository) Delete(ctx context.Context, id domain.ChannelID) error {
	ch, err := r.Get(ctx, id)
	if err == domain.ErrChannelNotFound {
		return nil
	}
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.channelKey(id))
	pipe.SRem(ctx, r.indexKey(), string(id))
	pipe.SRem(ctx, r.guildKey(ch.GuildID), string(id))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete channel from Redis: %w", err)
	}
	return nil
}

func (r *RedisChannelRepository) ListByGuild(ctx context.Context, guild domain.GuildID) ([]*domain.Channel, error) {
	ids, err := r.client.SMembers(ctx, r.guildKey(guild)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list guild channels: %w", err)
	}
	return r.loadChannels(ctx, ids)
}

func (r *RedisChannelRepository) ListAll(ctx context.Context) ([]*domain.Channel, error) {
	ids, err := r.client.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	return r.loadChannels(ctx, ids)
}

func (r *RedisChannelRepository) loadChannels(ctx context.Context, ids []string) ([]*domain.Channel, error) {
	var out []*domain.Channel
	for _, id := range ids {
		ch, err := r.Get(ctx, domain.ChannelID(id))
		if err == domain.ErrChannelNotFound {
			// index entry outlived the record; self-heal
			r.client.SRem(ctx, r.indexKey(), id)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	return out, nil
}
