package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"tempvoice/internal/core/domain"
	"tempvoice/internal/core/ports"
)

type RedisPermissionRepository struct {
	client *redis.Client
}

func NewRedisPermissionRepository(client *redis.Client) ports.PermissionRepository {
	return &RedisPermissionRepository{client: client}
}

func (r *RedisPermissionRepository) setKey(channel domain.ChannelID, kind domain.PermissionKind) string {
	return "tempvoice:perm:" + string(channel) + ":" + string(kind)
}

func (r *RedisPermissionRepository) Add(ctx context.Context, channel domain.ChannelID, user domain.UserID, kind domain.PermissionKind) error {
	if err := r.client.SAdd(ctx, r.setKey(channel, kind), string(user)).Err(); err != nil {
		return fmt.Errorf("failed to add permission in Redis: %w", err)
	}
	return nil
}

func (r *RedisPermissionRepository) Remove(ctx context.Context, channel domain.ChannelID, user domain.UserID, kind domain.PermissionKind) error {
	if err := r.client.SRem(ctx, r.setKey(channel, kind), string(user)).Err(); err != nil {
		return fmt.Errorf("failed to remove permission in Redis: %w", err)
	}
	return nil
}

func (r *RedisPermissionRepository) List(ctx context.Context, channel domain.ChannelID, kind domain.PermissionKind) ([]domain.UserID, error) {
	members, err := r.client.SMembers(ctx, r.setKey(channel, kind)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}

	out := make([]domain.UserID, 0, len(members))
	for _, m := range members {
		out = append(out, domain.UserID(m))
	}
	return out, nil
}

func (r *RedisPermissionRepository) DeleteChannel(ctx context.Context, channel domain.ChannelID) error {
	keys := []string{
		r.setKey(channel, domain.PermissionTrust),
		r.setKey(channel, domain.PermissionBlock),
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete channel permissions: %w", err)
	}
	return nil
}
