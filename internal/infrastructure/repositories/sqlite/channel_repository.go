package sqlite

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tempvoice/internal/core/domain"
	"tempvoice/internal/core/ports"
)

type SQLiteChannelRepository struct {
	db *gorm.DB
}

func NewSQLiteChannelRepository(db *gorm.DB) ports.ChannelRepository {
	return &SQLiteChannelRepository{db: db}
}

func (r *SQLiteChannelRepository) Get(ctx context.Context, id domain.ChannelID) (*domain.Channel, error) {
	var rec ChannelRecord
	err := r.db.WithContext(ctx).First(&rec, "channel_id = ?", string(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrChannelNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}
	return recordToChannel(&rec), nil
}

func (r *SQLiteChannelRepository) Save(ctx context.Context, ch *domain.Channel) error {
	rec := ChannelRecord{
		ChannelID: string(ch.ID),
		GuildID:   string(ch.GuildID),
		OwnerID:   string(ch.OwnerID),
		CreatedAt: ch.CreatedAt,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "channel_id"}},
			UpdateAll: true,
		}).
		Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to save channel: %w", err)
	}
	return nil
}

func (r *SQLiteChannelRepository) UpdateOwner(ctx context.Context, id domain.ChannelID, owner domain.UserID) error {
	res := r.db.WithContext(ctx).
		Model(&ChannelRecord{}).
		Where("channel_id = ?", string(id)).
		Update("owner_id", string(owner))
	if res.Error != nil {
		return fmt.Errorf("failed to update channel owner: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrChannelNotFound
	}
	return nil
}

func (r *SQLiteChannelRepository) Delete(ctx context.Context, id domain.ChannelID) error {
	err := r.db.WithContext(ctx).
		Delete(&ChannelRecord{}, "channel_id = ?", string(id)).Error
	if err != nil {
		return fmt.Errorf("failed to delete channel: %w", err)
	}
	return nil
}

func (r *SQLiteChannelRepository) ListByGuild(ctx context.Context, guild domain.GuildID) ([]*domain.Channel, error) {
	var recs []ChannelRecord
	err := r.db.WithContext(ctx).
		Where("guild_id = ?", string(guild)).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list guild channels: %w", err)
	}
	return recordsToChannels(recs), nil
}

func (r *SQLiteChannelRepository) ListAll(ctx context.Context) ([]*domain.Channel, error) {
	var recs []ChannelRecord
	if err := r.db.WithContext(ctx).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	return recordsToChannels(recs), nil
}

func recordToChannel(rec *ChannelRecord) *domain.Channel {
	return &domain.Channel{
		ID:        domain.ChannelID(rec.ChannelID),
		GuildID:   domain.GuildID(rec.GuildID),
		OwnerID:   domain.UserID(rec.OwnerID),
		CreatedAt: rec.CreatedAt,
	}
}

func recordsToChannels(recs []ChannelRecord) []*domain.Channel {
	out := make([]*domain.Channel, 0, len(recs))
	for i := range recs {
		out = append(out, recordToChannel(&recs[i]))
	}
	return out
}
