package sqlite

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"tempvoice/internal/core/domain"
	"tempvoice/internal/core/ports"
)

type SQLiteEventRepository struct {
	db *gorm.DB
}

func NewSQLiteEventRepository(db *gorm.DB) ports.EventRepository {
	return &SQLiteEventRepository{db: db}
}

func (r *SQLiteEventRepository) Record(ctx context.Context, events ...*domain.Event) error {
	if len(events) == 0 {
		return nil
	}

	recs := make([]EventRecord, 0, len(events))
	for _, ev := range events {
		recs = append(recs, EventRecord{
			Kind:       string(ev.Kind),
			GuildID:    string(ev.GuildID),
			ChannelID:  string(ev.ChannelID),
			ActorID:    string(ev.ActorID),
			Action:     ev.Action,
			RecordedAt: ev.RecordedAt,
		})
	}
	if err := r.db.WithContext(ctx).Create(&recs).Error; err != nil {
		return fmt.Errorf("failed to record events: %w", err)
	}
	return nil
}

func (r *SQLiteEventRepository) Stats(ctx context.Context, guild domain.GuildID, since time.Time) (*domain.GuildStats, error) {
	stats := &domain.GuildStats{
		GuildID:         guild,
		Since:           since,
		OperationCounts: make(map[string]int64),
	}

	base := func() *gorm.DB {
		return r.db.WithContext(ctx).
			Model(&EventRecord{}).
			Where("guild_id = ? AND recorded_at >= ?", string(guild), since)
	}

	if err := base().Where("kind = ?", string(domain.EventChannelCreated)).
		Count(&stats.ChannelsCreated).Error; err != nil {
		return nil, fmt.Errorf("failed to count created channels: %w", err)
	}
	if err := base().Where("kind IN ?", []string{
		string(domain.EventChannelDeleted),
		string(domain.EventSweepDeleted),
	}).Count(&stats.ChannelsDeleted).Error; err != nil {
		return nil, fmt.Errorf("failed to count deleted channels: %w", err)
	}
	if err := base().Where("kind = ?", string(domain.EventError)).
		Count(&stats.ErrorCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count errors: %w", err)
	}

	var ops []struct {
		Action string
		Total  int64
	}
	err := base().Where("kind = ?", string(domain.EventOperation)).
		Select("action, count(*) as total").
		Group("action").
		Scan(&ops).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count operations: %w", err)
	}
	for _, op := range ops {
		stats.Operations += op.Total
		stats.OperationCounts[op.Action] = op.Total
	}
	return stats, nil
}

func (r *SQLiteEventRepository) Prune(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("recorded_at < ?", before).
		Delete(&EventRecord{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to prune events: %w", res.Error)
	}
	return res.RowsAffected, nil
}
