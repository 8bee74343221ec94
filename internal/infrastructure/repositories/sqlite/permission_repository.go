package sqlite

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tempvoice/internal/core/domain"
	"tempvoice/internal/core/ports"
)

type SQLitePermissionRepository struct {
	db *gorm.DB
}

func NewSQLitePermissionRepository(db *gorm.DB) ports.PermissionRepository {
	return &SQLitePermissionRepository{db: db}
}

func (r *SQLitePermissionRepository) Add(ctx context.Context, channel domain.ChannelID, user domain.UserID, kind domain.PermissionKind) error {
	rec := PermissionRecord{
		ChannelID: string(channel),
		UserID:    string(user),
		Kind:      string(kind),
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to add permission: %w", err)
	}
	return nil
}

func (r *SQLitePermissionRepository) Remove(ctx context.Context, channel domain.ChannelID, user domain.UserID, kind domain.PermissionKind) error {
	err := r.db.WithContext(ctx).
		Where("channel_id = ? AND user_id = ? AND kind = ?", string(channel), string(user), string(kind)).
		Delete(&PermissionRecord{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove permission: %w", err)
	}
	return nil
}

func (r *SQLitePermissionRepository) List(ctx context.Context, channel domain.ChannelID, kind domain.PermissionKind) ([]domain.UserID, error) {
	var recs []PermissionRecord
	err := r.db.WithContext(ctx).
		Where("channel_id = ? AND kind = ?", string(channel), string(kind)).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}

	out := make([]domain.UserID, 0, len(recs))
	for _, rec := range recs {
		out = append(out, domain.UserID(rec.UserID))
	}
	return out, nil
}

func (r *SQLitePermissionRepository) DeleteChannel(ctx context.Context, channel domain.ChannelID) error {
	err := r.db.WithContext(ctx).
		Where("channel_id = ?", string(channel)).
		Delete(&PermissionRecord{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete channel permissions: %w", err)
	}
	return nil
}
