package sqlite

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ChannelRecord mirrors one owned channel for crash recovery.
type ChannelRecord struct {
	ChannelID string `gorm:"primaryKey"`
	GuildID   string `gorm:"index"`
	OwnerID   string
	CreatedAt time.Time
}

func (ChannelRecord) TableName() string { return "channels" }

// PermissionRecord is one trust/block audit row.
type PermissionRecord struct {
	ID        uint   `gorm:"primaryKey"`
	ChannelID string `gorm:"index:idx_channel_perm,unique"`
	UserID    string `gorm:"index:idx_channel_perm,unique"`
	Kind      string `gorm:"index:idx_channel_perm,unique"`
	CreatedAt time.Time
}

func (PermissionRecord) TableName() string { return "channel_permissions" }

// EventRecord is one analytics row.
type EventRecord struct {
	ID         uint   `gorm:"primaryKey"`
	Kind       string `gorm:"index"`
	GuildID    string `gorm:"index"`
	ChannelID  string
	ActorID    string
	Action     string
	RecordedAt time.Time `gorm:"index"`
}

func (EventRecord) TableName() string { return "events" }

// Open opens (creating if needed) the SQLite database and runs migrations.
func Open(path string) (*gorm.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if err := db.AutoMigrate(&ChannelRecord{}, &PermissionRecord{}, &EventRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate SQLite schema: %w", err)
	}
	return db, nil
}
