package localstore

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront-client/pkg/db"
	"github.com/angelmondragon/storefront-client/pkg/db/models"
	"github.com/angelmondragon/storefront-client/pkg/migrate"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQLite persists entries in the local_entries table of a local database file.
type SQLite struct {
	client  *db.Client
	profile string
}

// NewSQLite applies pending schema migrations and scopes the store to profile.
func NewSQLite(ctx context.Context, client *db.Client, profile string) (*SQLite, error) {
	if client == nil {
		return nil, fmt.Errorf("sqlite client required")
	}
	sqlDB, err := client.DB().DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql db handle: %w", err)
	}
	if err := migrate.Up(ctx, sqlDB); err != nil {
		return nil, fmt.Errorf("migrating local store: %w", err)
	}
	return &SQLite{client: client, profile: profileOrDefault(profile)}, nil
}

func (s *SQLite) Get(ctx context.Context, key string) (string, bool, error) {
	var entry models.LocalEntry
	err := s.client.DB().WithContext(ctx).
		Where("profile = ? AND key = ?", s.profile, key).
		Take(&entry).Error
	if db.IsNotFound(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading %s: %w", key, err)
	}
	return entry.Value, true, nil
}

func (s *SQLite) Set(ctx context.Context, key, value string) error {
	entry := models.LocalEntry{Profile: s.profile, Key: key, Value: value}
	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "profile"}, {Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&entry).Error
		if err != nil {
			return fmt.Errorf("writing %s: %w", key, err)
		}
		return nil
	})
}

func (s *SQLite) Remove(ctx context.Context, key string) error {
	err := s.client.DB().WithContext(ctx).
		Where("profile = ? AND key = ?", s.profile, key).
		Delete(&models.LocalEntry{}).Error
	if err != nil {
		return fmt.Errorf("removing %s: %w", key, err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.client.Close()
}
