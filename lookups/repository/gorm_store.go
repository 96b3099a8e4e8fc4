package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LookupEntryModel is one persisted bucket.
type LookupEntryModel struct {
	Key       string    `gorm:"primaryKey;column:key"`
	Value     string    `gorm:"column:value;type:text"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (LookupEntryModel) TableName() string {
	return "lookup_entries"
}

// GormStore implements domain.Store on a relational table (SQLite or Postgres).
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (r *GormStore) InitSchema(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&LookupEntryModel{})
}

func (r *GormStore) Get(ctx context.Context, key string) (string, bool, error) {
	var m LookupEntryModel
	if err := r.db.WithContext(ctx).First(&m, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return m.Value, true, nil
}

func (r *GormStore) Put(ctx context.Context, key string, value string) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&LookupEntryModel{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}).Error
}

func (r *GormStore) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Delete(&LookupEntryModel{}, "key = ?", key).Error
}
