package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/feral-file/ff-marketplace/internal/store/schema"
)

const (
	// KeyFeeStatus holds the settlement proxy fee counters
	KeyFeeStatus = "settlement:fee_status"
	// KeySettlementConfig holds admin overrides of the settlement proxy configuration
	KeySettlementConfig = "settlement:config"
	// KeyMarketplaceConfig holds admin overrides of the marketplace configuration
	KeyMarketplaceConfig = "marketplace:config"
)

// SettingsStore stores JSON encoded values by key
type SettingsStore interface {
	// GetSetting decodes the value stored at key into v. It returns false when the key does not exist.
	GetSetting(ctx context.Context, key string, v interface{}) (bool, error)
	// SetSetting encodes v and stores it at key
	SetSetting(ctx context.Context, key string, v interface{}) error
}

type settingsStore struct {
	db *gorm.DB
}

// NewSettingsStore creates a new settings store
func NewSettingsStore(db *gorm.DB) SettingsStore {
	return &settingsStore{db: db}
}

// GetSetting decodes the value stored at key into v
func (s *settingsStore) GetSetting(ctx context.Context, key string, v interface{}) (bool, error) {
	var kv schema.KeyValueStore
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&kv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get setting %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(kv.Value), v); err != nil {
		return false, fmt.Errorf("failed to parse setting %s: %w", key, err)
	}

	return true, nil
}

// SetSetting stores v at key
func (s *settingsStore) SetSetting(ctx context.Context, key string, v interface{}) error {
	value, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode setting %s: %w", key, err)
	}

	kv := schema.KeyValueStore{
		Key:   key,
		Value: string(value),
	}

	err = s.db.WithContext(ctx).Save(&kv).Error
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}

	return nil
}
