package store

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feral-file/ff-marketplace/internal/domain"
	"github.com/feral-file/ff-marketplace/internal/logger"
	"github.com/feral-file/ff-marketplace/internal/store/schema"
)

type pgStore struct {
	SettingsStore
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{
		SettingsStore: NewSettingsStore(db),
		db:            db,
	}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM database connection.
// Zero values fall back to the defaults of NormalizeConnectionPoolSettings.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings into safe values.
//
// Defaults (when zero):
//   - MaxOpenConns: 10
//   - MaxIdleConns: 2
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	if maxOpenConns == 0 {
		maxOpenConns = 10
	}
	if maxIdleConns == 0 {
		maxIdleConns = 2
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

// AppendAuditRecord inserts an audit record
func (s *pgStore) AppendAuditRecord(ctx context.Context, record domain.AuditRecord) error {
	row := fromAuditRecord(record)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert audit record %d: %w", record.Index, err)
	}
	return nil
}

// GetAuditRecords returns every audit record ordered by index
func (s *pgStore) GetAuditRecords(ctx context.Context) ([]domain.AuditRecord, error) {
	var rows []schema.AuditRecord
	if err := s.db.WithContext(ctx).Order("record_index ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get audit records: %w", err)
	}

	records := make([]domain.AuditRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, toAuditRecord(row))
	}
	return records, nil
}

// SaveToken inserts or replaces token metadata
func (s *pgStore) SaveToken(ctx context.Context, token domain.Token) error {
	row, err := fromToken(token)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "description", "uri", "properties"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save token %d: %w", token.ID, err)
	}
	return nil
}

// GetTokens returns every stored token ordered by id
func (s *pgStore) GetTokens(ctx context.Context) ([]domain.Token, error) {
	var rows []schema.Token
	if err := s.db.WithContext(ctx).Order("token_id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get tokens: %w", err)
	}

	tokens := make([]domain.Token, 0, len(rows))
	for _, row := range rows {
		token, err := toToken(row)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, nil
}

// SavePaymentLog inserts or replaces a payment log entry
func (s *pgStore) SavePaymentLog(ctx context.Context, service string, entry domain.PaymentLogEntry) error {
	row := fromPaymentLog(service, entry)

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "service"}, {Name: "log_index"}},
		DoUpdates: clause.AssignmentColumns([]string{"block_height", "error"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save %s payment %d: %w", service, entry.Index, err)
	}
	return nil
}

// GetPaymentLogs returns the payment log of a service ordered by index
func (s *pgStore) GetPaymentLogs(ctx context.Context, service string) ([]domain.PaymentLogEntry, error) {
	var rows []schema.PaymentLog
	err := s.db.WithContext(ctx).
		Where("service = ?", service).
		Order("log_index ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get %s payments: %w", service, err)
	}

	entries := make([]domain.PaymentLogEntry, 0, len(rows))
	for _, row := range rows {
		entry, err := toPaymentLog(row)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s payment %d: %w", service, row.LogIndex, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// SaveNotificationLog inserts or replaces a notification log entry
func (s *pgStore) SaveNotificationLog(ctx context.Context, entry domain.NotificationLogEntry) error {
	row, err := fromNotificationLog(entry)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "log_index"}},
		DoUpdates: clause.AssignmentColumns([]string{"args", "outcome"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save notification %d: %w", entry.Index, err)
	}
	return nil
}

// GetNotificationLogs returns the notification log ordered by index
func (s *pgStore) GetNotificationLogs(ctx context.Context) ([]domain.NotificationLogEntry, error) {
	var rows []schema.NotificationLog
	if err := s.db.WithContext(ctx).Order("log_index ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get notifications: %w", err)
	}

	entries := make([]domain.NotificationLogEntry, 0, len(rows))
	for _, row := range rows {
		entry, err := toNotificationLog(row)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// MarkTransferProcessed records a consumed block height
func (s *pgStore) MarkTransferProcessed(ctx context.Context, height uint64) (bool, error) {
	row := schema.ProcessedTransfer{
		BlockHeight: int64(height), //nolint:gosec,G115
		ProcessedAt: time.Now().UTC(),
	}

	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row)
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark block %d processed: %w", height, result.Error)
	}

	if result.RowsAffected == 0 {
		logger.WarnCtx(ctx, "Block height already marked processed", zap.Uint64("blockHeight", height))
		return false, nil
	}
	return true, nil
}

// GetProcessedTransfers returns every consumed block height in ascending order
func (s *pgStore) GetProcessedTransfers(ctx context.Context) ([]uint64, error) {
	var heights []int64
	err := s.db.WithContext(ctx).
		Model(&schema.ProcessedTransfer{}).
		Order("block_height ASC").
		Pluck("block_height", &heights).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get processed transfers: %w", err)
	}

	result := make([]uint64, 0, len(heights))
	for _, h := range heights {
		result = append(result, uint64(h)) //nolint:gosec,G115
	}
	return result, nil
}
