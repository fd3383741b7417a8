package store

import (
	"context"

	"github.com/feral-file/ff-marketplace/internal/domain"
)

const (
	ServiceMarketplace = "marketplace"
	ServiceSettlement  = "settlement"
)

// Store defines the interface for database operations
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore
type Store interface {
	SettingsStore

	// AppendAuditRecord inserts an audit record. Indices are never overwritten.
	AppendAuditRecord(ctx context.Context, record domain.AuditRecord) error
	// GetAuditRecords returns every audit record ordered by index
	GetAuditRecords(ctx context.Context) ([]domain.AuditRecord, error)

	// SaveToken inserts or replaces token metadata
	SaveToken(ctx context.Context, token domain.Token) error
	// GetTokens returns the metadata of every minted token ordered by id
	GetTokens(ctx context.Context) ([]domain.Token, error)

	// SavePaymentLog inserts or replaces the payment log entry of a service
	SavePaymentLog(ctx context.Context, service string, entry domain.PaymentLogEntry) error
	// GetPaymentLogs returns the payment log of a service ordered by index
	GetPaymentLogs(ctx context.Context, service string) ([]domain.PaymentLogEntry, error)

	// SaveNotificationLog inserts or replaces a notification log entry
	SaveNotificationLog(ctx context.Context, entry domain.NotificationLogEntry) error
	// GetNotificationLogs returns the notification log ordered by index
	GetNotificationLogs(ctx context.Context) ([]domain.NotificationLogEntry, error)

	// MarkTransferProcessed records a consumed block height.
	// It returns false when the height was already recorded.
	MarkTransferProcessed(ctx context.Context, height uint64) (bool, error)
	// GetProcessedTransfers returns every consumed block height in ascending order
	GetProcessedTransfers(ctx context.Context) ([]uint64, error)
}
