package journal

import (
	"context"
	"fmt"

	"github.com/alitto/pond/v2"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/feral-file/ff-marketplace/internal/adapter"
	"github.com/feral-file/ff-marketplace/internal/audit"
	"github.com/feral-file/ff-marketplace/internal/domain"
	"github.com/feral-file/ff-marketplace/internal/logger"
	"github.com/feral-file/ff-marketplace/internal/marketplace"
	"github.com/feral-file/ff-marketplace/internal/messaging"
	"github.com/feral-file/ff-marketplace/internal/settlement"
	"github.com/feral-file/ff-marketplace/internal/store"
)

// Config holds the configuration for a journal
type Config struct {
	// Service names the owner of payment logs and the event source
	Service string
	// PublishWorkers bounds concurrent event publishing
	PublishWorkers int
	// PublishQueueSize bounds events waiting to be published. Callers block once it is full.
	PublishQueueSize int
}

// Journal persists service state to the store and mirrors every change
// onto the event stream.
//
// Store writes are synchronous so callers can rely on them surviving a
// restart. Events are published on a worker pool after the write succeeded.
type Journal struct {
	service   string
	store     store.Store
	publisher messaging.Publisher
	pool      pond.Pool
	clock     adapter.Clock
	json      adapter.JSON
}

var (
	_ audit.Sink          = (*Journal)(nil)
	_ marketplace.Journal = (*Journal)(nil)
	_ settlement.Journal  = (*Journal)(nil)
)

// MarketplaceState is the persisted marketplace data loaded at startup
type MarketplaceState struct {
	Records  []domain.AuditRecord
	Tokens   []domain.Token
	Payments []domain.PaymentLogEntry
}

// New creates a journal. publisher may be nil, in which case no events are published.
func New(cfg Config, st store.Store, publisher messaging.Publisher, clock adapter.Clock, jsonAdapter adapter.JSON) *Journal {
	workers := cfg.PublishWorkers
	if workers <= 0 {
		workers = 4
	}
	queueSize := cfg.PublishQueueSize
	if queueSize <= 0 {
		queueSize = 1000
	}

	return &Journal{
		service:   cfg.Service,
		store:     st,
		publisher: publisher,
		pool:      pond.NewPool(workers, pond.WithQueueSize(queueSize)),
		clock:     clock,
		json:      jsonAdapter,
	}
}

// AppendAuditRecord persists an audit record
func (j *Journal) AppendAuditRecord(ctx context.Context, record domain.AuditRecord) error {
	if err := j.store.AppendAuditRecord(ctx, record); err != nil {
		return err
	}

	j.publish(ctx, messaging.EventTypeAuditRecord, record)
	return nil
}

// SaveToken persists token metadata
func (j *Journal) SaveToken(ctx context.Context, token domain.Token) error {
	return j.store.SaveToken(ctx, token)
}

// RecordPayment persists a payment log entry
func (j *Journal) RecordPayment(ctx context.Context, entry domain.PaymentLogEntry) error {
	if err := j.store.SavePaymentLog(ctx, j.service, entry); err != nil {
		return err
	}

	j.publish(ctx, messaging.EventTypePayment, entry)
	return nil
}

// MarkProcessed durably records a consumed block height
func (j *Journal) MarkProcessed(ctx context.Context, height uint64) (bool, error) {
	return j.store.MarkTransferProcessed(ctx, height)
}

// RecordNotification persists a notification log entry
func (j *Journal) RecordNotification(ctx context.Context, entry domain.NotificationLogEntry) error {
	if err := j.store.SaveNotificationLog(ctx, entry); err != nil {
		return err
	}

	j.publish(ctx, messaging.EventTypeNotification, entry)
	return nil
}

// SaveFeeStatus persists the settlement fee counters
func (j *Journal) SaveFeeStatus(ctx context.Context, status domain.FeeStatus) error {
	return j.store.SetSetting(ctx, store.KeyFeeStatus, status)
}

// LoadMarketplace reads the persisted marketplace state
func (j *Journal) LoadMarketplace(ctx context.Context) (MarketplaceState, error) {
	records, err := j.store.GetAuditRecords(ctx)
	if err != nil {
		return MarketplaceState{}, err
	}
	tokens, err := j.store.GetTokens(ctx)
	if err != nil {
		return MarketplaceState{}, err
	}
	payments, err := j.store.GetPaymentLogs(ctx, j.service)
	if err != nil {
		return MarketplaceState{}, err
	}

	return MarketplaceState{
		Records:  records,
		Tokens:   tokens,
		Payments: payments,
	}, nil
}

// LoadSettlement reads the persisted settlement proxy state
func (j *Journal) LoadSettlement(ctx context.Context) (settlement.Snapshot, error) {
	processed, err := j.store.GetProcessedTransfers(ctx)
	if err != nil {
		return settlement.Snapshot{}, err
	}
	payments, err := j.store.GetPaymentLogs(ctx, j.service)
	if err != nil {
		return settlement.Snapshot{}, err
	}
	notifications, err := j.store.GetNotificationLogs(ctx)
	if err != nil {
		return settlement.Snapshot{}, err
	}

	var fees domain.FeeStatus
	if _, err := j.store.GetSetting(ctx, store.KeyFeeStatus, &fees); err != nil {
		return settlement.Snapshot{}, err
	}

	return settlement.Snapshot{
		Processed:     processed,
		Payments:      payments,
		Notifications: notifications,
		Fees:          fees,
	}, nil
}

// Close waits for queued events to be published
func (j *Journal) Close() {
	j.pool.StopAndWait()
}

func (j *Journal) publish(ctx context.Context, eventType messaging.EventType, v interface{}) {
	if j.publisher == nil {
		return
	}

	data, err := j.json.Marshal(v)
	if err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("failed to encode %s event: %w", eventType, err))
		return
	}

	now := j.clock.Now()
	event := &messaging.Event{
		ID:         ulid.MustNewDefault(now).String(),
		Service:    j.service,
		Type:       eventType,
		OccurredAt: now,
		Data:       data,
	}

	// the event outlives the request that produced it
	pubCtx := context.WithoutCancel(ctx)
	j.pool.Submit(func() {
		if err := j.publisher.PublishEvent(pubCtx, event); err != nil {
			logger.ErrorCtx(pubCtx, fmt.Errorf("failed to publish event: %w", err),
				zap.String("id", event.ID),
				zap.String("subject", event.Subject()))
		}
	})
}
