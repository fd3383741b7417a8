package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-marketplace/internal/domain"
)

// =============================================================================
// Test Data Builders
// =============================================================================

var testTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func principal(s string) *domain.Principal {
	p := domain.Principal(s)
	return &p
}

func price(v uint64) *uint64 {
	return &v
}

func buildTestRecords() []domain.AuditRecord {
	return []domain.AuditRecord{
		{Index: 0, Op: domain.OperationInit, Actor: "admin", Timestamp: testTime},
		{Index: 1, Op: domain.OperationMint, Actor: "admin", To: principal("alice"), TokenID: 1, Timestamp: testTime.Add(time.Minute)},
		{Index: 2, Op: domain.OperationList, Actor: "alice", TokenID: 1, Price: price(1_000_000), Timestamp: testTime.Add(2 * time.Minute)},
		{Index: 3, Op: domain.OperationPurchase, Actor: "proxy", From: principal("alice"), To: principal("bob"), TokenID: 1, Price: price(1_000_000), Memo: 4242, Timestamp: testTime.Add(3 * time.Minute)},
	}
}

func buildTestPayment(index uint64, purpose domain.PaymentPurpose, to string) domain.PaymentLogEntry {
	return domain.PaymentLogEntry{
		Index:     index,
		Timestamp: testTime,
		Purpose:   purpose,
		Args: domain.SendArgs{
			To:     domain.NewAccountID(domain.Principal(to), nil),
			Amount: 950_000,
			Fee:    domain.TX_FEE,
			Memo:   1,
		},
	}
}

// =============================================================================
// Tests
// =============================================================================

func testAuditRecords(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("records round trip in index order", func(t *testing.T) {
		records := buildTestRecords()
		for i := len(records) - 1; i >= 0; i-- {
			require.NoError(t, store.AppendAuditRecord(ctx, records[i]))
		}

		got, err := store.GetAuditRecords(ctx)
		require.NoError(t, err)
		require.Len(t, got, len(records))
		for i := range records {
			assert.Equal(t, records[i], got[i])
		}
	})
}

func testAuditRecordIndexIsUnique(t *testing.T, store Store) {
	ctx := context.Background()
	record := buildTestRecords()[0]

	require.NoError(t, store.AppendAuditRecord(ctx, record))
	assert.Error(t, store.AppendAuditRecord(ctx, record))
}

func testTokens(t *testing.T, store Store) {
	ctx := context.Background()

	token := domain.Token{
		ID:          7,
		Name:        "Seven",
		Description: "the seventh",
		URI:         "ipfs://seven",
		Properties:  []domain.Property{{Name: "color", Value: "red"}},
	}
	require.NoError(t, store.SaveToken(ctx, domain.Token{ID: 2, Name: "Two"}))
	require.NoError(t, store.SaveToken(ctx, token))

	tokens, err := store.GetTokens(ctx)
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, domain.Token{ID: 2, Name: "Two"}, tokens[0])
	assert.Equal(t, token, tokens[1])

	t.Run("saving again replaces metadata", func(t *testing.T) {
		token.Name = "Seven (renamed)"
		token.Properties = nil
		require.NoError(t, store.SaveToken(ctx, token))

		tokens, err := store.GetTokens(ctx)
		require.NoError(t, err)
		require.Len(t, tokens, 2)
		assert.Equal(t, token, tokens[1])
	})
}

func testPaymentLogs(t *testing.T, store Store) {
	ctx := context.Background()

	pending := buildTestPayment(1, domain.PaymentPurposeSeller, "alice")
	require.NoError(t, store.SavePaymentLog(ctx, ServiceMarketplace, pending))
	require.NoError(t, store.SavePaymentLog(ctx, ServiceSettlement, buildTestPayment(1, domain.PaymentPurposeRefund, "bob")))

	t.Run("pending payment has no outcome", func(t *testing.T) {
		entries, err := store.GetPaymentLogs(ctx, ServiceMarketplace)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, pending, entries[0])
	})

	t.Run("outcome is filled in place", func(t *testing.T) {
		height := uint64(88)
		done := pending
		done.Outcome = &domain.PaymentOutcome{BlockHeight: &height}
		require.NoError(t, store.SavePaymentLog(ctx, ServiceMarketplace, done))

		failed := buildTestPayment(2, domain.PaymentPurposeCreator, "creator")
		failed.Outcome = &domain.PaymentOutcome{Error: "insufficient funds"}
		require.NoError(t, store.SavePaymentLog(ctx, ServiceMarketplace, failed))

		entries, err := store.GetPaymentLogs(ctx, ServiceMarketplace)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, done, entries[0])
		assert.Equal(t, failed, entries[1])
	})

	t.Run("logs are kept per service", func(t *testing.T) {
		entries, err := store.GetPaymentLogs(ctx, ServiceSettlement)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, domain.PaymentPurposeRefund, entries[0].Purpose)
	})
}

func testNotificationLogs(t *testing.T, store Store) {
	ctx := context.Background()

	rejected := domain.NotificationLogEntry{
		Index:       1,
		Timestamp:   testTime,
		Caller:      "bob",
		BlockHeight: 10,
		Outcome:     &domain.NotificationOutcome{ErrorKind: domain.ErrorKindProtocol, Error: "block already processed"},
	}
	accepted := domain.NotificationLogEntry{
		Index:       2,
		Timestamp:   testTime.Add(time.Second),
		Caller:      "carol",
		BlockHeight: 11,
		Args:        &domain.TransferNotification{From: "carol", To: "market", BlockHeight: 11, Amount: 1_000_000, Memo: 3},
	}
	require.NoError(t, store.SaveNotificationLog(ctx, rejected))
	require.NoError(t, store.SaveNotificationLog(ctx, accepted))

	accepted.Outcome = &domain.NotificationOutcome{Response: &domain.PurchaseResponse{Seller: "alice", CreatorFeeBP: 500}}
	require.NoError(t, store.SaveNotificationLog(ctx, accepted))

	entries, err := store.GetNotificationLogs(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, rejected, entries[0])
	assert.Equal(t, accepted, entries[1])
}

func testProcessedTransfers(t *testing.T, store Store) {
	ctx := context.Background()

	for _, h := range []uint64{30, 10, 20} {
		marked, err := store.MarkTransferProcessed(ctx, h)
		require.NoError(t, err)
		assert.True(t, marked)
	}

	marked, err := store.MarkTransferProcessed(ctx, 20)
	require.NoError(t, err)
	assert.False(t, marked)

	heights, err := store.GetProcessedTransfers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint64{10, 20, 30}, heights)
}

func testSettings(t *testing.T, store Store) {
	ctx := context.Background()

	var status domain.FeeStatus
	found, err := store.GetSetting(ctx, KeyFeeStatus, &status)
	require.NoError(t, err)
	assert.False(t, found)

	want := domain.FeeStatus{TotalMarketFee: 25_000, TotalCreatorFee: 5_000, WaitingMarketFee: 25_000, WaitingCreatorFee: 5_000}
	require.NoError(t, store.SetSetting(ctx, KeyFeeStatus, want))

	want.TotalMarketFee = 50_000
	require.NoError(t, store.SetSetting(ctx, KeyFeeStatus, want))

	found, err = store.GetSetting(ctx, KeyFeeStatus, &status)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, want, status)
}

// RunStoreTests runs every store test against a fresh database from initDB
func RunStoreTests(t *testing.T, initDB func(t *testing.T) Store, cleanupDB func(t *testing.T)) {
	tests := []struct {
		name string
		fn   func(*testing.T, Store)
	}{
		{"AuditRecords", testAuditRecords},
		{"AuditRecordIndexIsUnique", testAuditRecordIndexIsUnique},
		{"Tokens", testTokens},
		{"PaymentLogs", testPaymentLogs},
		{"NotificationLogs", testNotificationLogs},
		{"ProcessedTransfers", testProcessedTransfers},
		{"Settings", testSettings},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := initDB(t)
			defer cleanupDB(t)
			tt.fn(t, store)
		})
	}
}
