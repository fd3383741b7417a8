package settlement_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-marketplace/internal/domain"
	"github.com/feral-file/ff-marketplace/internal/logger"
	"github.com/feral-file/ff-marketplace/internal/mocks"
	"github.com/feral-file/ff-marketplace/internal/settlement"
)

const (
	self      domain.Principal = "proxy"
	market    domain.Principal = "market"
	marketURL                  = "http://market.internal/api/v1/transaction-notification"
	bob       domain.Principal = "bob"
	carol     domain.Principal = "carol"
	alice     domain.Principal = "alice"
)

var now = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

// testProxyMocks contains the mocks and the proxy under test
type testProxyMocks struct {
	ctrl    *gomock.Controller
	ledger  *mocks.MockValueLedger
	target  *mocks.MockTarget
	journal *mocks.MockSettlementJournal
	clock   *mocks.MockClock
	proxy   *settlement.Proxy
}

// setupTestProxy creates a configured proxy. The journal is only wired when withJournal is set.
func setupTestProxy(t *testing.T, withJournal bool) *testProxyMocks {
	ctrl := gomock.NewController(t)

	tm := &testProxyMocks{
		ctrl:    ctrl,
		ledger:  mocks.NewMockValueLedger(ctrl),
		target:  mocks.NewMockTarget(ctrl),
		journal: mocks.NewMockSettlementJournal(ctrl),
		clock:   mocks.NewMockClock(ctrl),
	}
	tm.clock.EXPECT().Now().Return(now).AnyTimes()

	var journal settlement.Journal
	if withJournal {
		journal = tm.journal
	}

	proxy, err := settlement.NewProxy(settlement.Config{
		Self:            self,
		TargetPrincipal: market,
		TargetURL:       marketURL,
		MarketFeeBP:     domain.DEFAULT_MARKET_FEE_BP,
	}, tm.ledger, tm.target, journal, tm.clock)
	require.NoError(t, err)
	tm.proxy = proxy

	return tm
}

// tearDownTestProxy cleans up the test mocks
func tearDownTestProxy(tm *testProxyMocks) {
	tm.ctrl.Finish()
}

func sendTransfer(from domain.Principal, amount, memo uint64) domain.Transfer {
	return domain.Transfer{
		Kind:   domain.TransferKindSend,
		From:   domain.NewAccountID(from, nil),
		To:     domain.NewAccountID(self, nil),
		Amount: amount,
		Fee:    domain.TX_FEE,
		Memo:   memo,
	}
}

func sendArgs(to domain.Principal, amount, memo uint64) domain.SendArgs {
	return domain.SendArgs{
		To:     domain.NewAccountID(to, nil),
		Amount: amount,
		Fee:    domain.TX_FEE,
		Memo:   memo,
	}
}

func expectedNotification(caller domain.Principal, height, amount, memo uint64) domain.TransferNotification {
	return domain.TransferNotification{
		From:        caller,
		To:          market,
		BlockHeight: height,
		Amount:      amount,
		Memo:        memo,
	}
}

func TestProxy_NotifySettles(t *testing.T) {
	tm := setupTestProxy(t, false)
	defer tearDownTestProxy(tm)
	ctx := context.Background()

	gomock.InOrder(
		tm.ledger.EXPECT().GetTransfer(gomock.Any(), uint64(7)).Return(sendTransfer(bob, 1_000_000, 3), nil),
		tm.target.EXPECT().
			NotifyPurchase(gomock.Any(), marketURL, expectedNotification(bob, 7, 1_000_000, 3)).
			Return(domain.PurchaseResponse{Seller: alice, CreatorFeeBP: 2_500}, nil),
		tm.ledger.EXPECT().SendValue(gomock.Any(), sendArgs(alice, 950_000, 0)).Return(uint64(8), nil),
	)

	require.NoError(t, tm.proxy.Notify(ctx, bob, 7))

	assert.True(t, tm.proxy.IsProcessed(7))
	assert.Equal(t, domain.FeeStatus{
		TotalMarketFee:    25_000,
		TotalCreatorFee:   25_000,
		WaitingMarketFee:  25_000,
		WaitingCreatorFee: 25_000,
	}, tm.proxy.Status())

	payments := tm.proxy.Payments(0, 10)
	require.Len(t, payments, 1)
	assert.Equal(t, domain.PaymentPurposeSeller, payments[0].Purpose)
	assert.Equal(t, uint64(1), payments[0].Index)
	assert.Equal(t, uint64(8), *payments[0].Outcome.BlockHeight)

	notifications := tm.proxy.Notifications(0, 10)
	require.Len(t, notifications, 1)
	assert.True(t, notifications[0].Outcome.Succeeded())
	assert.Equal(t, alice, notifications[0].Outcome.Response.Seller)
	assert.Equal(t, uint64(1_000_000), notifications[0].Args.Amount)
}

func TestProxy_NotifyAlreadyProcessed(t *testing.T) {
	tm := setupTestProxy(t, false)
	defer tearDownTestProxy(tm)
	ctx := context.Background()

	tm.ledger.EXPECT().GetTransfer(gomock.Any(), uint64(7)).Return(domain.Transfer{}, domain.NewRemoteError(domain.RemoteErrorCall, errors.New("unreachable")))

	err := tm.proxy.Notify(ctx, bob, 7)
	assert.True(t, domain.IsRemoteErrorKind(err, domain.RemoteErrorCall))

	// every later attempt is rejected without touching the ledger
	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, tm.proxy.Notify(ctx, bob, 7), domain.ErrAlreadyProcessed)
	}

	notifications := tm.proxy.Notifications(0, 10)
	require.Len(t, notifications, 4)
	assert.Equal(t, domain.ErrorKindRemote, notifications[0].Outcome.ErrorKind)
	assert.Equal(t, domain.ErrorKindProtocol, notifications[3].Outcome.ErrorKind)
	assert.Nil(t, notifications[3].Args)
	assert.Equal(t, uint64(4), notifications[3].Index)
}

func TestProxy_NotifyDuplicateWhileSuspended(t *testing.T) {
	tm := setupTestProxy(t, false)
	defer tearDownTestProxy(tm)
	ctx := context.Background()

	var duplicateErr error
	tm.ledger.EXPECT().
		GetTransfer(gomock.Any(), uint64(7)).
		DoAndReturn(func(ctx context.Context, height uint64) (domain.Transfer, error) {
			// the same block is notified again while the first fetch is pending
			duplicateErr = tm.proxy.Notify(ctx, bob, height)
			return sendTransfer(bob, 1_000_000, 3), nil
		})
	tm.target.EXPECT().NotifyPurchase(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(domain.PurchaseResponse{Seller: alice, CreatorFeeBP: 2_500}, nil)
	tm.ledger.EXPECT().SendValue(gomock.Any(), gomock.Any()).Return(uint64(8), nil)

	require.NoError(t, tm.proxy.Notify(ctx, bob, 7))
	assert.ErrorIs(t, duplicateErr, domain.ErrAlreadyProcessed)
	assert.Len(t, tm.proxy.Payments(0, 10), 1)
}

func TestProxy_NotifyNotConfigured(t *testing.T) {
	tm := setupTestProxy(t, false)
	defer tearDownTestProxy(tm)

	tm.proxy.SetTarget("", "")

	err := tm.proxy.Notify(context.Background(), bob, 7)
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
	assert.False(t, tm.proxy.IsProcessed(7))
}

func TestProxy_NotifyProtocolErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("recipient mismatch still marks the block processed", func(t *testing.T) {
		tm := setupTestProxy(t, false)
		defer tearDownTestProxy(tm)

		transfer := sendTransfer(bob, 1_000_000, 3)
		transfer.To = domain.NewAccountID("someone-else", nil)
		tm.ledger.EXPECT().GetTransfer(gomock.Any(), uint64(7)).Return(transfer, nil)

		assert.ErrorIs(t, tm.proxy.Notify(ctx, bob, 7), domain.ErrRecipientMismatch)
		assert.True(t, tm.proxy.IsProcessed(7))
		assert.Empty(t, tm.proxy.Payments(0, 10))
		assert.ErrorIs(t, tm.proxy.Notify(ctx, bob, 7), domain.ErrAlreadyProcessed)
	})

	t.Run("mint and burn transfers are rejected", func(t *testing.T) {
		for _, kind := range []domain.TransferKind{domain.TransferKindMint, domain.TransferKindBurn} {
			tm := setupTestProxy(t, false)

			transfer := sendTransfer(bob, 1_000_000, 3)
			transfer.Kind = kind
			tm.ledger.EXPECT().GetTransfer(gomock.Any(), uint64(7)).Return(transfer, nil)

			assert.ErrorIs(t, tm.proxy.Notify(ctx, bob, 7), domain.ErrInvalidTransferKind)
			assert.Empty(t, tm.proxy.Payments(0, 10))
			tearDownTestProxy(tm)
		}
	})

	t.Run("sender mismatch refunds the real sender", func(t *testing.T) {
		tm := setupTestProxy(t, false)
		defer tearDownTestProxy(tm)

		tm.ledger.EXPECT().GetTransfer(gomock.Any(), uint64(7)).Return(sendTransfer(carol, 1_000_000, 3), nil)
		tm.ledger.EXPECT().SendValue(gomock.Any(), sendArgs(carol, 990_000, 3)).Return(uint64(9), nil)

		assert.ErrorIs(t, tm.proxy.Notify(ctx, bob, 7), domain.ErrSenderMismatch)

		payments := tm.proxy.Payments(0, 10)
		require.Len(t, payments, 1)
		assert.Equal(t, domain.PaymentPurposeRefund, payments[0].Purpose)
	})
}

func TestProxy_NotifyTargetFailures(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		amount   uint64
		err      error
		refunded bool
	}{
		{
			name:     "call failure is not refunded",
			amount:   1_000_000,
			err:      domain.NewRemoteError(domain.RemoteErrorCall, errors.New("connection refused")),
			refunded: false,
		},
		{
			name:     "undecodable response is refunded",
			amount:   1_000_000,
			err:      domain.NewRemoteError(domain.RemoteErrorDecode, errors.New("unexpected EOF")),
			refunded: true,
		},
		{
			name:     "rejection is refunded",
			amount:   1_000_000,
			err:      domain.NewRemoteError(domain.RemoteErrorRejected, errors.New("token not listed")),
			refunded: true,
		},
		{
			name:     "rejection of an amount at the fee is kept",
			amount:   domain.TX_FEE,
			err:      domain.NewRemoteError(domain.RemoteErrorRejected, errors.New("insufficient payment")),
			refunded: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm := setupTestProxy(t, false)
			defer tearDownTestProxy(tm)

			tm.ledger.EXPECT().GetTransfer(gomock.Any(), uint64(7)).Return(sendTransfer(bob, tt.amount, 3), nil)
			tm.target.EXPECT().NotifyPurchase(gomock.Any(), marketURL, gomock.Any()).Return(domain.PurchaseResponse{}, tt.err)
			if tt.refunded {
				tm.ledger.EXPECT().SendValue(gomock.Any(), sendArgs(bob, tt.amount-domain.TX_FEE, 3)).Return(uint64(9), nil)
			}

			err := tm.proxy.Notify(ctx, bob, 7)
			assert.ErrorIs(t, err, tt.err)
			assert.True(t, tm.proxy.IsProcessed(7))
			assert.Equal(t, domain.FeeStatus{}, tm.proxy.Status())

			if tt.refunded {
				assert.Len(t, tm.proxy.Payments(0, 10), 1)
			} else {
				assert.Empty(t, tm.proxy.Payments(0, 10))
			}
		})
	}

	t.Run("refund failure is swallowed", func(t *testing.T) {
		tm := setupTestProxy(t, false)
		defer tearDownTestProxy(tm)

		rejected := domain.NewRemoteError(domain.RemoteErrorRejected, errors.New("token not listed"))
		tm.ledger.EXPECT().GetTransfer(gomock.Any(), uint64(7)).Return(sendTransfer(bob, 1_000_000, 3), nil)
		tm.target.EXPECT().NotifyPurchase(gomock.Any(), marketURL, gomock.Any()).Return(domain.PurchaseResponse{}, rejected)
		tm.ledger.EXPECT().SendValue(gomock.Any(), gomock.Any()).Return(uint64(0), errors.New("ledger down"))

		err := tm.proxy.Notify(ctx, bob, 7)
		assert.ErrorIs(t, err, rejected)

		payments := tm.proxy.Payments(0, 10)
		require.Len(t, payments, 1)
		assert.Equal(t, "ledger down", payments[0].Outcome.Error)
	})
}

func TestProxy_NotifyUnsettledPurchase(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		response domain.PurchaseResponse
	}{
		{"creator fee leaves nothing for the seller", domain.PurchaseResponse{Seller: alice, CreatorFeeBP: 98_000}},
		{"no seller", domain.PurchaseResponse{CreatorFeeBP: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm := setupTestProxy(t, false)
			defer tearDownTestProxy(tm)

			tm.ledger.EXPECT().GetTransfer(gomock.Any(), uint64(7)).Return(sendTransfer(bob, 1_000_000, 3), nil)
			tm.target.EXPECT().NotifyPurchase(gomock.Any(), marketURL, gomock.Any()).Return(tt.response, nil)
			// the target already moved the token, so the buyer is not refunded
			tm.ledger.EXPECT().SendValue(gomock.Any(), gomock.Any()).Times(0)

			err := tm.proxy.Notify(ctx, bob, 7)
			assert.ErrorIs(t, err, domain.ErrUnsettledPurchase)
			assert.False(t, domain.IsRemoteErrorKind(err, domain.RemoteErrorDecode))
			assert.True(t, tm.proxy.IsProcessed(7))
			assert.Empty(t, tm.proxy.Payments(0, 10))
			assert.Equal(t, domain.FeeStatus{}, tm.proxy.Status())

			notifications := tm.proxy.Notifications(0, 10)
			require.Len(t, notifications, 1)
			outcome := notifications[0].Outcome
			assert.False(t, outcome.Succeeded())
			require.NotNil(t, outcome.Response)
			assert.Equal(t, tt.response, *outcome.Response)
			assert.Equal(t, domain.ErrorKindProtocol, outcome.ErrorKind)
		})
	}
}

func TestProxy_NotifyMarketFeeChangedWhileSuspended(t *testing.T) {
	ctx := context.Background()

	t.Run("fees are split with the rate in force when they are booked", func(t *testing.T) {
		tm := setupTestProxy(t, false)
		defer tearDownTestProxy(tm)

		tm.ledger.EXPECT().GetTransfer(gomock.Any(), uint64(7)).Return(sendTransfer(bob, 1_000_000, 3), nil)
		tm.target.EXPECT().NotifyPurchase(gomock.Any(), marketURL, gomock.Any()).
			DoAndReturn(func(context.Context, string, domain.TransferNotification) (domain.PurchaseResponse, error) {
				require.NoError(t, tm.proxy.SetMarketFee(5_000))
				return domain.PurchaseResponse{Seller: alice, CreatorFeeBP: 2_500}, nil
			})
		tm.ledger.EXPECT().SendValue(gomock.Any(), sendArgs(alice, 925_000, 0)).Return(uint64(8), nil)

		require.NoError(t, tm.proxy.Notify(ctx, bob, 7))
		assert.Equal(t, uint64(50_000), tm.proxy.Status().WaitingMarketFee)
	})

	t.Run("a raised rate that leaves nothing for the seller books nothing", func(t *testing.T) {
		tm := setupTestProxy(t, false)
		defer tearDownTestProxy(tm)

		tm.ledger.EXPECT().GetTransfer(gomock.Any(), uint64(7)).Return(sendTransfer(bob, 1_000_000, 3), nil)
		tm.target.EXPECT().NotifyPurchase(gomock.Any(), marketURL, gomock.Any()).
			DoAndReturn(func(context.Context, string, domain.TransferNotification) (domain.PurchaseResponse, error) {
				require.NoError(t, tm.proxy.SetMarketFee(60_000))
				return domain.PurchaseResponse{Seller: alice, CreatorFeeBP: 40_000}, nil
			})

		err := tm.proxy.Notify(ctx, bob, 7)
		assert.ErrorIs(t, err, domain.ErrUnsettledPurchase)
		assert.Empty(t, tm.proxy.Payments(0, 10))
		assert.Equal(t, domain.FeeStatus{}, tm.proxy.Status())
	})
}

func TestProxy_NotifySellerPaymentFailure(t *testing.T) {
	tm := setupTestProxy(t, false)
	defer tearDownTestProxy(tm)
	ctx := context.Background()

	tm.ledger.EXPECT().GetTransfer(gomock.Any(), uint64(7)).Return(sendTransfer(bob, 1_000_000, 3), nil)
	tm.target.EXPECT().NotifyPurchase(gomock.Any(), marketURL, gomock.Any()).
		Return(domain.PurchaseResponse{Seller: alice, CreatorFeeBP: 0}, nil)
	tm.ledger.EXPECT().SendValue(gomock.Any(), sendArgs(alice, 975_000, 0)).Return(uint64(0), errors.New("ledger down"))

	err := tm.proxy.Notify(ctx, bob, 7)
	require.Error(t, err)

	assert.Equal(t, uint64(25_000), tm.proxy.Status().WaitingMarketFee)
	notifications := tm.proxy.Notifications(0, 10)
	require.Len(t, notifications, 1)
	assert.True(t, notifications[0].Outcome.Succeeded(), "the target accepted the purchase")
}

func TestProxy_Journal(t *testing.T) {
	ctx := context.Background()

	t.Run("durably processed block is rejected", func(t *testing.T) {
		tm := setupTestProxy(t, true)
		defer tearDownTestProxy(tm)

		tm.journal.EXPECT().MarkProcessed(gomock.Any(), uint64(7)).Return(false, nil)
		tm.journal.EXPECT().RecordNotification(gomock.Any(), gomock.Any()).Return(nil)

		assert.ErrorIs(t, tm.proxy.Notify(ctx, bob, 7), domain.ErrAlreadyProcessed)
		assert.True(t, tm.proxy.IsProcessed(7))
	})

	t.Run("journal failure aborts before any remote call", func(t *testing.T) {
		tm := setupTestProxy(t, true)
		defer tearDownTestProxy(tm)

		tm.journal.EXPECT().MarkProcessed(gomock.Any(), uint64(7)).Return(false, errors.New("db down"))
		tm.journal.EXPECT().RecordNotification(gomock.Any(), gomock.Any()).Return(nil)

		err := tm.proxy.Notify(ctx, bob, 7)
		require.Error(t, err)
		assert.Equal(t, domain.ErrorKindInternal, domain.KindOf(err))
		assert.False(t, tm.proxy.IsProcessed(7))
	})

	t.Run("settlement writes every record", func(t *testing.T) {
		tm := setupTestProxy(t, true)
		defer tearDownTestProxy(tm)

		gomock.InOrder(
			tm.journal.EXPECT().MarkProcessed(gomock.Any(), uint64(7)).Return(true, nil),
			tm.ledger.EXPECT().GetTransfer(gomock.Any(), uint64(7)).Return(sendTransfer(bob, 1_000_000, 3), nil),
			tm.target.EXPECT().NotifyPurchase(gomock.Any(), marketURL, gomock.Any()).
				Return(domain.PurchaseResponse{Seller: alice, CreatorFeeBP: 2_500}, nil),
			tm.journal.EXPECT().SaveFeeStatus(gomock.Any(), domain.FeeStatus{
				TotalMarketFee:    25_000,
				TotalCreatorFee:   25_000,
				WaitingMarketFee:  25_000,
				WaitingCreatorFee: 25_000,
			}).Return(errors.New("db down")),
			tm.ledger.EXPECT().SendValue(gomock.Any(), gomock.Any()).Return(uint64(8), nil),
			tm.journal.EXPECT().RecordPayment(gomock.Any(), gomock.Any()).Return(nil),
			tm.journal.EXPECT().RecordNotification(gomock.Any(), gomock.Any()).Return(nil),
		)

		require.NoError(t, tm.proxy.Notify(ctx, bob, 7))
	})
}

func TestProxy_Restore(t *testing.T) {
	tm := setupTestProxy(t, false)
	defer tearDownTestProxy(tm)

	height := uint64(3)
	tm.proxy.Restore(settlement.Snapshot{
		Processed: []uint64{9, 2, 5},
		Payments: []domain.PaymentLogEntry{{
			Index:   1,
			Purpose: domain.PaymentPurposeSeller,
			Outcome: &domain.PaymentOutcome{BlockHeight: &height},
		}},
		Notifications: []domain.NotificationLogEntry{{Index: 1, BlockHeight: 2}},
		Fees:          domain.FeeStatus{TotalMarketFee: 10, WaitingMarketFee: 4},
	})

	assert.Equal(t, []uint64{2, 5, 9}, tm.proxy.Processed())
	assert.Equal(t, 3, tm.proxy.ProcessedCount())
	assert.Len(t, tm.proxy.Payments(0, 10), 1)
	assert.Len(t, tm.proxy.Notifications(0, 10), 1)
	assert.Equal(t, uint64(4), tm.proxy.Status().WaitingMarketFee)

	assert.ErrorIs(t, tm.proxy.Notify(context.Background(), bob, 5), domain.ErrAlreadyProcessed)
	notifications := tm.proxy.Notifications(0, 10)
	require.Len(t, notifications, 2)
	assert.Equal(t, uint64(2), notifications[1].Index)
}

func TestProxy_Config(t *testing.T) {
	tm := setupTestProxy(t, false)
	defer tearDownTestProxy(tm)

	assert.ErrorIs(t, tm.proxy.SetMarketFee(domain.FEE_DENOMINATOR), domain.ErrInvalidFee)
	require.NoError(t, tm.proxy.SetMarketFee(1_000))
	assert.Equal(t, uint64(1_000), tm.proxy.MarketFee())

	tm.proxy.SetTarget("other", "http://other")
	cfg := tm.proxy.Config()
	assert.Equal(t, domain.Principal("other"), cfg.TargetPrincipal)
	assert.Equal(t, "http://other", cfg.TargetURL)
	assert.Equal(t, domain.NewAccountID(self, nil), tm.proxy.Account())

	_, err := settlement.NewProxy(settlement.Config{}, nil, nil, nil, tm.clock)
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}
