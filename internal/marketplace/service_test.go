package marketplace_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-marketplace/internal/audit"
	"github.com/feral-file/ff-marketplace/internal/domain"
	"github.com/feral-file/ff-marketplace/internal/logger"
	"github.com/feral-file/ff-marketplace/internal/marketplace"
	"github.com/feral-file/ff-marketplace/internal/mocks"
	"github.com/feral-file/ff-marketplace/internal/ownership"
)

const (
	alice    domain.Principal = "alice"
	bob      domain.Principal = "bob"
	carol    domain.Principal = "carol"
	creator  domain.Principal = "creator"
	notifier domain.Principal = "ledger"
	admin    domain.Principal = "admin"
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

// testServiceMocks contains the mocks and the service under test
type testServiceMocks struct {
	ctrl    *gomock.Controller
	payer   *mocks.MockPayer
	journal *mocks.MockMarketplaceJournal
	clock   *mocks.MockClock
	service *marketplace.Service
}

// setupTestService creates a direct-payout marketplace with transacting enabled
func setupTestService(t *testing.T, cfg marketplace.Config) *testServiceMocks {
	ctrl := gomock.NewController(t)

	tm := &testServiceMocks{
		ctrl:    ctrl,
		payer:   mocks.NewMockPayer(ctrl),
		journal: mocks.NewMockMarketplaceJournal(ctrl),
		clock:   mocks.NewMockClock(ctrl),
	}
	tm.clock.EXPECT().Now().Return(now).AnyTimes()
	tm.journal.EXPECT().SaveToken(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	tm.journal.EXPECT().RecordPayment(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	svc, err := marketplace.NewService(
		ownership.Collection{Name: "Giga", Symbol: "GIGA", MaxSupply: 100},
		cfg,
		audit.NewLedger(0, nil),
		tm.payer,
		tm.journal,
		tm.clock,
	)
	require.NoError(t, err)
	tm.service = svc

	return tm
}

// tearDownTestService cleans up the test mocks
func tearDownTestService(tm *testServiceMocks) {
	tm.ctrl.Finish()
}

func defaultConfig() marketplace.Config {
	return marketplace.Config{
		Transacting:    true,
		Notifier:       notifier,
		CreatorAccount: creator,
		CreatorFeeBP:   domain.DEFAULT_CREATOR_FEE_BP,
	}
}

func notification(buyer domain.Principal, id domain.TokenID, amount, height uint64) domain.TransferNotification {
	return domain.TransferNotification{
		From:        buyer,
		To:          "marketplace",
		BlockHeight: height,
		Amount:      amount,
		Memo:        uint64(id),
	}
}

func sendTo(p domain.Principal, amount, memo uint64) domain.SendArgs {
	return domain.SendArgs{
		To:     domain.NewAccountID(p, nil),
		Amount: amount,
		Fee:    domain.TX_FEE,
		Memo:   memo,
	}
}

func mintAndList(t *testing.T, svc *marketplace.Service, owner domain.Principal, id domain.TokenID, price uint64) {
	t.Helper()
	ctx := context.Background()

	_, err := svc.Mint(ctx, admin, owner, domain.Token{ID: id, Name: "token"})
	require.NoError(t, err)
	_, err = svc.List(ctx, owner, id, price)
	require.NoError(t, err)
}

func TestService_EndToEnd(t *testing.T) {
	tm := setupTestService(t, defaultConfig())
	defer tearDownTestService(tm)

	ctx := context.Background()
	svc := tm.service

	idx, err := svc.Mint(ctx, admin, alice, domain.Token{ID: 1, Name: "First"})
	require.NoError(t, err)
	assert.Equal(t, uint64(0), idx)

	idx, err = svc.List(ctx, alice, 1, 1_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), idx)

	idx, err = svc.Delist(ctx, alice, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), idx)

	idx, err = svc.List(ctx, alice, 1, 1_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), idx)

	gomock.InOrder(
		tm.payer.EXPECT().SendValue(gomock.Any(), sendTo(alice, 975_000, 1)).Return(uint64(100), nil),
		tm.payer.EXPECT().SendValue(gomock.Any(), sendTo(creator, 5_000, 1)).Return(uint64(101), nil),
	)

	receipt, err := svc.Purchase(ctx, notifier, notification(bob, 1, 1_000_000, 42))
	require.NoError(t, err)
	assert.Equal(t, uint64(4), receipt.Index)
	assert.Equal(t, alice, receipt.Seller)
	assert.Len(t, receipt.Payments, 2)

	_, err = svc.Listing(1)
	assert.ErrorIs(t, err, domain.ErrNotListed)

	owner, err := svc.Owner(1)
	require.NoError(t, err)
	assert.Equal(t, bob, owner)

	record, err := svc.Ledger().Get(4)
	require.NoError(t, err)
	assert.Equal(t, domain.OperationPurchase, record.Op)
	assert.Equal(t, alice, *record.From)
	assert.Equal(t, bob, *record.To)
	assert.Equal(t, uint64(42), record.Memo)

	stats := svc.Stats()
	assert.Equal(t, uint64(1_000_000), stats.VolumeTraded)
	assert.Equal(t, uint64(1_000_000), stats.HighestSale)
	assert.Equal(t, uint64(1), stats.SalesCount)
	assert.Equal(t, uint64(25_000), stats.CollectedCreatorFee)
}

func TestService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("price below minimum is never recorded", func(t *testing.T) {
		tm := setupTestService(t, defaultConfig())
		defer tearDownTestService(tm)

		_, err := tm.service.Mint(ctx, admin, alice, domain.Token{ID: 1})
		require.NoError(t, err)

		_, err = tm.service.List(ctx, alice, 1, domain.MIN_LISTING_PRICE-1)
		assert.ErrorIs(t, err, domain.ErrPriceTooLow)
		assert.Equal(t, 0, tm.service.ListingCount())
		assert.Equal(t, uint64(1), tm.service.Ledger().Count())
	})

	t.Run("relisting updates price and keeps the listing index", func(t *testing.T) {
		tm := setupTestService(t, defaultConfig())
		defer tearDownTestService(tm)

		mintAndList(t, tm.service, alice, 1, 1_000_000)
		mintAndList(t, tm.service, alice, 2, 1_000_000)

		first, err := tm.service.Listing(1)
		require.NoError(t, err)

		_, err = tm.service.List(ctx, alice, 1, 2_000_000)
		require.NoError(t, err)

		updated, err := tm.service.Listing(1)
		require.NoError(t, err)
		assert.Equal(t, first.Index, updated.Index)
		assert.Equal(t, uint64(2_000_000), updated.Price)

		listings := tm.service.Listings()
		require.Len(t, listings, 2)
		assert.Equal(t, domain.TokenID(1), listings[0].TokenID)
		assert.Equal(t, domain.TokenID(2), listings[1].TokenID)
	})

	t.Run("new listing after delist gets a new index", func(t *testing.T) {
		tm := setupTestService(t, defaultConfig())
		defer tearDownTestService(tm)

		mintAndList(t, tm.service, alice, 1, 1_000_000)
		first, err := tm.service.Listing(1)
		require.NoError(t, err)

		_, err = tm.service.Delist(ctx, alice, 1)
		require.NoError(t, err)
		_, err = tm.service.List(ctx, alice, 1, 1_000_000)
		require.NoError(t, err)

		second, err := tm.service.Listing(1)
		require.NoError(t, err)
		assert.Greater(t, second.Index, first.Index)
	})

	t.Run("rejections", func(t *testing.T) {
		tm := setupTestService(t, defaultConfig())
		defer tearDownTestService(tm)

		_, err := tm.service.Mint(ctx, admin, alice, domain.Token{ID: 1})
		require.NoError(t, err)

		tests := []struct {
			name   string
			caller domain.Principal
			id     domain.TokenID
			err    error
		}{
			{"not owner", bob, 1, domain.ErrNotOwner},
			{"not minted", alice, 2, domain.ErrTokenNotMinted},
			{"out of range", alice, 101, domain.ErrInvalidTokenID},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := tm.service.List(ctx, tt.caller, tt.id, 1_000_000)
				assert.ErrorIs(t, err, tt.err)
			})
		}

		tm.service.SetTransacting(false)
		_, err = tm.service.List(ctx, alice, 1, 1_000_000)
		assert.ErrorIs(t, err, domain.ErrTransactingDisabled)
	})
}

func TestService_Delist(t *testing.T) {
	ctx := context.Background()
	tm := setupTestService(t, defaultConfig())
	defer tearDownTestService(tm)

	_, err := tm.service.Mint(ctx, admin, alice, domain.Token{ID: 1})
	require.NoError(t, err)

	_, err = tm.service.Delist(ctx, alice, 1)
	assert.ErrorIs(t, err, domain.ErrNotListed)

	listIdx, err := tm.service.List(ctx, alice, 1, 1_000_000)
	require.NoError(t, err)

	_, err = tm.service.Delist(ctx, bob, 1)
	assert.ErrorIs(t, err, domain.ErrNotOwner)

	delistIdx, err := tm.service.Delist(ctx, alice, 1)
	require.NoError(t, err)
	assert.Greater(t, delistIdx, listIdx)

	_, err = tm.service.Listing(1)
	assert.ErrorIs(t, err, domain.ErrNotListed)
	assert.Equal(t, 0, tm.service.ListingCount())
}

func TestService_TransferAndBurn(t *testing.T) {
	ctx := context.Background()
	tm := setupTestService(t, defaultConfig())
	defer tearDownTestService(tm)

	mintAndList(t, tm.service, alice, 1, 1_000_000)
	mintAndList(t, tm.service, alice, 2, 1_000_000)

	_, err := tm.service.Transfer(ctx, bob, carol, 1)
	assert.ErrorIs(t, err, domain.ErrNotOwner)

	_, err = tm.service.Transfer(ctx, alice, "", 1)
	assert.ErrorIs(t, err, domain.ErrInvalidPrincipal)

	_, err = tm.service.Transfer(ctx, alice, bob, 1)
	require.NoError(t, err)
	_, err = tm.service.Listing(1)
	assert.ErrorIs(t, err, domain.ErrNotListed, "transfer drops the listing")
	assert.Equal(t, []domain.TokenID{1}, tm.service.TokensOf(bob))

	_, err = tm.service.Burn(ctx, alice, 2)
	require.NoError(t, err)
	_, err = tm.service.Listing(2)
	assert.ErrorIs(t, err, domain.ErrNotListed, "burn drops the listing")
	_, err = tm.service.Token(2)
	assert.ErrorIs(t, err, domain.ErrTokenNotMinted)
	assert.Equal(t, uint32(1), tm.service.Supply().TotalSupply)
}

func TestService_MintJournalFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	journal := mocks.NewMockMarketplaceJournal(ctrl)
	clock := mocks.NewMockClock(ctrl)
	clock.EXPECT().Now().Return(now).AnyTimes()
	journal.EXPECT().SaveToken(gomock.Any(), gomock.Any()).Return(errors.New("db down"))

	svc, err := marketplace.NewService(ownership.Collection{MaxSupply: 10}, defaultConfig(), audit.NewLedger(0, nil), mocks.NewMockPayer(ctrl), journal, clock)
	require.NoError(t, err)

	_, err = svc.Mint(context.Background(), admin, alice, domain.Token{ID: 1})
	require.Error(t, err)
	assert.Equal(t, uint64(0), svc.Ledger().Count())
	_, err = svc.Owner(1)
	assert.ErrorIs(t, err, domain.ErrTokenNotMinted)
}

func TestService_Purchase(t *testing.T) {
	ctx := context.Background()
	const price = 1_000_000

	t.Run("surplus above one fee is refunded", func(t *testing.T) {
		tm := setupTestService(t, defaultConfig())
		defer tearDownTestService(tm)
		mintAndList(t, tm.service, alice, 7, price)

		gomock.InOrder(
			tm.payer.EXPECT().SendValue(gomock.Any(), sendTo(alice, 975_000, 7)).Return(uint64(1), nil),
			tm.payer.EXPECT().SendValue(gomock.Any(), sendTo(creator, 5_000, 7)).Return(uint64(2), nil),
			tm.payer.EXPECT().SendValue(gomock.Any(), sendTo(bob, 40_000, 7)).Return(uint64(3), nil),
		)

		receipt, err := tm.service.Purchase(ctx, notifier, notification(bob, 7, price+50_000, 9))
		require.NoError(t, err)
		require.Len(t, receipt.Payments, 3)
		assert.Equal(t, domain.PaymentPurposeRefund, receipt.Payments[2].Purpose)
	})

	t.Run("surplus at or below one fee is kept", func(t *testing.T) {
		tm := setupTestService(t, defaultConfig())
		defer tearDownTestService(tm)
		mintAndList(t, tm.service, alice, 7, price)

		tm.payer.EXPECT().SendValue(gomock.Any(), gomock.Any()).Return(uint64(1), nil).Times(2)

		receipt, err := tm.service.Purchase(ctx, notifier, notification(bob, 7, price+domain.TX_FEE, 9))
		require.NoError(t, err)
		assert.Len(t, receipt.Payments, 2)
	})

	t.Run("market fee reduces the seller share", func(t *testing.T) {
		cfg := defaultConfig()
		cfg.MarketFeeBP = 2_500
		tm := setupTestService(t, cfg)
		defer tearDownTestService(tm)
		mintAndList(t, tm.service, alice, 7, price)

		gomock.InOrder(
			tm.payer.EXPECT().SendValue(gomock.Any(), sendTo(alice, 950_000, 7)).Return(uint64(1), nil),
			tm.payer.EXPECT().SendValue(gomock.Any(), sendTo(creator, 5_000, 7)).Return(uint64(2), nil),
		)

		_, err := tm.service.Purchase(ctx, notifier, notification(bob, 7, price, 9))
		require.NoError(t, err)
		assert.Equal(t, uint64(25_000), tm.service.Stats().CollectedMarketFee)
	})

	t.Run("no creator account means no creator payout", func(t *testing.T) {
		cfg := defaultConfig()
		cfg.CreatorAccount = ""
		tm := setupTestService(t, cfg)
		defer tearDownTestService(tm)
		mintAndList(t, tm.service, alice, 7, price)

		tm.payer.EXPECT().SendValue(gomock.Any(), sendTo(alice, price, 7)).Return(uint64(1), nil)

		receipt, err := tm.service.Purchase(ctx, notifier, notification(bob, 7, price, 9))
		require.NoError(t, err)
		assert.Equal(t, uint64(0), receipt.CreatorFeeBP)
	})

	t.Run("unauthorized caller is rejected without refund", func(t *testing.T) {
		tm := setupTestService(t, defaultConfig())
		defer tearDownTestService(tm)
		mintAndList(t, tm.service, alice, 7, price)

		_, err := tm.service.Purchase(ctx, bob, notification(bob, 7, price, 9))
		assert.ErrorIs(t, err, domain.ErrUnauthorized)

		owner, err := tm.service.Owner(7)
		require.NoError(t, err)
		assert.Equal(t, alice, owner)
		assert.Empty(t, tm.service.Payments(0, 10))
	})

	t.Run("failures before commit refund the sender", func(t *testing.T) {
		tests := []struct {
			name   string
			cfg    func(*marketplace.Config)
			id     domain.TokenID
			amount uint64
			err    error
		}{
			{"not listed", nil, 8, price, domain.ErrNotListed},
			{"insufficient payment", nil, 7, price - 1, domain.ErrInsufficientPayment},
			{"transacting disabled", func(c *marketplace.Config) { c.Transacting = false }, 7, price, domain.ErrTransactingDisabled},
			{"creator fee below floor", func(c *marketplace.Config) { c.CreatorFeeBP = 2_000 }, 7, price, domain.ErrCreatorFeeBelowFloor},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				tm := setupTestService(t, defaultConfig())
				defer tearDownTestService(tm)
				mintAndList(t, tm.service, alice, 7, price)

				if tt.cfg != nil {
					cfg := tm.service.Config()
					tt.cfg(&cfg)
					tm.service.SetTransacting(cfg.Transacting)
					require.NoError(t, tm.service.SetCreatorFee(cfg.CreatorFeeBP))
				}

				tm.payer.EXPECT().
					SendValue(gomock.Any(), sendTo(bob, tt.amount-domain.TX_FEE, uint64(tt.id))).
					Return(uint64(5), nil)

				_, err := tm.service.Purchase(ctx, notifier, notification(bob, tt.id, tt.amount, 9))
				assert.ErrorIs(t, err, tt.err)

				owner, err := tm.service.Owner(7)
				require.NoError(t, err)
				assert.Equal(t, alice, owner)

				payments := tm.service.Payments(0, 10)
				require.Len(t, payments, 1)
				assert.Equal(t, domain.PaymentPurposeRefund, payments[0].Purpose)
				assert.True(t, payments[0].Outcome.Succeeded())
			})
		}
	})

	t.Run("amount at or below one fee is not refunded", func(t *testing.T) {
		tm := setupTestService(t, defaultConfig())
		defer tearDownTestService(tm)

		_, err := tm.service.Purchase(ctx, notifier, notification(bob, 7, domain.TX_FEE, 9))
		assert.ErrorIs(t, err, domain.ErrNotListed)
		assert.Empty(t, tm.service.Payments(0, 10))
	})

	t.Run("refund failure is logged and swallowed", func(t *testing.T) {
		tm := setupTestService(t, defaultConfig())
		defer tearDownTestService(tm)

		tm.payer.EXPECT().SendValue(gomock.Any(), gomock.Any()).Return(uint64(0), errors.New("ledger unreachable"))

		_, err := tm.service.Purchase(ctx, notifier, notification(bob, 7, price, 9))
		assert.ErrorIs(t, err, domain.ErrNotListed)

		payments := tm.service.Payments(0, 10)
		require.Len(t, payments, 1)
		assert.False(t, payments[0].Outcome.Succeeded())
		assert.Equal(t, "ledger unreachable", payments[0].Outcome.Error)
	})

	t.Run("payout failure after commit keeps the sale", func(t *testing.T) {
		tm := setupTestService(t, defaultConfig())
		defer tearDownTestService(tm)
		mintAndList(t, tm.service, alice, 7, price)

		gomock.InOrder(
			tm.payer.EXPECT().SendValue(gomock.Any(), sendTo(alice, 975_000, 7)).Return(uint64(0), errors.New("timeout")),
			tm.payer.EXPECT().SendValue(gomock.Any(), sendTo(creator, 5_000, 7)).Return(uint64(2), nil),
		)

		receipt, err := tm.service.Purchase(ctx, notifier, notification(bob, 7, price, 9))
		require.NoError(t, err)
		require.Len(t, receipt.Payments, 2)
		assert.False(t, receipt.Payments[0].Outcome.Succeeded())

		owner, err := tm.service.Owner(7)
		require.NoError(t, err)
		assert.Equal(t, bob, owner)
		assert.Equal(t, uint64(price), tm.service.Stats().VolumeTraded)
	})
}

func TestService_PurchaseReentrant(t *testing.T) {
	ctx := context.Background()
	tm := setupTestService(t, defaultConfig())
	defer tearDownTestService(tm)
	mintAndList(t, tm.service, alice, 1, 1_000_000)

	var reentrantErr error
	sellerPayouts := 0

	tm.payer.EXPECT().
		SendValue(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, args domain.SendArgs) (uint64, error) {
			if args.To == domain.NewAccountID(alice, nil) {
				sellerPayouts++
				if sellerPayouts == 1 {
					// a second buyer's notification arrives while the seller payout is pending
					_, reentrantErr = tm.service.Purchase(ctx, notifier, notification(carol, 1, 1_000_000, 43))
				}
			}
			return uint64(10), nil
		}).
		AnyTimes()

	receipt, err := tm.service.Purchase(ctx, notifier, notification(bob, 1, 1_000_000, 42))
	require.NoError(t, err)
	assert.Equal(t, bob, receipt.Buyer)

	assert.ErrorIs(t, reentrantErr, domain.ErrNotListed)
	assert.Equal(t, 1, sellerPayouts)

	owner, err := tm.service.Owner(1)
	require.NoError(t, err)
	assert.Equal(t, bob, owner)
	assert.Equal(t, uint64(1), tm.service.Stats().SalesCount)

	var refunds int
	for _, p := range tm.service.Payments(0, 10) {
		if p.Purpose == domain.PaymentPurposeRefund {
			refunds++
			assert.Equal(t, domain.NewAccountID(carol, nil), p.Args.To)
		}
	}
	assert.Equal(t, 1, refunds)
}

func TestService_ProxyPayoutMode(t *testing.T) {
	ctx := context.Background()
	cfg := defaultConfig()
	cfg.PayoutMode = marketplace.PayoutModeProxy
	tm := setupTestService(t, cfg)
	defer tearDownTestService(tm)
	mintAndList(t, tm.service, alice, 1, 1_000_000)

	receipt, err := tm.service.Purchase(ctx, notifier, notification(bob, 1, 1_000_000, 42))
	require.NoError(t, err)
	assert.Equal(t, domain.PurchaseResponse{Seller: alice, CreatorFeeBP: domain.DEFAULT_CREATOR_FEE_BP}, receipt.Response())
	assert.Empty(t, receipt.Payments)

	// the proxy refunds rejected notifications itself
	_, err = tm.service.Purchase(ctx, notifier, notification(bob, 1, 1_000_000, 43))
	assert.ErrorIs(t, err, domain.ErrNotListed)
	assert.Empty(t, tm.service.Payments(0, 10))
}

func TestService_Config(t *testing.T) {
	tm := setupTestService(t, defaultConfig())
	defer tearDownTestService(tm)

	assert.ErrorIs(t, tm.service.SetMarketFee(domain.FEE_DENOMINATOR), domain.ErrInvalidFee)
	require.NoError(t, tm.service.SetMarketFee(1_000))
	assert.ErrorIs(t, tm.service.SetCreatorFee(domain.FEE_DENOMINATOR-1_000), domain.ErrInvalidFee)

	tm.service.SetNotifier("proxy")
	tm.service.SetCreatorAccount("studio")

	cfg := tm.service.Config()
	assert.Equal(t, uint64(1_000), cfg.MarketFeeBP)
	assert.Equal(t, domain.DEFAULT_CREATOR_FEE_BP, cfg.CreatorFeeBP)
	assert.Equal(t, domain.Principal("proxy"), cfg.Notifier)
	assert.Equal(t, domain.Principal("studio"), cfg.CreatorAccount)
	assert.Equal(t, marketplace.PayoutModeDirect, cfg.PayoutMode)

	_, err := marketplace.NewService(ownership.Collection{}, marketplace.Config{PayoutMode: "teleport"}, audit.NewLedger(0, nil), nil, nil, tm.clock)
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestService_Genesis(t *testing.T) {
	ctx := context.Background()
	tm := setupTestService(t, defaultConfig())
	defer tearDownTestService(tm)

	idx, err := tm.service.Genesis(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), idx)

	_, err = tm.service.Genesis(ctx, admin)
	assert.ErrorIs(t, err, domain.ErrLedgerNotEmpty)
}

func TestService_Replay(t *testing.T) {
	ctx := context.Background()
	source := setupTestService(t, defaultConfig())
	defer tearDownTestService(source)

	mintAndList(t, source.service, alice, 1, 1_000_000)
	mintAndList(t, source.service, alice, 2, 3_000_000)
	mintAndList(t, source.service, alice, 3, 1_000_000)
	_, err := source.service.Transfer(ctx, alice, carol, 3)
	require.NoError(t, err)

	source.payer.EXPECT().SendValue(gomock.Any(), gomock.Any()).Return(uint64(1), nil).Times(2)
	_, err = source.service.Purchase(ctx, notifier, notification(bob, 1, 1_000_000, 42))
	require.NoError(t, err)

	records := source.service.Ledger().Records(0, 100)
	tokens := []domain.Token{{ID: 1, Name: "token"}, {ID: 2, Name: "token"}, {ID: 3, Name: "token"}}

	restored := setupTestService(t, defaultConfig())
	defer tearDownTestService(restored)
	require.NoError(t, restored.service.Replay(records, tokens))

	assert.Equal(t, source.service.Ledger().Count(), restored.service.Ledger().Count())
	assert.Equal(t, source.service.Stats(), restored.service.Stats())
	assert.Equal(t, source.service.Listings(), restored.service.Listings())
	for _, id := range []domain.TokenID{1, 2, 3} {
		want, err := source.service.Owner(id)
		require.NoError(t, err)
		got, err := restored.service.Owner(id)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	idx, err := restored.service.Delist(ctx, alice, 2)
	require.NoError(t, err)
	assert.Equal(t, source.service.Ledger().NextIndex(), idx)

	t.Run("rejects inconsistent history", func(t *testing.T) {
		broken := setupTestService(t, defaultConfig())
		defer tearDownTestService(broken)

		err := broken.service.Replay([]domain.AuditRecord{records[1]}, nil)
		assert.ErrorIs(t, err, domain.ErrTokenNotMinted)
	})
}
