package marketplace

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/feral-file/ff-marketplace/internal/domain"
	"github.com/feral-file/ff-marketplace/internal/logger"
)

// PurchaseReceipt describes a committed purchase
type PurchaseReceipt struct {
	Index        uint64                   `json:"index"`
	TokenID      domain.TokenID           `json:"token_id"`
	Buyer        domain.Principal         `json:"buyer"`
	Seller       domain.Principal         `json:"seller"`
	Price        uint64                   `json:"price"`
	MarketFee    uint64                   `json:"market_fee"`
	CreatorFee   uint64                   `json:"creator_fee"`
	CreatorFeeBP uint64                   `json:"creator_fee_bp"`
	Payments     []domain.PaymentLogEntry `json:"payments,omitempty"`
}

// Response is what a notifier receives for an accepted purchase
func (r *PurchaseReceipt) Response() domain.PurchaseResponse {
	return domain.PurchaseResponse{
		Seller:       r.Seller,
		CreatorFeeBP: r.CreatorFeeBP,
	}
}

type payout struct {
	purpose domain.PaymentPurpose
	to      domain.Principal
	amount  uint64
	memo    uint64
}

// Purchase settles a transfer notification against the listing named by its memo.
//
// When the purchase fails before it commits and the marketplace holds the
// funds, the received amount minus one transfer fee is sent back to the
// sender. That refund is best effort: its outcome only shows in the payment
// log. Notifications from untrusted callers are never refunded.
func (s *Service) Purchase(ctx context.Context, caller domain.Principal, n domain.TransferNotification) (*PurchaseReceipt, error) {
	receipt, err := s.purchase(ctx, caller, n)
	if err == nil {
		return receipt, nil
	}

	logger.WarnCtx(ctx, "Purchase rejected",
		zap.Error(err),
		zap.String("caller", caller.String()),
		zap.Uint64("blockHeight", n.BlockHeight),
		zap.Uint64("memo", n.Memo))

	if errors.Is(err, domain.ErrUnauthorized) || s.Config().PayoutMode != PayoutModeDirect {
		return nil, err
	}

	if n.Amount > domain.TX_FEE {
		s.pay(ctx, payout{
			purpose: domain.PaymentPurposeRefund,
			to:      n.From,
			amount:  n.Amount - domain.TX_FEE,
			memo:    n.Memo,
		})
	}

	return nil, err
}

func (s *Service) purchase(ctx context.Context, caller domain.Principal, n domain.TransferNotification) (*PurchaseReceipt, error) {
	s.mu.Lock()

	receipt, payouts, err := s.commitPurchase(ctx, caller, n)
	mode := s.config.PayoutMode
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}

	logger.InfoCtx(ctx, "Purchase committed",
		zap.Uint32("tokenID", uint32(receipt.TokenID)),
		zap.String("buyer", receipt.Buyer.String()),
		zap.String("seller", receipt.Seller.String()),
		zap.Uint64("price", receipt.Price),
		zap.Uint64("index", receipt.Index))

	if mode != PayoutModeDirect {
		return receipt, nil
	}

	// Ownership has moved. Payout failures are compensated by reconciliation, never rolled back.
	for _, p := range payouts {
		receipt.Payments = append(receipt.Payments, s.pay(ctx, p))
	}

	return receipt, nil
}

// commitPurchase validates the notification and applies every state change of
// the purchase. Callers hold s.mu.
func (s *Service) commitPurchase(ctx context.Context, caller domain.Principal, n domain.TransferNotification) (*PurchaseReceipt, []payout, error) {
	if s.config.Notifier.IsZero() || caller != s.config.Notifier {
		return nil, nil, domain.ErrUnauthorized
	}
	if !s.config.Transacting {
		return nil, nil, domain.ErrTransactingDisabled
	}
	if n.From.IsZero() {
		return nil, nil, domain.ErrInvalidPrincipal
	}
	if n.Memo > math.MaxUint32 {
		return nil, nil, fmt.Errorf("%w: memo %d", domain.ErrInvalidTokenID, n.Memo)
	}

	id := domain.TokenID(n.Memo)
	listing, ok := s.listings[id]
	if !ok {
		return nil, nil, domain.ErrNotListed
	}
	if err := s.registry.CheckOwner(id, listing.Seller); err != nil {
		delete(s.listings, id)
		return nil, nil, domain.ErrNotListed
	}
	if n.Amount < listing.Price {
		return nil, nil, fmt.Errorf("%w: paid %d, price %d", domain.ErrInsufficientPayment, n.Amount, listing.Price)
	}

	marketFee, creatorFee, creatorFeeBP, err := s.fees(listing.Price)
	if err != nil {
		return nil, nil, err
	}

	buyer := n.From
	seller := listing.Seller
	price := listing.Price
	index, err := s.ledger.Append(ctx, domain.AuditRecord{
		Op:        domain.OperationPurchase,
		Actor:     caller,
		From:      &seller,
		To:        &buyer,
		TokenID:   id,
		Price:     &price,
		Timestamp: s.clock.Now(),
		Memo:      n.BlockHeight,
	})
	if err != nil {
		return nil, nil, err
	}

	delete(s.listings, id)
	s.registry.Move(seller, buyer, id)
	s.recordSale(price, marketFee, creatorFee)

	receipt := &PurchaseReceipt{
		Index:        index,
		TokenID:      id,
		Buyer:        buyer,
		Seller:       seller,
		Price:        price,
		MarketFee:    marketFee,
		CreatorFee:   creatorFee,
		CreatorFeeBP: creatorFeeBP,
	}

	payouts := []payout{{
		purpose: domain.PaymentPurposeSeller,
		to:      seller,
		amount:  price - marketFee - creatorFee,
		memo:    uint64(id),
	}}
	if creatorFee > 0 {
		payouts = append(payouts, payout{
			purpose: domain.PaymentPurposeCreator,
			to:      s.config.CreatorAccount,
			amount:  creatorFee - 2*domain.TX_FEE,
			memo:    uint64(id),
		})
	}
	if surplus := n.Amount - price; surplus > domain.TX_FEE {
		payouts = append(payouts, payout{
			purpose: domain.PaymentPurposeRefund,
			to:      buyer,
			amount:  surplus - domain.TX_FEE,
			memo:    uint64(id),
		})
	}

	return receipt, payouts, nil
}

// fees splits price into the market fee and the creator fee. When the
// marketplace disburses itself, the creator fee carries the transfer fees of
// the seller and creator payouts and must exceed both of them.
func (s *Service) fees(price uint64) (marketFee, creatorFee, creatorFeeBP uint64, err error) {
	marketFee = domain.FeeOf(price, s.config.MarketFeeBP)
	if s.config.CreatorAccount.IsZero() {
		return marketFee, 0, 0, nil
	}

	creatorFeeBP = s.config.CreatorFeeBP
	creatorFee = domain.FeeOf(price, creatorFeeBP)
	if s.config.PayoutMode == PayoutModeDirect && creatorFee > 0 && creatorFee <= 2*domain.TX_FEE {
		return 0, 0, 0, fmt.Errorf("%w: creator fee %d for price %d", domain.ErrCreatorFeeBelowFloor, creatorFee, price)
	}

	return marketFee, creatorFee, creatorFeeBP, nil
}

func (s *Service) recordSale(price, marketFee, creatorFee uint64) {
	s.stats.VolumeTraded += price
	s.stats.SalesCount++
	if price > s.stats.HighestSale {
		s.stats.HighestSale = price
	}
	s.stats.CollectedMarketFee += marketFee
	s.stats.CollectedCreatorFee += creatorFee
}

// pay sends one payout and records it in the payment log. The entry is
// visible as pending while the payer call is outstanding.
func (s *Service) pay(ctx context.Context, p payout) domain.PaymentLogEntry {
	args := domain.SendArgs{
		To:     domain.NewAccountID(p.to, nil),
		Amount: p.amount,
		Fee:    domain.TX_FEE,
		Memo:   p.memo,
	}

	s.mu.Lock()
	pos := len(s.payments)
	s.payments = append(s.payments, domain.PaymentLogEntry{
		Index:     uint64(pos) + 1,
		Timestamp: s.clock.Now(),
		Purpose:   p.purpose,
		Args:      args,
	})
	s.mu.Unlock()

	outcome := &domain.PaymentOutcome{}
	height, err := s.payer.SendValue(ctx, args)
	if err != nil {
		outcome.Error = err.Error()
		logger.ErrorCtx(ctx, fmt.Errorf("failed to send %s payment: %w", p.purpose, err),
			zap.String("to", p.to.String()),
			zap.Uint64("amount", p.amount))
	} else {
		outcome.BlockHeight = &height
	}

	s.mu.Lock()
	s.payments[pos].Outcome = outcome
	entry := s.payments[pos]
	s.mu.Unlock()

	if s.journal != nil {
		if err := s.journal.RecordPayment(ctx, entry); err != nil {
			logger.ErrorCtx(ctx, fmt.Errorf("failed to record payment %d: %w", entry.Index, err))
		}
	}

	return entry
}
