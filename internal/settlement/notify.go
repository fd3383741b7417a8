package settlement

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/feral-file/ff-marketplace/internal/domain"
	"github.com/feral-file/ff-marketplace/internal/logger"
)

// Notify consumes the transfer recorded at height on behalf of caller.
//
// The height is marked processed before any remote call, so every later
// Notify for it fails with ErrAlreadyProcessed whatever the outcome of this
// one. When the target rejects the purchase or answers with something that
// cannot be decoded, the amount minus one transfer fee goes back to the
// sender. A target that cannot be reached is not refunded: the deposit stays
// claimable out of band. Neither is an accepted purchase whose response
// cannot be settled; it stays in the notification log for reconciliation.
func (p *Proxy) Notify(ctx context.Context, caller domain.Principal, height uint64) error {
	entry := &domain.NotificationLogEntry{
		Caller:      caller,
		BlockHeight: height,
	}

	err := p.notify(ctx, caller, height, entry)
	p.recordNotification(ctx, entry, err)

	if err != nil {
		logger.WarnCtx(ctx, "Notification failed",
			zap.Error(err),
			zap.String("caller", caller.String()),
			zap.Uint64("blockHeight", height))
		return err
	}

	logger.InfoCtx(ctx, "Notification settled",
		zap.String("caller", caller.String()),
		zap.Uint64("blockHeight", height))

	return nil
}

func (p *Proxy) notify(ctx context.Context, caller domain.Principal, height uint64, entry *domain.NotificationLogEntry) error {
	cfg, err := p.claim(ctx, height)
	if err != nil {
		return err
	}

	transfer, err := p.ledger.GetTransfer(ctx, height)
	if err != nil {
		return fmt.Errorf("failed to get transfer %d: %w", height, err)
	}
	if transfer.Kind != domain.TransferKindSend {
		return fmt.Errorf("%w: %s", domain.ErrInvalidTransferKind, transfer.Kind)
	}
	if transfer.To != p.account {
		return domain.ErrRecipientMismatch
	}

	n := domain.TransferNotification{
		From:        caller,
		To:          cfg.TargetPrincipal,
		BlockHeight: height,
		Amount:      transfer.Amount,
		Memo:        transfer.Memo,
	}
	entry.Args = &n

	if transfer.From != domain.NewAccountID(caller, nil) {
		p.refund(ctx, transfer)
		return domain.ErrSenderMismatch
	}

	resp, err := p.target.NotifyPurchase(ctx, cfg.TargetURL, n)
	if err != nil {
		var remoteErr *domain.RemoteError
		if errors.As(err, &remoteErr) && remoteErr.Refundable() {
			p.refund(ctx, transfer)
		}
		return err
	}
	entry.Outcome = &domain.NotificationOutcome{Response: &resp}

	// The target has committed the sale from here on, so nothing is refunded.
	sellerAmount, err := p.collectFees(ctx, transfer.Amount, resp)
	if err != nil {
		entry.Outcome.ErrorKind = domain.KindOf(err)
		entry.Outcome.Error = err.Error()
		return err
	}

	payment := p.pay(ctx, domain.PaymentPurposeSeller, domain.NewAccountID(resp.Seller, nil), sellerAmount, 0)
	if !payment.Outcome.Succeeded() {
		return fmt.Errorf("failed to pay seller %s: %s", resp.Seller, payment.Outcome.Error)
	}

	return nil
}

// claim runs the checks that precede the first remote call and marks height processed
func (p *Proxy) claim(ctx context.Context, height uint64) (Config, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.processed[height]; ok {
		return Config{}, domain.ErrAlreadyProcessed
	}
	if p.config.TargetPrincipal.IsZero() || p.config.TargetURL == "" {
		return Config{}, fmt.Errorf("%w: target", domain.ErrNotConfigured)
	}

	if p.journal != nil {
		fresh, err := p.journal.MarkProcessed(ctx, height)
		if err != nil {
			return Config{}, fmt.Errorf("failed to mark block %d processed: %w", height, err)
		}
		if !fresh {
			p.processed[height] = struct{}{}
			return Config{}, domain.ErrAlreadyProcessed
		}
	}
	p.processed[height] = struct{}{}

	return p.config, nil
}

// collectFees books the fees of an accepted purchase and returns the seller
// share. A response no seller payout can be computed from books nothing.
func (p *Proxy) collectFees(ctx context.Context, amount uint64, resp domain.PurchaseResponse) (uint64, error) {
	if resp.Seller.IsZero() {
		return 0, fmt.Errorf("%w: no seller", domain.ErrUnsettledPurchase)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if resp.CreatorFeeBP+p.config.MarketFeeBP >= domain.FEE_DENOMINATOR {
		return 0, fmt.Errorf("%w: creator fee %d with market fee %d", domain.ErrUnsettledPurchase, resp.CreatorFeeBP, p.config.MarketFeeBP)
	}

	marketFee := domain.FeeOf(amount, p.config.MarketFeeBP)
	creatorFee := domain.FeeOf(amount, resp.CreatorFeeBP)

	p.fees.WaitingMarketFee += marketFee
	p.fees.TotalMarketFee += marketFee
	p.fees.WaitingCreatorFee += creatorFee
	p.fees.TotalCreatorFee += creatorFee

	if p.journal != nil {
		if err := p.journal.SaveFeeStatus(ctx, p.fees); err != nil {
			logger.ErrorCtx(ctx, fmt.Errorf("failed to save fee status: %w", err))
		}
	}

	return amount - marketFee - creatorFee, nil
}

// refund returns a transfer to its sender minus one transfer fee. Amounts at
// or below the fee are kept. The outcome is only recorded in the payment log.
func (p *Proxy) refund(ctx context.Context, transfer domain.Transfer) {
	if transfer.Amount <= domain.TX_FEE {
		return
	}

	p.pay(ctx, domain.PaymentPurposeRefund, transfer.From, transfer.Amount-domain.TX_FEE, transfer.Memo)
}

// pay sends value and records the attempt in the payment log
func (p *Proxy) pay(ctx context.Context, purpose domain.PaymentPurpose, to domain.AccountID, amount, memo uint64) domain.PaymentLogEntry {
	args := domain.SendArgs{
		To:     to,
		Amount: amount,
		Fee:    domain.TX_FEE,
		Memo:   memo,
	}

	p.mu.Lock()
	pos := len(p.payments)
	p.payments = append(p.payments, domain.PaymentLogEntry{
		Index:     uint64(pos) + 1,
		Timestamp: p.clock.Now(),
		Purpose:   purpose,
		Args:      args,
	})
	p.mu.Unlock()

	outcome := &domain.PaymentOutcome{}
	height, err := p.ledger.SendValue(ctx, args)
	if err != nil {
		outcome.Error = err.Error()
		logger.ErrorCtx(ctx, fmt.Errorf("failed to send %s payment: %w", purpose, err),
			zap.String("to", to.String()),
			zap.Uint64("amount", amount))
	} else {
		outcome.BlockHeight = &height
	}

	p.mu.Lock()
	p.payments[pos].Outcome = outcome
	entry := p.payments[pos]
	p.mu.Unlock()

	if p.journal != nil {
		if err := p.journal.RecordPayment(ctx, entry); err != nil {
			logger.ErrorCtx(ctx, fmt.Errorf("failed to record payment %d: %w", entry.Index, err))
		}
	}

	return entry
}

func (p *Proxy) recordNotification(ctx context.Context, entry *domain.NotificationLogEntry, err error) {
	if err != nil && entry.Outcome == nil {
		entry.Outcome = &domain.NotificationOutcome{
			ErrorKind: domain.KindOf(err),
			Error:     err.Error(),
		}
	}

	p.mu.Lock()
	entry.Index = uint64(len(p.notifications)) + 1
	entry.Timestamp = p.clock.Now()
	p.notifications = append(p.notifications, *entry)
	p.mu.Unlock()

	if p.journal != nil {
		if jerr := p.journal.RecordNotification(ctx, *entry); jerr != nil {
			logger.ErrorCtx(ctx, fmt.Errorf("failed to record notification %d: %w", entry.Index, jerr))
		}
	}
}
