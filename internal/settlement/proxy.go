package settlement

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/feral-file/ff-marketplace/internal/adapter"
	"github.com/feral-file/ff-marketplace/internal/domain"
)

// ValueLedger is the external ledger recording value transfers
//
//go:generate mockgen -source=proxy.go -destination=../mocks/settlement.go -package=mocks -mock_names=ValueLedger=MockValueLedger,Target=MockTarget,Journal=MockSettlementJournal
type ValueLedger interface {
	// GetTransfer fetches the transfer recorded at block height
	GetTransfer(ctx context.Context, height uint64) (domain.Transfer, error)

	// SendValue issues an outbound payment and returns the block height it was recorded at
	SendValue(ctx context.Context, args domain.SendArgs) (uint64, error)
}

// Target is the downstream service that turns a verified transfer into a purchase
type Target interface {
	// NotifyPurchase delivers a transfer notification to the target at endpoint.
	// Errors are *domain.RemoteError values telling call, decode and rejection failures apart.
	NotifyPurchase(ctx context.Context, endpoint string, n domain.TransferNotification) (domain.PurchaseResponse, error)
}

// Journal persists the proxy state that must survive restarts
type Journal interface {
	// MarkProcessed durably records a block height. It returns false when the
	// height was already recorded.
	MarkProcessed(ctx context.Context, height uint64) (bool, error)

	// RecordPayment stores a completed payment log entry
	RecordPayment(ctx context.Context, entry domain.PaymentLogEntry) error

	// RecordNotification stores a notification log entry
	RecordNotification(ctx context.Context, entry domain.NotificationLogEntry) error

	// SaveFeeStatus stores the fee counters
	SaveFeeStatus(ctx context.Context, status domain.FeeStatus) error
}

// Config holds the proxy settings
type Config struct {
	// Self is the principal the proxy receives transfers as
	Self            domain.Principal `json:"self"`
	TargetPrincipal domain.Principal `json:"target_principal"`
	TargetURL       string           `json:"target_url"`
	MarketFeeBP     uint64           `json:"market_fee_bp"`
}

// Snapshot is the persisted proxy state loaded at startup
type Snapshot struct {
	Processed     []uint64
	Payments      []domain.PaymentLogEntry
	Notifications []domain.NotificationLogEntry
	Fees          domain.FeeStatus
}

// Proxy reconciles transfers on the value ledger into purchase notifications.
//
// mu is held for every synchronous section and released around each remote
// call. Block heights enter the processed set before the first remote call.
type Proxy struct {
	mu sync.Mutex

	config  Config
	account domain.AccountID

	ledger  ValueLedger
	target  Target
	journal Journal
	clock   adapter.Clock

	processed     map[uint64]struct{}
	payments      []domain.PaymentLogEntry
	notifications []domain.NotificationLogEntry
	fees          domain.FeeStatus
}

// NewProxy creates a settlement proxy
func NewProxy(cfg Config, ledger ValueLedger, target Target, journal Journal, clock adapter.Clock) (*Proxy, error) {
	if cfg.Self.IsZero() {
		return nil, fmt.Errorf("%w: self principal", domain.ErrNotConfigured)
	}
	if cfg.MarketFeeBP >= domain.FEE_DENOMINATOR {
		return nil, fmt.Errorf("%w: market fee %d", domain.ErrInvalidFee, cfg.MarketFeeBP)
	}

	return &Proxy{
		config:    cfg,
		account:   domain.NewAccountID(cfg.Self, nil),
		ledger:    ledger,
		target:    target,
		journal:   journal,
		clock:     clock,
		processed: make(map[uint64]struct{}),
	}, nil
}

// Restore loads persisted state. It must run before the proxy serves requests.
func (p *Proxy) Restore(s Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, h := range s.Processed {
		p.processed[h] = struct{}{}
	}
	p.payments = append(p.payments, s.Payments...)
	p.notifications = append(p.notifications, s.Notifications...)
	p.fees = s.Fees
}

// Account returns the ledger account the proxy receives transfers on
func (p *Proxy) Account() domain.AccountID {
	return p.account
}

// Config returns the current settings
func (p *Proxy) Config() Config {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.config
}

// SetTarget sets the downstream target notified of verified transfers
func (p *Proxy) SetTarget(principal domain.Principal, url string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.config.TargetPrincipal = principal
	p.config.TargetURL = url
}

// SetMarketFee sets the market fee rate in units of 1/FEE_DENOMINATOR
func (p *Proxy) SetMarketFee(bp uint64) error {
	if bp >= domain.FEE_DENOMINATOR {
		return fmt.Errorf("%w: market fee %d", domain.ErrInvalidFee, bp)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.config.MarketFeeBP = bp

	return nil
}

// MarketFee returns the market fee rate
func (p *Proxy) MarketFee() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.config.MarketFeeBP
}

// IsProcessed reports whether height was already consumed
func (p *Proxy) IsProcessed(height uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, ok := p.processed[height]
	return ok
}

// ProcessedCount returns the number of consumed block heights
func (p *Proxy) ProcessedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.processed)
}

// Processed returns every consumed block height in ascending order
func (p *Proxy) Processed() []uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	heights := make([]uint64, 0, len(p.processed))
	for h := range p.processed {
		heights = append(heights, h)
	}
	sort.Slice(heights, func(i, j int) bool { return heights[i] < heights[j] })

	return heights
}

// Payments returns up to limit payment log entries starting at position offset
func (p *Proxy) Payments(offset, limit uint64) []domain.PaymentLogEntry {
	p.mu.Lock()
	defer p.mu.Unlock()

	return domain.Page(p.payments, offset, limit)
}

// Notifications returns up to limit notification log entries starting at position offset
func (p *Proxy) Notifications(offset, limit uint64) []domain.NotificationLogEntry {
	p.mu.Lock()
	defer p.mu.Unlock()

	return domain.Page(p.notifications, offset, limit)
}

// PaymentCount returns the number of payment log entries
func (p *Proxy) PaymentCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.payments)
}

// NotificationCount returns the number of notification log entries
func (p *Proxy) NotificationCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.notifications)
}

// Status returns the fee counters
func (p *Proxy) Status() domain.FeeStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.fees
}
