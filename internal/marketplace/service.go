package marketplace

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/feral-file/ff-marketplace/internal/adapter"
	"github.com/feral-file/ff-marketplace/internal/audit"
	"github.com/feral-file/ff-marketplace/internal/domain"
	"github.com/feral-file/ff-marketplace/internal/ownership"
)

// Payer sends value on the external value ledger
//
//go:generate mockgen -source=service.go -destination=../mocks/marketplace.go -package=mocks -mock_names=Payer=MockPayer,Journal=MockMarketplaceJournal
type Payer interface {
	// SendValue issues an outbound payment and returns the block height it was recorded at
	SendValue(ctx context.Context, args domain.SendArgs) (uint64, error)
}

// Journal persists marketplace data that lives outside the audit ledger
type Journal interface {
	// SaveToken stores token metadata. A failure aborts the mint.
	SaveToken(ctx context.Context, token domain.Token) error

	// RecordPayment stores a completed payment log entry
	RecordPayment(ctx context.Context, entry domain.PaymentLogEntry) error
}

// PayoutMode tells who disburses the proceeds of a purchase
type PayoutMode string

const (
	// PayoutModeDirect means the marketplace received the funds and pays seller, creator and refunds itself
	PayoutModeDirect PayoutMode = "direct"
	// PayoutModeProxy means a settlement proxy holds the funds and disburses them from the purchase response
	PayoutModeProxy PayoutMode = "proxy"
)

// Config holds the mutable marketplace settings
type Config struct {
	PayoutMode     PayoutMode       `json:"payout_mode"`
	Transacting    bool             `json:"transacting"`
	Notifier       domain.Principal `json:"notifier"`
	CreatorAccount domain.Principal `json:"creator_account"`
	CreatorFeeBP   uint64           `json:"creator_fee_bp"`
	MarketFeeBP    uint64           `json:"market_fee_bp"`
}

func (c Config) validate() error {
	switch c.PayoutMode {
	case PayoutModeDirect, PayoutModeProxy:
	default:
		return fmt.Errorf("%w: unknown payout mode %q", domain.ErrNotConfigured, c.PayoutMode)
	}
	if c.CreatorFeeBP+c.MarketFeeBP >= domain.FEE_DENOMINATOR {
		return fmt.Errorf("%w: creator %d + market %d", domain.ErrInvalidFee, c.CreatorFeeBP, c.MarketFeeBP)
	}
	return nil
}

// Service hosts the marketplace state.
//
// mu stands in for the single logical thread of the service: every operation
// holds it for its synchronous part and releases it before calling the payer,
// so other requests may run while a payment is pending.
type Service struct {
	mu sync.Mutex

	config   Config
	registry *ownership.Registry
	ledger   *audit.Ledger
	payer    Payer
	journal  Journal
	clock    adapter.Clock

	listings     map[domain.TokenID]domain.Listing
	listingIndex uint64
	stats        domain.MarketStats
	payments     []domain.PaymentLogEntry
}

// NewService creates a marketplace for the collection
func NewService(
	collection ownership.Collection,
	cfg Config,
	ledger *audit.Ledger,
	payer Payer,
	journal Journal,
	clock adapter.Clock,
) (*Service, error) {
	if cfg.PayoutMode == "" {
		cfg.PayoutMode = PayoutModeDirect
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &Service{
		config:   cfg,
		registry: ownership.NewRegistry(collection),
		ledger:   ledger,
		payer:    payer,
		journal:  journal,
		clock:    clock,
		listings: make(map[domain.TokenID]domain.Listing),
	}, nil
}

// Ledger exposes the audit ledger for read-only queries
func (s *Service) Ledger() *audit.Ledger {
	return s.ledger
}

// Config returns the current settings
func (s *Service) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.config
}

// SetTransacting switches listing and purchasing on or off
func (s *Service) SetTransacting(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.config.Transacting = enabled
}

// SetNotifier sets the only principal allowed to deliver purchase notifications
func (s *Service) SetNotifier(p domain.Principal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.config.Notifier = p
}

// SetCreatorAccount sets the principal receiving creator fees.
// An empty principal disables the creator payout.
func (s *Service) SetCreatorAccount(p domain.Principal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.config.CreatorAccount = p
}

// SetCreatorFee sets the creator fee rate in units of 1/FEE_DENOMINATOR
func (s *Service) SetCreatorFee(bp uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.config
	next.CreatorFeeBP = bp
	if err := next.validate(); err != nil {
		return err
	}
	s.config = next

	return nil
}

// SetMarketFee sets the market fee rate in units of 1/FEE_DENOMINATOR
func (s *Service) SetMarketFee(bp uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.config
	next.MarketFeeBP = bp
	if err := next.validate(); err != nil {
		return err
	}
	s.config = next

	return nil
}

// Listings returns the active listings ordered by listing index
func (s *Service) Listings() []domain.Listing {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Listing, 0, len(s.listings))
	for _, l := range s.listings {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })

	return out
}

// ListingCount returns the number of active listings
func (s *Service) ListingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.listings)
}

// Listing returns the active listing of a token
func (s *Service) Listing(id domain.TokenID) (domain.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.listings[id]
	if !ok {
		return domain.Listing{}, domain.ErrNotListed
	}

	return l, nil
}

// Stats returns the aggregate sale statistics
func (s *Service) Stats() domain.MarketStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stats
}

// Payments returns up to limit payment log entries starting at position offset
func (s *Service) Payments(offset, limit uint64) []domain.PaymentLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	return domain.Page(s.payments, offset, limit)
}

// PaymentCount returns the number of payment log entries
func (s *Service) PaymentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.payments)
}

// Owner returns the owner of a token
func (s *Service) Owner(id domain.TokenID) (domain.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.registry.CheckTokenID(id); err != nil {
		return "", err
	}

	return s.registry.Owner(id)
}

// TokensOf returns the tokens held by p
func (s *Service) TokensOf(p domain.Principal) []domain.TokenID {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.registry.TokensOf(p)
}

// Token returns the metadata of a minted token
func (s *Service) Token(id domain.TokenID) (domain.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.registry.Token(id)
	if !ok {
		return domain.Token{}, domain.ErrTokenNotMinted
	}

	return token, nil
}

// Supply describes the collection
func (s *Service) Supply() domain.Supply {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.registry.Supply()
}

// OwnerCount returns the number of minted, unburned tokens
func (s *Service) OwnerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.registry.Owners())
}
