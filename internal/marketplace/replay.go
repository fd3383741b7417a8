package marketplace

import (
	"fmt"

	"github.com/feral-file/ff-marketplace/internal/domain"
)

// Replay rebuilds ownership, listings and sale statistics from audit records
// loaded at startup. Records are imported into the ledger unchanged. Fees are
// recomputed with the current fee configuration.
func (s *Service) Replay(records []domain.AuditRecord, tokens []domain.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	metadata := make(map[domain.TokenID]domain.Token, len(tokens))
	for _, t := range tokens {
		metadata[t.ID] = t
	}

	for _, r := range records {
		if err := s.apply(r, metadata); err != nil {
			return fmt.Errorf("failed to replay record %d: %w", r.Index, err)
		}
	}

	s.ledger.ImportHistory(records)

	return nil
}

// RestorePayments loads a persisted payment log, oldest first
func (s *Service) RestorePayments(entries []domain.PaymentLogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.payments = append(s.payments, entries...)
}

func (s *Service) apply(r domain.AuditRecord, metadata map[domain.TokenID]domain.Token) error {
	switch r.Op {
	case domain.OperationInit:
		return nil

	case domain.OperationMint:
		if r.To == nil {
			return fmt.Errorf("mint without owner")
		}
		token, ok := metadata[r.TokenID]
		if !ok {
			token = domain.Token{ID: r.TokenID}
		}
		return s.registry.Mint(*r.To, token)

	case domain.OperationBurn:
		if r.From == nil {
			return fmt.Errorf("burn without owner")
		}
		delete(s.listings, r.TokenID)
		return s.registry.Burn(*r.From, r.TokenID)

	case domain.OperationTransfer:
		if r.From == nil || r.To == nil {
			return fmt.Errorf("transfer without parties")
		}
		if err := s.registry.CheckOwner(r.TokenID, *r.From); err != nil {
			return err
		}
		delete(s.listings, r.TokenID)
		s.registry.Move(*r.From, *r.To, r.TokenID)
		return nil

	case domain.OperationList:
		if r.Price == nil {
			return fmt.Errorf("list without price")
		}
		if err := s.registry.CheckOwner(r.TokenID, r.Actor); err != nil {
			return err
		}
		s.upsertListing(r.Actor, r.TokenID, *r.Price, r.Timestamp)
		return nil

	case domain.OperationDelist:
		delete(s.listings, r.TokenID)
		return nil

	case domain.OperationPurchase:
		if r.From == nil || r.To == nil || r.Price == nil {
			return fmt.Errorf("purchase without parties or price")
		}
		if err := s.registry.CheckOwner(r.TokenID, *r.From); err != nil {
			return err
		}
		delete(s.listings, r.TokenID)
		s.registry.Move(*r.From, *r.To, r.TokenID)

		marketFee := domain.FeeOf(*r.Price, s.config.MarketFeeBP)
		var creatorFee uint64
		if !s.config.CreatorAccount.IsZero() {
			creatorFee = domain.FeeOf(*r.Price, s.config.CreatorFeeBP)
		}
		s.recordSale(*r.Price, marketFee, creatorFee)
		return nil

	default:
		return fmt.Errorf("unknown operation %q", r.Op)
	}
}
