package marketplace

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/feral-file/ff-marketplace/internal/domain"
	"github.com/feral-file/ff-marketplace/internal/logger"
)

// Genesis appends the init record. It only succeeds on an empty ledger.
func (s *Service) Genesis(ctx context.Context, caller domain.Principal) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ledger.Count() != 0 {
		return 0, domain.ErrLedgerNotEmpty
	}

	return s.ledger.Append(ctx, domain.AuditRecord{
		Op:        domain.OperationInit,
		Actor:     caller,
		Timestamp: s.clock.Now(),
	})
}

// Mint creates token and assigns it to owner
func (s *Service) Mint(ctx context.Context, caller, owner domain.Principal, token domain.Token) (uint64, error) {
	if owner.IsZero() {
		return 0, domain.ErrInvalidPrincipal
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.registry.CheckMint(token.ID); err != nil {
		return 0, err
	}

	if s.journal != nil {
		if err := s.journal.SaveToken(ctx, token); err != nil {
			return 0, fmt.Errorf("failed to save token %d: %w", token.ID, err)
		}
	}

	index, err := s.ledger.Append(ctx, domain.AuditRecord{
		Op:        domain.OperationMint,
		Actor:     caller,
		To:        &owner,
		TokenID:   token.ID,
		Timestamp: s.clock.Now(),
	})
	if err != nil {
		return 0, err
	}

	if err := s.registry.Mint(owner, token); err != nil {
		// CheckMint passed under the same lock
		return 0, fmt.Errorf("failed to mint token %d: %w", token.ID, err)
	}

	logger.InfoCtx(ctx, "Token minted",
		zap.Uint32("tokenID", uint32(token.ID)),
		zap.String("owner", owner.String()),
		zap.Uint64("index", index))

	return index, nil
}

// Transfer moves a token from its owner to another principal.
// Any active listing of the token is dropped.
func (s *Service) Transfer(ctx context.Context, from, to domain.Principal, id domain.TokenID) (uint64, error) {
	if to.IsZero() {
		return 0, domain.ErrInvalidPrincipal
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.registry.CheckTokenID(id); err != nil {
		return 0, err
	}
	if err := s.registry.CheckOwner(id, from); err != nil {
		return 0, err
	}

	index, err := s.ledger.Append(ctx, domain.AuditRecord{
		Op:        domain.OperationTransfer,
		Actor:     from,
		From:      &from,
		To:        &to,
		TokenID:   id,
		Timestamp: s.clock.Now(),
	})
	if err != nil {
		return 0, err
	}

	s.registry.Move(from, to, id)
	delete(s.listings, id)

	return index, nil
}

// Burn destroys a token held by caller. Any active listing is dropped.
func (s *Service) Burn(ctx context.Context, caller domain.Principal, id domain.TokenID) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.registry.CheckTokenID(id); err != nil {
		return 0, err
	}
	if err := s.registry.CheckOwner(id, caller); err != nil {
		return 0, err
	}

	index, err := s.ledger.Append(ctx, domain.AuditRecord{
		Op:        domain.OperationBurn,
		Actor:     caller,
		From:      &caller,
		TokenID:   id,
		Timestamp: s.clock.Now(),
	})
	if err != nil {
		return 0, err
	}

	if err := s.registry.Burn(caller, id); err != nil {
		return 0, fmt.Errorf("failed to burn token %d: %w", id, err)
	}
	delete(s.listings, id)

	return index, nil
}

// List offers a token for sale. Listing an already listed token updates its
// price and keeps the original listing index.
func (s *Service) List(ctx context.Context, caller domain.Principal, id domain.TokenID, price uint64) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.config.Transacting {
		return 0, domain.ErrTransactingDisabled
	}
	if err := s.registry.CheckTokenID(id); err != nil {
		return 0, err
	}
	if err := s.registry.CheckOwner(id, caller); err != nil {
		return 0, err
	}
	if price < domain.MIN_LISTING_PRICE {
		return 0, fmt.Errorf("%w: %d < %d", domain.ErrPriceTooLow, price, domain.MIN_LISTING_PRICE)
	}

	now := s.clock.Now()
	index, err := s.ledger.Append(ctx, domain.AuditRecord{
		Op:        domain.OperationList,
		Actor:     caller,
		TokenID:   id,
		Price:     &price,
		Timestamp: now,
	})
	if err != nil {
		return 0, err
	}

	s.upsertListing(caller, id, price, now)

	return index, nil
}

// Delist withdraws the listing of a token owned by caller
func (s *Service) Delist(ctx context.Context, caller domain.Principal, id domain.TokenID) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.registry.CheckOwner(id, caller); err != nil {
		return 0, err
	}
	if _, ok := s.listings[id]; !ok {
		return 0, domain.ErrNotListed
	}

	index, err := s.ledger.Append(ctx, domain.AuditRecord{
		Op:        domain.OperationDelist,
		Actor:     caller,
		TokenID:   id,
		Timestamp: s.clock.Now(),
	})
	if err != nil {
		return 0, err
	}

	delete(s.listings, id)

	return index, nil
}

func (s *Service) upsertListing(seller domain.Principal, id domain.TokenID, price uint64, at time.Time) {
	if l, ok := s.listings[id]; ok {
		l.Price = price
		s.listings[id] = l
		return
	}

	s.listingIndex++
	s.listings[id] = domain.Listing{
		TokenID:   id,
		Seller:    seller,
		Price:     price,
		CreatedAt: at,
		Index:     s.listingIndex,
	}
}
