package ownership

import (
	"fmt"
	"slices"

	"github.com/feral-file/ff-marketplace/internal/domain"
)

// Collection describes the token collection held by a registry
type Collection struct {
	Name        string
	Symbol      string
	Description string
	MaxSupply   uint32
}

// Registry tracks which principal owns each token.
//
// The forward map (token -> owner) and the inverse index (owner -> tokens)
// are always updated together. Registry is not safe for concurrent use; the
// service that owns it serialises every call.
type Registry struct {
	collection Collection
	owners     map[domain.TokenID]domain.Principal
	holdings   map[domain.Principal][]domain.TokenID
	tokens     map[domain.TokenID]domain.Token
	burned     map[domain.TokenID]struct{}
	minted     uint32
}

// NewRegistry creates an empty registry for the collection
func NewRegistry(c Collection) *Registry {
	if c.MaxSupply == 0 {
		c.MaxSupply = domain.DEFAULT_MAX_SUPPLY
	}

	return &Registry{
		collection: c,
		owners:     make(map[domain.TokenID]domain.Principal),
		holdings:   make(map[domain.Principal][]domain.TokenID),
		tokens:     make(map[domain.TokenID]domain.Token),
		burned:     make(map[domain.TokenID]struct{}),
	}
}

// CheckMint reports whether token could be minted right now.
// Burned ids count against capacity and are never minted again.
func (r *Registry) CheckMint(id domain.TokenID) error {
	if id == 0 || uint32(id) > r.collection.MaxSupply {
		return domain.ErrOutOfBounds
	}
	if r.minted >= r.collection.MaxSupply {
		return domain.ErrCapacityExceeded
	}
	if _, ok := r.owners[id]; ok {
		return domain.ErrAlreadyMinted
	}
	if _, ok := r.burned[id]; ok {
		return domain.ErrAlreadyMinted
	}

	return nil
}

// Mint assigns a new token to owner
func (r *Registry) Mint(owner domain.Principal, token domain.Token) error {
	if err := r.CheckMint(token.ID); err != nil {
		return err
	}

	r.owners[token.ID] = owner
	r.assign(owner, token.ID)
	r.tokens[token.ID] = token
	r.minted++

	return nil
}

// Burn removes a token owned by owner
func (r *Registry) Burn(owner domain.Principal, id domain.TokenID) error {
	if err := r.CheckOwner(id, owner); err != nil {
		return err
	}

	delete(r.owners, id)
	r.remove(owner, id)
	r.burned[id] = struct{}{}

	return nil
}

// Move reassigns a token without any checks. Callers validate ownership first.
func (r *Registry) Move(from, to domain.Principal, id domain.TokenID) {
	r.owners[id] = to
	r.remove(from, id)
	r.assign(to, id)
}

// CheckTokenID reports whether id lies inside the collection range
func (r *Registry) CheckTokenID(id domain.TokenID) error {
	if id == 0 || uint32(id) > r.collection.MaxSupply {
		return fmt.Errorf("%w: %d", domain.ErrInvalidTokenID, id)
	}

	return nil
}

// Owner returns the current owner of a token
func (r *Registry) Owner(id domain.TokenID) (domain.Principal, error) {
	owner, ok := r.owners[id]
	if !ok {
		return "", domain.ErrTokenNotMinted
	}

	return owner, nil
}

// CheckOwner verifies that p currently owns the token
func (r *Registry) CheckOwner(id domain.TokenID, p domain.Principal) error {
	owner, err := r.Owner(id)
	if err != nil {
		return err
	}
	if owner != p {
		return domain.ErrNotOwner
	}

	return nil
}

// TokensOf returns the tokens held by p, in acquisition order
func (r *Registry) TokensOf(p domain.Principal) []domain.TokenID {
	return slices.Clone(r.holdings[p])
}

// Token returns the metadata of a minted token
func (r *Registry) Token(id domain.TokenID) (domain.Token, bool) {
	if _, ok := r.owners[id]; !ok {
		return domain.Token{}, false
	}
	token, ok := r.tokens[id]
	return token, ok
}

// RegisterToken stores metadata for a token without touching ownership.
// Used when restoring metadata persisted outside the audit ledger.
func (r *Registry) RegisterToken(token domain.Token) {
	r.tokens[token.ID] = token
}

// Supply describes the collection and how many tokens exist
func (r *Registry) Supply() domain.Supply {
	return domain.Supply{
		Name:        r.collection.Name,
		Symbol:      r.collection.Symbol,
		Description: r.collection.Description,
		MaxSupply:   r.collection.MaxSupply,
		TotalSupply: uint32(len(r.owners)),
	}
}

// Owners returns a copy of the forward map
func (r *Registry) Owners() map[domain.TokenID]domain.Principal {
	owners := make(map[domain.TokenID]domain.Principal, len(r.owners))
	for id, owner := range r.owners {
		owners[id] = owner
	}
	return owners
}

func (r *Registry) assign(p domain.Principal, id domain.TokenID) {
	r.holdings[p] = append(r.holdings[p], id)
}

func (r *Registry) remove(p domain.Principal, id domain.TokenID) {
	held := r.holdings[p]
	pos := slices.Index(held, id)
	if pos < 0 {
		return
	}

	held = slices.Delete(held, pos, pos+1)
	if len(held) == 0 {
		delete(r.holdings, p)
		return
	}
	r.holdings[p] = held
}
