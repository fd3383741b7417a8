package dto

import (
	"fmt"

	"github.com/feral-file/ff-marketplace/internal/api/shared/constants"
	apierrors "github.com/feral-file/ff-marketplace/internal/api/shared/errors"
	"github.com/feral-file/ff-marketplace/internal/domain"
)

// MintRequest represents the request body for minting a token
type MintRequest struct {
	Owner       domain.Principal  `json:"owner"`
	TokenID     domain.TokenID    `json:"token_id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	URI         string            `json:"uri,omitempty"`
	Properties  []domain.Property `json:"properties,omitempty"`
}

// Validate validates the request body
func (r *MintRequest) Validate() error {
	if r.Owner.IsZero() {
		return apierrors.NewValidationError("owner is required")
	}

	if r.TokenID == 0 {
		return apierrors.NewValidationError("token_id is required")
	}

	if len(r.Name) > constants.MAX_TOKEN_NAME_BYTES {
		return apierrors.NewValidationError(fmt.Sprintf("name exceeds %d bytes", constants.MAX_TOKEN_NAME_BYTES))
	}

	if len(r.Properties) > constants.MAX_PROPERTIES {
		return apierrors.NewValidationError(fmt.Sprintf("maximum %d properties allowed", constants.MAX_PROPERTIES))
	}

	for _, p := range r.Properties {
		if p.Name == "" {
			return apierrors.NewValidationError("property name is required")
		}
		if len(p.Value) > constants.MAX_PROPERTY_LENGTH {
			return apierrors.NewValidationError(fmt.Sprintf("property %s exceeds %d bytes", p.Name, constants.MAX_PROPERTY_LENGTH))
		}
	}

	return nil
}

// Token converts the request to the token being minted
func (r *MintRequest) Token() domain.Token {
	return domain.Token{
		ID:          r.TokenID,
		Name:        r.Name,
		Description: r.Description,
		URI:         r.URI,
		Properties:  r.Properties,
	}
}

// TransferRequest represents the request body for transferring a token
type TransferRequest struct {
	To domain.Principal `json:"to"`
}

// Validate validates the request body
func (r *TransferRequest) Validate() error {
	if r.To.IsZero() {
		return apierrors.NewValidationError("to is required")
	}
	return nil
}

// ListRequest represents the request body for listing a token
type ListRequest struct {
	TokenID domain.TokenID `json:"token_id"`
	Price   uint64         `json:"price"`
}

// Validate validates the request body
func (r *ListRequest) Validate() error {
	if r.TokenID == 0 {
		return apierrors.NewValidationError("token_id is required")
	}
	return nil
}

// NotifyRequest represents the request body for settling a transfer
type NotifyRequest struct {
	BlockHeight *uint64 `json:"block_height"`
}

// Validate validates the request body
func (r *NotifyRequest) Validate() error {
	if r.BlockHeight == nil {
		return apierrors.NewValidationError("block_height is required")
	}
	return nil
}

// MarketplaceConfigRequest represents a partial update of the marketplace settings.
// Omitted fields keep their value.
type MarketplaceConfigRequest struct {
	Transacting    *bool             `json:"transacting,omitempty"`
	Notifier       *domain.Principal `json:"notifier,omitempty"`
	CreatorAccount *domain.Principal `json:"creator_account,omitempty"`
	CreatorFeeBP   *uint64           `json:"creator_fee_bp,omitempty"`
	MarketFeeBP    *uint64           `json:"market_fee_bp,omitempty"`
}

// Validate validates the request body
func (r *MarketplaceConfigRequest) Validate() error {
	if r.Transacting == nil && r.Notifier == nil && r.CreatorAccount == nil && r.CreatorFeeBP == nil && r.MarketFeeBP == nil {
		return apierrors.NewValidationError("at least one setting is required")
	}

	if r.Notifier != nil && r.Notifier.IsZero() {
		return apierrors.NewValidationError("notifier cannot be empty")
	}

	return nil
}

// SettlementConfigRequest represents a partial update of the settlement proxy settings
type SettlementConfigRequest struct {
	TargetPrincipal *domain.Principal `json:"target_principal,omitempty"`
	TargetURL       *string           `json:"target_url,omitempty"`
	MarketFeeBP     *uint64           `json:"market_fee_bp,omitempty"`
}

// Validate validates the request body
func (r *SettlementConfigRequest) Validate() error {
	if r.TargetPrincipal == nil && r.TargetURL == nil && r.MarketFeeBP == nil {
		return apierrors.NewValidationError("at least one setting is required")
	}

	// the target is addressed by both fields together
	if (r.TargetPrincipal == nil) != (r.TargetURL == nil) {
		return apierrors.NewValidationError("target_principal and target_url must be set together")
	}

	return nil
}
