package dto

import (
	"github.com/feral-file/ff-marketplace/internal/domain"
)

// ListResponse wraps a page of items
type ListResponse[T any] struct {
	Items  []T    `json:"items"`
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
	Total  uint64 `json:"total"`
}

// IndexResponse carries the audit ledger index written by an operation
type IndexResponse struct {
	Index uint64 `json:"index"`
}

// OwnerResponse represents the owner of a token
type OwnerResponse struct {
	TokenID domain.TokenID   `json:"token_id"`
	Owner   domain.Principal `json:"owner"`
}

// OwnerTokensResponse represents the tokens held by a principal
type OwnerTokensResponse struct {
	Owner  domain.Principal `json:"owner"`
	Tokens []domain.TokenID `json:"tokens"`
}

// SupplyResponse represents the collection with its marketplace counters
type SupplyResponse struct {
	domain.Supply
	CreatorAccount domain.Principal `json:"creator_account"`
	CreatorFeeBP   uint64           `json:"creator_fee_bp"`
	OwnerCount     int              `json:"owner_count"`
	ListingCount   int              `json:"listing_count"`
}

// NotifyResponse represents a settled transfer
type NotifyResponse struct {
	BlockHeight uint64 `json:"block_height"`
	Status      string `json:"status"`
}

// ProcessedResponse tells whether a block height was consumed
type ProcessedResponse struct {
	BlockHeight uint64 `json:"block_height"`
	Processed   bool   `json:"processed"`
}

// MarketFeeResponse represents the market fee of the settlement proxy
type MarketFeeResponse struct {
	MarketFeeBP uint64 `json:"market_fee_bp"`
}

// StatusResponse represents the settlement proxy state
type StatusResponse struct {
	domain.FeeStatus
	Account        domain.AccountID `json:"account"`
	ProcessedCount int              `json:"processed_count"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}
