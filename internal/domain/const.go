package domain

const (
	// Ledger constants
	TX_FEE          uint64 = 10_000 // flat fee charged by the value ledger per outbound transfer
	FEE_DENOMINATOR uint64 = 100_000

	// Marketplace constants
	MIN_LISTING_PRICE      uint64 = 1_000_000
	DEFAULT_MARKET_FEE_BP  uint64 = 2_500
	DEFAULT_CREATOR_FEE_BP uint64 = 2_500
	DEFAULT_MAX_SUPPLY     uint32 = 10_000
)
