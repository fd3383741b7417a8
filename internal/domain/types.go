package domain

import (
	"time"
)

// TokenID identifies a token within the collection. Valid ids start at 1.
type TokenID uint32

// Property is a single descriptive attribute of a token
type Property struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Token holds the immutable metadata of a minted token
type Token struct {
	ID          TokenID    `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	URI         string     `json:"uri,omitempty"`
	Properties  []Property `json:"properties,omitempty"`
}

// Listing is an active offer to sell a token
type Listing struct {
	TokenID   TokenID   `json:"token_id"`
	Seller    Principal `json:"seller"`
	Price     uint64    `json:"price"`
	CreatedAt time.Time `json:"created_at"`
	Index     uint64    `json:"index"`
}

// Operation is the kind of state change recorded in the audit ledger
type Operation string

const (
	OperationInit     Operation = "init"
	OperationMint     Operation = "mint"
	OperationBurn     Operation = "burn"
	OperationList     Operation = "list"
	OperationDelist   Operation = "delist"
	OperationTransfer Operation = "transfer"
	OperationPurchase Operation = "purchase"
)

// Valid reports whether the operation is a known kind
func (o Operation) Valid() bool {
	switch o {
	case OperationInit, OperationMint, OperationBurn, OperationList,
		OperationDelist, OperationTransfer, OperationPurchase:
		return true
	default:
		return false
	}
}

// AuditRecord is one immutable entry of the audit ledger
type AuditRecord struct {
	Index     uint64     `json:"index"`
	Op        Operation  `json:"op"`
	Actor     Principal  `json:"actor"`
	From      *Principal `json:"from,omitempty"`
	To        *Principal `json:"to,omitempty"`
	TokenID   TokenID    `json:"token_id"`
	Price     *uint64    `json:"price,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
	Memo      uint64     `json:"memo,omitempty"`
}

// MarketStats aggregates marketplace sales
type MarketStats struct {
	HighestSale         uint64 `json:"highest_sale"`
	VolumeTraded        uint64 `json:"volume_traded"`
	SalesCount          uint64 `json:"sales_count"`
	CollectedMarketFee  uint64 `json:"collected_market_fee"`
	CollectedCreatorFee uint64 `json:"collected_creator_fee"`
}

// Supply describes the collection and its minted count
type Supply struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Description string `json:"description"`
	MaxSupply   uint32 `json:"max_supply"`
	TotalSupply uint32 `json:"total_supply"`
}

// TransferKind is the kind of a transfer recorded on the value ledger
type TransferKind string

const (
	TransferKindSend TransferKind = "send"
	TransferKindMint TransferKind = "mint"
	TransferKindBurn TransferKind = "burn"
)

// Transfer is a value transfer as recorded by the external value ledger
type Transfer struct {
	Kind   TransferKind `json:"kind"`
	From   AccountID    `json:"from"`
	To     AccountID    `json:"to"`
	Amount uint64       `json:"amount"`
	Fee    uint64       `json:"fee"`
	Memo   uint64       `json:"memo"`
}

// SendArgs are the arguments of an outbound payment on the value ledger
type SendArgs struct {
	To     AccountID `json:"to"`
	Amount uint64    `json:"amount"`
	Fee    uint64    `json:"fee"`
	Memo   uint64    `json:"memo"`
}

// TransferNotification tells a target that value was sent to it.
// Memo carries the purchased token id for marketplace targets.
type TransferNotification struct {
	From        Principal `json:"from"`
	To          Principal `json:"to"`
	BlockHeight uint64    `json:"block_height"`
	Amount      uint64    `json:"amount"`
	Memo        uint64    `json:"memo"`
}

// PurchaseResponse is returned by a target that accepted a transfer notification
type PurchaseResponse struct {
	Seller       Principal `json:"seller"`
	CreatorFeeBP uint64    `json:"creator_fee_bp"`
}

// PaymentOutcome is the result of an outbound payment
type PaymentOutcome struct {
	BlockHeight *uint64 `json:"block_height,omitempty"`
	Error       string  `json:"error,omitempty"`
}

// Succeeded reports whether the payment reached the ledger
func (o *PaymentOutcome) Succeeded() bool {
	return o != nil && o.BlockHeight != nil
}

// PaymentPurpose tells why an outbound payment was made
type PaymentPurpose string

const (
	PaymentPurposeSeller  PaymentPurpose = "seller"
	PaymentPurposeCreator PaymentPurpose = "creator"
	PaymentPurposeRefund  PaymentPurpose = "refund"
)

// PaymentLogEntry records one attempted outbound payment
type PaymentLogEntry struct {
	Index     uint64          `json:"index"`
	Timestamp time.Time       `json:"timestamp"`
	Purpose   PaymentPurpose  `json:"purpose"`
	Args      SendArgs        `json:"args"`
	Outcome   *PaymentOutcome `json:"outcome,omitempty"`
}

// NotificationOutcome is the result of an inbound notify attempt
type NotificationOutcome struct {
	Response  *PurchaseResponse `json:"response,omitempty"`
	ErrorKind ErrorKind         `json:"error_kind,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// Succeeded reports whether the target accepted the notification and the
// proxy could settle it
func (o *NotificationOutcome) Succeeded() bool {
	return o != nil && o.Response != nil && o.Error == ""
}

// NotificationLogEntry records one inbound notify attempt.
// Args is nil when the attempt was rejected before the transfer was decoded.
type NotificationLogEntry struct {
	Index       uint64                `json:"index"`
	Timestamp   time.Time             `json:"timestamp"`
	Caller      Principal             `json:"caller"`
	BlockHeight uint64                `json:"block_height"`
	Args        *TransferNotification `json:"args,omitempty"`
	Outcome     *NotificationOutcome  `json:"outcome,omitempty"`
}

// FeeStatus holds the lifetime and undisbursed fee counters of the settlement proxy
type FeeStatus struct {
	TotalMarketFee    uint64 `json:"total_market_fee"`
	TotalCreatorFee   uint64 `json:"total_creator_fee"`
	WaitingMarketFee  uint64 `json:"waiting_market_fee"`
	WaitingCreatorFee uint64 `json:"waiting_creator_fee"`
}

// FeeOf returns floor(amount * bp / FEE_DENOMINATOR) without intermediate overflow
func FeeOf(amount, bp uint64) uint64 {
	return amount/FEE_DENOMINATOR*bp + amount%FEE_DENOMINATOR*bp/FEE_DENOMINATOR
}
