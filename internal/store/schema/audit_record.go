package schema

import "time"

// AuditRecord represents the audit_records table - the durable copy of the marketplace audit ledger
type AuditRecord struct {
	// RecordIndex is the ledger index assigned by the service, never reused
	RecordIndex int64 `gorm:"column:record_index;primaryKey;autoIncrement:false"`
	// Op is the operation kind (init, mint, burn, list, delist, transfer, purchase)
	Op string `gorm:"column:op;not null;type:text"`
	// Actor is the principal that caused the change
	Actor string `gorm:"column:actor;not null;type:text"`
	// FromPrincipal is the previous owner for moves, nil otherwise
	FromPrincipal *string `gorm:"column:from_principal;type:text"`
	// ToPrincipal is the new owner for moves, nil otherwise
	ToPrincipal *string `gorm:"column:to_principal;type:text"`
	TokenID     int64   `gorm:"column:token_id;not null;index"`
	// Price is set for list and purchase records
	Price *int64 `gorm:"column:price"`
	// Memo carries the settling block height for purchases
	Memo       int64     `gorm:"column:memo;not null;default:0"`
	RecordedAt time.Time `gorm:"column:recorded_at;not null;type:timestamptz"`
}

// TableName specifies the table name for the AuditRecord model
func (AuditRecord) TableName() string {
	return "audit_records"
}
