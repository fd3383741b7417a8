package schema

import "time"

// ProcessedTransfer represents the processed_transfers table - block heights consumed by the settlement proxy
type ProcessedTransfer struct {
	BlockHeight int64     `gorm:"column:block_height;primaryKey;autoIncrement:false"`
	ProcessedAt time.Time `gorm:"column:processed_at;not null;default:now()"`
}

// TableName specifies the table name for the ProcessedTransfer model
func (ProcessedTransfer) TableName() string {
	return "processed_transfers"
}
