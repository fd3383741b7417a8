package schema

import "time"

// PaymentLog represents the payment_logs table - every outbound payment attempt of a service
type PaymentLog struct {
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// Service is the service that issued the payment (marketplace, settlement)
	Service string `gorm:"column:service;not null;type:text;uniqueIndex:idx_payment_logs_service_index,priority:1"`
	// LogIndex is the 1-based position in the service payment log
	LogIndex int64  `gorm:"column:log_index;not null;uniqueIndex:idx_payment_logs_service_index,priority:2"`
	Purpose  string `gorm:"column:purpose;not null;type:text"`
	// Recipient is the hex encoded ledger account id
	Recipient string `gorm:"column:recipient;not null;type:text"`
	Amount    int64  `gorm:"column:amount;not null"`
	Fee       int64  `gorm:"column:fee;not null"`
	Memo      int64  `gorm:"column:memo;not null"`
	// BlockHeight is set when the payment reached the ledger
	BlockHeight *int64 `gorm:"column:block_height"`
	// Error is set when the payment failed
	Error       *string   `gorm:"column:error;type:text"`
	AttemptedAt time.Time `gorm:"column:attempted_at;not null;type:timestamptz"`
}

// TableName specifies the table name for the PaymentLog model
func (PaymentLog) TableName() string {
	return "payment_logs"
}
