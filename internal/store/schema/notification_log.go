package schema

import (
	"time"

	"gorm.io/datatypes"
)

// NotificationLog represents the notification_logs table - every notify attempt received by the settlement proxy
type NotificationLog struct {
	LogIndex    int64  `gorm:"column:log_index;primaryKey;autoIncrement:false"`
	Caller      string `gorm:"column:caller;not null;type:text"`
	BlockHeight int64  `gorm:"column:block_height;not null;index"`
	// Args is the forwarded notification, nil when the attempt failed before the transfer was read
	Args datatypes.JSON `gorm:"column:args;type:jsonb"`
	// Outcome is the target response or the error
	Outcome     datatypes.JSON `gorm:"column:outcome;type:jsonb"`
	AttemptedAt time.Time      `gorm:"column:attempted_at;not null;type:timestamptz"`
}

// TableName specifies the table name for the NotificationLog model
func (NotificationLog) TableName() string {
	return "notification_logs"
}
