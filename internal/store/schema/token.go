package schema

import (
	"time"

	"gorm.io/datatypes"
)

// Token represents the tokens table - metadata of minted tokens.
// Ownership is not stored here; it is rebuilt from audit_records.
type Token struct {
	TokenID     int64          `gorm:"column:token_id;primaryKey;autoIncrement:false"`
	Name        string         `gorm:"column:name;not null;type:text"`
	Description string         `gorm:"column:description;not null;default:'';type:text"`
	URI         string         `gorm:"column:uri;not null;default:'';type:text"`
	Properties  datatypes.JSON `gorm:"column:properties;type:jsonb"`
	CreatedAt   time.Time      `gorm:"column:created_at;not null;default:now()"`
}

// TableName specifies the table name for the Token model
func (Token) TableName() string {
	return "tokens"
}
