package models

import "time"

// UsageLog counts quota-gated requests for one account on one calendar day.
// Rows are never deleted; they double as the account's usage history.
type UsageLog struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64    `gorm:"not null;uniqueIndex:idx_usage_logs_user_day"` // Owning user ID.
	Day    time.Time `gorm:"not null;uniqueIndex:idx_usage_logs_user_day"` // UTC midnight of the counted day.

	Hits int64 `gorm:"not null;default:0"` // Request count for the day.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
