package models

import (
	"time"

	"gorm.io/datatypes"
)

// RequestLog records one relayed request for auditing and correlation.
type RequestLog struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	RequestID string `gorm:"type:text;index"`          // Correlation ID from the access log.
	Kind      string `gorm:"type:text;not null;index"` // chat, embeddings or transcribe.
	Model     string `gorm:"type:text;not null;index"` // Requested model id.

	IdentityKey string  `gorm:"type:text;not null;index"` // Resolved identity key.
	UserID      *uint64 `gorm:"index"`                    // Account ID when authenticated.

	RequestedAt time.Time `gorm:"not null;index"`         // Request timestamp.
	DurationMS  int64     `gorm:"not null;default:0"`     // Wall time spent relaying.
	Failed      bool      `gorm:"not null;default:false"` // Failure flag.

	ErrorStatusCode *int           `gorm:"index"`      // Caller-facing HTTP status for failures.
	ErrorDetail     datatypes.JSON `gorm:"type:jsonb"` // Structured error detail JSON.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}
