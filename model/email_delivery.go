package model

import (
	"time"

	"gorm.io/datatypes"
)

// DeliveryStatus tracks an outgoing email through the dispatcher
type DeliveryStatus string

const (
	DeliveryQueued  DeliveryStatus = "queued"
	DeliverySending DeliveryStatus = "sending" // claimed by a worker
	DeliverySent    DeliveryStatus = "sent"
	DeliverySkipped DeliveryStatus = "skipped" // no mail provider configured
	DeliveryFailed  DeliveryStatus = "failed"
)

// EmailDelivery is the outbox row for one notification email
type EmailDelivery struct {
	ID                uint             `gorm:"primaryKey" json:"id"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `gorm:"index" json:"updated_at"`
	UserID            *uint            `gorm:"index" json:"user_id,omitempty"`
	ToEmail           string           `gorm:"type:varchar(255);not null" json:"to_email"`
	ToName            string           `gorm:"type:varchar(255)" json:"to_name"`
	Type              NotificationType `gorm:"type:varchar(40);not null" json:"type"`
	Payload           datatypes.JSON   `json:"payload"`
	Status            DeliveryStatus   `gorm:"type:varchar(20);not null;default:'queued';index" json:"status"`
	Attempts          int              `gorm:"not null;default:0" json:"attempts"`
	LastError         string           `gorm:"type:text" json:"last_error,omitempty"`
	ProviderMessageID string           `gorm:"type:varchar(255)" json:"provider_message_id,omitempty"`
	SentAt            *time.Time       `json:"sent_at,omitempty"`
}

// TableName specifies the table name for EmailDelivery
func (EmailDelivery) TableName() string {
	return "email_deliveries"
}
