package models

import "time"

type AlertChannel string

const (
	AlertChannelEmail AlertChannel = "email"
	AlertChannelLog   AlertChannel = "log"
)

type AlertStatus string

const (
	AlertPending      AlertStatus = "pending"
	AlertSent         AlertStatus = "sent"
	AlertFailed       AlertStatus = "failed"
	AlertLogged       AlertStatus = "logged"
	AlertAcknowledged AlertStatus = "acknowledged"
)

// AlertNotification is one dispatch attempt to one recipient for one
// triggering event.
type AlertNotification struct {
	ID            string
	EventID       string
	DisasterID    *string
	PredictionID  *string
	Recipient     string
	RecipientRole string
	Subject       string
	Body          string
	Severity      Severity
	Channel       AlertChannel
	Status        AlertStatus
	ExternalRef   string
	ErrorMessage  string
	CreatedAt     time.Time
	SentAt        *time.Time
}
