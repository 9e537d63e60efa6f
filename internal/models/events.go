package models

import "time"

// Event types
const (
	EventTypeOrderCheckedOut  = "ORDER_CHECKED_OUT"
	EventTypeOrderCancelled   = "ORDER_CANCELLED"
	EventTypePaymentCompleted = "PAYMENT_COMPLETED"
	EventTypePaymentFailed    = "PAYMENT_FAILED"
	EventTypeQuestCompleted   = "QUEST_COMPLETED"
	EventTypePassIssued       = "PASS_ISSUED"
	EventTypePassRedeemed     = "PASS_REDEEMED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderCheckedOutEvent published when a draft order is submitted
type OrderCheckedOutEvent struct {
	BaseEvent
	OrderID    int64  `json:"order_id"`
	UserID     int64  `json:"user_id"`
	VenueID    int64  `json:"venue_id"`
	TotalCents int64  `json:"total_cents"`
	Status     string `json:"status"`
}

// OrderCancelledEvent published when staff cancel an order
type OrderCancelledEvent struct {
	BaseEvent
	OrderID int64  `json:"order_id"`
	Reason  string `json:"reason"`
}

// PaymentCompletedEvent published when a provider reports completion
type PaymentCompletedEvent struct {
	BaseEvent
	OrderID     int64  `json:"order_id"`
	PaymentID   int64  `json:"payment_id"`
	Provider    string `json:"provider"`
	ProviderRef string `json:"provider_ref"`
	AmountCents int64  `json:"amount_cents"`
}

// PaymentFailedEvent published when a provider reports failure
type PaymentFailedEvent struct {
	BaseEvent
	OrderID   int64  `json:"order_id"`
	PaymentID int64  `json:"payment_id"`
	Provider  string `json:"provider"`
	Reason    string `json:"reason"`
}

// QuestCompletedEvent published when all required tasks are done
type QuestCompletedEvent struct {
	BaseEvent
	QuestID int64 `json:"quest_id"`
	UserID  int64 `json:"user_id"`
	VenueID int64 `json:"venue_id"`
}

// PassIssuedEvent published when a drink pass is claimed
type PassIssuedEvent struct {
	BaseEvent
	PassID   int64     `json:"pass_id"`
	UserID   int64     `json:"user_id"`
	RewardID int64     `json:"reward_id"`
	VenueID  int64     `json:"venue_id"`
	Expires  time.Time `json:"expires"`
}

// PassRedeemedEvent published when a pass is redeemed at the bar
type PassRedeemedEvent struct {
	BaseEvent
	PassID  int64 `json:"pass_id"`
	UserID  int64 `json:"user_id"`
	VenueID int64 `json:"venue_id"`
}
