package models

import (
	"encoding/json"
	"time"
)

// User represents a registered or guest account
type User struct {
	ID           int64     `db:"id" json:"id"`
	Email        string    `db:"email" json:"email,omitempty"`
	DisplayName  string    `db:"display_name" json:"display_name"`
	PasswordHash string    `db:"password_hash" json:"-"`
	IsGuest      bool      `db:"is_guest" json:"is_guest"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// RoleGrant grants a role over a venue, event or brand entity
type RoleGrant struct {
	ID         int64  `db:"id" json:"id"`
	UserID     int64  `db:"user_id" json:"user_id"`
	Role       string `db:"role" json:"role"`
	EntityType string `db:"entity_type" json:"entity_type"`
	EntityID   int64  `db:"entity_id" json:"entity_id"`
}

// Roles
const (
	RoleAdmin   = "ADMIN"
	RoleStaff   = "STAFF"
	RoleSponsor = "SPONSOR"
)

// Grantable entity types
const (
	EntityVenue = "VENUE"
	EntityEvent = "EVENT"
	EntityBrand = "BRAND"
)

// Venue is a physical location hosting quests and orders
type Venue struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Address   string    `db:"address" json:"address"`
	Timezone  string    `db:"timezone" json:"timezone"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Zone is a named area within a venue
type Zone struct {
	ID      int64  `db:"id" json:"id"`
	VenueID int64  `db:"venue_id" json:"venue_id"`
	Name    string `db:"name" json:"name"`
}

// Sponsor funds quests and drink rewards
type Sponsor struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	BrandID   int64     `db:"brand_id" json:"brand_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// QRPoint is a scannable code placed at a venue location
type QRPoint struct {
	ID        int64     `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	VenueID   int64     `db:"venue_id" json:"venue_id"`
	ZoneID    *int64    `db:"zone_id" json:"zone_id,omitempty"`
	SponsorID *int64    `db:"sponsor_id" json:"sponsor_id,omitempty"`
	QuestID   *int64    `db:"quest_id" json:"quest_id,omitempty"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// MenuCategory groups menu items
type MenuCategory struct {
	ID       int64  `db:"id" json:"id"`
	VenueID  int64  `db:"venue_id" json:"venue_id"`
	Name     string `db:"name" json:"name"`
	Position int    `db:"position" json:"position"`
}

// MenuItem is a purchasable (or redeemable) item
type MenuItem struct {
	ID         int64  `db:"id" json:"id"`
	VenueID    int64  `db:"venue_id" json:"venue_id"`
	CategoryID int64  `db:"category_id" json:"category_id"`
	Name       string `db:"name" json:"name"`
	PriceCents int64  `db:"price_cents" json:"price_cents"`
	Available  bool   `db:"available" json:"available"`
}

// Quest is a sponsor-defined sequence of tasks unlocking a reward
type Quest struct {
	ID              int64     `db:"id" json:"id"`
	VenueID         int64     `db:"venue_id" json:"venue_id"`
	SponsorID       *int64    `db:"sponsor_id" json:"sponsor_id,omitempty"`
	RewardID        *int64    `db:"reward_id" json:"reward_id,omitempty"`
	Title           string    `db:"title" json:"title"`
	Description     string    `db:"description" json:"description"`
	Active          bool      `db:"active" json:"active"`
	CompletionCount int64     `db:"completion_count" json:"completion_count"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// Task is one unit of quest work
type Task struct {
	ID         int64           `db:"id" json:"id"`
	QuestID    int64           `db:"quest_id" json:"quest_id"`
	Kind       string          `db:"kind" json:"kind"`
	Title      string          `db:"title" json:"title"`
	IsRequired bool            `db:"is_required" json:"is_required"`
	Config     json.RawMessage `db:"config" json:"config"`
	Position   int             `db:"position" json:"position"`
}

// Task kinds
const (
	TaskKindQRScan      = "QR_SCAN"
	TaskKindSurvey      = "SURVEY"
	TaskKindCheckin     = "CHECKIN"
	TaskKindSocialShare = "SOCIAL_SHARE"
	TaskKindCustom      = "CUSTOM"
)

// TaskCompletion records one user completing one task
type TaskCompletion struct {
	ID          int64           `db:"id" json:"id"`
	UserID      int64           `db:"user_id" json:"user_id"`
	TaskID      int64           `db:"task_id" json:"task_id"`
	QuestID     int64           `db:"quest_id" json:"quest_id"`
	Data        json.RawMessage `db:"data" json:"data,omitempty"`
	CompletedAt time.Time       `db:"completed_at" json:"completed_at"`
}

// QuestProgress is one row per (user, quest)
type QuestProgress struct {
	ID          int64      `db:"id" json:"id"`
	UserID      int64      `db:"user_id" json:"user_id"`
	QuestID     int64      `db:"quest_id" json:"quest_id"`
	Status      string     `db:"status" json:"status"`
	StartedAt   time.Time  `db:"started_at" json:"started_at"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

// Quest progress statuses
const (
	QuestStatusInProgress = "IN_PROGRESS"
	QuestStatusCompleted  = "COMPLETED"
)

// Reward defines the drink a completed quest unlocks
type Reward struct {
	ID          int64  `db:"id" json:"id"`
	MenuItemID  int64  `db:"menu_item_id" json:"menu_item_id"`
	Name        string `db:"name" json:"name"`
	ExpiryHours int    `db:"expiry_hours" json:"expiry_hours"`
}

// DrinkPass is a single-use, time-limited entitlement to a reward
type DrinkPass struct {
	ID         int64      `db:"id" json:"id"`
	UserID     int64      `db:"user_id" json:"user_id"`
	RewardID   int64      `db:"reward_id" json:"reward_id"`
	VenueID    int64      `db:"venue_id" json:"venue_id"`
	Code       string     `db:"code" json:"code"`
	Status     string     `db:"status" json:"status"`
	ExpiresAt  time.Time  `db:"expires_at" json:"expires_at"`
	RedeemedAt *time.Time `db:"redeemed_at" json:"redeemed_at,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// Drink pass statuses
const (
	PassStatusActive    = "ACTIVE"
	PassStatusRedeemed  = "REDEEMED"
	PassStatusExpired   = "EXPIRED"
	PassStatusCancelled = "CANCELLED"
)

// ItemPass entitles a user to one specific menu item, consumed once
type ItemPass struct {
	ID         int64      `db:"id" json:"id"`
	UserID     int64      `db:"user_id" json:"user_id"`
	MenuItemID int64      `db:"menu_item_id" json:"menu_item_id"`
	Consumed   bool       `db:"consumed" json:"consumed"`
	ConsumedAt *time.Time `db:"consumed_at" json:"consumed_at,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// Order represents a customer order at a venue
type Order struct {
	ID             int64     `db:"id" json:"id"`
	UserID         int64     `db:"user_id" json:"user_id"`
	VenueID        int64     `db:"venue_id" json:"venue_id"`
	TotalCents     int64     `db:"total_cents" json:"total_cents"`
	Status         string    `db:"status" json:"status"`
	IdempotencyKey string    `db:"idempotency_key" json:"idempotency_key,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// OrderItem is a line on an order
type OrderItem struct {
	ID             int64  `db:"id" json:"id"`
	OrderID        int64  `db:"order_id" json:"order_id"`
	MenuItemID     int64  `db:"menu_item_id" json:"menu_item_id"`
	Quantity       int    `db:"quantity" json:"quantity"`
	UnitPriceCents int64  `db:"unit_price_cents" json:"unit_price_cents"`
	Source         string `db:"source" json:"source"`
	ItemPassID     *int64 `db:"item_pass_id" json:"item_pass_id,omitempty"`
}

// Order line sources
const (
	LineSourcePurchased = "PURCHASED"
	LineSourceRedeemed  = "REDEEMED"
)

// Order statuses
const (
	OrderStatusDraft          = "DRAFT"
	OrderStatusPendingPayment = "PENDING_PAYMENT"
	OrderStatusConfirmed      = "CONFIRMED"
	OrderStatusPaid           = "PAID"
	OrderStatusPreparing      = "PREPARING"
	OrderStatusReady          = "READY"
	OrderStatusCompleted      = "COMPLETED"
	OrderStatusCancelled      = "CANCELLED"
)

// Payment records one payment attempt against an order
type Payment struct {
	ID          int64     `db:"id" json:"id"`
	OrderID     int64     `db:"order_id" json:"order_id"`
	Provider    string    `db:"provider" json:"provider"`
	ProviderRef string    `db:"provider_ref" json:"provider_ref,omitempty"`
	AmountCents int64     `db:"amount_cents" json:"amount_cents"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Payment statuses
const (
	PaymentStatusPending        = "PENDING"
	PaymentStatusProcessing     = "PROCESSING"
	PaymentStatusCompleted      = "COMPLETED"
	PaymentStatusFailed         = "FAILED"
	PaymentStatusCancelled      = "CANCELLED"
	PaymentStatusRefunded       = "REFUNDED"
	PaymentStatusRequiresAction = "REQUIRES_ACTION"
)

// ProcessedEvent for consumer idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
