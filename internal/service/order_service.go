package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/broker"
	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/models"
	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/redisclient"
	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/store"
	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderService drives the cart -> checkout -> fulfillment pipeline
type OrderService struct {
	store          *store.Store
	redis          *redisclient.Client
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(store *store.Store, redis *redisclient.Client, eventPublisher *broker.EventPublisher) *OrderService {
	return &OrderService{
		store:          store,
		redis:          redis,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// CreateOrderRequest opens a draft order at a venue
type CreateOrderRequest struct {
	VenueID        int64  `json:"venue_id" binding:"required"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// AddItemRequest adds a purchased line to a draft order
type AddItemRequest struct {
	MenuItemID int64 `json:"menu_item_id" binding:"required"`
	Quantity   int   `json:"quantity" binding:"required,min=1"`
}

// OrderView is an order with its lines
type OrderView struct {
	Order *models.Order      `json:"order"`
	Items []models.OrderItem `json:"items"`
}

// terminalOrderStatuses cannot be left once entered
var terminalOrderStatuses = map[string]bool{
	models.OrderStatusCompleted: true,
	models.OrderStatusCancelled: true,
}

// fulfillmentNext maps each post-payment status to its successor
var fulfillmentNext = map[string]string{
	models.OrderStatusConfirmed: models.OrderStatusPreparing,
	models.OrderStatusPaid:      models.OrderStatusPreparing,
	models.OrderStatusPreparing: models.OrderStatusReady,
	models.OrderStatusReady:     models.OrderStatusCompleted,
}

// NextFulfillmentStatus returns the successor in the staff-driven
// fulfillment chain
func NextFulfillmentStatus(current string) (string, error) {
	next, ok := fulfillmentNext[current]
	if !ok {
		return "", fmt.Errorf("%w: cannot advance order from %s", ErrInvalid, current)
	}
	return next, nil
}

// IsTerminalOrderStatus reports whether a status can never change again
func IsTerminalOrderStatus(status string) bool {
	return terminalOrderStatuses[status]
}

// OrderTotalCents sums unit price times quantity over the lines
func OrderTotalCents(items []models.OrderItem) int64 {
	var total int64
	for _, item := range items {
		total += item.UnitPriceCents * int64(item.Quantity)
	}
	return total
}

// CreateOrder opens a DRAFT order, honoring the idempotency key
func (s *OrderService) CreateOrder(ctx context.Context, userID int64, req *CreateOrderRequest) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	if _, err := s.store.GetVenueByID(ctx, req.VenueID); err != nil {
		return nil, err
	}

	if req.IdempotencyKey == "" {
		req.IdempotencyKey = uuid.New().String()
	}

	existing, err := s.store.GetOrderByIdempotencyKey(ctx, req.IdempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("failed to check idempotency: %w", err)
	}
	if existing != nil {
		s.logger.Info("Duplicate order request detected",
			zap.String("idempotency_key", req.IdempotencyKey),
			zap.Int64("order_id", existing.ID))
		return existing, nil
	}

	order := &models.Order{
		UserID:         userID,
		VenueID:        req.VenueID,
		Status:         models.OrderStatusDraft,
		IdempotencyKey: req.IdempotencyKey,
	}
	if err := s.store.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	util.OrdersCreatedTotal.Inc()
	s.logger.Info("Order created", zap.Int64("order_id", order.ID))
	return order, nil
}

// ListOrders lists a user's orders, newest first
func (s *OrderService) ListOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	return s.store.GetOrdersByUserID(ctx, userID)
}

// GetOrder retrieves an order with its lines
func (s *OrderService) GetOrder(ctx context.Context, orderID int64) (*OrderView, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	items, err := s.store.GetOrderItemsByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	return &OrderView{Order: order, Items: items}, nil
}

// AddItem appends a purchased line; only DRAFT orders may change
func (s *OrderService) AddItem(ctx context.Context, userID, orderID int64, req *AddItemRequest) (*OrderView, error) {
	order, err := s.ownedDraft(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	menuItem, err := s.store.GetMenuItemByID(ctx, req.MenuItemID)
	if err != nil {
		return nil, err
	}
	if menuItem.VenueID != order.VenueID {
		return nil, fmt.Errorf("%w: menu item belongs to a different venue", ErrInvalid)
	}
	if !menuItem.Available {
		return nil, fmt.Errorf("%w: menu item is unavailable", ErrInvalid)
	}

	line := &models.OrderItem{
		OrderID:        order.ID,
		MenuItemID:     menuItem.ID,
		Quantity:       req.Quantity,
		UnitPriceCents: menuItem.PriceCents,
		Source:         models.LineSourcePurchased,
	}
	if err := s.store.CreateOrderItem(ctx, line); err != nil {
		return nil, fmt.Errorf("failed to add line: %w", err)
	}

	return s.refreshTotal(ctx, order.ID)
}

// RemoveItem deletes a line; only DRAFT orders may change
func (s *OrderService) RemoveItem(ctx context.Context, userID, orderID, itemID int64) (*OrderView, error) {
	order, err := s.ownedDraft(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	ok, err := s.store.DeleteOrderItem(ctx, order.ID, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to remove line: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("order line %d: %w", itemID, store.ErrNotFound)
	}

	return s.refreshTotal(ctx, order.ID)
}

// RedeemItemPass inserts a zero-price line and consumes the pass. The
// consumption is immediate and not reversible once checkout succeeds.
func (s *OrderService) RedeemItemPass(ctx context.Context, userID, orderID, itemPassID int64) (*OrderView, error) {
	order, err := s.ownedDraft(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	pass, err := s.store.GetItemPassByID(ctx, itemPassID)
	if err != nil {
		return nil, err
	}
	if pass.UserID != userID {
		return nil, fmt.Errorf("%w: item pass belongs to another user", ErrForbidden)
	}

	consumed, err := s.store.ConsumeItemPass(ctx, pass.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to consume item pass: %w", err)
	}
	if !consumed {
		return nil, fmt.Errorf("%w: item pass already used", ErrConflict)
	}

	line := &models.OrderItem{
		OrderID:        order.ID,
		MenuItemID:     pass.MenuItemID,
		Quantity:       1,
		UnitPriceCents: 0,
		Source:         models.LineSourceRedeemed,
		ItemPassID:     &pass.ID,
	}
	if err := s.store.CreateOrderItem(ctx, line); err != nil {
		return nil, fmt.Errorf("failed to add redeemed line: %w", err)
	}

	return s.GetOrder(ctx, order.ID)
}

// Checkout submits a draft order. Empty orders are rejected; zero-total
// orders confirm immediately, everything else awaits payment.
func (s *OrderService) Checkout(ctx context.Context, userID, orderID int64) (*OrderView, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.Checkout")
	defer span.End()

	order, err := s.ownedDraft(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	items, err := s.store.GetOrderItemsByOrderID(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: order is empty", ErrInvalid)
	}

	total := OrderTotalCents(items)
	if err := s.store.UpdateOrderTotal(ctx, order.ID, total); err != nil {
		return nil, fmt.Errorf("failed to store total: %w", err)
	}

	target := models.OrderStatusPendingPayment
	if total == 0 {
		target = models.OrderStatusConfirmed
	}

	ok, err := s.store.TransitionOrderStatus(ctx, order.ID, models.OrderStatusDraft, target)
	if err != nil {
		return nil, fmt.Errorf("failed to submit order: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: order already submitted", ErrInvalid)
	}

	util.OrdersCheckedOutTotal.WithLabelValues(target).Inc()
	s.logger.Info("Order checked out",
		zap.Int64("order_id", order.ID),
		zap.Int64("total_cents", total),
		zap.String("status", target))

	event := &models.OrderCheckedOutEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderCheckedOut,
			Timestamp: time.Now(),
		},
		OrderID:    order.ID,
		UserID:     order.UserID,
		VenueID:    order.VenueID,
		TotalCents: total,
		Status:     target,
	}
	if err := s.eventPublisher.PublishOrderCheckedOut(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderCheckedOut event", zap.Error(err))
	}

	return s.GetOrder(ctx, order.ID)
}

// Advance moves a paid or confirmed order along the fulfillment chain
func (s *OrderService) Advance(ctx context.Context, orderID int64) (*OrderView, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	next, err := NextFulfillmentStatus(order.Status)
	if err != nil {
		return nil, err
	}

	ok, err := s.store.TransitionOrderStatus(ctx, order.ID, order.Status, next)
	if err != nil {
		return nil, fmt.Errorf("failed to advance order: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: order status changed concurrently", ErrConflict)
	}

	return s.GetOrder(ctx, order.ID)
}

// Cancel cancels any non-terminal order
func (s *OrderService) Cancel(ctx context.Context, orderID int64, reason string) (*OrderView, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if IsTerminalOrderStatus(order.Status) {
		return nil, fmt.Errorf("%w: order is already %s", ErrInvalid, order.Status)
	}

	ok, err := s.store.TransitionOrderStatus(ctx, order.ID, order.Status, models.OrderStatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: order status changed concurrently", ErrConflict)
	}

	util.OrdersCancelledTotal.Inc()
	s.logger.Info("Order cancelled",
		zap.Int64("order_id", order.ID),
		zap.String("reason", reason))

	event := &models.OrderCancelledEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderCancelled,
			Timestamp: time.Now(),
		},
		OrderID: order.ID,
		Reason:  reason,
	}
	if err := s.eventPublisher.PublishOrderCancelled(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderCancelled event", zap.Error(err))
	}

	return s.GetOrder(ctx, order.ID)
}

func (s *OrderService) ownedDraft(ctx context.Context, userID, orderID int64) (*models.Order, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, fmt.Errorf("%w: not your order", ErrForbidden)
	}
	if order.Status != models.OrderStatusDraft {
		return nil, fmt.Errorf("%w: order is %s, items can only change while DRAFT", ErrInvalid, order.Status)
	}
	return order, nil
}

func (s *OrderService) refreshTotal(ctx context.Context, orderID int64) (*OrderView, error) {
	items, err := s.store.GetOrderItemsByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdateOrderTotal(ctx, orderID, OrderTotalCents(items)); err != nil {
		return nil, fmt.Errorf("failed to store total: %w", err)
	}

	return s.GetOrder(ctx, orderID)
}
