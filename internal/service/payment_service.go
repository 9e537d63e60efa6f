package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/broker"
	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/models"
	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/payment"
	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/store"
	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentService dispatches payment operations to provider adapters
// and keeps the local Payment/Order rows in step with their results
type PaymentService struct {
	store          *store.Store
	registry       *payment.Registry
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(store *store.Store, registry *payment.Registry, eventPublisher *broker.EventPublisher) *PaymentService {
	return &PaymentService{
		store:          store,
		registry:       registry,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// InitiateRequest starts a payment for an order
type InitiateRequest struct {
	OrderID  int64  `json:"order_id" binding:"required"`
	Provider string `json:"provider" binding:"required"`
}

// InitiateResponse carries the normalized intent plus the local record
type InitiateResponse struct {
	Payment      *models.Payment `json:"payment"`
	CheckoutURL  string          `json:"checkout_url,omitempty"`
	ClientSecret string          `json:"client_secret,omitempty"`
	Instructions string          `json:"instructions,omitempty"`
}

// Providers lists the registered provider types
func (s *PaymentService) Providers() []string {
	return s.registry.Types()
}

// Initiate creates a payment intent with the chosen provider. The
// local row is only written after the remote call succeeds, so a
// failed upstream call leaves state exactly as it was.
func (s *PaymentService) Initiate(ctx context.Context, userID int64, req *InitiateRequest) (*InitiateResponse, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.Initiate")
	defer span.End()

	order, err := s.store.GetOrderByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, fmt.Errorf("%w: not your order", ErrForbidden)
	}
	if order.Status != models.OrderStatusPendingPayment {
		return nil, fmt.Errorf("%w: order is %s, expected PENDING_PAYMENT", ErrInvalid, order.Status)
	}

	existing, err := s.store.GetActivePaymentByOrderID(ctx, order.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if existing != nil && isActivePaymentStatus(existing.Status) {
		return nil, fmt.Errorf("%w: payment %d is already %s for this order", ErrConflict, existing.ID, existing.Status)
	}

	provider, err := s.registry.Get(req.Provider)
	if err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	util.PaymentAttemptsTotal.WithLabelValues(req.Provider).Inc()
	start := time.Now()
	intent, err := provider.CreateIntent(ctx, payment.IntentRequest{
		OrderID:       order.ID,
		AmountCents:   order.TotalCents,
		Currency:      "USD",
		Description:   fmt.Sprintf("Order #%d", order.ID),
		CustomerEmail: user.Email,
	})
	util.PaymentProviderLatency.WithLabelValues(req.Provider, "create_intent").Observe(time.Since(start).Seconds())
	if err != nil {
		util.PaymentFailedTotal.WithLabelValues(req.Provider, "intent_error").Inc()
		return nil, err
	}

	record := &models.Payment{
		OrderID:     order.ID,
		Provider:    req.Provider,
		ProviderRef: intent.ProviderRef,
		AmountCents: order.TotalCents,
		Status:      string(intent.Status),
	}
	if err := s.store.CreatePayment(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	s.logger.Info("Payment initiated",
		zap.Int64("order_id", order.ID),
		zap.Int64("payment_id", record.ID),
		zap.String("provider", req.Provider))

	return &InitiateResponse{
		Payment:      record,
		CheckoutURL:  intent.CheckoutURL,
		ClientSecret: intent.ClientSecret,
		Instructions: intent.Instructions,
	}, nil
}

// isActivePaymentStatus reports whether a payment attempt is still in
// flight; an order carries at most one active attempt at a time
func isActivePaymentStatus(status string) bool {
	switch status {
	case models.PaymentStatusPending, models.PaymentStatusProcessing, models.PaymentStatusRequiresAction:
		return true
	}
	return false
}

// GetPayment retrieves a payment by id
func (s *PaymentService) GetPayment(ctx context.Context, paymentID int64) (*models.Payment, error) {
	return s.store.GetPaymentByID(ctx, paymentID)
}

// Confirm reads the provider's current status and applies it locally
func (s *PaymentService) Confirm(ctx context.Context, paymentID int64) (*models.Payment, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.Confirm")
	defer span.End()

	record, err := s.store.GetPaymentByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	provider, err := s.registry.Get(record.Provider)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := provider.Confirm(ctx, record.ProviderRef)
	util.PaymentProviderLatency.WithLabelValues(record.Provider, "confirm").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	if err := s.applyStatus(ctx, record, result.Status); err != nil {
		return nil, err
	}
	return s.store.GetPaymentByID(ctx, paymentID)
}

// Refund refunds a completed payment, partially when amountCents > 0
func (s *PaymentService) Refund(ctx context.Context, paymentID, amountCents int64) (*models.Payment, error) {
	record, err := s.store.GetPaymentByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if record.Status != models.PaymentStatusCompleted {
		return nil, fmt.Errorf("%w: only completed payments can be refunded", ErrInvalid)
	}
	if amountCents < 0 || amountCents > record.AmountCents {
		return nil, fmt.Errorf("%w: refund amount out of range", ErrInvalid)
	}

	provider, err := s.registry.Get(record.Provider)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	_, err = provider.Refund(ctx, record.ProviderRef, amountCents)
	util.PaymentProviderLatency.WithLabelValues(record.Provider, "refund").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdatePaymentStatus(ctx, record.ID, models.PaymentStatusRefunded, record.ProviderRef); err != nil {
		return nil, fmt.Errorf("failed to record refund: %w", err)
	}

	s.logger.Info("Payment refunded",
		zap.Int64("payment_id", record.ID),
		zap.Int64("amount_cents", amountCents))

	return s.store.GetPaymentByID(ctx, record.ID)
}

// HandleWebhook verifies and applies a provider callback. An invalid
// payload or signature mutates nothing and surfaces as ErrInvalid.
func (s *PaymentService) HandleWebhook(ctx context.Context, providerType string, payload []byte, signature string) error {
	ctx, span := util.StartSpan(ctx, "PaymentService.HandleWebhook")
	defer span.End()

	provider, err := s.registry.Get(providerType)
	if err != nil {
		return err
	}

	result, err := provider.HandleWebhook(ctx, payload, signature)
	if err != nil {
		return err
	}
	if !result.Valid {
		util.WebhooksReceivedTotal.WithLabelValues(providerType, "false").Inc()
		return fmt.Errorf("%w: webhook rejected", ErrInvalid)
	}
	util.WebhooksReceivedTotal.WithLabelValues(providerType, "true").Inc()

	record, err := s.store.GetPaymentByProviderRef(ctx, providerType, result.ProviderRef)
	if err != nil {
		return err
	}

	return s.applyStatus(ctx, record, result.Status)
}

// MarkBankTransferReceived is the out-of-band confirmation for bank
// transfers; nothing else ever completes them
func (s *PaymentService) MarkBankTransferReceived(ctx context.Context, paymentID int64) (*models.Payment, error) {
	record, err := s.store.GetPaymentByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if record.Provider != payment.TypeBankTransfer {
		return nil, fmt.Errorf("%w: payment is not a bank transfer", ErrInvalid)
	}
	if record.Status != models.PaymentStatusPending {
		return nil, fmt.Errorf("%w: transfer is %s", ErrConflict, record.Status)
	}

	if err := s.applyStatus(ctx, record, payment.StatusCompleted); err != nil {
		return nil, err
	}
	return s.store.GetPaymentByID(ctx, record.ID)
}

// applyStatus writes a normalized provider status onto the local rows.
// Completion updates payment and order in one transaction and is
// idempotent under webhook replay.
func (s *PaymentService) applyStatus(ctx context.Context, record *models.Payment, status payment.Status) error {
	switch status {
	case payment.StatusCompleted:
		completed, err := s.store.CompletePaymentTx(ctx, record.ID, record.OrderID)
		if err != nil {
			return fmt.Errorf("failed to complete payment: %w", err)
		}
		if !completed {
			return nil
		}

		util.PaymentCompletedTotal.WithLabelValues(record.Provider).Inc()
		util.OrdersPaidTotal.Inc()
		s.logger.Info("Payment completed",
			zap.Int64("payment_id", record.ID),
			zap.Int64("order_id", record.OrderID),
			zap.String("provider", record.Provider))

		event := &models.PaymentCompletedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypePaymentCompleted,
				Timestamp: time.Now(),
			},
			OrderID:     record.OrderID,
			PaymentID:   record.ID,
			Provider:    record.Provider,
			ProviderRef: record.ProviderRef,
			AmountCents: record.AmountCents,
		}
		if err := s.eventPublisher.PublishPaymentCompleted(ctx, event); err != nil {
			s.logger.Error("Failed to publish PaymentCompleted event", zap.Error(err))
		}
		return nil

	case payment.StatusFailed, payment.StatusCancelled:
		mapped := models.PaymentStatusFailed
		if status == payment.StatusCancelled {
			mapped = models.PaymentStatusCancelled
		}
		if err := s.store.UpdatePaymentStatus(ctx, record.ID, mapped, record.ProviderRef); err != nil {
			return fmt.Errorf("failed to record payment failure: %w", err)
		}

		util.PaymentFailedTotal.WithLabelValues(record.Provider, string(status)).Inc()
		s.logger.Warn("Payment did not complete",
			zap.Int64("payment_id", record.ID),
			zap.String("status", string(status)))

		event := &models.PaymentFailedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypePaymentFailed,
				Timestamp: time.Now(),
			},
			OrderID:   record.OrderID,
			PaymentID: record.ID,
			Provider:  record.Provider,
			Reason:    string(status),
		}
		if err := s.eventPublisher.PublishPaymentFailed(ctx, event); err != nil {
			s.logger.Error("Failed to publish PaymentFailed event", zap.Error(err))
		}
		return nil

	case payment.StatusRefunded:
		return s.store.UpdatePaymentStatus(ctx, record.ID, models.PaymentStatusRefunded, record.ProviderRef)

	default:
		return s.store.UpdatePaymentStatus(ctx, record.ID, string(status), record.ProviderRef)
	}
}

// NFCDetectCard advances an NFC session when the terminal sees a card
func (s *PaymentService) NFCDetectCard(sessionID string) (*payment.NFCSession, error) {
	nfc, err := s.nfcProvider()
	if err != nil {
		return nil, err
	}
	return nfc.DetectCard(sessionID)
}

// NFCBeginProcessing advances an NFC session into PROCESSING
func (s *PaymentService) NFCBeginProcessing(sessionID string) (*payment.NFCSession, error) {
	nfc, err := s.nfcProvider()
	if err != nil {
		return nil, err
	}
	return nfc.BeginProcessing(sessionID)
}

// NFCFinishProcessing resolves an NFC session and, on success, applies
// completion to the payment the session belongs to
func (s *PaymentService) NFCFinishProcessing(ctx context.Context, sessionID string, success bool) (*payment.NFCSession, error) {
	nfc, err := s.nfcProvider()
	if err != nil {
		return nil, err
	}

	session, err := nfc.FinishProcessing(sessionID, success)
	if err != nil {
		return nil, err
	}

	record, err := s.store.GetPaymentByProviderRef(ctx, payment.TypeNFC, session.ID)
	if err != nil {
		return nil, err
	}

	status := payment.StatusFailed
	if success {
		status = payment.StatusCompleted
	}
	if err := s.applyStatus(ctx, record, status); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *PaymentService) nfcProvider() (*payment.NFCProvider, error) {
	p, err := s.registry.Get(payment.TypeNFC)
	if err != nil {
		return nil, err
	}
	nfc, ok := p.(*payment.NFCProvider)
	if !ok {
		return nil, fmt.Errorf("%w: nfc provider has unexpected type", payment.ErrUnknownProvider)
	}
	return nfc, nil
}
