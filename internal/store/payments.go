package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/models"
)

// CreatePayment creates a new payment record
func (s *Store) CreatePayment(ctx context.Context, payment *models.Payment) error {
	query := `
		INSERT INTO payments (order_id, provider, provider_ref, amount_cents, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, payment, query,
		payment.OrderID, payment.Provider, payment.ProviderRef, payment.AmountCents, payment.Status)
}

// GetPaymentByID retrieves a payment by ID
func (s *Store) GetPaymentByID(ctx context.Context, id int64) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.GetContext(ctx, &payment, "SELECT * FROM payments WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("payment %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetPaymentByProviderRef retrieves a payment by its external reference
func (s *Store) GetPaymentByProviderRef(ctx context.Context, provider, ref string) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.GetContext(ctx, &payment,
		"SELECT * FROM payments WHERE provider = $1 AND provider_ref = $2", provider, ref)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("payment %s/%s: %w", provider, ref, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetActivePaymentByOrderID retrieves the latest payment driving an order
func (s *Store) GetActivePaymentByOrderID(ctx context.Context, orderID int64) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.GetContext(ctx, &payment,
		"SELECT * FROM payments WHERE order_id = $1 ORDER BY created_at DESC LIMIT 1", orderID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("payment for order %d: %w", orderID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// UpdatePaymentStatus updates payment status and external reference
func (s *Store) UpdatePaymentStatus(ctx context.Context, paymentID int64, status, providerRef string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE payments SET status = $1, provider_ref = $2, updated_at = NOW() WHERE id = $3",
		status, providerRef, paymentID)
	return err
}

// CompletePaymentTx marks a payment COMPLETED and the parent order PAID
// in one transaction. Both writes carry a status predicate so replayed
// webhooks and racing confirms are no-ops.
func (s *Store) CompletePaymentTx(ctx context.Context, paymentID, orderID int64) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE payments SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status NOT IN ($3, $4)`,
		models.PaymentStatusCompleted, paymentID,
		models.PaymentStatusCompleted, models.PaymentStatusRefunded)
	if err != nil {
		return false, fmt.Errorf("failed to complete payment: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if rows == 0 {
		return false, tx.Commit()
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE orders SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3`,
		models.OrderStatusPaid, orderID, models.OrderStatusPendingPayment)
	if err != nil {
		return false, fmt.Errorf("failed to mark order paid: %w", err)
	}

	return true, tx.Commit()
}
