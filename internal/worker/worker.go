package worker

import (
	"context"
	"log"
	"time"

	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/broker"
	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/models"
	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/redisclient"
	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/service"
	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/store"
)

// FulfillmentWorker consumes payment events and reconciles order state.
// The synchronous path already updates orders in the payment
// transaction; replaying the event here converges state after partial
// failures and is a no-op otherwise.
type FulfillmentWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	store        *store.Store
}

// NewFulfillmentWorker creates a new fulfillment worker
func NewFulfillmentWorker(consumer *broker.Consumer, st *store.Store) *FulfillmentWorker {
	w := &FulfillmentWorker{
		consumer: consumer,
		store:    st,
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnPaymentCompleted(w.handlePaymentCompleted)
	eventHandler.OnPaymentFailed(w.handlePaymentFailed)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *FulfillmentWorker) Start(ctx context.Context) error {
	log.Println("Starting fulfillment worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *FulfillmentWorker) Stop() error {
	log.Println("Stopping fulfillment worker...")
	return w.consumer.Close()
}

func (w *FulfillmentWorker) handlePaymentCompleted(ctx context.Context, event *models.PaymentCompletedEvent) error {
	processed, err := w.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return err
	}
	if processed {
		log.Printf("Event already processed: %s", event.EventID)
		return nil
	}

	// idempotent: returns false when payment and order are already settled
	if _, err := w.store.CompletePaymentTx(ctx, event.PaymentID, event.OrderID); err != nil {
		return err
	}

	log.Printf("Reconciled payment completion: order=%d payment=%d", event.OrderID, event.PaymentID)
	return w.store.MarkEventProcessed(ctx, event.EventID, event.EventType)
}

func (w *FulfillmentWorker) handlePaymentFailed(ctx context.Context, event *models.PaymentFailedEvent) error {
	processed, err := w.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return err
	}
	if processed {
		return nil
	}

	log.Printf("Payment failed: order=%d payment=%d reason=%s", event.OrderID, event.PaymentID, event.Reason)
	return w.store.MarkEventProcessed(ctx, event.EventID, event.EventType)
}

// ExpiryWorker sweeps overdue drink passes on an interval. The Redis
// lock keeps concurrent replicas from double-sweeping.
type ExpiryWorker struct {
	passService *service.PassService
	redis       *redisclient.Client
	interval    time.Duration
	done        chan struct{}
}

const expiryLockKey = "lock:pass-expiry-sweep"

// NewExpiryWorker creates a new expiry worker
func NewExpiryWorker(passService *service.PassService, redis *redisclient.Client, interval time.Duration) *ExpiryWorker {
	return &ExpiryWorker{
		passService: passService,
		redis:       redis,
		interval:    interval,
		done:        make(chan struct{}),
	}
}

// Start starts the sweep loop and blocks until Stop or ctx cancellation
func (w *ExpiryWorker) Start(ctx context.Context) error {
	log.Println("Starting pass expiry worker...")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.done:
			return nil
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// Stop stops the worker
func (w *ExpiryWorker) Stop() error {
	log.Println("Stopping pass expiry worker...")
	close(w.done)
	return nil
}

func (w *ExpiryWorker) sweep(ctx context.Context) {
	acquired, err := w.redis.AcquireLock(ctx, expiryLockKey, w.interval)
	if err != nil {
		log.Printf("Failed to acquire expiry lock: %v", err)
		return
	}
	if !acquired {
		return
	}
	defer func() {
		if err := w.redis.ReleaseLock(ctx, expiryLockKey); err != nil {
			log.Printf("Failed to release expiry lock: %v", err)
		}
	}()

	if _, err := w.passService.ExpireOverduePasses(ctx); err != nil {
		log.Printf("Pass expiry sweep failed: %v", err)
	}
}
