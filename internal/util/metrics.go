package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total number of draft orders created",
	})

	OrdersCheckedOutTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_checked_out_total",
		Help: "Total number of orders submitted for payment or confirmed",
	}, []string{"status"})

	OrdersPaidTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_paid_total",
		Help: "Total number of orders successfully paid",
	})

	OrdersCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_cancelled_total",
		Help: "Total number of cancelled orders",
	})

	PaymentAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_attempts_total",
		Help: "Total number of payment intents created",
	}, []string{"provider"})

	PaymentCompletedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_completed_total",
		Help: "Total number of completed payments",
	}, []string{"provider"})

	PaymentFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_failed_total",
		Help: "Total number of failed payments",
	}, []string{"provider", "reason"})

	PaymentProviderLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_provider_latency_seconds",
		Help:    "Latency of remote payment provider calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider", "operation"})

	WebhooksReceivedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhooks_received_total",
		Help: "Total number of payment webhooks received",
	}, []string{"provider", "valid"})

	TaskValidationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "task_validations_total",
		Help: "Total number of task submissions validated",
	}, []string{"kind", "result"})

	QuestsCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quests_completed_total",
		Help: "Total number of quests completed",
	})

	PassesIssuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "drink_passes_issued_total",
		Help: "Total number of drink passes issued",
	})

	PassesRedeemedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "drink_passes_redeemed_total",
		Help: "Total number of drink passes redeemed",
	})

	PassesExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "drink_passes_expired_total",
		Help: "Total number of drink passes marked expired",
	})

	QRResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qr_resolutions_total",
		Help: "Total number of QR code resolutions",
	}, []string{"result"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
