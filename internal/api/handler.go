package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/payment"
	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/service"
	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/store"
	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	authService    *service.AuthService
	catalogService *service.CatalogService
	questService   *service.QuestService
	passService    *service.PassService
	orderService   *service.OrderService
	paymentService *service.PaymentService
}

// NewHandler creates a new HTTP handler
func NewHandler(
	authService *service.AuthService,
	catalogService *service.CatalogService,
	questService *service.QuestService,
	passService *service.PassService,
	orderService *service.OrderService,
	paymentService *service.PaymentService,
) *Handler {
	return &Handler{
		authService:    authService,
		catalogService: catalogService,
		questService:   questService,
		passService:    passService,
		orderService:   orderService,
		paymentService: paymentService,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/auth/login", h.login)
		v1.POST("/auth/guest", h.createGuest)

		v1.GET("/venues/:id", h.getVenue)
		v1.GET("/venues/:id/menu", h.getMenu)
		v1.GET("/qr/:code", h.resolveQR)

		// provider callbacks authenticate via signatures, not tokens
		v1.POST("/webhooks/:provider", h.handleWebhook)

		auth := v1.Group("", h.authMiddleware())
		{
			auth.POST("/quests/:id/start", h.startQuest)
			auth.GET("/quests/:id/status", h.getQuestStatus)
			auth.POST("/quests/:id/claim", h.claimReward)
			auth.POST("/tasks/:id/complete", h.completeTask)

			auth.GET("/passes", h.listPasses)
			auth.POST("/passes/redeem", h.redeemPass)
			auth.DELETE("/passes/:id", h.cancelPass)

			auth.POST("/orders", h.createOrder)
			auth.GET("/orders", h.listOrders)
			auth.GET("/orders/:id", h.getOrder)
			auth.POST("/orders/:id/items", h.addOrderItem)
			auth.DELETE("/orders/:id/items/:itemID", h.removeOrderItem)
			auth.POST("/orders/:id/redeem-item-pass", h.redeemItemPass)
			auth.POST("/orders/:id/checkout", h.checkoutOrder)
			auth.POST("/orders/:id/advance", h.advanceOrder)
			auth.POST("/orders/:id/cancel", h.cancelOrder)

			auth.GET("/payments/providers", h.listProviders)
			auth.POST("/payments", h.initiatePayment)
			auth.POST("/payments/:id/confirm", h.confirmPayment)
			auth.POST("/payments/:id/refund", h.refundPayment)
			auth.POST("/payments/:id/mark-received", h.markBankTransferReceived)

			auth.POST("/nfc/sessions/:id/detect", h.nfcDetectCard)
			auth.POST("/nfc/sessions/:id/process", h.nfcBeginProcessing)
			auth.POST("/nfc/sessions/:id/finish", h.nfcFinishProcessing)
		}
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// respondError maps service errors onto HTTP statuses
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, payment.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalid), errors.Is(err, payment.ErrUnknownProvider),
		errors.Is(err, payment.ErrUnsupported):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrConflict), errors.Is(err, payment.ErrSessionExpired),
		errors.Is(err, payment.ErrBadTransition):
		status = http.StatusConflict
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, payment.ErrNotConfigured):
		status = http.StatusServiceUnavailable
	case errors.Is(err, payment.ErrUpstream):
		status = http.StatusBadGateway
	}

	c.JSON(status, gin.H{"error": err.Error()})
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
