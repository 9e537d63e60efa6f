package api

import (
	"io"
	"net/http"

	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/models"
	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/payment"
	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

// listProviders lists the payment providers this deployment accepts
func (h *Handler) listProviders(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"providers": h.paymentService.Providers()})
}

// initiatePayment creates a payment intent for a pending order
func (h *Handler) initiatePayment(c *gin.Context) {
	var req service.InitiateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	resp, err := h.paymentService.Initiate(c.Request.Context(), currentUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// confirmPayment polls the provider and applies the result
func (h *Handler) confirmPayment(c *gin.Context) {
	paymentID, ok := pathID(c, "id")
	if !ok {
		return
	}

	record, err := h.paymentService.Confirm(c.Request.Context(), paymentID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

type refundRequest struct {
	AmountCents int64 `json:"amount_cents"`
}

// refundPayment refunds a completed payment; staff at the order's
// venue only. A zero amount refunds in full.
func (h *Handler) refundPayment(c *gin.Context) {
	paymentID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req refundRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	ctx := c.Request.Context()
	if err := h.requireStaffForPayment(c, paymentID); err != nil {
		return
	}

	record, err := h.paymentService.Refund(ctx, paymentID, req.AmountCents)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// markBankTransferReceived confirms a bank transfer out of band; staff
// at the order's venue only
func (h *Handler) markBankTransferReceived(c *gin.Context) {
	paymentID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.requireStaffForPayment(c, paymentID); err != nil {
		return
	}

	record, err := h.paymentService.MarkBankTransferReceived(c.Request.Context(), paymentID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// handleWebhook receives provider callbacks; the provider adapter
// verifies the signature before anything mutates
func (h *Handler) handleWebhook(c *gin.Context) {
	provider := c.Param("provider")

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable body"})
		return
	}

	var signature string
	switch provider {
	case payment.TypeStripe:
		signature = c.GetHeader("Stripe-Signature")
	default:
		signature = c.GetHeader("x-signature")
	}

	if err := h.paymentService.HandleWebhook(c.Request.Context(), provider, payload, signature); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// nfcDetectCard advances an NFC session when the terminal sees a card
func (h *Handler) nfcDetectCard(c *gin.Context) {
	session, err := h.paymentService.NFCDetectCard(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// nfcBeginProcessing moves an NFC session into PROCESSING
func (h *Handler) nfcBeginProcessing(c *gin.Context) {
	session, err := h.paymentService.NFCBeginProcessing(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

type nfcFinishRequest struct {
	Success *bool `json:"success" binding:"required"`
}

// nfcFinishProcessing resolves an NFC session and applies the outcome
func (h *Handler) nfcFinishProcessing(c *gin.Context) {
	var req nfcFinishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	session, err := h.paymentService.NFCFinishProcessing(c.Request.Context(), c.Param("id"), *req.Success)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// requireStaffForPayment resolves the payment's venue and checks the
// caller's STAFF grant, writing the error response on failure
func (h *Handler) requireStaffForPayment(c *gin.Context, paymentID int64) error {
	ctx := c.Request.Context()

	record, err := h.paymentService.GetPayment(ctx, paymentID)
	if err != nil {
		respondError(c, err)
		return err
	}
	view, err := h.orderService.GetOrder(ctx, record.OrderID)
	if err != nil {
		respondError(c, err)
		return err
	}
	if err := h.authService.RequireRole(ctx, currentUserID(c),
		models.RoleStaff, models.EntityVenue, view.Order.VenueID); err != nil {
		respondError(c, err)
		return err
	}
	return nil
}
