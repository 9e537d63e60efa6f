package api

import (
	"net/http"

	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/models"
	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

// createOrder opens a draft order
func (h *Handler) createOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), currentUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

// listOrders lists the caller's orders
func (h *Handler) listOrders(c *gin.Context) {
	orders, err := h.orderService.ListOrders(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// getOrder retrieves one of the caller's orders
func (h *Handler) getOrder(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	view, err := h.orderService.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	if view.Order.UserID != currentUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not your order"})
		return
	}

	c.JSON(http.StatusOK, view)
}

// addOrderItem adds a purchased line to a draft order
func (h *Handler) addOrderItem(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req service.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	view, err := h.orderService.AddItem(c.Request.Context(), currentUserID(c), orderID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// removeOrderItem removes a line from a draft order
func (h *Handler) removeOrderItem(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}
	itemID, ok := pathID(c, "itemID")
	if !ok {
		return
	}

	view, err := h.orderService.RemoveItem(c.Request.Context(), currentUserID(c), orderID, itemID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

type redeemItemPassRequest struct {
	ItemPassID int64 `json:"item_pass_id" binding:"required"`
}

// redeemItemPass attaches a free-item pass to a draft order
func (h *Handler) redeemItemPass(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req redeemItemPassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	view, err := h.orderService.RedeemItemPass(c.Request.Context(), currentUserID(c), orderID, req.ItemPassID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// checkoutOrder submits a draft order
func (h *Handler) checkoutOrder(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	view, err := h.orderService.Checkout(c.Request.Context(), currentUserID(c), orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// advanceOrder moves an order along the fulfillment chain; staff at
// the order's venue only
func (h *Handler) advanceOrder(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()

	view, err := h.orderService.GetOrder(ctx, orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.authService.RequireRole(ctx, currentUserID(c),
		models.RoleStaff, models.EntityVenue, view.Order.VenueID); err != nil {
		respondError(c, err)
		return
	}

	advanced, err := h.orderService.Advance(ctx, orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, advanced)
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

// cancelOrder cancels a non-terminal order. The owner can cancel their
// own order; staff can cancel any order at their venue.
func (h *Handler) cancelOrder(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req cancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	ctx := c.Request.Context()

	view, err := h.orderService.GetOrder(ctx, orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	if view.Order.UserID != currentUserID(c) {
		if err := h.authService.RequireRole(ctx, currentUserID(c),
			models.RoleStaff, models.EntityVenue, view.Order.VenueID); err != nil {
			respondError(c, err)
			return
		}
	}

	cancelled, err := h.orderService.Cancel(ctx, orderID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, cancelled)
}
