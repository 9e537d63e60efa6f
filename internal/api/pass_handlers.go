package api

import (
	"net/http"

	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/models"

	"github.com/gin-gonic/gin"
)

// listPasses lists the caller's drink passes
func (h *Handler) listPasses(c *gin.Context) {
	passes, err := h.passService.GetUserPasses(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"passes": passes})
}

type redeemPassRequest struct {
	Code string `json:"code" binding:"required"`
}

// redeemPass redeems a pass by code; staff at the pass's venue only
func (h *Handler) redeemPass(c *gin.Context) {
	var req redeemPassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	ctx := c.Request.Context()

	pass, err := h.passService.GetPassByCode(ctx, req.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.authService.RequireRole(ctx, currentUserID(c),
		models.RoleStaff, models.EntityVenue, pass.VenueID); err != nil {
		respondError(c, err)
		return
	}

	redeemed, err := h.passService.RedeemPass(ctx, req.Code)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, redeemed)
}

// cancelPass cancels an active pass; staff at the pass's venue only
func (h *Handler) cancelPass(c *gin.Context) {
	passID, ok := pathID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()

	pass, err := h.passService.GetPass(ctx, passID)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.authService.RequireRole(ctx, currentUserID(c),
		models.RoleStaff, models.EntityVenue, pass.VenueID); err != nil {
		respondError(c, err)
		return
	}

	cancelled, err := h.passService.CancelPass(ctx, passID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, cancelled)
}
