package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// getVenue handles get venue by ID
func (h *Handler) getVenue(c *gin.Context) {
	venueID, ok := pathID(c, "id")
	if !ok {
		return
	}

	venue, err := h.catalogService.GetVenue(c.Request.Context(), venueID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, venue)
}

// getMenu returns the venue's menu grouped by category
func (h *Handler) getMenu(c *gin.Context) {
	venueID, ok := pathID(c, "id")
	if !ok {
		return
	}

	menu, err := h.catalogService.GetMenu(c.Request.Context(), venueID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"menu": menu})
}

// resolveQR resolves a scanned code to its context
func (h *Handler) resolveQR(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing code"})
		return
	}

	qr, err := h.catalogService.ResolveQR(c.Request.Context(), code)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, qr)
}
