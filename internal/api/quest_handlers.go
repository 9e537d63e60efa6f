package api

import (
	"net/http"

	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

// startQuest creates or returns the caller's progress on a quest
func (h *Handler) startQuest(c *gin.Context) {
	questID, ok := pathID(c, "id")
	if !ok {
		return
	}

	progress, err := h.questService.StartQuest(c.Request.Context(), currentUserID(c), questID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

// getQuestStatus reports the caller's standing on a quest
func (h *Handler) getQuestStatus(c *gin.Context) {
	questID, ok := pathID(c, "id")
	if !ok {
		return
	}

	status, err := h.questService.GetQuestStatus(c.Request.Context(), currentUserID(c), questID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// completeTask validates and records a task submission
func (h *Handler) completeTask(c *gin.Context) {
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var submission service.TaskSubmission
	if err := c.ShouldBindJSON(&submission); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	status, err := h.questService.CompleteTask(c.Request.Context(), currentUserID(c), taskID, &submission)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// claimReward issues the quest's drink pass to the caller
func (h *Handler) claimReward(c *gin.Context) {
	questID, ok := pathID(c, "id")
	if !ok {
		return
	}

	pass, err := h.passService.ClaimReward(c.Request.Context(), currentUserID(c), questID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, pass)
}
