package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/calmana/calmana-api/internal/models"
	"github.com/calmana/calmana-api/internal/store"
)

type recordMoodRequest struct {
	Mood string `json:"mood"`
	Note string `json:"note"`
}

// RecordMood handles POST /api/users/:id/moods.
func (h *Handler) RecordMood(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user id"})
		return
	}

	var req recordMoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	if !models.ValidMood(req.Mood) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Mood must be happy, neutral or sad"})
		return
	}

	ctx, cancel := storeContext(c)
	defer cancel()

	if _, err := h.Accounts.FetchByID(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
			return
		}
		h.serverError(c, err)
		return
	}

	entry := models.MoodEntry{
		ID:         primitive.NewObjectID(),
		UserID:     userID,
		Mood:       req.Mood,
		Note:       req.Note,
		RecordedAt: time.Now().UTC(),
	}
	if err := h.Moods.Insert(ctx, &entry); err != nil {
		h.serverError(c, err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// ListMoods handles GET /api/users/:id/moods, newest first.
func (h *Handler) ListMoods(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user id"})
		return
	}

	ctx, cancel := storeContext(c)
	defer cancel()

	entries, err := h.Moods.ListByUser(ctx, userID)
	if err != nil {
		h.serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}
