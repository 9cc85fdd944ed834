package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

type inventoryRequest struct {
	SteamID string `json:"steamId" binding:"required"`
}

func (h *Handler) getInventory(c *gin.Context) {
	var req inventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "steamId is required"})
		return
	}

	res, err := h.inventory.Get(c.Request.Context(), principalFrom(c), req.SteamID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"inventory": res.Payload,
		"fromCache": res.FromCache,
		"timestamp": res.Timestamp.UTC().Format(time.RFC3339),
	})
}

func (h *Handler) inventoryHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	snapshots, err := h.inventory.History(c.Request.Context(), principalFrom(c), c.Param("steamId"), limit)
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]SnapshotResponse, len(snapshots))
	for i, s := range snapshots {
		resp[i] = SnapshotResponse{
			ID:        s.ID,
			SteamID:   s.SteamID,
			UserID:    s.UserID,
			Timestamp: s.Timestamp.UTC().Format(time.RFC3339),
		}
	}
	c.JSON(http.StatusOK, resp)
}
