package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"skinvault/internal/domain"
	"skinvault/internal/service"
)

const dateLayout = "2006-01-02"

type collectionRequest struct {
	SkinID           string   `json:"skin_id"`
	AcquiredDate     *string  `json:"acquired_date"`
	AcquisitionPrice *float64 `json:"acquisition_price"`
	Currency         *string  `json:"currency"`
	Notes            *string  `json:"notes"`
}

// toInput parses acquired_date as YYYY-MM-DD or RFC 3339. An empty string clears the date.
func (r collectionRequest) toInput() (service.CollectionInput, error) {
	in := service.CollectionInput{
		SkinID:           r.SkinID,
		AcquisitionPrice: r.AcquisitionPrice,
		Currency:         r.Currency,
		Notes:            r.Notes,
	}
	if r.AcquiredDate != nil {
		var d time.Time
		if *r.AcquiredDate != "" {
			var err error
			if d, err = time.Parse(dateLayout, *r.AcquiredDate); err != nil {
				if d, err = time.Parse(time.RFC3339, *r.AcquiredDate); err != nil {
					return in, fmt.Errorf("%w: acquired_date must be YYYY-MM-DD", domain.ErrInvalidInput)
				}
			}
		}
		in.AcquiredDate = &d
	}
	return in, nil
}

func (h *Handler) listCollection(c *gin.Context) {
	filter, err := filterFromQuery(c)
	if err != nil {
		h.writeError(c, err)
		return
	}

	page, err := h.collection.List(c.Request.Context(), principalFrom(c).UserID, filter)
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := pageResponse[CollectionEntryResponse]{
		Items:    make([]CollectionEntryResponse, len(page.Items)),
		Total:    page.Total,
		Page:     page.Page,
		PageSize: page.PageSize,
	}
	for i, e := range page.Items {
		resp.Items[i] = entryToResponse(e)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) addCollectionEntry(c *gin.Context) {
	var req collectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	in, err := req.toInput()
	if err != nil {
		h.writeError(c, err)
		return
	}

	entry, err := h.collection.Add(c.Request.Context(), principalFrom(c).UserID, in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entryToResponse(*entry))
}

func (h *Handler) updateCollectionEntry(c *gin.Context) {
	var req collectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	in, err := req.toInput()
	if err != nil {
		h.writeError(c, err)
		return
	}

	entry, err := h.collection.Update(c.Request.Context(), principalFrom(c).UserID, c.Param("id"), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entryToResponse(*entry))
}

func (h *Handler) removeCollectionEntry(c *gin.Context) {
	if err := h.collection.Remove(c.Request.Context(), principalFrom(c).UserID, c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("id")})
}

func (h *Handler) collectionStats(c *gin.Context) {
	stats, err := h.collection.Stats(c.Request.Context(), principalFrom(c).UserID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total_items":       stats.TotalItems,
		"value_by_currency": stats.ValueByCurrency,
		"by_rarity":         stats.ByRarity,
		"by_weapon_type":    stats.ByWeaponType,
		"market_value_usd":  stats.MarketValueUSD,
	})
}
