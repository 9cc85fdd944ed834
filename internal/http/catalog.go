package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"skinvault/internal/domain"
)

// filterFromQuery reads page, pageSize, search, rarity and weaponType.
func filterFromQuery(c *gin.Context) (domain.SkinFilter, error) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("pageSize", "24"))
	f := domain.SkinFilter{
		Page:       page,
		PageSize:   size,
		Search:     c.Query("search"),
		WeaponType: c.Query("weaponType"),
	}
	if r := c.Query("rarity"); r != "" {
		rarity, err := domain.ParseRarity(r)
		if err != nil {
			return f, err
		}
		f.Rarity = rarity
	}
	return f.Normalize(), nil
}

func (h *Handler) searchSkins(c *gin.Context) {
	filter, err := filterFromQuery(c)
	if err != nil {
		h.writeError(c, err)
		return
	}

	page, err := h.catalog.Search(c.Request.Context(), filter)
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := pageResponse[SkinResponse]{
		Items:    make([]SkinResponse, len(page.Items)),
		Total:    page.Total,
		Page:     page.Page,
		PageSize: page.PageSize,
	}
	for i, s := range page.Items {
		resp.Items[i] = skinToResponse(s)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) syncCatalog(c *gin.Context) {
	res, err := h.catalog.Sync(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	if res.ExistingCount > 0 {
		c.JSON(http.StatusOK, gin.H{"success": res.Success, "existing_count": res.ExistingCount})
		return
	}
	body := gin.H{"success": res.Success, "imported_count": res.ImportedCount}
	if res.Skipped > 0 {
		body["skipped_count"] = res.Skipped
	}
	c.JSON(http.StatusOK, body)
}
