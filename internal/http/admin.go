package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"skinvault/internal/domain"
)

// importSkins accepts either a bare JSON array or {"skins": [...]}.
func (h *Handler) importSkins(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rows, err := decodeSkinImport(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be a JSON array of skins or {\"skins\": [...]}"})
		return
	}

	skins := make([]domain.Skin, len(rows))
	for i, r := range rows {
		skins[i] = r.toDomain()
	}
	n, err := h.catalog.Import(c.Request.Context(), skins)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "imported_count": n})
}

func (h *Handler) listUsers(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	users, err := h.accounts.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.writeError(c, err)
		return
	}
	resp := make([]UserResponse, len(users))
	for i, u := range users {
		resp[i] = userToResponse(u)
	}
	c.JSON(http.StatusOK, resp)
}

type setAdminRequest struct {
	IsAdmin *bool `json:"is_admin" binding:"required"`
}

func (h *Handler) setUserAdmin(c *gin.Context) {
	var req setAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "is_admin is required"})
		return
	}

	user, err := h.accounts.SetAdmin(c.Request.Context(), c.Param("id"), *req.IsAdmin)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(*user))
}

func (h *Handler) listArchives(c *gin.Context) {
	archives, err := h.catalog.Archives(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	resp := make([]ArchiveResponse, len(archives))
	for i, a := range archives {
		resp[i] = archiveToResponse(a)
	}
	c.JSON(http.StatusOK, resp)
}

func decodeSkinImport(raw []byte) ([]SkinRequest, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errors.New("empty body")
	}
	if raw[0] == '[' {
		var rows []SkinRequest
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, err
		}
		return rows, nil
	}
	var wrapped struct {
		Skins []SkinRequest `json:"skins"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Skins, nil
}
