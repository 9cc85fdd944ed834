package http

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"skinvault/internal/domain"
	"skinvault/internal/steam"
)

func (h *Handler) beginSteamLogin(c *gin.Context) {
	returnTo := h.cfg.PublicURL + "/api/auth/callback"
	c.Redirect(http.StatusFound, steam.LoginURL(h.cfg.OpenIDURL, returnTo, h.cfg.PublicURL))
}

func (h *Handler) steamCallback(c *gin.Context) {
	query := c.Request.URL.Query()

	if h.verifier != nil {
		if err := h.verifier.Verify(c.Request.Context(), query); err != nil {
			h.loginFailed(c, err)
			return
		}
	}

	steamID, err := steam.ResolveClaimedID(steam.ClaimedID(query))
	if err != nil {
		h.loginFailed(c, err)
		return
	}

	next := url.Values{}
	next.Set("steamid", steamID)
	ticket, err := h.sessions.LoginTicket(steamID)
	if err != nil {
		h.loginFailed(c, err)
		return
	}
	next.Set("ticket", ticket)
	c.Redirect(http.StatusFound, h.cfg.PublicURL+"/api/steam-login?"+next.Encode())
}

func (h *Handler) completeSteamLogin(c *gin.Context) {
	steamID := strings.TrimSpace(c.Query("steamid"))
	if steamID == "" {
		h.loginFailed(c, domain.ErrMissingIdentifier)
		return
	}
	if h.cfg.RequireTicket {
		if err := h.sessions.VerifyLoginTicket(c.Query("ticket"), steamID); err != nil {
			h.loginFailed(c, err)
			return
		}
	}

	ctx := c.Request.Context()
	profile, err := h.profiles.PlayerSummary(ctx, steamID)
	if err != nil {
		h.loginFailed(c, err)
		return
	}
	user, err := h.accounts.Provision(ctx, steamID, profile)
	if err != nil {
		h.loginFailed(c, err)
		return
	}
	pair, err := h.sessions.Issue(ctx, user)
	if err != nil {
		h.loginFailed(c, err)
		return
	}

	// the fragment survives the redirect without reaching server logs
	fragment := url.Values{}
	fragment.Set("access_token", pair.AccessToken)
	fragment.Set("refresh_token", pair.RefreshToken)
	fragment.Set("expires_in", strconv.Itoa(int(pair.ExpiresIn.Seconds())))
	fragment.Set("token_type", "bearer")

	h.logger.WithField("user_id", user.ID).Info("steam login completed")
	c.Redirect(http.StatusFound, strings.SplitN(h.cfg.AppURL, "#", 2)[0]+"#"+fragment.Encode())
}

func (h *Handler) loginFailed(c *gin.Context, err error) {
	h.logger.WithField("path", c.FullPath()).Warnf("steam login failed: %v", err)

	target, parseErr := url.Parse(h.cfg.LoginURL)
	if parseErr != nil || h.cfg.LoginURL == "" {
		c.JSON(http.StatusBadGateway, gin.H{"error": loginErrorMessage(err)})
		return
	}
	q := target.Query()
	q.Set("error", loginErrorMessage(err))
	target.RawQuery = q.Encode()
	c.Redirect(http.StatusFound, target.String())
}

func loginErrorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrMissingIdentifier):
		return "Steam did not return an account identifier"
	case errors.Is(err, domain.ErrMalformedIdentifier):
		return "Steam returned an unreadable account identifier"
	case errors.Is(err, domain.ErrProfileNotFound):
		return "Steam profile not found"
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return "Steam is not responding, please try again"
	default:
		return "Login failed, please try again"
	}
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

func (h *Handler) refreshSession(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pair, err := h.sessions.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    int(pair.ExpiresIn.Seconds()),
		TokenType:    "bearer",
	})
}

func (h *Handler) logout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.sessions.Revoke(c.Request.Context(), req.RefreshToken); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) me(c *gin.Context) {
	principal := principalFrom(c)
	user, err := h.accounts.GetByID(c.Request.Context(), principal.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			err = domain.ErrUnauthenticated
		}
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(*user))
}
