package http

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"skinvault/internal/domain"
	"skinvault/internal/service"
)

// ProfileFetcher loads a Steam player summary.
type ProfileFetcher interface {
	PlayerSummary(ctx context.Context, steamID string) (*domain.SteamProfile, error)
}

// AssertionVerifier confirms an OpenID positive assertion with the provider.
type AssertionVerifier interface {
	Verify(ctx context.Context, params url.Values) error
}

// Config carries the redirect targets of the login flow and the HTTP edge settings.
type Config struct {
	// PublicURL is this API's external origin; the OpenID realm and return_to derive from it.
	PublicURL string
	// AppURL receives the session fragment after a successful login.
	AppURL string
	// LoginURL receives ?error=... on failure.
	LoginURL  string
	OpenIDURL string
	// RequireTicket makes /api/steam-login accept only Steam IDs that came through a
	// verified callback.
	RequireTicket      bool
	CORSOrigins        []string
	LoginRatePerMinute int
}

type Services struct {
	Accounts   service.AccountService
	Sessions   service.SessionService
	Inventory  service.InventoryService
	Catalog    service.CatalogService
	Collection service.CollectionService
	Profiles   ProfileFetcher
	// Verifier is nil when assertion verification is disabled.
	Verifier AssertionVerifier
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	cfg        Config
	accounts   service.AccountService
	sessions   service.SessionService
	inventory  service.InventoryService
	catalog    service.CatalogService
	collection service.CollectionService
	profiles   ProfileFetcher
	verifier   AssertionVerifier
	limiter    *LimiterStore
	logger     logrus.FieldLogger
}

func NewHandler(cfg Config, svc Services, logger logrus.FieldLogger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")
	return &Handler{
		cfg:        cfg,
		accounts:   svc.Accounts,
		sessions:   svc.Sessions,
		inventory:  svc.Inventory,
		catalog:    svc.Catalog,
		collection: svc.Collection,
		profiles:   svc.Profiles,
		verifier:   svc.Verifier,
		limiter:    PerMinute(cfg.LoginRatePerMinute),
		logger:     logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware(h.cfg.CORSOrigins))
	router.Use(accessLog(h.logger))

	api := router.Group("/api")
	{
		login := api.Group("", rateLimit(h.limiter))
		login.GET("/auth/steam", h.beginSteamLogin)
		login.GET("/auth/callback", h.steamCallback)
		login.GET("/steam-login", h.completeSteamLogin)
		login.POST("/auth/refresh", h.refreshSession)
		login.POST("/auth/logout", h.logout)

		api.GET("/skins", h.searchSkins)
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})

		authed := api.Group("", h.requireAuth())
		authed.GET("/me", h.me)
		authed.POST("/inventory", h.getInventory)
		authed.GET("/inventory/:steamId/history", h.inventoryHistory)
		authed.POST("/catalog/sync", h.syncCatalog)
		authed.GET("/collection", h.listCollection)
		authed.POST("/collection", h.addCollectionEntry)
		authed.GET("/collection/stats", h.collectionStats)
		authed.PATCH("/collection/:id", h.updateCollectionEntry)
		authed.DELETE("/collection/:id", h.removeCollectionEntry)

		admin := authed.Group("/admin", h.requireAdmin())
		admin.POST("/skins/import", h.importSkins)
		admin.GET("/users", h.listUsers)
		admin.PUT("/users/:id/admin", h.setUserAdmin)
		admin.GET("/catalog/archives", h.listArchives)
	}
}

const upstreamErrorMessage = "Steam or the catalog source is not responding, please try again later"

// writeError maps domain sentinels to status codes with a {"error": msg} body.
func (h *Handler) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrUnauthenticated):
		status, msg = http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, domain.ErrForbidden):
		status, msg = http.StatusForbidden, "forbidden"
	case errors.Is(err, domain.ErrNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		msg = upstreamErrorMessage
		h.logger.WithField("path", c.FullPath()).Warnf("upstream call failed: %v", err)
	default:
		h.logger.WithField("path", c.FullPath()).Errorf("unhandled error: %v", err)
	}
	c.JSON(status, gin.H{"error": msg})
}
