package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"skinvault/internal/catalog"
	"skinvault/internal/config"
	apphttp "skinvault/internal/http"
	"skinvault/internal/repository"
	"skinvault/internal/repository/sqlite"
	"skinvault/internal/service"
	"skinvault/internal/skincache"
	"skinvault/internal/steam"
	"skinvault/internal/storage"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warnf("unknown log level %q, using info", cfg.Log.Level)
	}

	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		logger.Fatalf("auth jwt secret is required")
	}
	if strings.TrimSpace(cfg.Steam.APIKey) == "" {
		logger.Warn("steam api key is empty, profile lookups will fail")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	userRepo := sqlite.NewUserRepository(db)
	sessionRepo := sqlite.NewSessionRepository(db)
	snapshotRepo := sqlite.NewSnapshotRepository(db)
	skinRepo := sqlite.NewSkinRepository(db)
	collectionRepo := sqlite.NewCollectionRepository(db)
	if err := sqlite.InitAll(ctx, userRepo, sessionRepo, snapshotRepo, skinRepo, collectionRepo); err != nil {
		logger.Fatalf("init repositories: %v", err)
	}

	steamClient := steam.NewClient(steam.ClientConfig{
		APIKey:       cfg.Steam.APIKey,
		APIBaseURL:   cfg.Steam.APIBaseURL,
		CommunityURL: cfg.Steam.CommunityURL,
		Timeout:      cfg.Steam.Timeout,
	})
	var verifier apphttp.AssertionVerifier
	if cfg.Steam.VerifyAssertion {
		verifier = steam.NewVerifier(cfg.Steam.OpenIDURL, steamClient.HTTPClient())
		logger.Info("steam openid assertions are verified")
	}

	cache, err := buildCache(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup cache: %v", err)
	}

	catalogCfg := service.CatalogConfig{
		Cache:      cache,
		ArchiveTTL: cfg.Storage.URLTTL,
		Logger:     logger.WithField("component", "catalog"),
	}
	storageSvc, err := buildStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup storage: %v", err)
	}
	if archive := storage.NewDatasetArchive(storageSvc, cfg.Storage.Bucket, cfg.Storage.KeyPrefix, cfg.Storage.KeepArchives); archive != nil {
		catalogCfg.Archive = archive
	}

	sessionService, err := service.NewSessionService(sessionRepo, userRepo, service.SessionConfig{
		Secret:     []byte(cfg.Auth.JWTSecret),
		AccessTTL:  cfg.Auth.AccessTokenTTL,
		RefreshTTL: cfg.Auth.RefreshTokenTTL,
	})
	if err != nil {
		logger.Fatalf("setup sessions: %v", err)
	}

	services := apphttp.Services{
		Accounts: service.NewAccountService(userRepo, logger.WithField("component", "accounts")),
		Sessions: sessionService,
		Inventory: service.NewInventoryService(snapshotRepo, steamClient, service.InventoryConfig{
			FreshFor: cfg.Inventory.FreshFor,
			Logger:   logger.WithField("component", "inventory"),
		}),
		Catalog: service.NewCatalogService(skinRepo,
			catalog.NewClient(cfg.Catalog.DatasetURL, steam.NewHTTPClient(2*time.Minute)), catalogCfg),
		Collection: service.NewCollectionService(collectionRepo, skinRepo, cache, logger.WithField("component", "collection")),
		Profiles:   steamClient,
		Verifier:   verifier,
	}

	if cfg.Auth.SessionSweep > 0 {
		go sweepSessions(ctx, sessionRepo, cfg.Auth.SessionSweep, logger)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(apphttp.Config{
		PublicURL:          cfg.App.PublicURL,
		AppURL:             cfg.App.BaseURL,
		LoginURL:           cfg.App.LoginURL,
		OpenIDURL:          cfg.Steam.OpenIDURL,
		RequireTicket:      cfg.Steam.VerifyAssertion,
		CORSOrigins:        cfg.Server.CORSOrigins,
		LoginRatePerMinute: cfg.Auth.LoginRatePerMinute,
	}, services, logger)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

// buildCache picks redis when a URL is configured and the in-process store otherwise.
func buildCache(ctx context.Context, cfg config.Config, logger *logrus.Logger) (*skincache.Cache, error) {
	if cfg.Cache.RedisURL == "" {
		logger.Infof("using in-memory skin cache (ttl %s)", cfg.Cache.TTL)
		return skincache.New(skincache.NewMemoryStore(), cfg.Cache.TTL), nil
	}

	client, err := skincache.DialRedis(ctx, cfg.Cache.RedisURL)
	if err != nil {
		return nil, err
	}
	logger.Infof("using redis skin cache (ttl %s)", cfg.Cache.TTL)
	return skincache.New(skincache.NewRedisStore(client, cfg.Cache.Prefix), cfg.Cache.TTL), nil
}

// buildStorage returns nil when no bucket is configured; dataset archiving is then skipped.
func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, error) {
	if cfg.Storage.Bucket == "" {
		logger.Info("no storage bucket configured, dataset archiving disabled")
		return nil, nil
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return storage.NewS3Service(client), nil
}

func sweepSessions(ctx context.Context, sessions repository.SessionRepository, every time.Duration, logger *logrus.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sessions.DeleteExpired(ctx)
			if err != nil {
				logger.Warnf("sweep sessions: %v", err)
				continue
			}
			if n > 0 {
				logger.Debugf("removed %d expired sessions", n)
			}
		}
	}
}
