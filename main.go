package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/inkdesk/commission-api/config"
	"github.com/inkdesk/commission-api/models"
	"github.com/inkdesk/commission-api/services"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	config.SetConfig(cfg)
	config.NewLogger(cfg)

	log.Info().Str("env", cfg.GoEnv).Msg("starting Commission Desk API server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to database
	if err := config.ConnectDatabase(cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Auto-migrate database models
	db := config.GetDB()
	if err := models.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}
	log.Info().Msg("database migration completed successfully")

	if err := services.Seed(ctx, db, cfg.ArtistUsername, cfg.ArtistPassword); err != nil {
		log.Fatal().Err(err).Msg("failed to seed initial data")
	}

	redisClient, err := initServices(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize services")
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := setupRouter(cfg)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("server is running")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}

// initServices wires storage, Redis and mail according to the configuration.
// The Redis client is returned so it can be closed on shutdown; it is nil when
// Redis is not configured.
func initServices(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	var store services.FileStore
	switch cfg.StorageBackend {
	case "s3":
		s3Store, err := services.NewS3Store(ctx, cfg)
		if err != nil {
			return nil, err
		}
		store = s3Store
		log.Info().Str("bucket", cfg.AWSS3Bucket).Msg("storing attachments in S3")
	default:
		store = services.NewLocalStore(cfg.UploadDir)
		log.Info().Str("dir", cfg.UploadDir).Msg("storing attachments on local disk")
	}
	services.InitAttachmentService(store)

	if cfg.MailEnabled() {
		services.SetNotifier(services.NewMailNotifier(cfg))
		log.Info().Str("host", cfg.SMTPHost).Msg("customer notifications enabled")
	}

	if !cfg.RedisEnabled() {
		log.Warn().Msg("REDIS_ADDR not set: logout revocation and catalog caching disabled")
		return nil, nil
	}

	client, err := services.NewRedisClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	services.SetTokenBlacklist(services.NewRedisTokenBlacklist(client))
	services.SetCache(services.NewRedisCache(client))
	return client, nil
}
