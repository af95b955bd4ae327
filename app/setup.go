package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sahilchouksey/eduplatform-api/api"
	"github.com/sahilchouksey/eduplatform-api/config"
	"github.com/sahilchouksey/eduplatform-api/database"
	"github.com/sahilchouksey/eduplatform-api/router"
	"github.com/sahilchouksey/eduplatform-api/services"
	"github.com/sahilchouksey/eduplatform-api/services/cron"
	"github.com/sahilchouksey/eduplatform-api/services/mail"
	"github.com/sahilchouksey/eduplatform-api/services/notify"
	"github.com/sahilchouksey/eduplatform-api/services/storage"
	"github.com/sahilchouksey/eduplatform-api/utils/auth"
	"github.com/sahilchouksey/eduplatform-api/utils/cache"
	"github.com/sahilchouksey/eduplatform-api/utils/logger"
)

// shutdownTimeout bounds the whole graceful stop
const shutdownTimeout = 30 * time.Second

func SetupAndRunServer() error {

	// Load ENV
	if err := config.LoadENV(); err != nil {
		return err
	}

	getEnv, err := config.Get()
	if err != nil {
		return err
	}

	log, err := logger.New(getEnv.GO_ENV)
	if err != nil {
		return err
	}
	defer log.Sync()

	if getEnv.JWT_SECRET == "" {
		return errors.New("JWT_SECRET environment variable is not set")
	}

	// Initialize GORM database connection
	store, err := database.StartGORM(getEnv, log)
	if err != nil {
		log.Error("check whether postgres is running, e.g. make docker-up")
		return err
	}

	if getEnv.DB_AUTO_MIGRATE {
		if err := store.Init(); err != nil {
			store.Close()
			return err
		}
	}

	objectStore, err := newObjectStore(getEnv, log)
	if err != nil {
		store.Close()
		return err
	}

	redisCache := connectRedis(getEnv, log)

	// Notification pipeline: sender, dispatcher workers, fan-out service
	dispatcher := notify.New(store.DB(), mail.NewSender(getEnv, log), log, notify.Config{
		Workers:     getEnv.NOTIFY_WORKERS,
		QueueSize:   getEnv.NOTIFY_QUEUE_SIZE,
		MaxAttempts: getEnv.NOTIFY_MAX_ATTEMPTS,
	})
	dispatcher.Start()
	notificationService := services.NewNotificationService(store.DB(), dispatcher, log)

	// Initialize Cron Manager (only if enabled via environment variable)
	var cronManager *cron.CronManager
	if getEnv.CRON_ENABLED {
		cronManager = cron.NewCronManager(store.DB(), log, cron.Deps{
			Deliveries:    dispatcher,
			Blacklist:     auth.NewBlacklistService(store.DB()),
			Notifications: notificationService,
		})
		if err := cronManager.Start(); err != nil {
			// Don't fail the app, just log the warning
			log.Warn("failed to start cron jobs", "error", err)
			cronManager = nil
		}
	}

	// Init API
	server := api.NewAPIServer(fmt.Sprintf(":%d", getEnv.PORT), log)

	router.SetupRoutes(server.GetEngine(), store, router.Deps{
		Env:           getEnv,
		Log:           log,
		JWT:           router.NewJWTManager(getEnv),
		Cache:         redisCache,
		ObjectStore:   objectStore,
		Notifications: notificationService,
		RateLimit:     100,
	})

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Run()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case runErr = <-serverErr:
		log.Error("api server stopped", "error", runErr)
	case sig := <-quit:
		log.Info("shutdown signal received", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// HTTP first so no new work arrives, then drain mail, then jobs, then the DB
	if err := server.Shutdown(ctx); err != nil {
		log.Warn("api server shutdown", "error", err)
	}
	if err := dispatcher.Shutdown(ctx); err != nil {
		log.Warn("dispatcher shutdown", "error", err)
	}
	if cronManager != nil {
		if err := cronManager.Stop(ctx); err != nil {
			log.Warn("cron shutdown", "error", err)
		}
	}
	if redisCache != nil {
		redisCache.Close()
	}
	if err := store.Close(); err != nil {
		log.Warn("database close", "error", err)
	}

	log.Info("shutdown complete")
	return runErr
}

// connectRedis returns nil when Redis is not configured or unreachable.
// Brute force protection and read caching are disabled in that case.
func connectRedis(env *config.EnviornmentVariable, log *logger.Logger) *cache.RedisCache {
	if env.REDIS_URL == "" {
		log.Warn("REDIS_URL not set, brute force protection and caching disabled")
		return nil
	}

	redisCache, err := cache.NewRedisCache(env.REDIS_URL)
	if err != nil {
		log.Warn("failed to connect to redis, brute force protection and caching disabled", "error", err)
		return nil
	}
	return redisCache
}

// newObjectStore uses S3 when credentials are present and an in-memory store otherwise
func newObjectStore(env *config.EnviornmentVariable, log *logger.Logger) (storage.ObjectStore, error) {
	cfg := storage.Config{
		AccessKey:      env.STORAGE_ACCESS_KEY,
		SecretKey:      env.STORAGE_SECRET_KEY,
		Region:         env.STORAGE_REGION,
		Endpoint:       env.STORAGE_ENDPOINT,
		CDNURL:         env.STORAGE_CDN_URL,
		ForcePathStyle: env.STORAGE_FORCE_PATH_STYLE,
		PublicBuckets:  []string{storage.CourseFiles},
		BucketNames: map[string]string{
			storage.CourseFiles:     env.STORAGE_COURSE_BUCKET,
			storage.SubmissionFiles: env.STORAGE_SUBMISSION_BUCKET,
		},
	}

	if !cfg.Configured() {
		if env.IsProduction() {
			return nil, errors.New("STORAGE_ACCESS_KEY and STORAGE_SECRET_KEY are required in production")
		}
		log.Warn("object storage not configured, files are kept in memory")
		return storage.NewMemoryStore(fmt.Sprintf("http://localhost:%d/files", env.PORT)), nil
	}

	s3Store, err := storage.NewS3Store(cfg)
	if err != nil {
		return nil, err
	}
	log.Info("object storage configured", "endpoint", env.STORAGE_ENDPOINT, "region", env.STORAGE_REGION)
	return s3Store, nil
}
