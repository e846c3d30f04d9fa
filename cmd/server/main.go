package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/maheshrc27/portal-social/configs"
	"github.com/maheshrc27/portal-social/internal/api/handlers"
	"github.com/maheshrc27/portal-social/internal/api/middleware"
	"github.com/maheshrc27/portal-social/internal/database"
	job "github.com/maheshrc27/portal-social/internal/jobs"
	"github.com/maheshrc27/portal-social/internal/lock"
	"github.com/maheshrc27/portal-social/internal/logging"
	"github.com/maheshrc27/portal-social/internal/models"
	"github.com/maheshrc27/portal-social/internal/platform"
	"github.com/maheshrc27/portal-social/internal/queue"
	"github.com/maheshrc27/portal-social/internal/repository"
	"github.com/maheshrc27/portal-social/internal/service"
	"github.com/maheshrc27/portal-social/pkg/utils"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	slog.SetDefault(logging.New(cfg.LogLevel))

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	cipher, err := utils.NewTokenCipher(cfg.TokenEncryptionKey)
	if err != nil {
		log.Fatalf("Failed to set up token encryption: %v", err)
	}

	socialAccountRepo := repository.NewSocialAccountRepository(db, cipher)
	publishLogRepo := repository.NewPublishLogRepository(db)
	contentRepo := repository.NewContentRepository(db)

	httpClient := platform.NewHTTPClient()
	facebook := platform.NewFacebookClient(platform.Config{
		AppID:        cfg.FacebookAppID,
		AppSecret:    cfg.FacebookAppSecret,
		RedirectURI:  cfg.FacebookRedirectURI,
		GraphVersion: cfg.GraphAPIVersion,
		RateLimit:    cfg.GraphRateLimit,
		HTTPClient:   httpClient,
	})
	instagram := platform.NewInstagramClient(platform.Config{
		AppID:        cfg.InstagramClientID,
		AppSecret:    cfg.InstagramClientSecret,
		RedirectURI:  cfg.InstagramRedirectURI,
		GraphVersion: cfg.GraphAPIVersion,
		RateLimit:    cfg.GraphRateLimit,
		HTTPClient:   httpClient,
	}, utils.PollPolicy{MaxAttempts: cfg.InstagramPollAttempts, Interval: cfg.InstagramPollInterval})

	registry := platform.NewRegistry(
		platform.Registration{Client: facebook, Compose: platform.ComposeFeedPost},
		platform.Registration{Client: instagram, Compose: platform.ComposeImagePost, StageMedia: true},
	)

	var (
		rdb          *redis.Client
		locker       lock.AccountLocker = lock.NewLocal()
		asynqClient  *asynq.Client
		asynqServer  *asynq.Server
		publishQueue queue.Enqueuer
	)
	if cfg.RedisURI != "" {
		opt, err := redis.ParseURL(cfg.RedisURI)
		if err != nil {
			log.Fatalf("Invalid REDIS_URI: %v", err)
		}
		rdb = redis.NewClient(opt)
		locker = lock.NewRedis(rdb)

		redisConn, err := asynq.ParseRedisURI(cfg.RedisURI)
		if err != nil {
			log.Fatalf("Invalid REDIS_URI for asynq: %v", err)
		}
		asynqClient = asynq.NewClient(redisConn)
		asynqServer = asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})
		publishQueue = asynqClient
	} else {
		log.Println("REDIS_URI not set: using in-process account locks, async publishing disabled")
	}

	var store service.ObjectStore
	if cfg.R2.Enabled() {
		r2Service, err := service.NewR2Service(context.Background(), cfg.R2)
		if err != nil {
			log.Fatalf("Failed to set up R2: %v", err)
		}
		store = r2Service
	}

	tokenService := service.NewTokenService(socialAccountRepo, registry, locker)
	mediaService := service.NewMediaService(store, httpClient)
	publishService := service.NewPublishService(contentRepo, socialAccountRepo, publishLogRepo, tokenService, registry, mediaService)
	connectService := service.NewConnectService(socialAccountRepo, registry, utils.NewStateIssuer(cfg.SecretKey))

	app := fiber.New(fiber.Config{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	platformHandler := handlers.NewPlatformHandler(connectService, *cfg)
	app.Get("/auth/:platform/callback", platformHandler.CallbackHandler)

	webhook := handlers.NewWebhookHandler(registry, map[models.Platform]string{
		models.PlatformFacebook:  cfg.FacebookWebhookVerifyToken,
		models.PlatformInstagram: cfg.InstagramWebhookVerifyToken,
	})
	app.Get("/webhooks/:platform", webhook.VerifySubscription)
	app.Post("/webhooks/:platform", webhook.Receive)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	// social accounts api routes
	api.Get("/accounts", platformHandler.ListSocialAccounts)
	api.Get("/accounts/:platform/connect", platformHandler.ConnectAccount)
	api.Post("/accounts/:platform/token", platformHandler.ManualToken)
	api.Post("/accounts/:platform/disconnect", platformHandler.DisconnectAccount)

	publish := handlers.NewPublishHandler(publishService, publishQueue)
	api.Post("/content/:id/publish", publish.Publish)
	api.Get("/content/:id/publish-log", publish.PublishLog)

	// cron jobs
	refreshTokenJob := job.NewTokenRefreshJob(tokenService)

	c := cron.New()
	if err := c.AddFunc("@every 01h00m00s", refreshTokenJob.RefreshTokens); err != nil {
		log.Fatalf("Failed to schedule token refresh: %v", err)
	}
	c.Start()
	go refreshTokenJob.RefreshTokens()

	//queue
	if asynqServer != nil {
		queueW := queue.NewQueue(publishService)

		go func() {
			mux := asynq.NewServeMux()
			mux.HandleFunc(queue.TaskTypePublishContent, queueW.HandlePublishContentTask)

			log.Println("Starting the Asynq server...")
			if err := asynqServer.Run(mux); err != nil {
				log.Fatalf("Could not start Asynq server: %v", err)
			}
		}()
	}

	go func() {
		if err := app.Listen(cfg.HTTPAddr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on %s", cfg.HTTPAddr)

	gracefulShutdown(app, func() {
		c.Stop()
		if asynqServer != nil {
			asynqServer.Shutdown()
		}
		if asynqClient != nil {
			asynqClient.Close()
		}
		if rdb != nil {
			rdb.Close()
		}
		closeDB(db)
	})
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, cleanup func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		log.Printf("Failed to shut down server: %v", err)
	}

	cleanup()
	log.Println("Server shutdown complete.")
}
