package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/serenadecraft/serenade-backend/api/routes"
	internalassets "github.com/serenadecraft/serenade-backend/internal/assets"
	internalauth "github.com/serenadecraft/serenade-backend/internal/auth"
	"github.com/serenadecraft/serenade-backend/internal/events"
	internallyrics "github.com/serenadecraft/serenade-backend/internal/lyrics"
	internalorders "github.com/serenadecraft/serenade-backend/internal/orders"
	"github.com/serenadecraft/serenade-backend/internal/pricing"
	"github.com/serenadecraft/serenade-backend/internal/songs"
	"github.com/serenadecraft/serenade-backend/internal/users"
	"github.com/serenadecraft/serenade-backend/pkg/auth/session"
	"github.com/serenadecraft/serenade-backend/pkg/config"
	"github.com/serenadecraft/serenade-backend/pkg/db"
	"github.com/serenadecraft/serenade-backend/pkg/logger"
	"github.com/serenadecraft/serenade-backend/pkg/metrics"
	"github.com/serenadecraft/serenade-backend/pkg/migrate"
	"github.com/serenadecraft/serenade-backend/pkg/openai"
	"github.com/serenadecraft/serenade-backend/pkg/pubsub"
	"github.com/serenadecraft/serenade-backend/pkg/redis"
	"github.com/serenadecraft/serenade-backend/pkg/storage/gcs"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx := context.Background()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	gcsClient, err := gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap gcs", err)
		os.Exit(1)
	}
	defer gcsClient.Close()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer pubsubClient.Close()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(ctx, "failed to create session manager", err)
		os.Exit(1)
	}

	hints := events.NewHintPublisher(pubsubClient.ChangesPublisher(), logg)
	cleanup := events.NewCleanupPublisher(pubsubClient.CleanupPublisher(), logg)

	calculator, err := pricing.NewCalculator(cfg.Pricing)
	if err != nil {
		logg.Error(ctx, "failed to build pricing calculator", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()
	usersRepo := users.NewRepository(gormDB)
	songsRepo := songs.NewRepository(gormDB)
	ordersRepo := internalorders.NewRepository(gormDB)
	lyricsRepo := internallyrics.NewRepository(gormDB)
	assetsRepo := internalassets.NewRepository(gormDB)

	authService, err := internalauth.NewService(internalauth.ServiceParams{
		UserRepo:       usersRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(ctx, "failed to create auth service", err)
		os.Exit(1)
	}

	registerService, err := internalauth.NewRegisterService(internalauth.RegisterServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(ctx, "failed to create register service", err)
		os.Exit(1)
	}

	ordersService, err := internalorders.NewService(internalorders.ServiceParams{
		TxRunner: dbClient,
		Repo:     ordersRepo,
		Songs:    songsRepo,
		Pricing:  calculator,
		Signer:   gcsClient,
		Hints:    hints,
		GCS:      cfg.GCS,
	})
	if err != nil {
		logg.Error(ctx, "failed to create orders service", err)
		os.Exit(1)
	}

	adminOrders, err := internalorders.NewAdminService(internalorders.AdminServiceParams{
		TxRunner: dbClient,
		Repo:     ordersRepo,
		Songs:    songsRepo,
		Hints:    hints,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create admin orders service", err)
		os.Exit(1)
	}

	openaiClient, err := openai.NewClient(cfg.OpenAI)
	if err != nil {
		logg.Error(ctx, "failed to create openai client", err)
		os.Exit(1)
	}

	lyricsService, err := internallyrics.NewService(internallyrics.ServiceParams{
		TxRunner:  dbClient,
		Orders:    ordersRepo,
		Songs:     songsRepo,
		Slots:     lyricsRepo,
		Completer: openaiClient,
		Admins:    usersRepo,
		Hints:     hints,
	})
	if err != nil {
		logg.Error(ctx, "failed to create lyrics service", err)
		os.Exit(1)
	}

	assetsService, err := internalassets.NewService(internalassets.ServiceParams{
		TxRunner: dbClient,
		Repo:     assetsRepo,
		Orders:   ordersRepo,
		Store:    gcsClient,
		Cleanup:  cleanup,
		Hints:    hints,
		GCS:      cfg.GCS,
	})
	if err != nil {
		logg.Error(ctx, "failed to create assets service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	startCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(startCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:           cfg,
			Logger:           logg,
			DB:               dbClient,
			Redis:            redisClient,
			GCS:              gcsClient,
			IdempotencyStore: redisClient,
			SessionManager:   sessionManager,
			AuthService:      authService,
			RegisterService:  registerService,
			OrdersService:    ordersService,
			AdminOrders:      adminOrders,
			LyricsService:    lyricsService,
			AssetsService:    assetsService,
			HTTPMetrics:      httpMetrics,
			Registry:         registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(startCtx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
