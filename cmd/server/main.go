package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"gym_sales_backend/internal/config"
	"gym_sales_backend/internal/database"
	"gym_sales_backend/internal/repositories"
	"gym_sales_backend/internal/router"
	"gym_sales_backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.InitLogger("info", true)
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize Logger
	utils.InitLogger(cfg.LogLevel, !cfg.IsProduction())
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("Failed to open store")
	}
	defer closeStore()

	tokens, err := utils.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure token manager")
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(utils.RequestID())
	engine.Use(utils.GinLogger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", utils.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{utils.RequestIDHeader}
	corsConfig.AllowCredentials = true
	engine.Use(cors.New(corsConfig))

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	router.Setup(engine, router.Dependencies{
		Store:                 store,
		Tokens:                tokens,
		BusinessLocation:      cfg.BusinessLocation,
		SaleNumberMaxAttempts: cfg.SaleNumberMaxAttempts,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.LogInfo("Server starting", map[string]interface{}{
			"port": cfg.Port, "env": cfg.Env, "store": cfg.StoreDriver, "timezone": cfg.BusinessLocation.String(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	utils.LogInfo("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.LogError(err, "Graceful shutdown failed")
	}
}

// openStore builds the configured TxRunner and the function that releases it.
func openStore(ctx context.Context, cfg config.Config) (repositories.TxRunner, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		store := repositories.NewMemoryStore()
		if err := seedDemoData(store); err != nil {
			return nil, nil, err
		}
		utils.LogWarn("Using in-memory store, data is lost on restart")
		return store, func() {}, nil
	default:
		db, err := database.Open(ctx, cfg.DB)
		if err != nil {
			return nil, nil, err
		}
		if err := database.ApplySchema(ctx, db, cfg.DB.SchemaPath); err != nil {
			db.Close()
			return nil, nil, err
		}
		utils.LogInfo("Database initialized", map[string]interface{}{"host": cfg.DB.Host, "name": cfg.DB.Name})
		return repositories.NewPostgresStore(db, cfg.DB.TxTimeout), func() { db.Close() }, nil
	}
}
