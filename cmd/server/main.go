package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"barbershop_backend/internal/cache"
	"barbershop_backend/internal/config"
	"barbershop_backend/internal/database"
	"barbershop_backend/internal/router"
	"barbershop_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize Logger
	utils.InitLogger(cfg.Log.Level, cfg.Log.JSON)
	gin.SetMode(cfg.Server.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Database
	db, err := database.InitDB(ctx, database.Options{
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Name:         cfg.Database.Name,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		ApplySchema:  cfg.Database.ApplySchema,
	})
	if err != nil {
		utils.LogError(err, "Failed to initialize database")
		os.Exit(1)
	}
	defer db.Close()

	var rewardCache *cache.RewardCache
	if cfg.Redis.Enabled {
		rewardCache, err = cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			time.Duration(cfg.Redis.TTLSeconds)*time.Second)
		if err != nil {
			utils.LogWarn("Redis unavailable, reward catalog cache disabled", map[string]interface{}{"addr": cfg.Redis.Addr, "error": err.Error()})
		}
		defer rewardCache.Close()
	}

	tokens := utils.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, time.Duration(cfg.JWT.ExpirationHours)*time.Hour)
	engine := router.New(router.Build(db, rewardCache, cfg, tokens), tokens, cfg.Server.CorsAllowedOrigins)

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.LogInfo("Server starting", map[string]interface{}{"port": cfg.Server.Port})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.LogError(err, "Failed to start server")
			stop()
		}
	}()

	<-ctx.Done()
	utils.LogInfo("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.LogError(err, "Server forced to shutdown")
	}
}
