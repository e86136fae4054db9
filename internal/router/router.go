package router

import (
	"database/sql"
	"net/http"
	"time"

	"barbershop_backend/internal/cache"
	"barbershop_backend/internal/config"
	"barbershop_backend/internal/database"
	"barbershop_backend/internal/handlers"
	"barbershop_backend/internal/loyalty"
	"barbershop_backend/internal/middleware"
	"barbershop_backend/internal/repositories"
	"barbershop_backend/internal/services"
	"barbershop_backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers bundles every HTTP handler the API exposes.
type Handlers struct {
	Auth    *handlers.AuthHandler
	Client  *handlers.ClientHandler
	Loyalty *handlers.LoyaltyHandler
	Visit   *handlers.VisitHandler
	Reward  *handlers.RewardHandler
	Menu    *handlers.MenuHandler
	Barber  *handlers.BarberHandler
	Report  *handlers.ReportHandler
}

// Build wires repositories, services and handlers on top of db. rewardCache may be nil.
func Build(db *sql.DB, rewardCache *cache.RewardCache, cfg *config.Config, tokens *utils.TokenManager) Handlers {
	// Initialize Repositories
	authRepo := repositories.NewAuthRepository(db)
	clientRepo := repositories.NewClientRepository(db)
	barberRepo := repositories.NewBarberRepository(db)
	menuRepo := repositories.NewServiceMenuRepository(db)
	rewardRepo := repositories.NewRewardRepository(db)
	visitRepo := repositories.NewVisitRepository(db)
	reportRepo := repositories.NewReportRepository(db)

	transactor := database.NewTransactor(db)
	policy := loyalty.NewStatusPolicy(cfg.Loyalty.InactivityDays)

	// Initialize Services
	rewardService := services.NewRewardService(rewardRepo, menuRepo, visitRepo, transactor, rewardCache)
	redemptions := services.NewRedemptionProcessor(rewardRepo, visitRepo, barberRepo)
	visitService := services.NewVisitService(clientRepo, barberRepo, menuRepo, rewardRepo, visitRepo, redemptions, transactor,
		services.VisitLedgerConfig{PointsPerVisit: cfg.Loyalty.PointsPerVisit, StatusPolicy: policy}, nil)
	loyaltyService := services.NewLoyaltyService(clientRepo, rewardRepo, visitRepo, rewardService, transactor, policy, nil)
	clientService := services.NewClientService(clientRepo, rewardRepo, transactor, policy, cfg.Loyalty.KeepGoalAfterRedemption, nil)
	authService := services.NewAuthService(authRepo, transactor, tokens)
	barberService := services.NewBarberService(barberRepo, authRepo, transactor)
	menuService := services.NewMenuService(menuRepo, transactor)
	reportService := services.NewReportService(reportRepo, nil)

	// Initialize Handlers
	return Handlers{
		Auth:    handlers.NewAuthHandler(authService),
		Client:  handlers.NewClientHandler(clientService),
		Loyalty: handlers.NewLoyaltyHandler(loyaltyService),
		Visit:   handlers.NewVisitHandler(visitService),
		Reward:  handlers.NewRewardHandler(rewardService),
		Menu:    handlers.NewMenuHandler(menuService),
		Barber:  handlers.NewBarberHandler(barberService),
		Report:  handlers.NewReportHandler(reportService),
	}
}

// New creates the gin engine with the ambient middleware and every route registered.
func New(h Handlers, tokens *utils.TokenManager, allowedOrigins []string) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(utils.GinLogger())
	engine.Use(middleware.Metrics())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = allowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{middleware.RequestIDHeader}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour
	engine.Use(cors.New(corsConfig))

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiV1 := engine.Group("/api/v1")
	SetupPublicAuthRoutes(apiV1.Group("/auth"), h.Auth)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware(tokens))
	{
		SetupAuthenticatedAuthRoutes(authenticated.Group("/auth"), h.Auth)
		SetupClientRoutes(authenticated, h.Client, h.Loyalty, h.Visit)
		SetupVisitRoutes(authenticated, h.Visit)
		SetupRewardRoutes(authenticated, h.Reward)
		SetupMenuRoutes(authenticated, h.Menu)
		SetupBarberRoutes(authenticated, h.Barber)
		SetupReportRoutes(authenticated, h.Report)
	}
	return engine
}
