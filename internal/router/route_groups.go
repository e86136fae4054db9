package router

import (
	"barbershop_backend/internal/handlers"
	"barbershop_backend/internal/middleware"
	"barbershop_backend/internal/models"

	"github.com/gin-gonic/gin"
)

var (
	adminOnly = middleware.RoleAuthMiddleware(models.RoleAdmin)
	staff     = middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleBarber)
)

// SetupPublicAuthRoutes registers the unauthenticated auth routes.
func SetupPublicAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.POST("/login", authHandler.LoginUser)
}

// SetupAuthenticatedAuthRoutes registers the auth routes that need a token.
func SetupAuthenticatedAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.POST("/logout", authHandler.LogoutUser)
	group.GET("/me", authHandler.GetCurrentUser)
	group.POST("/register", adminOnly, authHandler.RegisterUser)
}

// SetupClientRoutes sets up the client routes, including loyalty progress and visit history.
func SetupClientRoutes(authenticatedGroup *gin.RouterGroup, clientHandler *handlers.ClientHandler,
	loyaltyHandler *handlers.LoyaltyHandler, visitHandler *handlers.VisitHandler) {
	clientRoutes := authenticatedGroup.Group("/clients")
	clientRoutes.Use(staff)
	{
		clientRoutes.POST("", clientHandler.CreateClient)
		clientRoutes.GET("", clientHandler.GetClients)
		clientRoutes.GET("/:id", clientHandler.GetClientByID)
		clientRoutes.PUT("/:id", clientHandler.UpdateClient)
		clientRoutes.POST("/:id/deactivate", clientHandler.DeactivateClient)
		clientRoutes.POST("/:id/reactivate", clientHandler.ReactivateClient)

		clientRoutes.GET("/:id/loyalty", loyaltyHandler.GetProgress)
		clientRoutes.PUT("/:id/loyalty/goal", loyaltyHandler.SelectReward)
		clientRoutes.DELETE("/:id/loyalty/goal", loyaltyHandler.ClearReward)

		clientRoutes.GET("/:id/visits", visitHandler.GetClientVisits)
	}
}

// SetupVisitRoutes sets up the visit ledger routes.
func SetupVisitRoutes(authenticatedGroup *gin.RouterGroup, visitHandler *handlers.VisitHandler) {
	visitRoutes := authenticatedGroup.Group("/visits")
	visitRoutes.Use(staff)
	{
		visitRoutes.POST("", visitHandler.RecordVisit)
		visitRoutes.GET("/:id", visitHandler.GetVisitByID)
	}
}

// SetupRewardRoutes sets up the reward catalog routes. Writes are Admin only.
func SetupRewardRoutes(authenticatedGroup *gin.RouterGroup, rewardHandler *handlers.RewardHandler) {
	rewardRoutes := authenticatedGroup.Group("/rewards")
	{
		rewardRoutes.GET("/active", staff, rewardHandler.GetActiveRewards)
		rewardRoutes.GET("", staff, rewardHandler.GetRewards)
		rewardRoutes.GET("/:id", staff, rewardHandler.GetRewardByID)

		rewardRoutes.POST("", adminOnly, rewardHandler.CreateReward)
		rewardRoutes.PUT("/:id", adminOnly, rewardHandler.UpdateReward)
		rewardRoutes.POST("/:id/deactivate", adminOnly, rewardHandler.DeactivateReward)
		rewardRoutes.DELETE("/:id", adminOnly, rewardHandler.DeleteReward)
	}
}

// SetupMenuRoutes sets up the service menu routes. Writes are Admin only.
func SetupMenuRoutes(authenticatedGroup *gin.RouterGroup, menuHandler *handlers.MenuHandler) {
	menuRoutes := authenticatedGroup.Group("/services")
	{
		menuRoutes.GET("", staff, menuHandler.GetServices)
		menuRoutes.GET("/:id", staff, menuHandler.GetServiceByID)

		menuRoutes.POST("", adminOnly, menuHandler.CreateService)
		menuRoutes.PUT("/:id", adminOnly, menuHandler.UpdateService)
		menuRoutes.POST("/:id/deactivate", adminOnly, menuHandler.DeactivateService)
	}
}

// SetupBarberRoutes sets up the barber routes.
// Note: RoleAuthMiddleware is applied per route so barbers can read their own profile.
func SetupBarberRoutes(authenticatedGroup *gin.RouterGroup, barberHandler *handlers.BarberHandler) {
	barberRoutes := authenticatedGroup.Group("/barbers")
	{
		barberRoutes.GET("/me", staff, barberHandler.GetMyBarberProfile)
		barberRoutes.GET("", staff, barberHandler.GetBarbers)
		barberRoutes.GET("/:id", staff, barberHandler.GetBarberByID)

		barberRoutes.POST("", adminOnly, barberHandler.CreateBarber)
		barberRoutes.PUT("/:id", adminOnly, barberHandler.UpdateBarber)
	}
}

// SetupReportRoutes sets up the report routes.
func SetupReportRoutes(authenticatedGroup *gin.RouterGroup, reportHandler *handlers.ReportHandler) {
	reportRoutes := authenticatedGroup.Group("/reports")
	reportRoutes.Use(adminOnly)
	{
		reportRoutes.GET("/loyalty-summary", reportHandler.GetLoyaltySummary)
		reportRoutes.GET("/reward-popularity", reportHandler.GetRewardPopularity)
	}
}
