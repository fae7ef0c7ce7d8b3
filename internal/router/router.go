package router

import (
	"time"

	"gym_sales_backend/internal/handlers"
	"gym_sales_backend/internal/middleware"
	"gym_sales_backend/internal/repositories"
	"gym_sales_backend/internal/services"
	"gym_sales_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Roles known to the HTTP layer.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleStaff   = "staff"
)

// Dependencies are the process-wide collaborators the routes are built from.
type Dependencies struct {
	Store                 repositories.TxRunner
	Tokens                *utils.TokenManager
	BusinessLocation      *time.Location
	SaleNumberMaxAttempts int
}

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, deps Dependencies) {
	// Initialize Services
	authService := services.NewAuthService(deps.Store, deps.Tokens)
	saleService := services.NewSaleService(deps.Store, deps.BusinessLocation, deps.SaleNumberMaxAttempts)
	movementService := services.NewInventoryMovementService(deps.Store)

	// Initialize Handlers
	authHandler := handlers.NewAuthHandler(authService)
	saleHandler := handlers.NewSaleHandler(saleService)
	movementHandler := handlers.NewInventoryMovementHandler(movementService)

	engine.GET("/healthz", handlers.HealthCheck(deps.Store))

	apiV1 := engine.Group("/api/v1")
	SetupPublicAuthRoutes(apiV1.Group("/auth"), authHandler)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware(deps.Tokens))
	{
		SetupAuthenticatedAuthRoutes(authenticated.Group("/auth"), authHandler)
		SetupSaleRoutes(authenticated, saleHandler)
		SetupInventoryMovementRoutes(authenticated, movementHandler)
	}
}

// SetupPublicAuthRoutes registers the routes reachable without a token.
func SetupPublicAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.POST("/login", authHandler.LoginUser)
}

// SetupAuthenticatedAuthRoutes registers the auth routes that need a token.
func SetupAuthenticatedAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.GET("/me", authHandler.GetCurrentUser)
}
