package router

import (
	"gym_sales_backend/internal/handlers"
	"gym_sales_backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupSaleRoutes sets up the sale routes. Deleting a sale is limited to managers.
func SetupSaleRoutes(authenticatedGroup *gin.RouterGroup, saleHandler *handlers.SaleHandler) {
	saleRoutes := authenticatedGroup.Group("/sales")
	saleRoutes.Use(middleware.RoleAuthMiddleware(RoleAdmin, RoleManager, RoleStaff))
	{
		saleRoutes.POST("", saleHandler.CreateSale)
		saleRoutes.GET("", saleHandler.GetSales)
		saleRoutes.GET("/:id", saleHandler.GetSaleByID)
		saleRoutes.PATCH("/:id", saleHandler.UpdateSale)
		saleRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(RoleAdmin, RoleManager), saleHandler.DeleteSale)
	}
}

// SetupInventoryMovementRoutes sets up the inventory movement routes.
func SetupInventoryMovementRoutes(authenticatedGroup *gin.RouterGroup, movementHandler *handlers.InventoryMovementHandler) {
	movementRoutes := authenticatedGroup.Group("/inventory-movements")
	movementRoutes.Use(middleware.RoleAuthMiddleware(RoleAdmin, RoleManager))
	{
		movementRoutes.GET("", movementHandler.GetInventoryMovements)
	}
}
