package handlers

import (
	"net/http"

	"gym_sales_backend/internal/models"
	"gym_sales_backend/internal/services"
	"gym_sales_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// InventoryMovementHandler holds the inventory movement service.
type InventoryMovementHandler struct {
	movementService services.InventoryMovementService
}

// NewInventoryMovementHandler creates a new InventoryMovementHandler.
func NewInventoryMovementHandler(ims services.InventoryMovementService) *InventoryMovementHandler {
	return &InventoryMovementHandler{movementService: ims}
}

// GetInventoryMovements handles fetching inventory movements with filters.
func (h *InventoryMovementHandler) GetInventoryMovements(c *gin.Context) {
	gymID, _, ok := requireIdentity(c)
	if !ok {
		return
	}

	var filters models.MovementFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	movements, total, err := h.movementService.ListMovements(c.Request.Context(), gymID, filters)
	if err != nil {
		utils.LogError(err, "GetInventoryMovements: Error from movementService.ListMovements")
		utils.RespondInternalError(c, "Failed to retrieve inventory movements.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": movements, "total": total})
}
