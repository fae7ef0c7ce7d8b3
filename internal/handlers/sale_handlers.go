package handlers

import (
	"errors"
	"net/http"

	"gym_sales_backend/internal/models"
	"gym_sales_backend/internal/services"
	"gym_sales_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// SaleHandler holds the sale service.
type SaleHandler struct {
	saleService services.SaleService
}

// NewSaleHandler creates a new SaleHandler.
func NewSaleHandler(ss services.SaleService) *SaleHandler {
	return &SaleHandler{saleService: ss}
}

// CreateSale records a sale with its items and moves stock accordingly.
func (h *SaleHandler) CreateSale(c *gin.Context) {
	gymID, userID, ok := requireIdentity(c)
	if !ok {
		return
	}

	var req services.CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogWarn("CreateSale: Failed to bind JSON", map[string]interface{}{"error": err.Error()})
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	sale, err := h.saleService.CreateSale(c.Request.Context(), gymID, userID, req)
	if err != nil {
		respondSaleError(c, err, "Failed to create sale.")
		return
	}
	c.JSON(http.StatusCreated, sale)
}

// GetSales lists the gym's active sales.
func (h *SaleHandler) GetSales(c *gin.Context) {
	gymID, _, ok := requireIdentity(c)
	if !ok {
		return
	}

	var filters models.SaleFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	sales, total, err := h.saleService.ListSales(c.Request.Context(), gymID, filters)
	if err != nil {
		respondSaleError(c, err, "Failed to retrieve sales.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": sales, "total": total})
}

// GetSaleByID returns one active sale with its items.
func (h *SaleHandler) GetSaleByID(c *gin.Context) {
	gymID, _, ok := requireIdentity(c)
	if !ok {
		return
	}
	saleID, ok := pathID(c, "id")
	if !ok {
		return
	}

	sale, err := h.saleService.GetSale(c.Request.Context(), gymID, saleID)
	if err != nil {
		respondSaleError(c, err, "Failed to retrieve sale.")
		return
	}
	c.JSON(http.StatusOK, sale)
}

// UpdateSale changes customer, notes or payment status of a sale.
func (h *SaleHandler) UpdateSale(c *gin.Context) {
	gymID, _, ok := requireIdentity(c)
	if !ok {
		return
	}
	saleID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	sale, err := h.saleService.UpdateSale(c.Request.Context(), gymID, saleID, req)
	if err != nil {
		respondSaleError(c, err, "Failed to update sale.")
		return
	}
	c.JSON(http.StatusOK, sale)
}

// DeleteSale soft-deletes a sale and puts its stock back.
func (h *SaleHandler) DeleteSale(c *gin.Context) {
	gymID, userID, ok := requireIdentity(c)
	if !ok {
		return
	}
	saleID, ok := pathID(c, "id")
	if !ok {
		return
	}

	sale, err := h.saleService.DeleteSale(c.Request.Context(), gymID, userID, saleID)
	if err != nil {
		respondSaleError(c, err, "Failed to delete sale.")
		return
	}
	c.JSON(http.StatusOK, sale)
}

func respondSaleError(c *gin.Context, err error, fallback string) {
	var verr *services.SaleValidationError
	switch {
	case errors.As(err, &verr):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
			"One or more sale items are invalid.", verr.Error()).WithProblems(verr.Problems))
	case errors.Is(err, services.ErrSaleNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Sale not found.", err.Error()))
	case errors.Is(err, services.ErrPaymentMethodNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Payment method not found or disabled.", err.Error()))
	case errors.Is(err, services.ErrClientNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Client not found.", err.Error()))
	case errors.Is(err, services.ErrInvalidPaymentStatus), errors.Is(err, services.ErrInvalidSaleFilter):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), ""))
	case errors.Is(err, services.ErrSaleNumberConflict), errors.Is(err, services.ErrSaleNumberExhausted):
		utils.LogWarn(fallback, map[string]interface{}{"error": err.Error()})
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Could not assign a sale number, please retry.", err.Error()))
	default:
		utils.LogError(err, fallback, map[string]interface{}{"path": c.FullPath()})
		utils.RespondInternalError(c, fallback)
	}
}
