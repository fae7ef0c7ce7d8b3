package handlers

import (
	"context"
	"net/http"
	"time"

	"gym_sales_backend/internal/middleware"
	"gym_sales_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// requireIdentity reads the authenticated gym and user, answering 401 when absent.
func requireIdentity(c *gin.Context) (gymID, userID int64, ok bool) {
	gymID, userID, ok = middleware.Identity(c)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not authenticated.", "Missing identity in context"))
	}
	return gymID, userID, ok
}

// pathID parses a positive integer path parameter, answering 400 when it is not one.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, ok := utils.ParsePositiveInt64(c.Param(name))
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid "+name+" format.", name+" must be a positive integer"))
	}
	return id, ok
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck answers 200 when the store responds within two seconds.
func HealthCheck(store Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			utils.LogError(err, "HealthCheck: store ping failed")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusServiceUnavailable, utils.ErrCodeServiceUnavailable, "Store unavailable", ""))
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
