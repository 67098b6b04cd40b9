package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/banquito-core-processor/internal/api/handler"
	"github.com/banquito-core-processor/internal/api/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	transactionHandler *handler.TransactionHandler,
	recordHandler *handler.TransactionRecordHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	v1 := r.Group("/api/v1/core")
	{
		transactions := v1.Group("/transactions")
		{
			transactions.POST("", transactionHandler.Process)
			transactions.GET("/:code", recordHandler.GetByUniqueCode)
		}

		v1.POST("/card-debits", transactionHandler.ProcessCardDebit)
		v1.POST("/merchant-credits", transactionHandler.ProcessMerchantCredit)

		v1.GET("/banks/:swift/transactions", recordHandler.GetByBankSwift)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
