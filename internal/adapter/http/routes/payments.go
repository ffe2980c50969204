package routes

import (
	"net/http"

	"payment_binder/internal/adapter/http/handlers"

	"github.com/gin-gonic/gin"
)

const (
	PathPing     = "/ping"
	PathPayments = "/payments"
	PathWebhooks = "/webhooks"
)

func addPingRoutes(rg *gin.RouterGroup) {
	rg.GET(PathPing, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
}

func addPaymentRoutes(rg *gin.RouterGroup, h *handlers.PaymentHandler) {
	payments := rg.Group(PathPayments)
	{
		payments.GET("/providers", h.ListProviders)
		payments.GET("/idempotency/:key", h.GetIdempotencyRecord)
		payments.POST("/:provider", h.CreatePayment)
		payments.GET("/:provider/transactions/:id", h.GetTransaction)
	}
}

func addWebhookRoutes(rg *gin.RouterGroup, h *handlers.WebhookHandler) {
	rg.POST(PathWebhooks+"/:provider", h.ReceiveWebhook)
}
