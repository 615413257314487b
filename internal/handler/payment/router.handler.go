package payment

import (
	"go-checkout/internal/pkg/middleware"

	"github.com/gin-gonic/gin"
)

func (h *Handler) NewRoutes(e *gin.RouterGroup) {
	payments := e.Group("/v1/payments")

	payments.POST("/callback", h.GatewayCallback)
	payments.GET("/cards", middleware.AuthMiddleware(), h.ListCards)
}
