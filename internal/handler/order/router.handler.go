package order

import (
	"go-checkout/internal/pkg/middleware"

	"github.com/gin-gonic/gin"
)

func (h *Handler) NewRoutes(e *gin.RouterGroup) {
	orders := e.Group("/v1/orders")

	orders.GET("/stream", h.Stream)
	orders.GET("/:order_id/receipt", middleware.AuthMiddleware(), h.Receipt)
}
